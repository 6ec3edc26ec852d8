// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the operator-facing admin API. It exposes the booking
// ledger (list, cancel, reset), the daily report, and manual reactivation of
// paused conversations. The endpoints are intended for a trusted operator
// console, not for end users; authentication is expected to happen at the
// reverse proxy.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenalk/bookingbot/internal/booking"
	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/gate"
	"github.com/arenalk/bookingbot/internal/observability"
)

// AdminHandler serves the booking ledger and the daily report to operators.
type AdminHandler struct {
	Ledger   *booking.Ledger
	Gate     *gate.Gate
	Counters *observability.Counters

	// Today returns the report date in YYYY-MM-DD form. Injectable for tests.
	Today func() string
}

// NewAdminHandler wires the admin endpoints.
func NewAdminHandler(l *booking.Ledger, g *gate.Gate, c *observability.Counters) *AdminHandler {
	return &AdminHandler{
		Ledger:   l,
		Gate:     g,
		Counters: c,
		Today:    func() string { return time.Now().Format("2006-01-02") },
	}
}

// BookingEntry is one row of a booking listing. Index is 1-based so the
// operator can quote it back in a cancel call.
type BookingEntry struct {
	Index     int    `json:"index"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Companion string `json:"companion,omitempty"`
}

// BookingList is the response for GET /bookings.
type BookingList struct {
	Unit     string         `json:"unit"`
	Date     string         `json:"date"`
	Count    int            `json:"count"`
	Bookings []BookingEntry `json:"bookings"`
}

// Report is the response for GET /report.
type Report struct {
	Date                string                 `json:"date"`
	Counters            observability.Snapshot `json:"counters"`
	PausedConversations int                    `json:"paused_conversations"`
	BookingsToday       map[string]int         `json:"bookings_today"`
}

// ListBookings handles GET /bookings?unit=<unit>&date=<YYYY-MM-DD>.
// date defaults to today.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	unit, date, okParams := h.unitAndDate(c)
	if !okParams {
		return
	}
	list := h.Ledger.List(unit, date)
	entries := make([]BookingEntry, 0, len(list))
	for i, b := range list {
		entries = append(entries, BookingEntry{
			Index:     i + 1,
			Time:      b.Time,
			Name:      b.Name,
			Phone:     b.Phone,
			Companion: b.Companion,
		})
	}
	ok(c, http.StatusOK, BookingList{
		Unit:     string(unit),
		Date:     date,
		Count:    len(entries),
		Bookings: entries,
	})
}

// CancelBooking handles DELETE /bookings?unit=&date=&index=<1-based> and
// DELETE /bookings?unit=&date=&name=<substring>. Exactly one of index or
// name must be given; name matches case-insensitively against the requester
// name and removes the first hit.
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	unit, date, okParams := h.unitAndDate(c)
	if !okParams {
		return
	}

	idxStr := c.Query("index")
	name := c.Query("name")
	if (idxStr == "") == (name == "") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "provide exactly one of index or name")
		return
	}

	var (
		removed domain.Booking
		err     error
	)
	if idxStr != "" {
		idx, convErr := strconv.Atoi(idxStr)
		if convErr != nil || idx < 1 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "index must be a positive integer")
			return
		}
		removed, err = h.Ledger.CancelByIndex(unit, date, idx-1)
	} else {
		removed, err = h.Ledger.CancelByName(unit, date, name)
	}
	if errors.Is(err, booking.ErrBookingNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no matching booking")
		return
	}
	ok(c, http.StatusOK, gin.H{"removed": removed})
}

// ResetDate handles POST /bookings/reset?unit=&date= and drops every booking
// for that unit and date.
func (h *AdminHandler) ResetDate(c *gin.Context) {
	unit, date, okParams := h.unitAndDate(c)
	if !okParams {
		return
	}
	n := h.Ledger.ResetDate(unit, date)
	ok(c, http.StatusOK, gin.H{"removed": n})
}

// GetReport handles GET /report: today's traffic counters, the number of
// currently paused conversations, and per-unit booking totals for today.
func (h *AdminHandler) GetReport(c *gin.Context) {
	today := h.Today()
	ok(c, http.StatusOK, Report{
		Date:                today,
		Counters:            h.Counters.Snapshot(),
		PausedConversations: h.Gate.PausedCount(),
		BookingsToday: map[string]int{
			string(domain.UnitRecreio): h.Ledger.CountForDate(domain.UnitRecreio, today),
			string(domain.UnitBangu):   h.Ledger.CountForDate(domain.UnitBangu, today),
		},
	})
}

// Reactivate handles POST /conversations/:id/reactivate. It lifts a pause
// placed by a human takeover or a user request, so the bot answers the
// conversation again immediately.
func (h *AdminHandler) Reactivate(c *gin.Context) {
	id := c.Param("id")
	if !h.Gate.Resume(id) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation is not paused")
		return
	}
	noContent(c)
}

// unitAndDate extracts and validates the unit and date query parameters,
// writing the error response itself when validation fails.
func (h *AdminHandler) unitAndDate(c *gin.Context) (domain.Unit, string, bool) {
	unit := domain.Unit(c.Query("unit"))
	if !unit.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeInvalidUnit, "unknown unit "+strconv.Quote(c.Query("unit")))
		return "", "", false
	}
	date := c.Query("date")
	if date == "" {
		date = h.Today()
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidDate, "date must be YYYY-MM-DD")
		return "", "", false
	}
	return unit, date, true
}
