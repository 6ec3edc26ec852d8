// Package booking implements the capacity ledger: the authoritative,
// process-wide record of trial-class bookings per unit, date, and time slot.
//
// The ledger enforces per-slot capacity for units that configure one and
// keeps bookings in insertion order per (unit, date), which doubles as the
// display order and the order operator cancel-by-index commands act on.
//
// All methods are safe for concurrent use; AddIfCapacity performs the
// capacity check and the insert under a single lock acquisition so that two
// racing completions for the last open seat cannot both succeed.
package booking

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arenalk/bookingbot/internal/domain"
)

// Ledger errors returned by cancel operations.
var (
	// ErrBookingNotFound indicates no booking matched the given index or
	// name substring for the requested unit and date.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrUnknownUnit is returned for units without a configured policy.
	ErrUnknownUnit = errors.New("unknown unit")
)

// UnitPolicy describes a unit's scheduling behavior.
//
// MaxPerSlot == 0 means unbounded: any HH:MM time is accepted and capacity
// checks always pass. When MaxPerSlot > 0, Slots enumerates the only
// bookable times and the count of bookings sharing (date, time) may never
// exceed MaxPerSlot.
type UnitPolicy struct {
	MaxPerSlot int
	Slots      []string
}

// Bounded reports whether the policy limits seats per slot.
func (p UnitPolicy) Bounded() bool { return p.MaxPerSlot > 0 }

// Ledger is the single source of truth for bookings. No other component may
// mutate booking records directly.
type Ledger struct {
	mu       sync.Mutex
	policies map[domain.Unit]UnitPolicy
	// dates maps unit -> date -> bookings in insertion order.
	dates map[domain.Unit]map[string][]domain.Booking
	seq   int64

	// Now is the timestamp source for new bookings; tests may override it.
	Now func() time.Time
}

// NewLedger constructs an empty ledger with the given per-unit policies.
func NewLedger(policies map[domain.Unit]UnitPolicy) *Ledger {
	l := &Ledger{
		policies: policies,
		dates:    make(map[domain.Unit]map[string][]domain.Booking),
		Now:      time.Now,
	}
	for u := range policies {
		l.dates[u] = make(map[string][]domain.Booking)
	}
	return l
}

// DefaultPolicies returns the production unit configuration: Recreio with a
// fixed trial-slot list and per-slot seat cap, Bangu unbounded.
func DefaultPolicies(recreioMax int, recreioSlots []string) map[domain.Unit]UnitPolicy {
	return map[domain.Unit]UnitPolicy{
		domain.UnitRecreio: {MaxPerSlot: recreioMax, Slots: recreioSlots},
		domain.UnitBangu:   {},
	}
}

// Policy returns the configured policy for a unit.
func (l *Ledger) Policy(unit domain.Unit) (UnitPolicy, bool) {
	p, ok := l.policies[unit]
	return p, ok
}

// HasCapacity reports whether (unit, date, time) can take one more booking.
// Units without a configured per-slot maximum always have capacity.
func (l *Ledger) HasCapacity(unit domain.Unit, date, timeSlot string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasCapacityLocked(unit, date, timeSlot)
}

func (l *Ledger) hasCapacityLocked(unit domain.Unit, date, timeSlot string) bool {
	p, ok := l.policies[unit]
	if !ok {
		return false
	}
	if !p.Bounded() {
		return true
	}
	n := 0
	for _, b := range l.dates[unit][date] {
		if b.Time == timeSlot {
			n++
		}
	}
	return n < p.MaxPerSlot
}

// AvailableSlots lists the configured slots of a bounded unit that still
// have spare capacity on date, in configuration order. For unbounded units
// it returns nil: every time is available.
func (l *Ledger) AvailableSlots(unit domain.Unit, date string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.policies[unit]
	if !ok || !p.Bounded() {
		return nil
	}
	var out []string
	for _, s := range p.Slots {
		if l.hasCapacityLocked(unit, date, s) {
			out = append(out, s)
		}
	}
	return out
}

// Add records a booking without re-checking capacity. Callers that need the
// capacity guarantee must use AddIfCapacity; Add exists for bookkeeping
// paths (unbounded units, snapshot restore tooling) where the check is moot.
func (l *Ledger) Add(unit domain.Unit, date, timeSlot, name, phone, companion string) domain.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addLocked(unit, date, timeSlot, name, phone, companion)
}

// AddIfCapacity atomically checks capacity and inserts. The returned bool is
// false when the slot is already full, in which case no booking is written.
// Holding one lock across check and insert is what makes the last-seat race
// resolve to exactly one winner.
func (l *Ledger) AddIfCapacity(unit domain.Unit, date, timeSlot, name, phone, companion string) (domain.Booking, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasCapacityLocked(unit, date, timeSlot) {
		return domain.Booking{}, false
	}
	return l.addLocked(unit, date, timeSlot, name, phone, companion), true
}

func (l *Ledger) addLocked(unit domain.Unit, date, timeSlot, name, phone, companion string) domain.Booking {
	l.seq++
	b := domain.Booking{
		ID:        uuid.NewString(),
		Unit:      unit,
		Date:      date,
		Time:      timeSlot,
		Name:      name,
		Phone:     phone,
		Companion: companion,
		Seq:       l.seq,
		CreatedAt: l.Now(),
	}
	if l.dates[unit] == nil {
		l.dates[unit] = make(map[string][]domain.Booking)
	}
	l.dates[unit][date] = append(l.dates[unit][date], b)
	return b
}

// List returns the bookings for (unit, date) in insertion order. The result
// is a copy; callers may not mutate ledger state through it.
func (l *Ledger) List(unit domain.Unit, date string) []domain.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.dates[unit][date]
	out := make([]domain.Booking, len(src))
	copy(out, src)
	return out
}

// CancelByIndex removes the booking at the given zero-based position in
// insertion order for (unit, date) and returns it.
func (l *Ledger) CancelByIndex(unit domain.Unit, date string, index int) (domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := l.dates[unit][date]
	if index < 0 || index >= len(list) {
		return domain.Booking{}, ErrBookingNotFound
	}
	b := list[index]
	l.dates[unit][date] = append(list[:index], list[index+1:]...)
	return b, nil
}

// CancelByName removes the first booking (insertion order) whose requester
// name contains the given substring, case-insensitively, and returns it.
func (l *Ledger) CancelByName(unit domain.Unit, date, nameSub string) (domain.Booking, error) {
	needle := strings.ToLower(nameSub)
	l.mu.Lock()
	defer l.mu.Unlock()
	list := l.dates[unit][date]
	for i, b := range list {
		if strings.Contains(strings.ToLower(b.Name), needle) {
			l.dates[unit][date] = append(list[:i], list[i+1:]...)
			return b, nil
		}
	}
	return domain.Booking{}, ErrBookingNotFound
}

// ResetDate drops every booking for (unit, date) and returns how many were
// removed.
func (l *Ledger) ResetDate(unit domain.Unit, date string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.dates[unit][date])
	delete(l.dates[unit], date)
	return n
}

// CountForDate returns the total bookings for (unit, date); used by the
// operator report.
func (l *Ledger) CountForDate(unit domain.Unit, date string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dates[unit][date])
}

// Snapshot returns every booking across all units and dates, ordered by
// insertion sequence. This is the durable-persistence contract: the saver
// writes the snapshot, Restore rebuilds the ledger from it at startup.
func (l *Ledger) Snapshot() []domain.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Booking
	for _, byDate := range l.dates {
		for _, list := range byDate {
			out = append(out, list...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Restore replaces the ledger contents with the given bookings, preserving
// their stored sequence for ordering. Bookings for unknown units are kept;
// they become visible again if the unit is re-configured.
func (l *Ledger) Restore(bookings []domain.Booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dates = make(map[domain.Unit]map[string][]domain.Booking)
	for u := range l.policies {
		l.dates[u] = make(map[string][]domain.Booking)
	}
	sorted := make([]domain.Booking, len(bookings))
	copy(sorted, bookings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })
	for _, b := range sorted {
		if l.dates[b.Unit] == nil {
			l.dates[b.Unit] = make(map[string][]domain.Booking)
		}
		l.dates[b.Unit][b.Date] = append(l.dates[b.Unit][b.Date], b)
		if b.Seq > l.seq {
			l.seq = b.Seq
		}
	}
}
