package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arenalk/bookingbot/internal/domain"
)

func testBooking() domain.Booking {
	return domain.Booking{
		ID:        "b-123",
		Unit:      domain.UnitRecreio,
		Date:      "2026-09-10",
		Time:      "18:30",
		Name:      "Ana Souza",
		Phone:     "(21) 99999-8888",
		Companion: "Bruno Lima",
	}
}

func TestTelegramNotifyBooking(t *testing.T) {
	var gotPath string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("body not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegram(map[domain.Unit]UnitTarget{
		domain.UnitRecreio: {Token: "tok-recreio", ChatID: "42"},
	})
	n.baseURL = srv.URL

	if err := n.NotifyBooking(context.Background(), testBooking()); err != nil {
		t.Fatalf("NotifyBooking: %v", err)
	}
	if gotPath != "/bottok-recreio/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if got["chat_id"] != "42" {
		t.Errorf("chat_id = %q", got["chat_id"])
	}
	if got["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %q", got["parse_mode"])
	}
	// The header names the unit in uppercase, not the raw enum value.
	if !strings.Contains(got["text"], "Nova Reserva Experimental - RECREIO") {
		t.Errorf("text missing uppercased unit header: %q", got["text"])
	}
	for _, want := range []string{"Ana Souza", "(21) 99999-8888", "2026-09-10", "18:30", "Bruno Lima", "b-123"} {
		if !strings.Contains(got["text"], want) {
			t.Errorf("text missing %q: %q", want, got["text"])
		}
	}
}

func TestTelegramOmitsEmptyCompanion(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegram(map[domain.Unit]UnitTarget{
		domain.UnitRecreio: {Token: "tok", ChatID: "1"},
	})
	n.baseURL = srv.URL

	b := testBooking()
	b.Companion = ""
	if err := n.NotifyBooking(context.Background(), b); err != nil {
		t.Fatalf("NotifyBooking: %v", err)
	}
	if strings.Contains(got["text"], "Acompanhante") {
		t.Errorf("text should omit companion line: %q", got["text"])
	}
}

func TestTelegramSkipsUnconfiguredUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for an unconfigured unit")
	}))
	defer srv.Close()

	n := NewTelegram(map[domain.Unit]UnitTarget{
		domain.UnitBangu: {Token: "tok", ChatID: "1"},
	})
	n.baseURL = srv.URL

	if err := n.NotifyBooking(context.Background(), testBooking()); err != nil {
		t.Fatalf("NotifyBooking: %v", err)
	}
}

func TestTelegramNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewTelegram(map[domain.Unit]UnitTarget{
		domain.UnitRecreio: {Token: "tok", ChatID: "1"},
	})
	n.baseURL = srv.URL

	if err := n.NotifyBooking(context.Background(), testBooking()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestNoopNotifier(t *testing.T) {
	if err := (Noop{}).NotifyBooking(context.Background(), testBooking()); err != nil {
		t.Fatalf("Noop.NotifyBooking: %v", err)
	}
}
