// Package notify delivers best-effort staff notifications for new bookings.
//
// The production implementation posts to the Telegram Bot API over plain
// HTTP. Delivery is best-effort by contract: errors are returned for the
// caller to log, never to fail the booking that triggered them. An
// unconfigured notifier is a normal state, represented by Noop.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arenalk/bookingbot/internal/domain"
)

// UnitTarget is the Telegram destination for one unit's notifications.
type UnitTarget struct {
	Token  string
	ChatID string
}

// Telegram posts booking summaries to a per-unit Telegram chat.
type Telegram struct {
	targets map[domain.Unit]UnitTarget
	client  *http.Client
	baseURL string
}

// NewTelegram constructs a Telegram notifier. Units without a configured
// target are skipped silently at send time.
func NewTelegram(targets map[domain.Unit]UnitTarget) *Telegram {
	return &Telegram{
		targets: targets,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.telegram.org",
	}
}

// NotifyBooking sends the booking summary to the unit's configured chat.
func (t *Telegram) NotifyBooking(ctx context.Context, b domain.Booking) error {
	target, ok := t.targets[b.Unit]
	if !ok || target.Token == "" || target.ChatID == "" {
		return nil
	}

	text := fmt.Sprintf("🎯 *Nova Reserva Experimental - %s*\n\n", strings.ToUpper(string(b.Unit)))
	text += fmt.Sprintf("👤 *Nome:* %s\n", b.Name)
	text += fmt.Sprintf("📱 *Telefone:* %s\n", b.Phone)
	text += fmt.Sprintf("📅 *Data:* %s\n", b.Date)
	text += fmt.Sprintf("⏰ *Horário:* %s\n", b.Time)
	if b.Companion != "" {
		text += fmt.Sprintf("👥 *Acompanhante:* %s\n", b.Companion)
	}
	text += fmt.Sprintf("\n🔢 *ID:* %s", b.ID)

	payload, err := json.Marshal(map[string]string{
		"chat_id":    target.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, target.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Noop is the notifier used when no notification channel is configured.
type Noop struct{}

// NotifyBooking does nothing and always succeeds.
func (Noop) NotifyBooking(context.Context, domain.Booking) error { return nil }
