// Package transport carries outbound replies back to the messaging bridge.
//
// The bridge is the external process that actually speaks to the messaging
// network; it delivers inbound traffic to our webhook and accepts outbound
// messages on its own HTTP endpoint. Delivery is best-effort by contract:
// errors are returned for the caller to log, never to block a dialogue turn.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPReplier posts replies to the bridge's outbound endpoint as
//
//	POST <url>
//	{"conversation_id": "...", "text": "..."}
type HTTPReplier struct {
	url    string
	client *http.Client
}

// NewHTTPReplier constructs an HTTPReplier targeting the given URL.
func NewHTTPReplier(url string, timeout time.Duration) *HTTPReplier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPReplier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send delivers one reply to the bridge.
func (r *HTTPReplier) Send(ctx context.Context, conversationID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"conversation_id": conversationID,
		"text":            text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("transport: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogReplier writes replies to the log instead of a bridge. It is the
// development fallback when no outbound URL is configured.
type LogReplier struct {
	Log zerolog.Logger
}

// Send logs the reply and always succeeds.
func (r LogReplier) Send(_ context.Context, conversationID, text string) error {
	r.Log.Info().
		Str("conversation_id", conversationID).
		Str("text", text).
		Msg("outbound reply (no transport bridge configured)")
	return nil
}
