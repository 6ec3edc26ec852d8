// Package gate implements the admission control layer that runs before the
// dialogue engine for every inbound event: a fixed-window per-sender rate
// limiter and the per-conversation pause tracker behind the human-takeover
// mechanism.
//
// The rate limiter here is deliberately not the token bucket used at the
// HTTP edge (internal/http/middleware): the dialogue contract is a message
// count per fixed window with a reseed-on-expiry cycle, and the user gets a
// single notice per denied attempt.
//
// Pause timers are cancel/replace handles from the injected clock, so a
// second human message while already paused re-arms the single removal task
// instead of stacking a stale one.
package gate

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenalk/bookingbot/internal/clock"
	"github.com/arenalk/bookingbot/internal/domain"
)

// Reason explains an admission decision.
type Reason string

const (
	// ReasonOK: the event may reach the dialogue engine.
	ReasonOK Reason = "ok"
	// ReasonRateLimited: the sender exceeded the message window; the caller
	// must send exactly one notice for this attempt.
	ReasonRateLimited Reason = "rate_limited"
	// ReasonPaused: the conversation is paused; the caller stays silent.
	ReasonPaused Reason = "paused"
	// ReasonTakeover: a human agent replied from the bot's own account; the
	// caller swallows the event entirely.
	ReasonTakeover Reason = "human_takeover"
)

// Decision is the outcome of Admit for one inbound event.
type Decision struct {
	Allow  bool
	Reason Reason
	// Reactivated is set when this event's text was a reactivation keyword
	// and the pause was lifted; the caller should reply with the main menu.
	Reactivated bool
}

// Config tunes the gate's windows and delays.
type Config struct {
	// MaxMessages is the per-sender message budget within Window.
	MaxMessages int
	// Window is the fixed rate-limit window length.
	Window time.Duration
	// PauseDuration is how long a pause lasts before automatic removal.
	PauseDuration time.Duration
	// ReactivateKeywords are the literal inputs (case-insensitive) that lift
	// a pause; the first one is also the menu-return keyword.
	ReactivateKeywords []string
}

type window struct {
	count   int
	resetAt time.Time
}

type pauseRecord struct {
	pausedAt time.Time
	reason   domain.PauseReason
	timer    clock.Timer
}

// Gate tracks rate-limit windows per sender and pause records per
// conversation. It is safe for concurrent use.
type Gate struct {
	cfg Config
	clk clock.Clock
	log zerolog.Logger

	mu      sync.Mutex
	windows map[string]*window
	pauses  map[string]*pauseRecord

	// gcN counts allowRate lookups; every windowGCEvery lookups the expired
	// windows are swept so the map stays bounded by active senders.
	gcN uint64
}

// windowGCEvery is the lookup interval between opportunistic sweeps of
// expired rate windows.
const windowGCEvery = 1000

// New constructs a Gate with the given configuration and clock.
func New(cfg Config, clk clock.Clock, log zerolog.Logger) *Gate {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.PauseDuration <= 0 {
		cfg.PauseDuration = 30 * time.Minute
	}
	return &Gate{
		cfg:     cfg,
		clk:     clk,
		log:     log,
		windows: make(map[string]*window),
		pauses:  make(map[string]*pauseRecord),
	}
}

// Admit decides whether the dialogue engine may process an inbound event.
//
// Order of checks:
//  1. Self-side events (human agent on the bot's account) pause the
//     conversation and are swallowed.
//  2. A paused conversation stays silent unless the text is a reactivation
//     keyword, which lifts the pause and allows the event through.
//  3. The sender's fixed window is reseeded or incremented; exceeding the
//     budget denies with ReasonRateLimited.
func (g *Gate) Admit(senderID, conversationID, text string, fromSelf bool) Decision {
	if fromSelf {
		g.Pause(conversationID, domain.PauseHumanTakeover)
		return Decision{Allow: false, Reason: ReasonTakeover}
	}

	if g.IsPaused(conversationID) {
		if g.isReactivateKeyword(text) {
			g.Resume(conversationID)
			return Decision{Allow: true, Reason: ReasonOK, Reactivated: true}
		}
		return Decision{Allow: false, Reason: ReasonPaused}
	}

	if !g.allowRate(senderID) {
		return Decision{Allow: false, Reason: ReasonRateLimited}
	}
	return Decision{Allow: true, Reason: ReasonOK}
}

// Pause creates or refreshes the pause record for a conversation and
// (re)schedules its automatic removal. Refreshing replaces the pending
// removal timer; it never stacks a second one.
func (g *Gate) Pause(conversationID string, reason domain.PauseReason) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.pauses[conversationID]; ok && prev.timer != nil {
		prev.timer.Stop()
	}
	rec := &pauseRecord{pausedAt: g.clk.Now(), reason: reason}
	rec.timer = g.clk.AfterFunc(g.cfg.PauseDuration, func() {
		g.expire(conversationID, rec)
	})
	g.pauses[conversationID] = rec

	g.log.Info().
		Str("conversation_id", conversationID).
		Str("reason", string(reason)).
		Msg("conversation paused")
}

// expire removes a pause when its timer fires, but only if the record is
// still the one the timer was armed for (a refresh replaces the record).
func (g *Gate) expire(conversationID string, rec *pauseRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.pauses[conversationID]; ok && cur == rec {
		delete(g.pauses, conversationID)
		g.log.Info().Str("conversation_id", conversationID).Msg("conversation auto-reactivated")
	}
}

// Resume lifts a pause immediately. It reports whether a pause existed.
func (g *Gate) Resume(conversationID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.pauses[conversationID]
	if !ok {
		return false
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(g.pauses, conversationID)
	g.log.Info().Str("conversation_id", conversationID).Msg("conversation reactivated")
	return true
}

// IsPaused reports whether a conversation currently holds a pause record.
func (g *Gate) IsPaused(conversationID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pauses[conversationID]
	return ok
}

// PausedCount returns the number of currently paused conversations.
func (g *Gate) PausedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pauses)
}

// allowRate applies the fixed-window check for one sender: reseed when the
// window expired, otherwise count against the budget.
func (g *Gate) allowRate(senderID string) bool {
	now := g.clk.Now()
	g.mu.Lock()
	defer g.mu.Unlock()

	// Opportunistic sweep before the lookup so even the requested sender's
	// expired window is dropped rather than refreshed.
	g.gcN++
	if g.gcN >= windowGCEvery {
		for id, w := range g.windows {
			if now.After(w.resetAt) {
				delete(g.windows, id)
			}
		}
		g.gcN = 0
	}

	w, ok := g.windows[senderID]
	if !ok || now.After(w.resetAt) {
		g.windows[senderID] = &window{count: 1, resetAt: now.Add(g.cfg.Window)}
		return true
	}
	if w.count >= g.cfg.MaxMessages {
		return false
	}
	w.count++
	return true
}

func (g *Gate) isReactivateKeyword(text string) bool {
	t := strings.ToUpper(strings.TrimSpace(text))
	for _, k := range g.cfg.ReactivateKeywords {
		if t == strings.ToUpper(k) {
			return true
		}
	}
	return false
}
