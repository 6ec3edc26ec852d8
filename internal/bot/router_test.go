package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenalk/bookingbot/internal/booking"
	"github.com/arenalk/bookingbot/internal/clock"
	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/engine"
	"github.com/arenalk/bookingbot/internal/gate"
	"github.com/arenalk/bookingbot/internal/observability"
	"github.com/arenalk/bookingbot/internal/session"
)

type recordingReplier struct {
	mu    sync.Mutex
	sends []sentReply
	err   error
}

type sentReply struct {
	conversationID string
	text           string
}

func (r *recordingReplier) Send(_ context.Context, conversationID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, sentReply{conversationID, text})
	return r.err
}

func (r *recordingReplier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}

func (r *recordingReplier) last() sentReply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sends[len(r.sends)-1]
}

func newTestRouter(clk clock.Clock) (*Router, *recordingReplier, *gate.Gate) {
	ledger := booking.NewLedger(booking.DefaultPolicies(2, []string{"17:30", "18:30", "19:30"}))
	sessions := session.NewStore()
	counters := &observability.Counters{}
	g := gate.New(gate.Config{
		MaxMessages:        3,
		Window:             time.Minute,
		PauseDuration:      30 * time.Minute,
		ReactivateKeywords: []string{"MENU", "/reativar"},
	}, clk, zerolog.Nop())
	eng := engine.New(ledger, sessions, g, nil, counters, zerolog.Nop())
	replier := &recordingReplier{}
	return &Router{
		Gate:     g,
		Sessions: sessions,
		Engine:   eng,
		Replier:  replier,
		Counters: counters,
		Log:      zerolog.Nop(),
	}, replier, g
}

func event(sender, conv, text string) domain.Event {
	return domain.Event{SenderID: sender, ConversationID: conv, Text: text}
}

func TestInboundRepliesToConversation(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, _ := newTestRouter(clk)

	r.HandleInbound(context.Background(), event("user", "conv", "menu"))

	if replier.count() != 1 {
		t.Fatalf("sent %d replies, want 1", replier.count())
	}
	got := replier.last()
	if got.conversationID != "conv" {
		t.Fatalf("replied to %q, want conv", got.conversationID)
	}
	if !strings.Contains(got.text, "CT LK FUTEVÔLEI") {
		t.Fatalf("expected the main menu, got %q", got.text)
	}
	if n := r.Counters.Snapshot().MessagesReceived; n != 1 {
		t.Fatalf("MessagesReceived = %d, want 1", n)
	}
}

func TestEmptyTextIgnored(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, _ := newTestRouter(clk)

	r.HandleInbound(context.Background(), event("user", "conv", "   "))

	if replier.count() != 0 {
		t.Fatal("blank events must produce no reply")
	}
	if n := r.Counters.Snapshot().MessagesReceived; n != 0 {
		t.Fatalf("blank events must not count, got %d", n)
	}
}

func TestRateLimitNoticeSentOncePerDenial(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, _ := newTestRouter(clk)

	for i := 0; i < 3; i++ {
		r.HandleInbound(context.Background(), event("user", "conv", "menu"))
	}
	before := replier.count()

	r.HandleInbound(context.Background(), event("user", "conv", "menu"))

	if got := replier.count(); got != before+1 {
		t.Fatalf("denied turn sent %d replies, want exactly 1 notice", got-before)
	}
	if got := replier.last().text; got != engine.RateLimitNotice {
		t.Fatalf("expected the rate-limit notice, got %q", got)
	}
	if n := r.Counters.Snapshot().RateLimited; n != 1 {
		t.Fatalf("RateLimited = %d, want 1", n)
	}
}

func TestSelfEventPausesSilently(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, g := newTestRouter(clk)

	ev := event("agent", "conv", "Oi, vou assumir daqui")
	ev.FromSelf = true
	r.HandleInbound(context.Background(), ev)

	if replier.count() != 0 {
		t.Fatal("a human takeover must not trigger a bot reply")
	}
	if !g.IsPaused("conv") {
		t.Fatal("takeover must pause the conversation")
	}
	if n := r.Counters.Snapshot().HumanTakeovers; n != 1 {
		t.Fatalf("HumanTakeovers = %d, want 1", n)
	}
}

func TestPausedConversationStaysSilent(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, g := newTestRouter(clk)
	g.Pause("conv", domain.PauseHumanTakeover)

	r.HandleInbound(context.Background(), event("user", "conv", "tem alguém aí?"))

	if replier.count() != 0 {
		t.Fatal("paused conversations must stay silent for non-keywords")
	}
}

func TestReactivationKeywordYieldsSingleMenuReply(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, g := newTestRouter(clk)
	g.Pause("conv", domain.PauseHumanTakeover)

	r.HandleInbound(context.Background(), event("user", "conv", "/reativar"))

	if replier.count() != 1 {
		t.Fatalf("reactivation sent %d replies, want 1", replier.count())
	}
	if !strings.Contains(replier.last().text, "CT LK FUTEVÔLEI") {
		t.Fatalf("reactivation reply must be the main menu, got %q", replier.last().text)
	}
	if g.IsPaused("conv") {
		t.Fatal("pause must be lifted")
	}
}

func TestReactivationDiscardsStaleSession(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, _, g := newTestRouter(clk)

	// Mid-flow, then a takeover interrupts.
	r.HandleInbound(context.Background(), event("user", "conv", "4"))
	g.Pause("conv", domain.PauseHumanTakeover)

	r.HandleInbound(context.Background(), event("user", "conv", "MENU"))

	if _, ok := r.Sessions.Get("conv"); ok {
		t.Fatal("reactivation must clear the interrupted flow")
	}
}

func TestSendFailureDoesNotPanic(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	r, replier, _ := newTestRouter(clk)
	replier.err = errors.New("bridge down")

	r.HandleInbound(context.Background(), event("user", "conv", "menu"))

	if replier.count() != 1 {
		t.Fatal("send must still be attempted")
	}
}
