// Package bot wires the core pipeline for one inbound event: admission gate
// → per-conversation turn lock → dialogue engine → reply emission. It is the
// only component that talks to the outbound transport, and it owns the
// delivery-failure policy: a failed send is logged and dropped, never
// allowed to unwind a state transition that already committed.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/engine"
	"github.com/arenalk/bookingbot/internal/gate"
	"github.com/arenalk/bookingbot/internal/observability"
	"github.com/arenalk/bookingbot/internal/session"
)

// Replier sends outbound text to a conversation. Implementations belong to
// the messaging transport; failures surface as errors and stay non-fatal.
type Replier interface {
	Send(ctx context.Context, conversationID, text string) error
}

// Router sequences the core components for every inbound event.
type Router struct {
	Gate     *gate.Gate
	Sessions *session.Store
	Engine   *engine.Engine
	Replier  Replier
	Counters *observability.Counters
	Log      zerolog.Logger
}

// HandleInbound processes one transport delivery end to end. Events with no
// text content are ignored.
//
// The turn lock is held from before the session read until after the reply
// send returns, so a second event for the same conversation can never
// observe a half-applied turn even though sends suspend.
func (r *Router) HandleInbound(ctx context.Context, ev domain.Event) {
	if strings.TrimSpace(ev.Text) == "" {
		return
	}
	r.Counters.IncMessages()

	dec := r.Gate.Admit(ev.SenderID, ev.ConversationID, ev.Text, ev.FromSelf)
	if !dec.Allow {
		switch dec.Reason {
		case gate.ReasonTakeover:
			r.Counters.IncTakeovers()
		case gate.ReasonRateLimited:
			r.Counters.IncRateLimited()
			// One notice per denied attempt: no silent drop, no flood.
			r.send(ctx, ev.ConversationID, engine.RateLimitNotice)
		case gate.ReasonPaused:
			// Silence is the contract while a human holds the conversation.
		}
		return
	}

	unlock := r.Sessions.Lock(ev.ConversationID)
	defer unlock()

	input := ev.Text
	if dec.Reactivated {
		// Any reactivation keyword behaves as the menu-return command, so
		// the single reply after a pause is always the main menu.
		input = "MENU"
	}

	reply := r.Engine.Handle(ctx, ev.ConversationID, input)
	r.send(ctx, ev.ConversationID, reply)
}

func (r *Router) send(ctx context.Context, conversationID, text string) {
	if err := r.Replier.Send(ctx, conversationID, text); err != nil {
		r.Log.Error().Err(err).
			Str("conversation_id", conversationID).
			Msg("reply delivery failed")
	}
}
