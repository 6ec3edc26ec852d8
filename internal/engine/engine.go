// Package engine implements the dialogue state machine that walks a user
// through the trial-class booking flow and issues capacity-ledger writes.
//
// The engine is deliberately free of transport concerns: given a
// conversation id and the message text, it returns the reply to emit.
// Admission control (rate limiting, pauses) happens before the engine runs,
// and the caller holds the conversation's turn lock for the whole call, so
// each turn's session read-modify-write is serialized per conversation.
//
// Validation failures are not errors: every malformed input re-prompts
// within the same sub-state. The only flow aborts are capacity exhaustion
// (at date selection and again, atomically, at completion) and the MENU
// escape, both of which delete the session.
package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arenalk/bookingbot/internal/booking"
	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/observability"
	"github.com/arenalk/bookingbot/internal/session"
)

// Pauser is the slice of the admission gate the engine needs: the "talk to
// an attendant" menu option pauses the conversation on the user's behalf.
type Pauser interface {
	Pause(conversationID string, reason domain.PauseReason)
}

// Notifier delivers a best-effort staff notification for a new booking.
// A nil Notifier on the Engine is a normal, fully supported configuration.
type Notifier interface {
	NotifyBooking(ctx context.Context, b domain.Booking) error
}

// Engine drives the booking dialogue. All fields except Notifier are
// required.
type Engine struct {
	Ledger   *booking.Ledger
	Sessions *session.Store
	Pauser   Pauser
	Notifier Notifier
	Counters *observability.Counters
	Log      zerolog.Logger

	// Today returns the current date in YYYY-MM-DD form; tests override it.
	Today func() string
}

// New constructs an Engine with the default date source.
func New(l *booking.Ledger, s *session.Store, p Pauser, n Notifier, c *observability.Counters, log zerolog.Logger) *Engine {
	return &Engine{
		Ledger:   l,
		Sessions: s,
		Pauser:   p,
		Notifier: n,
		Counters: c,
		Log:      log,
		Today: func() string {
			return time.Now().Format("2006-01-02")
		},
	}
}

// Handle processes one dialogue turn and returns the reply text. The caller
// must hold the conversation's turn lock.
func (e *Engine) Handle(ctx context.Context, conversationID, text string) string {
	tr := otel.Tracer("engine/Engine")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	input := strings.TrimSpace(text)
	sess, ok := e.Sessions.Get(conversationID)
	if !ok {
		return e.handleIdle(conversationID, input)
	}
	return e.handleFlow(ctx, conversationID, input, sess)
}

// handleIdle serves the stateless menu tree. Only the booking option creates
// a session; every other selection replies and retains nothing.
func (e *Engine) handleIdle(conversationID, input string) string {
	switch fold(input) {
	case "MENU", "INICIO", "OLA", "OI":
		e.Counters.IncMenus()
		return mainMenuText
	case "1":
		return unitsMenuText
	case "A":
		return recreioInfoText
	case "B":
		return banguInfoText
	case "2":
		return schedulesText
	case "3":
		return pricesText
	case "4":
		e.Sessions.Put(conversationID, session.Session{
			State:      session.StateAwaitUnit,
			LastActive: time.Now(),
		})
		return experimentalIntroText
	case "5":
		return checkinText
	case "6":
		return locationsText
	case "7":
		return levelsText
	case "8":
		return faqText
	case "9":
		e.Pauser.Pause(conversationID, domain.PauseUserRequested)
		return attendantText
	default:
		return notUnderstoodText
	}
}

// handleFlow advances a booking session by one turn. The MENU escape is
// checked before any state so it works from every sub-state.
func (e *Engine) handleFlow(ctx context.Context, conversationID, input string, sess session.Session) string {
	if fold(input) == "MENU" {
		e.Sessions.Delete(conversationID)
		e.Counters.IncMenus()
		return mainMenuText
	}

	switch sess.State {
	case session.StateAwaitUnit:
		return e.stepUnit(conversationID, input, sess)
	case session.StateAwaitDate:
		return e.stepDate(conversationID, input, sess)
	case session.StateAwaitTime:
		return e.stepTime(conversationID, input, sess)
	case session.StateAwaitName:
		return e.stepName(conversationID, input, sess)
	case session.StateAwaitPhone:
		return e.stepPhone(conversationID, input, sess)
	case session.StateAwaitCompanionChoice:
		return e.stepCompanionChoice(ctx, conversationID, input, sess)
	case session.StateAwaitCompanionName:
		return e.stepCompanionName(ctx, conversationID, input, sess)
	default:
		// Unknown stored state: drop the session rather than wedge the
		// conversation.
		e.Log.Warn().
			Str("conversation_id", conversationID).
			Str("state", string(sess.State)).
			Msg("dropping session in unknown state")
		e.Sessions.Delete(conversationID)
		return mainMenuText
	}
}

func (e *Engine) stepUnit(conversationID, input string, sess session.Session) string {
	switch fold(input) {
	case "A":
		sess.Draft.Unit = domain.UnitRecreio
	case "B":
		sess.Draft.Unit = domain.UnitBangu
	default:
		return invalidUnitText
	}
	sess.State = session.StateAwaitDate
	e.put(conversationID, sess)
	return askDateText
}

func (e *Engine) stepDate(conversationID, input string, sess session.Session) string {
	var date string
	if fold(input) == "HOJE" {
		date = e.Today()
	} else {
		date = parseDate(input)
		if date == "" {
			return invalidDateText
		}
	}
	sess.Draft.Date = date

	policy, _ := e.Ledger.Policy(sess.Draft.Unit)
	if policy.Bounded() {
		slots := e.Ledger.AvailableSlots(sess.Draft.Unit, date)
		if len(slots) == 0 {
			// Capacity already exhausted for every slot: abort before
			// advancing, per the flow contract.
			e.Sessions.Delete(conversationID)
			return noSlotsText(date)
		}
		sess.State = session.StateAwaitTime
		e.put(conversationID, sess)
		return slotListText(slots)
	}

	sess.State = session.StateAwaitTime
	e.put(conversationID, sess)
	return askFreeTimeText
}

func (e *Engine) stepTime(conversationID, input string, sess session.Session) string {
	policy, _ := e.Ledger.Policy(sess.Draft.Unit)
	if policy.Bounded() {
		// The prompt listed only currently-available slots; input is a
		// 1-based index into that list, recomputed here.
		slots := e.Ledger.AvailableSlots(sess.Draft.Unit, sess.Draft.Date)
		if len(slots) == 0 {
			e.Sessions.Delete(conversationID)
			return noSlotsText(sess.Draft.Date)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || idx < 1 || idx > len(slots) {
			return invalidSlotIndexText(len(slots))
		}
		sess.Draft.Time = slots[idx-1]
	} else {
		t := parseTime(input)
		if t == "" {
			return invalidTimeText
		}
		sess.Draft.Time = t
	}
	sess.State = session.StateAwaitName
	e.put(conversationID, sess)
	return askNameText
}

func (e *Engine) stepName(conversationID, input string, sess session.Session) string {
	if !validName(input) {
		return shortNameText
	}
	sess.Draft.Name = strings.TrimSpace(input)
	sess.State = session.StateAwaitPhone
	e.put(conversationID, sess)
	return askPhoneText
}

func (e *Engine) stepPhone(conversationID, input string, sess session.Session) string {
	phone := normalizePhone(input)
	if phone == "" {
		return invalidPhoneText
	}
	sess.Draft.Phone = phone
	sess.State = session.StateAwaitCompanionChoice
	e.put(conversationID, sess)
	return askCompanionText
}

func (e *Engine) stepCompanionChoice(ctx context.Context, conversationID, input string, sess session.Session) string {
	switch fold(input) {
	case "SIM":
		sess.State = session.StateAwaitCompanionName
		e.put(conversationID, sess)
		return askCompanionNameText
	case "NAO":
		return e.complete(ctx, conversationID, sess)
	default:
		return invalidCompanionChoiceText
	}
}

func (e *Engine) stepCompanionName(ctx context.Context, conversationID, input string, sess session.Session) string {
	if !validName(input) {
		return shortCompanionNameText
	}
	sess.Draft.Companion = strings.TrimSpace(input)
	return e.complete(ctx, conversationID, sess)
}

// complete performs the terminal transition: an atomic capacity re-check
// with the ledger insert, staff notification, and session deletion. The
// re-check defends against a seat filling between slot presentation and
// confirmation; the loser of that race is told the slot filled.
func (e *Engine) complete(ctx context.Context, conversationID string, sess session.Session) string {
	d := sess.Draft
	b, ok := e.Ledger.AddIfCapacity(d.Unit, d.Date, d.Time, d.Name, d.Phone, d.Companion)
	e.Sessions.Delete(conversationID)
	if !ok {
		return slotFullText
	}

	e.Counters.IncBookings()
	e.Log.Info().
		Str("booking_id", b.ID).
		Str("unit", string(b.Unit)).
		Str("date", b.Date).
		Str("time", b.Time).
		Msg("booking confirmed")

	// Notification is best-effort: a failure (or absent notifier) never
	// fails the booking.
	if e.Notifier != nil {
		if err := e.Notifier.NotifyBooking(ctx, b); err != nil {
			e.Log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking notification failed")
		}
	}

	return confirmationText(b)
}

func (e *Engine) put(conversationID string, sess session.Session) {
	sess.LastActive = time.Now()
	e.Sessions.Put(conversationID, sess)
}
