package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arenalk/bookingbot/internal/booking"
	"github.com/arenalk/bookingbot/internal/domain"
	"github.com/arenalk/bookingbot/internal/observability"
	"github.com/arenalk/bookingbot/internal/session"
)

type fakePauser struct {
	paused map[string]domain.PauseReason
}

func (p *fakePauser) Pause(conversationID string, reason domain.PauseReason) {
	p.paused[conversationID] = reason
}

type fakeNotifier struct {
	notified []domain.Booking
	err      error
}

func (n *fakeNotifier) NotifyBooking(_ context.Context, b domain.Booking) error {
	n.notified = append(n.notified, b)
	return n.err
}

func newTestEngine() (*Engine, *fakePauser, *fakeNotifier) {
	ledger := booking.NewLedger(booking.DefaultPolicies(2, []string{"17:30", "18:30", "19:30"}))
	pauser := &fakePauser{paused: make(map[string]domain.PauseReason)}
	notifier := &fakeNotifier{}
	e := New(ledger, session.NewStore(), pauser, notifier, &observability.Counters{}, zerolog.Nop())
	e.Today = func() string { return "2026-09-10" }
	return e, pauser, notifier
}

// drive sends each input in order and returns the final reply.
func drive(t *testing.T, e *Engine, conv string, inputs ...string) string {
	t.Helper()
	var reply string
	for _, in := range inputs {
		reply = e.Handle(context.Background(), conv, in)
	}
	return reply
}

func TestIdleMenuAndStatics(t *testing.T) {
	e, _, _ := newTestEngine()

	cases := []struct {
		in   string
		want string
	}{
		{"menu", mainMenuText},
		{"olá", mainMenuText},
		{"OI", mainMenuText},
		{"inicio", mainMenuText},
		{"1", unitsMenuText},
		{"a", recreioInfoText},
		{"B", banguInfoText},
		{"2", schedulesText},
		{"3", pricesText},
		{"5", checkinText},
		{"6", locationsText},
		{"7", levelsText},
		{"8", faqText},
		{"qualquer coisa", notUnderstoodText},
	}
	for _, c := range cases {
		if got := e.Handle(context.Background(), "conv", c.in); got != c.want {
			t.Errorf("idle %q: wrong reply", c.in)
		}
	}
	if e.Sessions.Len() != 0 {
		t.Fatal("static menu selections must not create sessions")
	}
}

func TestAttendantOptionPauses(t *testing.T) {
	e, pauser, _ := newTestEngine()

	if got := e.Handle(context.Background(), "conv", "9"); got != attendantText {
		t.Fatal("option 9 should reply with attendant info")
	}
	if pauser.paused["conv"] != domain.PauseUserRequested {
		t.Fatalf("option 9 should pause as user-requested, got %q", pauser.paused["conv"])
	}
	if e.Sessions.Len() != 0 {
		t.Fatal("option 9 must not create a session")
	}
}

func TestBookingFlowRecreio(t *testing.T) {
	e, _, notifier := newTestEngine()
	const conv = "conv"

	if got := e.Handle(context.Background(), conv, "4"); got != experimentalIntroText {
		t.Fatal("option 4 should start the flow")
	}
	if got := e.Handle(context.Background(), conv, "a"); got != askDateText {
		t.Fatal("unit choice should ask for the date")
	}

	got := e.Handle(context.Background(), conv, "25/12/2026")
	if !strings.Contains(got, "1. 17:30") || !strings.Contains(got, "3. 19:30") {
		t.Fatalf("expected numbered slot list, got %q", got)
	}
	if got := e.Handle(context.Background(), conv, "2"); got != askNameText {
		t.Fatal("slot index should ask for the name")
	}
	if got := e.Handle(context.Background(), conv, "Ana Souza"); got != askPhoneText {
		t.Fatal("name should ask for the phone")
	}
	if got := e.Handle(context.Background(), conv, "21999998888"); got != askCompanionText {
		t.Fatal("phone should ask about a companion")
	}

	got = e.Handle(context.Background(), conv, "não")
	if !strings.Contains(got, "AGENDAMENTO CONFIRMADO") {
		t.Fatalf("expected confirmation, got %q", got)
	}
	if !strings.Contains(got, "25/12/2026") || !strings.Contains(got, "18:30") {
		t.Fatalf("confirmation missing date or slot: %q", got)
	}
	if !strings.Contains(got, "(21) 99999-8888") {
		t.Fatalf("confirmation missing normalized phone: %q", got)
	}

	if e.Sessions.Len() != 0 {
		t.Fatal("session must be deleted after completion")
	}
	list := e.Ledger.List(domain.UnitRecreio, "2026-12-25")
	if len(list) != 1 || list[0].Time != "18:30" || list[0].Name != "Ana Souza" {
		t.Fatalf("ledger state wrong: %+v", list)
	}
	if len(notifier.notified) != 1 || notifier.notified[0].Name != "Ana Souza" {
		t.Fatalf("staff notification missing: %+v", notifier.notified)
	}
}

func TestBookingFlowWithCompanion(t *testing.T) {
	e, _, _ := newTestEngine()
	const conv = "conv"

	got := drive(t, e, conv, "4", "A", "25/12/2026", "1", "Ana Souza", "21999998888", "SIM")
	if got != askCompanionNameText {
		t.Fatalf("SIM should ask for the companion name, got %q", got)
	}
	got = e.Handle(context.Background(), conv, "Beto Costa")
	if !strings.Contains(got, "Acompanhante") || !strings.Contains(got, "Beto Costa") {
		t.Fatalf("confirmation missing companion: %q", got)
	}
	list := e.Ledger.List(domain.UnitRecreio, "2026-12-25")
	if len(list) != 1 || list[0].Companion != "Beto Costa" {
		t.Fatalf("companion not persisted: %+v", list)
	}
}

func TestBookingFlowBanguFreeTime(t *testing.T) {
	e, _, _ := newTestEngine()
	const conv = "conv"

	got := drive(t, e, conv, "4", "b", "25/12/2026")
	if got != askFreeTimeText {
		t.Fatalf("unbounded unit should ask for a free-form time, got %q", got)
	}
	if got := e.Handle(context.Background(), conv, "18h30"); got != invalidTimeText {
		t.Fatal("malformed time must re-prompt")
	}
	if got := e.Handle(context.Background(), conv, "7:05"); got != askNameText {
		t.Fatal("valid time should advance to the name")
	}

	got = drive(t, e, conv, "Ana Souza", "2133334444", "NAO")
	if !strings.Contains(got, "AGENDAMENTO CONFIRMADO") || !strings.Contains(got, "07:05") {
		t.Fatalf("expected confirmation with padded time, got %q", got)
	}
	if !strings.Contains(got, "(21) 3333-4444") {
		t.Fatalf("confirmation missing landline format: %q", got)
	}
}

func TestDateValidationRejectsImpossibleCalendarDates(t *testing.T) {
	e, _, _ := newTestEngine()
	const conv = "conv"
	drive(t, e, conv, "4", "A")

	if got := e.Handle(context.Background(), conv, "31/02/2024"); got != invalidDateText {
		t.Fatal("31/02 must be rejected")
	}
	if got := e.Handle(context.Background(), conv, "31/04/2026"); got != invalidDateText {
		t.Fatal("31/04 must be rejected")
	}
	// Still in the date state; a real leap day advances.
	got := e.Handle(context.Background(), conv, "29/02/2024")
	if !strings.Contains(got, "HORÁRIOS DISPONÍVEIS") {
		t.Fatalf("29/02/2024 should advance to slot selection, got %q", got)
	}
}

func TestHojeUsesInjectedToday(t *testing.T) {
	e, _, _ := newTestEngine()
	const conv = "conv"

	got := drive(t, e, conv, "4", "A", "hoje", "1", "Ana Souza", "21999998888", "nao")
	if !strings.Contains(got, "10/09/2026") {
		t.Fatalf("HOJE should book for the injected today, got %q", got)
	}
	if len(e.Ledger.List(domain.UnitRecreio, "2026-09-10")) != 1 {
		t.Fatal("booking not stored under today's date")
	}
}

func TestInvalidInputsReprompt(t *testing.T) {
	e, _, _ := newTestEngine()
	const conv = "conv"
	drive(t, e, conv, "4")

	if got := e.Handle(context.Background(), conv, "C"); got != invalidUnitText {
		t.Fatal("unknown unit letter must re-prompt")
	}
	drive(t, e, conv, "A", "25/12/2026")

	if got := e.Handle(context.Background(), conv, "5"); got != invalidSlotIndexText(3) {
		t.Fatal("out-of-range slot index must re-prompt with the list size")
	}
	if got := e.Handle(context.Background(), conv, "zero"); got != invalidSlotIndexText(3) {
		t.Fatal("non-numeric slot index must re-prompt")
	}
	drive(t, e, conv, "1")

	if got := e.Handle(context.Background(), conv, "Jo"); got != shortNameText {
		t.Fatal("short name must re-prompt")
	}
	drive(t, e, conv, "Ana Souza")

	if got := e.Handle(context.Background(), conv, "123"); got != invalidPhoneText {
		t.Fatal("bad phone must re-prompt")
	}
	drive(t, e, conv, "21999998888")

	if got := e.Handle(context.Background(), conv, "talvez"); got != invalidCompanionChoiceText {
		t.Fatal("companion choice must be SIM or NÃO")
	}
	if got := e.Handle(context.Background(), conv, "sim"); got != askCompanionNameText {
		t.Fatal("flow should survive every re-prompt")
	}
}

func TestMenuEscapeFromEverySubState(t *testing.T) {
	e, _, _ := newTestEngine()

	prefixes := [][]string{
		{"4"},
		{"4", "A"},
		{"4", "A", "25/12/2026"},
		{"4", "A", "25/12/2026", "1"},
		{"4", "A", "25/12/2026", "1", "Ana Souza"},
		{"4", "A", "25/12/2026", "1", "Ana Souza", "21999998888"},
		{"4", "A", "25/12/2026", "1", "Ana Souza", "21999998888", "sim"},
	}
	for i, prefix := range prefixes {
		conv := "conv-" + string(rune('a'+i))
		drive(t, e, conv, prefix...)
		if got := e.Handle(context.Background(), conv, "menu"); got != mainMenuText {
			t.Fatalf("prefix %d: MENU did not return the main menu", i)
		}
		if _, ok := e.Sessions.Get(conv); ok {
			t.Fatalf("prefix %d: session survived the MENU escape", i)
		}
	}
	if got := len(e.Ledger.Snapshot()); got != 0 {
		t.Fatalf("escaped flows must not book: %d bookings", got)
	}
}

func TestNoSlotsAbortsBeforeTimeSelection(t *testing.T) {
	e, _, _ := newTestEngine()
	const date = "2026-12-25"
	for _, slot := range []string{"17:30", "18:30", "19:30"} {
		e.Ledger.Add(domain.UnitRecreio, date, slot, "Ocupante Um", "(21) 99999-0001", "")
		e.Ledger.Add(domain.UnitRecreio, date, slot, "Ocupante Dois", "(21) 99999-0002", "")
	}

	got := drive(t, e, "conv", "4", "A", "25/12/2026")
	if !strings.Contains(got, "Não há horários disponíveis") {
		t.Fatalf("expected no-slots abort, got %q", got)
	}
	if _, ok := e.Sessions.Get("conv"); ok {
		t.Fatal("session must be deleted when no slot is open")
	}
}

func TestCompletionLosesRaceForLastSeat(t *testing.T) {
	e, _, notifier := newTestEngine()
	const conv = "conv"
	const date = "2026-12-25"

	e.Ledger.Add(domain.UnitRecreio, date, "17:30", "Ocupante Um", "(21) 99999-0001", "")
	drive(t, e, conv, "4", "A", "25/12/2026", "1", "Ana Souza", "21999998888")

	// The last 17:30 seat fills between the prompt and the confirmation.
	e.Ledger.Add(domain.UnitRecreio, date, "17:30", "Ocupante Dois", "(21) 99999-0002", "")

	got := e.Handle(context.Background(), conv, "não")
	if got != slotFullText {
		t.Fatalf("race loser should see the slot-full message, got %q", got)
	}
	if _, ok := e.Sessions.Get(conv); ok {
		t.Fatal("session must be deleted after losing the race")
	}
	if len(notifier.notified) != 0 {
		t.Fatal("no notification for a booking that did not happen")
	}
	if got := len(e.Ledger.List(domain.UnitRecreio, date)); got != 2 {
		t.Fatalf("slot holds %d bookings, capacity is 2", got)
	}
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	e, _, notifier := newTestEngine()
	notifier.err = context.DeadlineExceeded

	got := drive(t, e, "conv", "4", "A", "25/12/2026", "1", "Ana Souza", "21999998888", "nao")
	if !strings.Contains(got, "AGENDAMENTO CONFIRMADO") {
		t.Fatalf("notification failure must not fail the booking, got %q", got)
	}
	if len(e.Ledger.List(domain.UnitRecreio, "2026-12-25")) != 1 {
		t.Fatal("booking missing from ledger")
	}
}

func TestNilNotifier(t *testing.T) {
	e, _, _ := newTestEngine()
	e.Notifier = nil

	got := drive(t, e, "conv", "4", "A", "25/12/2026", "1", "Ana Souza", "21999998888", "nao")
	if !strings.Contains(got, "AGENDAMENTO CONFIRMADO") {
		t.Fatalf("nil notifier must be a supported configuration, got %q", got)
	}
}

func TestUnknownStoredStateDropsSession(t *testing.T) {
	e, _, _ := newTestEngine()
	e.Sessions.Put("conv", session.Session{State: "estado_antigo"})

	if got := e.Handle(context.Background(), "conv", "qualquer"); got != mainMenuText {
		t.Fatal("unknown state should fall back to the main menu")
	}
	if _, ok := e.Sessions.Get("conv"); ok {
		t.Fatal("unknown-state session must be dropped")
	}
}
