package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
	"time"

	"loanbot/internal/decision"
	"loanbot/internal/knowledge"
	"loanbot/internal/metrics"
	"loanbot/internal/repo"
	"loanbot/internal/session"
)

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	profiles     map[string]*repo.Profile
	loans        map[string]*repo.LoanRecord // by phone
	escalations  []repo.Escalation
	interactions []repo.Interaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: map[string]*repo.Profile{},
		loans:    map[string]*repo.LoanRecord{},
	}
}

func (r *fakeRepo) Close()                                     {}
func (r *fakeRepo) Ping(context.Context) error                 { return nil }
func (r *fakeRepo) RunMigrations(context.Context, fs.FS) error { return nil }

func (r *fakeRepo) UpsertProfile(_ context.Context, p repo.ProfileUpsert) (*repo.Profile, error) {
	prof, ok := r.profiles[p.Phone]
	if !ok {
		prof = &repo.Profile{Phone: p.Phone, Status: "new"}
		r.profiles[p.Phone] = prof
	}
	if p.Language != nil {
		prof.Language = *p.Language
	}
	if p.Status != nil {
		prof.Status = *p.Status
	}
	if p.DisplayName != nil {
		prof.DisplayName = p.DisplayName
	}
	return prof, nil
}

func (r *fakeRepo) GetProfileByPhone(_ context.Context, phone string) (*repo.Profile, error) {
	return r.profiles[phone], nil
}

func (r *fakeRepo) InsertInteraction(_ context.Context, it repo.Interaction) error {
	r.interactions = append(r.interactions, it)
	return nil
}

func (r *fakeRepo) ListRecentInteractions(context.Context, string, int) ([]repo.Interaction, error) {
	return nil, nil
}

func (r *fakeRepo) UpsertLoan(_ context.Context, loan repo.LoanRecord) (*repo.LoanRecord, error) {
	cp := loan
	r.loans[loan.Phone] = &cp
	return &cp, nil
}

func (r *fakeRepo) GetLoanByPhone(_ context.Context, phone string) (*repo.LoanRecord, error) {
	return r.loans[phone], nil
}

func (r *fakeRepo) GetLoanByRef(_ context.Context, ref string) (*repo.LoanRecord, error) {
	for _, l := range r.loans {
		if l.ReferenceID == ref {
			return l, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) UpdateLoanStatus(_ context.Context, ref, status string, _ map[string]any) error {
	for _, l := range r.loans {
		if l.ReferenceID == ref {
			l.Status = status
		}
	}
	return nil
}

func (r *fakeRepo) InsertEscalation(_ context.Context, e repo.Escalation) (*repo.Escalation, error) {
	r.escalations = append(r.escalations, e)
	return &e, nil
}

func (r *fakeRepo) SyncKnowledgeKeys(context.Context, []string) error { return nil }
func (r *fakeRepo) ListActiveKnowledgeKeys(context.Context) ([]repo.APIKey, error) {
	return nil, nil
}
func (r *fakeRepo) SetKeyCooldown(context.Context, string, time.Time) error { return nil }

type stubKnowledge struct {
	configured bool
	answer     knowledge.Answer
	err        error
}

func (s *stubKnowledge) Configured() bool { return s.configured }
func (s *stubKnowledge) Ask(context.Context, string, string) (knowledge.Answer, error) {
	return s.answer, s.err
}

type recordingHandoff struct {
	tickets []EscalationTicket
}

func (h *recordingHandoff) Notify(_ context.Context, t EscalationTicket) {
	h.tickets = append(h.tickets, t)
}

// jsonStore round-trips every session through its encoded form, the way the
// Redis-backed store does on the wire.
type jsonStore struct {
	inner session.Store
}

func reencode(s *session.Session) (*session.Session, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out session.Session
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *jsonStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s, err := j.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return reencode(s)
}

func (j *jsonStore) Put(ctx context.Context, s *session.Session) error {
	cp, err := reencode(s)
	if err != nil {
		return err
	}
	if err := j.inner.Put(ctx, cp); err != nil {
		return err
	}
	s.Version = cp.Version
	return nil
}

func (j *jsonStore) List(ctx context.Context) ([]*session.Session, error) {
	sessions, err := j.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*session.Session, 0, len(sessions))
	for _, s := range sessions {
		rs, rerr := reencode(s)
		if rerr != nil {
			return nil, rerr
		}
		out = append(out, rs)
	}
	return out, nil
}

type testHarness struct {
	engine  *Engine
	repo    *fakeRepo
	handoff *recordingHandoff
	kn      *stubKnowledge
	clock   *time.Time
	nextEvt int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	return newHarnessStore(t, session.NewMemoryStore())
}

func newHarnessStore(t *testing.T, store session.Store) *testHarness {
	t.Helper()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := &start
	fr := newFakeRepo()
	h := &recordingHandoff{}
	kn := &stubKnowledge{}
	g := decision.Guardrails{
		MinAge:             21,
		MinIncome:          2000,
		DTICeiling:         6,
		OfferMultiplier:    5,
		APRLow:             12.99,
		APRHigh:            18.49,
		APRIncomeThreshold: 50000,
		MaxTermMonths:      60,
	}
	e := NewEngine(
		store,
		fr,
		decision.LocalSource{Guardrails: g},
		kn,
		knowledge.DefaultBase(),
		h,
		metrics.Registry(""),
		slog.New(slog.DiscardHandler),
		Config{
			ConfidenceThreshold: 0.55,
			IdleThreshold:       30 * time.Minute,
			RetrySoftCap:        3,
			HandoffQueue:        "loanbot-support",
		},
	)
	e.now = func() time.Time { return *clock }
	return &testHarness{engine: e, repo: fr, handoff: h, kn: kn, clock: clock}
}

const testPhone = "919000000001"

func (h *testHarness) send(t *testing.T, text string) []Action {
	t.Helper()
	h.nextEvt++
	actions, err := h.engine.HandleEvent(context.Background(), Event{
		UserID:  testPhone,
		EventID: fmt.Sprintf("evt-%d", h.nextEvt),
		Text:    text,
	})
	if err != nil {
		t.Fatalf("HandleEvent(%q): %v", text, err)
	}
	return actions
}

func (h *testHarness) press(t *testing.T, buttonID string) []Action {
	t.Helper()
	h.nextEvt++
	actions, err := h.engine.HandleEvent(context.Background(), Event{
		UserID:   testPhone,
		EventID:  fmt.Sprintf("evt-%d", h.nextEvt),
		ButtonID: buttonID,
	})
	if err != nil {
		t.Fatalf("HandleEvent(button %s): %v", buttonID, err)
	}
	return actions
}

func (h *testHarness) session(t *testing.T) *session.Session {
	t.Helper()
	s, err := h.engine.sessions.Get(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return s
}

func joinActions(actions []Action) string {
	var parts []string
	for _, a := range actions {
		parts = append(parts, a.Text)
	}
	return strings.Join(parts, "\n")
}

// walkToConsent drives a fresh user up to the consent question.
func (h *testHarness) walkToConsent(t *testing.T) {
	t.Helper()
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")
	h.send(t, "30")
	h.send(t, "Salaried")
	h.send(t, "2500")
	h.send(t, "1000")
	h.send(t, "wedding expenses")
}

func TestOnboardingHappyPath(t *testing.T) {
	h := newHarness(t)
	h.walkToConsent(t)
	actions := h.send(t, "yes")

	var result *Action
	for i := range actions {
		if actions[i].Kind == ActionDecisionResult {
			result = &actions[i]
		}
	}
	if result == nil {
		t.Fatalf("no decision result delivered: %s", joinActions(actions))
	}
	if !strings.Contains(result.Text, "approved") {
		t.Fatalf("expected approval, got %q", result.Text)
	}
	if !strings.Contains(result.Text, "₹1000.00") {
		t.Fatalf("offer should match the request, got %q", result.Text)
	}

	s := h.session(t)
	if s.Stage != session.StageDecisionDelivered {
		t.Fatalf("stage = %s, want %s", s.Stage, session.StageDecisionDelivered)
	}
	loan := h.repo.loans[testPhone]
	if loan == nil || loan.Status != "approved" {
		t.Fatalf("loan record not persisted as approved: %+v", loan)
	}
	if h.repo.profiles[testPhone] == nil || h.repo.profiles[testPhone].Status != "existing" {
		t.Fatal("profile should be upserted as existing after a decision")
	}
}

func TestConsentDeclineHaltsBeforeDecision(t *testing.T) {
	h := newHarness(t)
	h.walkToConsent(t)
	h.send(t, "no")

	s := h.session(t)
	if s.Stage != session.StageAwaitingField || s.PendingField != FieldConsent {
		t.Fatalf("conversation should stay at consent, got stage=%s pending=%s", s.Stage, s.PendingField)
	}
	if len(h.repo.loans) != 0 {
		t.Fatal("no application may be submitted without consent")
	}
}

func TestInvalidAgeRepromptedWithReason(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")

	actions := h.send(t, "17")
	if !strings.Contains(joinActions(actions), "between 18 and 75") {
		t.Fatalf("expected range hint, got %s", joinActions(actions))
	}
	s := h.session(t)
	if s.PendingField != FieldAge {
		t.Fatalf("pending field advanced past age: %s", s.PendingField)
	}
	if _, captured := s.Fields[FieldAge]; captured {
		t.Fatal("invalid age must not be stored")
	}
}

func TestRetrySoftCapSuggestsAgent(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")

	var last []Action
	for i := 0; i < 4; i++ {
		last = h.send(t, "not a number")
	}
	found := false
	for _, a := range last {
		for _, b := range a.Buttons {
			if b.ID == BtnAgent {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("after %d failures the bot should offer an agent, got %s", 4, joinActions(last))
	}
}

func TestResetMidIntakeDiscardsFields(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")
	h.send(t, "30")

	h.send(t, "hello")
	s := h.session(t)
	if s.Stage != session.StageAwaitingJourneyChoice {
		t.Fatalf("stage = %s, want awaiting_journey_choice", s.Stage)
	}
	if len(s.Fields) != 0 {
		t.Fatalf("fields should be discarded on reset, still have %v", s.Fields)
	}
	if s.Language != session.LanguageEnglish {
		t.Fatal("reset must preserve the language choice")
	}
}

func TestExplicitJourneySelectionOverridesInference(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "support")

	h.press(t, BtnApply)
	s := h.session(t)
	if s.Journey != session.JourneyOnboarding || s.Stage != session.StageAwaitingField {
		t.Fatalf("apply button mid-support should start onboarding, got %s/%s", s.Journey, s.Stage)
	}
}

func TestReplayedEventIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	before := h.session(t)

	actions, err := h.engine.HandleEvent(context.Background(), Event{
		UserID:  testPhone,
		EventID: fmt.Sprintf("evt-%d", h.nextEvt), // same id as the last send
		Text:    "english",
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if actions != nil {
		t.Fatalf("replay produced actions: %s", joinActions(actions))
	}
	after := h.session(t)
	if after.Version != before.Version || after.Stage != before.Stage {
		t.Fatal("replay must not advance the session")
	}
}

func TestLowConfidenceEscalates(t *testing.T) {
	h := newHarness(t)
	h.kn.configured = true
	h.kn.answer = knowledge.Answer{Text: "possibly about fees", Confidence: 0.40}

	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "support")
	actions := h.send(t, "why was my processing fee different last month")

	notice := false
	for _, a := range actions {
		if a.Kind == ActionEscalationNotice {
			notice = true
		}
	}
	if !notice {
		t.Fatalf("expected escalation notice, got %s", joinActions(actions))
	}
	if len(h.handoff.tickets) != 1 {
		t.Fatalf("handoff tickets = %d, want 1", len(h.handoff.tickets))
	}
	tk := h.handoff.tickets[0]
	if tk.Queue != "loanbot-support" || tk.Phone != testPhone {
		t.Fatalf("bad ticket: %+v", tk)
	}
	if len(h.repo.escalations) != 1 || h.repo.escalations[0].Status != "open" {
		t.Fatalf("escalation not persisted: %+v", h.repo.escalations)
	}
	if h.session(t).Stage != session.StageEscalated {
		t.Fatalf("stage = %s, want escalated", h.session(t).Stage)
	}
}

func TestConfidentAnswerDelivered(t *testing.T) {
	h := newHarness(t)
	h.kn.configured = true
	h.kn.answer = knowledge.Answer{Text: "You can pay your EMI from the app.", Confidence: 0.80}

	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "support")
	actions := h.send(t, "how do i pay my emi")

	answered := false
	for _, a := range actions {
		if a.Kind == ActionAnswer && strings.Contains(a.Text, "pay your EMI") {
			answered = true
		}
	}
	if !answered {
		t.Fatalf("expected the remote answer, got %s", joinActions(actions))
	}
	if len(h.handoff.tickets) != 0 {
		t.Fatal("confident answer must not escalate")
	}
	if h.session(t).Stage != session.StageAnswerDelivered {
		t.Fatalf("stage = %s", h.session(t).Stage)
	}
}

func TestSupportShortcutAnswersFromKB(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "support")
	actions := h.press(t, knowledge.ShortcutPayment)

	if len(actions) == 0 || actions[0].Kind != ActionAnswer {
		t.Fatalf("expected a canned answer, got %s", joinActions(actions))
	}
	if len(h.handoff.tickets) != 0 {
		t.Fatal("shortcut answers never escalate")
	}
}

func TestIdleSweepFiresOncePerIdlePeriod(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")

	*h.clock = h.clock.Add(35 * time.Minute)
	reminders, err := h.engine.SweepIdle(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(reminders) != 1 || reminders[0].Phone != testPhone {
		t.Fatalf("reminders = %+v, want one for %s", reminders, testPhone)
	}
	if reminders[0].Action.Kind != ActionReminder {
		t.Fatalf("kind = %s", reminders[0].Action.Kind)
	}

	*h.clock = h.clock.Add(5 * time.Minute)
	reminders, err = h.engine.SweepIdle(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(reminders) != 0 {
		t.Fatalf("reminder fired twice: %+v", reminders)
	}
}

func TestActivityRearmsIdleReminder(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")

	*h.clock = h.clock.Add(35 * time.Minute)
	if reminders, _ := h.engine.SweepIdle(context.Background()); len(reminders) != 1 {
		t.Fatal("expected first reminder")
	}

	h.send(t, "Asha Rao") // activity clears the latch
	*h.clock = h.clock.Add(35 * time.Minute)
	reminders, _ := h.engine.SweepIdle(context.Background())
	if len(reminders) != 1 {
		t.Fatalf("new idle period should re-arm the reminder, got %+v", reminders)
	}
}

func TestTerminalSessionReusedOnNextContact(t *testing.T) {
	h := newHarness(t)
	h.walkToConsent(t)
	h.send(t, "yes")
	h.press(t, BtnAcceptOffer)

	if h.session(t).Stage != session.StageAccepted {
		t.Fatalf("stage = %s, want accepted", h.session(t).Stage)
	}

	actions := h.send(t, "hi")
	if len(actions) == 0 {
		t.Fatal("terminal session should answer a new greeting")
	}
	s := h.session(t)
	if s.Stage != session.StageAwaitingJourneyChoice {
		t.Fatalf("stage = %s, want awaiting_journey_choice", s.Stage)
	}
	if s.Language != session.LanguageEnglish {
		t.Fatal("language must survive journey completion")
	}
}

func TestDenialCarriesReason(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")
	h.send(t, "30")
	h.send(t, "Salaried")
	h.send(t, "2500")
	h.send(t, "100000") // 40x income, far past the DTI ceiling
	h.send(t, "working capital")
	actions := h.send(t, "yes")

	text := joinActions(actions)
	if !strings.Contains(text, "requested amount is too high") {
		t.Fatalf("denial should explain the reason in plain words, got %s", text)
	}
	if strings.Contains(text, "dti_exceeded") {
		t.Fatalf("raw policy code must not reach the user: %s", text)
	}
	loan := h.repo.loans[testPhone]
	if loan == nil || loan.Status != "declined" {
		t.Fatalf("loan should persist as declined: %+v", loan)
	}
	if loan.Reason == nil || *loan.Reason != decision.ReasonDTIExceeded {
		t.Fatalf("loan record should keep the policy code, got %v", loan.Reason)
	}
}

func TestFormSubmissionFillsMultipleFields(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")

	h.nextEvt++
	actions, err := h.engine.HandleEvent(context.Background(), Event{
		UserID:  testPhone,
		EventID: fmt.Sprintf("evt-%d", h.nextEvt),
		Form: map[string]string{
			"full_name":   "Asha Rao",
			"age":         "30",
			"employment":  "Salaried",
			"income":      "2500",
			"loan_amount": "1000",
		},
	})
	if err != nil {
		t.Fatalf("form event: %v", err)
	}

	s := h.session(t)
	if s.PendingField != FieldPurpose {
		t.Fatalf("pending = %s, want %s", s.PendingField, FieldPurpose)
	}
	if !strings.Contains(joinActions(actions), "use the funds") {
		t.Fatalf("should prompt for purpose next, got %s", joinActions(actions))
	}
}

// Encoding drops empty maps from the stored session, so an engine driven
// through a serializing store exercises every map write on the decode path.
func TestSessionsSurviveStoreSerialization(t *testing.T) {
	h := newHarnessStore(t, &jsonStore{inner: session.NewMemoryStore()})
	h.kn.configured = true
	h.kn.answer = knowledge.Answer{Text: "EMI is auto-debited on the 5th.", Confidence: 0.90}

	h.send(t, "hi")
	h.send(t, "hindi")
	h.send(t, "language")
	h.send(t, "english")
	h.send(t, "support")
	actions := h.send(t, "when is my emi due")

	answered := false
	for _, a := range actions {
		if a.Kind == ActionAnswer {
			answered = true
		}
	}
	if !answered {
		t.Fatalf("expected an answer after the store round-trip, got %s", joinActions(actions))
	}

	h.send(t, "thanks")
	h.send(t, "hi")
	h.send(t, "apply")
	h.send(t, "Asha Rao")
	h.send(t, "not a number") // retry counter write after a round-trip

	s := h.session(t)
	if s.Retries[FieldAge] != 1 {
		t.Fatalf("retries[%s] = %d, want 1", FieldAge, s.Retries[FieldAge])
	}
	if s.Metadata[session.MetaLastSupportQuery] != "when is my emi due" {
		t.Fatalf("support query metadata lost: %v", s.Metadata)
	}
}

func TestSupportMenuOffersEveryShortcut(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	actions := h.send(t, "support")

	seen := map[string]bool{}
	for _, a := range actions {
		if len(a.Buttons) > 3 {
			t.Fatalf("message carries %d buttons, channel allows 3: %s", len(a.Buttons), a.Text)
		}
		for _, b := range a.Buttons {
			seen[b.ID] = true
		}
	}
	for _, id := range []string{
		knowledge.ShortcutPayment,
		knowledge.ShortcutStatus,
		knowledge.ShortcutDocs,
		knowledge.ShortcutRepayment,
		BtnAgent,
	} {
		if !seen[id] {
			t.Fatalf("support menu misses %s, offered %v", id, seen)
		}
	}
}

func TestDocsAndRepaymentShortcutsAnswer(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "support")

	actions := h.press(t, knowledge.ShortcutDocs)
	if len(actions) == 0 || actions[0].Kind != ActionAnswer {
		t.Fatalf("documents shortcut should answer, got %s", joinActions(actions))
	}
	actions = h.press(t, knowledge.ShortcutRepayment)
	if len(actions) == 0 || actions[0].Kind != ActionAnswer {
		t.Fatalf("repayment shortcut should answer, got %s", joinActions(actions))
	}
	if len(h.handoff.tickets) != 0 {
		t.Fatal("shortcut answers never escalate")
	}
}

func TestPostDecisionSignOffClosesJourney(t *testing.T) {
	h := newHarness(t)
	h.walkToConsent(t)
	h.send(t, "yes")

	h.send(t, "thanks")
	s := h.session(t)
	if s.Stage != session.StageClosed {
		t.Fatalf("stage = %s, want closed", s.Stage)
	}

	h.send(t, "hi")
	if got := h.session(t).Stage; got != session.StageAwaitingJourneyChoice {
		t.Fatalf("closed session should restart at the menu, got %s", got)
	}
}

func TestIdleNudgeBeforeJourneyChosen(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english") // parked at the journey menu

	*h.clock = h.clock.Add(35 * time.Minute)
	reminders, err := h.engine.SweepIdle(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(reminders) != 1 || reminders[0].Phone != testPhone {
		t.Fatalf("reminders = %+v, want one for %s", reminders, testPhone)
	}

	*h.clock = h.clock.Add(5 * time.Minute)
	if reminders, _ = h.engine.SweepIdle(context.Background()); len(reminders) != 0 {
		t.Fatalf("reminder fired twice: %+v", reminders)
	}
}

func TestLanguageChangePreservesProgress(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "english")
	h.send(t, "apply")
	h.send(t, "Asha Rao")

	h.send(t, "language")
	s := h.session(t)
	if s.Stage != session.StageAwaitingLanguage {
		t.Fatalf("stage = %s, want awaiting_language", s.Stage)
	}

	h.send(t, "hindi")
	s = h.session(t)
	if s.Language != session.LanguageHindi {
		t.Fatalf("language = %s, want hi", s.Language)
	}
	if s.Stage != session.StageAwaitingField || s.PendingField != FieldAge {
		t.Fatalf("intake should resume at age, got %s/%s", s.Stage, s.PendingField)
	}
	if s.Fields[FieldFullName].Text != "Asha Rao" {
		t.Fatal("captured fields must survive a language change")
	}
}
