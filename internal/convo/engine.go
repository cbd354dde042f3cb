package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"loanbot/internal/decision"
	"loanbot/internal/knowledge"
	"loanbot/internal/metrics"
	"loanbot/internal/repo"
	"loanbot/internal/session"
)

// KnowledgeClient answers free-text support questions from an external
// service. *knowledge.Client satisfies it; tests substitute stubs.
type KnowledgeClient interface {
	Configured() bool
	Ask(ctx context.Context, question, contextText string) (knowledge.Answer, error)
}

// Config carries the engine's tunables.
type Config struct {
	ConfidenceThreshold float64
	IdleThreshold       time.Duration
	RetrySoftCap        int
	HandoffQueue        string
}

// Engine is the deterministic conversation core. It owns no transport: it
// consumes normalized events and returns the ordered actions to deliver.
type Engine struct {
	sessions  session.Store
	repo      repo.Repository
	decisions decision.Source
	remote    KnowledgeClient
	kb        *knowledge.Base
	gate      knowledge.Gate
	handoff   Handoff
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func NewEngine(
	sessions session.Store,
	repository repo.Repository,
	decisions decision.Source,
	remote KnowledgeClient,
	kb *knowledge.Base,
	handoff Handoff,
	metricRegistry *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Engine {
	return &Engine{
		sessions:  sessions,
		repo:      repository,
		decisions: decisions,
		remote:    remote,
		kb:        kb,
		gate:      knowledge.Gate{Threshold: cfg.ConfidenceThreshold},
		handoff:   handoff,
		metrics:   metricRegistry,
		logger:    logger.With("component", "convo"),
		cfg:       cfg,
		locks:     map[string]*sync.Mutex{},
		now:       time.Now,
	}
}

func (e *Engine) userLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// HandleEvent runs one inbound event through the state machine and returns the
// actions to send, in order. Events are processed serially per user; a
// redelivered event id is a no-op.
func (e *Engine) HandleEvent(ctx context.Context, evt Event) ([]Action, error) {
	if evt.UserID == "" || evt.EventID == "" {
		return nil, errors.New("event requires user and event ids")
	}
	lock := e.userLock(evt.UserID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		s, err := e.loadOrCreate(ctx, evt)
		if err != nil {
			return nil, err
		}
		if s.LastEventID == evt.EventID {
			e.logger.Debug("duplicate event ignored", "user", evt.UserID, "event_id", evt.EventID)
			return nil, nil
		}

		actions := e.transition(ctx, s, evt)

		s.LastEventID = evt.EventID
		s.Touch(e.now())
		if err := e.sessions.Put(ctx, s); err != nil {
			if errors.Is(err, session.ErrVersionConflict) {
				e.metrics.SessionConflicts.Inc()
				continue
			}
			return nil, fmt.Errorf("persist session: %w", err)
		}

		e.audit(ctx, evt, actions)
		return actions, nil
	}
	return nil, fmt.Errorf("session %s: %w", evt.UserID, session.ErrVersionConflict)
}

func (e *Engine) loadOrCreate(ctx context.Context, evt Event) (*session.Session, error) {
	s, err := e.sessions.Get(ctx, evt.UserID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s = session.New(evt.UserID)
	if profile, perr := e.repo.GetProfileByPhone(ctx, evt.UserID); perr == nil && profile != nil {
		s.Status = session.Status(profile.Status)
		if profile.Language != "" {
			s.Language = session.Language(profile.Language)
			s.Stage = session.StageAwaitingJourneyChoice
		}
	} else if perr != nil {
		e.logger.Warn("profile lookup failed", "user", evt.UserID, "error", perr)
		e.metrics.Errors.WithLabelValues("repo").Inc()
	}
	return s, nil
}

// transition mutates the session in place and returns the outgoing actions.
func (e *Engine) transition(ctx context.Context, s *session.Session, evt Event) []Action {
	p := packFor(s.Language)
	var actions []Action

	// Returning after a long gap gets a gentle resume nudge before the
	// event itself is handled.
	if !s.LastActivity.IsZero() && !s.ReminderSent && !s.Terminal() &&
		e.now().Sub(s.LastActivity) >= e.cfg.IdleThreshold {
		actions = append(actions, Action{Kind: ActionReminder, Text: p.Dropoff + " " + p.ResumePrompt})
	}

	if !s.Consistent() {
		e.logger.Warn("inconsistent session reset", "user", s.ID, "journey", s.Journey, "stage", s.Stage)
		e.metrics.Errors.WithLabelValues("convo").Inc()
		s.ResetAll()
		return append(actions, prompt(packFor(s.Language).Welcome+"\n"+packFor(s.Language).LanguagePrompt, languageButtons()...))
	}

	// A finished journey leaves the session reusable: the next event starts
	// from the journey choice with language and history kept.
	if s.Terminal() {
		s.ResetJourney()
	}

	if s.Stage == session.StageAwaitingLanguage {
		return append(actions, e.handleLanguage(s, evt)...)
	}

	switch classify(evt) {
	case IntentReset:
		s.ResetJourney()
		return append(actions, e.journeyPrompt(s))
	case IntentLanguageChange:
		s.Metadata[metaResumeStage] = string(s.Stage)
		s.Stage = session.StageAwaitingLanguage
		return append(actions, prompt(p.LanguagePrompt, languageButtons()...))
	case IntentApply:
		return append(actions, e.startOnboarding(s)...)
	case IntentSupport:
		return append(actions, e.startSupport(s)...)
	case IntentAccept:
		if s.Stage == session.StageDecisionDelivered {
			return append(actions, e.acceptOffer(ctx, s)...)
		}
	case IntentAgent:
		return append(actions, e.escalate(ctx, s, strings.TrimSpace(evt.Text), "agent requested")...)
	}

	switch s.Stage {
	case session.StageAwaitingJourneyChoice:
		return append(actions, e.handleJourneyChoice(ctx, s, evt)...)
	case session.StageAwaitingField:
		return append(actions, e.handleField(ctx, s, evt)...)
	case session.StageAwaitingDecision:
		// Decisions run synchronously; landing here means a crash between
		// submit and delivery. Re-run from the captured fields.
		return append(actions, e.runDecision(ctx, s)...)
	case session.StageDecisionDelivered:
		// A polite sign-off after the decision closes the journey; the next
		// contact starts fresh from the menu.
		if closingWords[strings.ToLower(strings.TrimSpace(evt.Text))] {
			s.Stage = session.StageClosed
			return append(actions, prompt(p.SupportClosing))
		}
		return append(actions, prompt(p.AskMoreHelp, postDecisionButtons(p)...))
	case session.StageAwaitingSupportCategory:
		return append(actions, e.handleSupportChoice(ctx, s, evt)...)
	case session.StageAwaitingQuery:
		return append(actions, e.answerQuery(ctx, s, evt.Text)...)
	case session.StageAnswerDelivered:
		return append(actions, e.handleFollowUp(ctx, s, evt)...)
	default:
		return append(actions, prompt(p.Unrecognized))
	}
}

const metaResumeStage = "resume_stage"

func languageButtons() []Button {
	return []Button{
		{ID: BtnLangEnglish, Label: "English"},
		{ID: BtnLangHindi, Label: "हिंदी"},
	}
}

func journeyButtons(p *pack) []Button {
	return []Button{
		{ID: BtnApply, Label: p.IntentApply},
		{ID: BtnSupport, Label: p.IntentSupport},
	}
}

func postDecisionButtons(p *pack) []Button {
	return []Button{
		{ID: BtnAcceptOffer, Label: p.PostAcceptLabel},
		{ID: BtnSupport, Label: p.PostSupportLabel},
	}
}

// WhatsApp caps a message at three buttons, so the full support menu spans two
// prompts.
func supportButtons(p *pack) []Button {
	return []Button{
		{ID: knowledge.ShortcutPayment, Label: p.SupportBtnPayment},
		{ID: knowledge.ShortcutStatus, Label: p.SupportBtnStatus},
		{ID: knowledge.ShortcutDocs, Label: p.SupportBtnDocs},
	}
}

func supportMoreButtons(p *pack) []Button {
	return []Button{
		{ID: knowledge.ShortcutRepayment, Label: p.SupportBtnRepayment},
		{ID: BtnAgent, Label: p.SupportBtnAgent},
	}
}

// supportQuickButtons is the compact re-prompt shown after an answer.
func supportQuickButtons(p *pack) []Button {
	return []Button{
		{ID: knowledge.ShortcutPayment, Label: p.SupportBtnPayment},
		{ID: knowledge.ShortcutStatus, Label: p.SupportBtnStatus},
		{ID: BtnAgent, Label: p.SupportBtnAgent},
	}
}

func supportMenu(p *pack, intro string) []Action {
	return []Action{
		prompt(intro, supportButtons(p)...),
		prompt(p.SupportMenuMore, supportMoreButtons(p)...),
	}
}

func (e *Engine) journeyPrompt(s *session.Session) Action {
	p := packFor(s.Language)
	text := p.IntentPromptNew
	if s.Status != session.StatusNew {
		text = p.IntentPromptExisting
	}
	return prompt(text, journeyButtons(p)...)
}

func (e *Engine) handleLanguage(s *session.Session, evt Event) []Action {
	lang := parseLanguage(evt)
	if lang == session.LanguageUnset {
		p := packFor(s.Language)
		if s.LastEventID == "" && evt.ButtonID == "" && evt.ListID == "" {
			// Very first contact: greet, then ask.
			return []Action{prompt(p.Welcome+"\n"+p.LanguagePrompt, languageButtons()...)}
		}
		return []Action{prompt(p.InvalidLanguage, languageButtons()...)}
	}

	s.Language = lang
	p := packFor(lang)

	if resume, ok := s.Metadata[metaResumeStage]; ok {
		delete(s.Metadata, metaResumeStage)
		s.Stage = session.Stage(resume)
		if s.Consistent() {
			switch s.Stage {
			case session.StageAwaitingField:
				return []Action{prompt(p.FieldPrompts[s.PendingField])}
			case session.StageAwaitingSupportCategory:
				return supportMenu(p, p.SupportMenuIntro)
			case session.StageAwaitingQuery:
				return []Action{prompt(p.SupportTextHint)}
			default:
				return []Action{e.journeyPrompt(s)}
			}
		}
		s.ResetJourney()
	}

	s.Stage = session.StageAwaitingJourneyChoice
	return []Action{e.journeyPrompt(s)}
}

func parseLanguage(evt Event) session.Language {
	switch evt.payload() {
	case BtnLangEnglish:
		return session.LanguageEnglish
	case BtnLangHindi:
		return session.LanguageHindi
	}
	switch strings.ToLower(strings.TrimSpace(evt.Text)) {
	case "1", "english", "en", "eng":
		return session.LanguageEnglish
	case "2", "hindi", "hi", "हिंदी", "हिन्दी":
		return session.LanguageHindi
	}
	return session.LanguageUnset
}

func (e *Engine) handleJourneyChoice(ctx context.Context, s *session.Session, evt Event) []Action {
	switch classifyLoose(evt) {
	case IntentApply:
		return e.startOnboarding(s)
	case IntentSupport:
		return e.startSupport(s)
	}
	p := packFor(s.Language)

	// An existing borrower who types a question at the menu is routed to
	// support directly instead of being bounced back to the buttons.
	if s.Status != session.StatusNew && strings.TrimSpace(evt.Text) != "" {
		if loan, err := e.repo.GetLoanByPhone(ctx, s.ID); err == nil && loan != nil {
			s.Journey = session.JourneySupport
			s.Stage = session.StageAwaitingQuery
			return e.answerQuery(ctx, s, evt.Text)
		}
	}
	return []Action{prompt(p.InvalidIntentChoice, journeyButtons(p)...)}
}

func (e *Engine) startOnboarding(s *session.Session) []Action {
	p := packFor(s.Language)
	s.Journey = session.JourneyOnboarding
	s.Stage = session.StageAwaitingField
	s.Fields = map[string]session.FieldValue{}
	s.Retries = map[string]int{}
	s.PendingField = fieldOrder[0]
	return []Action{
		prompt(p.OnboardingIntro),
		prompt(p.FieldPrompts[s.PendingField]),
	}
}

func (e *Engine) startSupport(s *session.Session) []Action {
	p := packFor(s.Language)
	s.Journey = session.JourneySupport
	s.Stage = session.StageAwaitingSupportCategory
	s.PendingField = ""
	intro := p.SupportPromptNew
	if s.Status != session.StatusNew {
		intro = p.SupportPromptExisting
	}
	actions := supportMenu(p, intro+"\n"+p.SupportMenuIntro)
	return append(actions, prompt(p.SupportTextHint))
}

func (e *Engine) handleField(ctx context.Context, s *session.Session, evt Event) []Action {
	p := packFor(s.Language)

	if len(evt.Form) > 0 {
		return e.handleForm(ctx, s, evt.Form)
	}

	raw := evt.Text
	if evt.ButtonID == BtnConsentYes || evt.ButtonID == BtnConsentNo {
		raw = evt.ButtonID
	}

	field := s.PendingField
	val, verr := ValidateField(field, raw)
	if verr != nil {
		s.Retries[field]++
		text := repromptText(p, verr)
		actions := []Action{prompt(text)}
		if s.Retries[field] > e.cfg.RetrySoftCap {
			actions = append(actions, prompt(p.NeedHumanHelp, Button{ID: BtnAgent, Label: p.SupportBtnAgent}))
		}
		return actions
	}

	s.Fields[field] = val
	delete(s.Retries, field)

	if next := nextMissingField(s); next != "" {
		s.PendingField = next
		if next == FieldConsent {
			return []Action{prompt(p.FieldPrompts[next],
				Button{ID: BtnConsentYes, Label: "YES"},
				Button{ID: BtnConsentNo, Label: "NO"})}
		}
		return []Action{prompt(p.FieldPrompts[next])}
	}

	s.PendingField = ""
	return e.runDecision(ctx, s)
}

// handleForm fills multiple fields from one WhatsApp flow submission, then
// continues the intake from the first gap.
func (e *Engine) handleForm(ctx context.Context, s *session.Session, form map[string]string) []Action {
	p := packFor(s.Language)
	var invalid []Action
	for key, raw := range form {
		field, ok := formFieldAliases[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		val, verr := ValidateField(field, raw)
		if verr != nil {
			invalid = append(invalid, prompt(repromptText(p, verr)))
			continue
		}
		s.Fields[field] = val
		delete(s.Retries, field)
	}

	if next := nextMissingField(s); next != "" {
		s.PendingField = next
		if len(invalid) > 0 {
			return invalid
		}
		return []Action{prompt(p.FieldPrompts[next])}
	}
	s.PendingField = ""
	return e.runDecision(ctx, s)
}

func (e *Engine) runDecision(ctx context.Context, s *session.Session) []Action {
	p := packFor(s.Language)

	app, missing := assembleApplication(s)
	if missing != "" {
		s.Stage = session.StageAwaitingField
		s.PendingField = missing
		return []Action{prompt(p.FieldPrompts[missing])}
	}

	s.Stage = session.StageAwaitingDecision
	s.Status = session.StatusPendingDecision
	actions := []Action{prompt(p.DecisionSubmit)}

	res, err := e.decisions.Decide(ctx, app)
	if err != nil {
		e.logger.Error("decision failed", "user", s.ID, "error", err)
		e.metrics.Errors.WithLabelValues("decision").Inc()
		return append(actions, prompt(p.NeedHumanHelp))
	}

	outcome := "declined"
	loanStatus := "declined"
	if res.Approved {
		outcome = "approved"
		loanStatus = "approved"
	}
	e.metrics.Decisions.WithLabelValues(res.Source, outcome).Inc()

	e.persistDecision(ctx, s, app, res, loanStatus)

	s.Metadata[session.MetaLastApplicationRef] = res.ReferenceID
	s.Stage = session.StageDecisionDelivered
	if res.Approved {
		s.Status = session.StatusApproved
		actions = append(actions, Action{
			Kind: ActionDecisionResult,
			Text: fmt.Sprintf(p.DecisionApproved, res.OfferAmount, res.APR, res.MaxTermMonths, res.ReferenceID),
		})
		actions = append(actions, prompt(p.AskMoreHelp, postDecisionButtons(p)...))
	} else {
		s.Status = session.StatusDenied
		actions = append(actions, Action{
			Kind: ActionDecisionResult,
			Text: fmt.Sprintf(p.DecisionRejected, p.denialReason(res.Reason)),
		})
		actions = append(actions, prompt(p.AskMoreHelp, Button{ID: BtnSupport, Label: p.PostSupportLabel}))
	}
	return actions
}

// persistDecision updates the durable stores. Failures are logged but never
// block delivering the decision to the user.
func (e *Engine) persistDecision(ctx context.Context, s *session.Session, app decision.Application, res decision.Result, loanStatus string) {
	lang := string(s.Language)
	status := string(session.StatusExisting)
	if _, err := e.repo.UpsertProfile(ctx, repo.ProfileUpsert{
		Phone:       s.ID,
		DisplayName: &app.FullName,
		Language:    &lang,
		Status:      &status,
	}); err != nil {
		e.logger.Error("profile upsert failed", "user", s.ID, "error", err)
		e.metrics.Errors.WithLabelValues("repo").Inc()
	}

	var reason *string
	if res.Reason != "" {
		reason = &res.Reason
	}
	if _, err := e.repo.UpsertLoan(ctx, repo.LoanRecord{
		Phone:         s.ID,
		ReferenceID:   res.ReferenceID,
		Status:        loanStatus,
		OfferAmount:   res.OfferAmount,
		APR:           res.APR,
		MaxTermMonths: res.MaxTermMonths,
		Reason:        reason,
		Metadata: map[string]any{
			"source":        res.Source,
			"fallback_used": res.FallbackUsed,
			"purpose":       app.Purpose,
		},
	}); err != nil {
		e.logger.Error("loan upsert failed", "user", s.ID, "ref", res.ReferenceID, "error", err)
		e.metrics.Errors.WithLabelValues("repo").Inc()
	}
}

// assembleApplication builds the immutable decision input from captured
// fields. It returns the first missing field name when incomplete.
func assembleApplication(s *session.Session) (decision.Application, string) {
	if missing := nextMissingField(s); missing != "" {
		return decision.Application{}, missing
	}
	return decision.NewApplication(decision.Application{
		Phone:            s.ID,
		FullName:         s.Fields[FieldFullName].Text,
		Age:              int(s.Fields[FieldAge].Num),
		EmploymentStatus: s.Fields[FieldEmployment].Text,
		MonthlyIncome:    s.Fields[FieldIncome].Num,
		RequestedAmount:  s.Fields[FieldAmount].Num,
		Purpose:          s.Fields[FieldPurpose].Text,
		Consent:          s.Fields[FieldConsent].Flag,
	}), ""
}

func (e *Engine) acceptOffer(ctx context.Context, s *session.Session) []Action {
	p := packFor(s.Language)
	s.Stage = session.StageAccepted
	if ref := s.Metadata[session.MetaLastApplicationRef]; ref != "" {
		if err := e.repo.UpdateLoanStatus(ctx, ref, "accepted", map[string]any{
			"accepted_at": e.now().UTC().Format(time.RFC3339),
		}); err != nil {
			e.logger.Error("loan accept update failed", "user", s.ID, "ref", ref, "error", err)
			e.metrics.Errors.WithLabelValues("repo").Inc()
		}
	}
	return []Action{prompt(p.AcceptAck), prompt(p.SupportClosing)}
}

func (e *Engine) handleSupportChoice(ctx context.Context, s *session.Session, evt Event) []Action {
	p := packFor(s.Language)
	id := evt.payload()

	if q, a, ok := e.kb.ShortcutAnswer(id, string(s.Language)); ok {
		s.Metadata[session.MetaLastSupportQuery] = q
		s.Stage = session.StageAnswerDelivered
		answer := e.enrichWithLoan(ctx, s, id, a)
		return []Action{
			{Kind: ActionAnswer, Text: answer},
			prompt(p.AnythingElse, supportQuickButtons(p)...),
		}
	}

	if strings.TrimSpace(evt.Text) != "" {
		return e.answerQuery(ctx, s, evt.Text)
	}
	return supportMenu(p, p.SupportMenuIntro)
}

// enrichWithLoan appends live account figures to a canned answer when the
// caller has a loan on file.
func (e *Engine) enrichWithLoan(ctx context.Context, s *session.Session, shortcutID, answer string) string {
	loan, err := e.repo.GetLoanByPhone(ctx, s.ID)
	if err != nil || loan == nil {
		return answer
	}
	switch shortcutID {
	case knowledge.ShortcutStatus:
		return fmt.Sprintf("%s\n\n%s: %s (₹%.2f, ref %s)", answer, "Current status", loan.Status, loan.OfferAmount, loan.ReferenceID)
	case knowledge.ShortcutPayment:
		if loan.NextEMIDue != nil {
			return fmt.Sprintf("%s\n\nNext EMI due: ₹%.2f", answer, *loan.NextEMIDue)
		}
	case knowledge.ShortcutDocs:
		if loan.DocumentsURL != nil {
			return answer + "\n\n" + *loan.DocumentsURL
		}
	}
	return answer
}

func (e *Engine) answerQuery(ctx context.Context, s *session.Session, text string) []Action {
	p := packFor(s.Language)
	question := strings.TrimSpace(text)
	if question == "" {
		s.Stage = session.StageAwaitingQuery
		return []Action{prompt(p.SupportTextHint)}
	}
	s.Metadata[session.MetaLastSupportQuery] = question

	contextText := e.kb.Compose(string(s.Language))
	if loan, err := e.repo.GetLoanByPhone(ctx, s.ID); err == nil && loan != nil {
		contextText += fmt.Sprintf("\nCustomer loan: status %s, amount ₹%.2f, reference %s.",
			loan.Status, loan.OfferAmount, loan.ReferenceID)
	}

	answerText, confidence := "", 0.0
	if e.remote != nil && e.remote.Configured() {
		ans, err := e.remote.Ask(ctx, question, contextText)
		if err != nil {
			e.logger.Warn("knowledge service unavailable, using local match", "user", s.ID, "error", err)
			e.metrics.Errors.WithLabelValues("knowledge").Inc()
		} else {
			answerText, confidence = ans.Text, ans.Confidence
		}
	}
	if answerText == "" {
		answerText, confidence = e.kb.BestMatch(question, string(s.Language))
	}

	verdict := e.gate.Decide(answerText, confidence)
	if verdict.Escalate {
		return e.escalate(ctx, s, question, "low confidence")
	}

	s.Stage = session.StageAnswerDelivered
	return []Action{
		{Kind: ActionAnswer, Text: verdict.Answer},
		prompt(p.AnythingElse, supportQuickButtons(p)...),
	}
}

func (e *Engine) escalate(ctx context.Context, s *session.Session, question, cause string) []Action {
	p := packFor(s.Language)
	if question == "" {
		question = s.Metadata[session.MetaLastSupportQuery]
	}

	ticket := EscalationTicket{
		ID:        uuid.NewString(),
		Phone:     s.ID,
		Question:  question,
		Queue:     e.cfg.HandoffQueue,
		CreatedAt: e.now(),
	}
	if _, err := e.repo.InsertEscalation(ctx, repo.Escalation{
		ID:       ticket.ID,
		Phone:    ticket.Phone,
		Question: ticket.Question,
		Queue:    ticket.Queue,
		Status:   "open",
	}); err != nil {
		e.logger.Error("escalation insert failed", "user", s.ID, "error", err)
		e.metrics.Errors.WithLabelValues("repo").Inc()
	}
	e.handoff.Notify(ctx, ticket)
	e.metrics.Escalations.WithLabelValues(ticket.Queue).Inc()
	e.logger.Info("escalated to support queue", "user", s.ID, "ticket_id", ticket.ID, "cause", cause)

	s.Journey = session.JourneySupport
	s.Stage = session.StageEscalated
	s.Metadata[session.MetaLastEscalationID] = ticket.ID

	return []Action{
		prompt(p.SupportHandoff),
		{Kind: ActionEscalationNotice, Text: p.SupportEscalationAck},
	}
}

var closingWords = map[string]bool{
	"no": true, "nope": true, "nothing": true, "thanks": true, "thank you": true,
	"nahi": true, "नहीं": true, "धन्यवाद": true, "shukriya": true, "done": true,
}

func (e *Engine) handleFollowUp(ctx context.Context, s *session.Session, evt Event) []Action {
	p := packFor(s.Language)
	norm := strings.ToLower(strings.TrimSpace(evt.Text))
	if closingWords[norm] {
		s.Stage = session.StageResolved
		s.Status = session.StatusResolved
		return []Action{prompt(p.SupportClosing)}
	}
	if evt.payload() != "" {
		return e.handleSupportChoice(ctx, s, evt)
	}
	return []Action{prompt(p.AnythingElse, supportQuickButtons(p)...)}
}

// audit records the exchange for servicing history. Best effort.
func (e *Engine) audit(ctx context.Context, evt Event, actions []Action) {
	if err := e.repo.InsertInteraction(ctx, repo.Interaction{
		Phone:     evt.UserID,
		Direction: "inbound",
		Category:  evt.Kind(),
		Payload:   map[string]any{"event_id": evt.EventID, "text": evt.Text, "button": evt.ButtonID, "list": evt.ListID},
	}); err != nil {
		e.logger.Debug("interaction audit failed", "user", evt.UserID, "error", err)
	}
	for _, a := range actions {
		if err := e.repo.InsertInteraction(ctx, repo.Interaction{
			Phone:     evt.UserID,
			Direction: "outbound",
			Category:  string(a.Kind),
			Payload:   map[string]any{"text": a.Text},
		}); err != nil {
			e.logger.Debug("interaction audit failed", "user", evt.UserID, "error", err)
		}
	}
}

// Reminder pairs a due idle nudge with its recipient.
type Reminder struct {
	Phone  string
	Action Action
}

// SweepIdle finds sessions idle past the threshold and arms one reminder per
// idle period. The transport layer delivers the returned reminders.
func (e *Engine) SweepIdle(ctx context.Context) ([]Reminder, error) {
	sessions, err := e.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	now := e.now()
	var due []Reminder
	for _, s := range sessions {
		if !e.reminderDue(s, now) {
			continue
		}
		lock := e.userLock(s.ID)
		lock.Lock()
		fresh, err := e.sessions.Get(ctx, s.ID)
		if err != nil || !e.reminderDue(fresh, now) {
			lock.Unlock()
			continue
		}
		fresh.ReminderSent = true
		if err := e.sessions.Put(ctx, fresh); err != nil {
			lock.Unlock()
			if errors.Is(err, session.ErrVersionConflict) {
				e.metrics.SessionConflicts.Inc()
				continue
			}
			e.logger.Error("reminder latch failed", "user", s.ID, "error", err)
			continue
		}
		lock.Unlock()

		p := packFor(fresh.Language)
		due = append(due, Reminder{
			Phone:  fresh.ID,
			Action: Action{Kind: ActionReminder, Text: p.Dropoff + " " + p.ResumePrompt},
		})
		e.metrics.IdleReminders.Inc()
	}
	return due, nil
}

func (e *Engine) reminderDue(s *session.Session, now time.Time) bool {
	return s != nil &&
		!s.ReminderSent &&
		!s.Terminal() &&
		!s.LastActivity.IsZero() &&
		now.Sub(s.LastActivity) >= e.cfg.IdleThreshold
}
