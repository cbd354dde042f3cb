package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"loanbot/internal/convo"
	"loanbot/internal/decision"
	"loanbot/internal/metrics"
	"loanbot/internal/repo"
	"loanbot/internal/session"
)

// DecisionProcessor applies asynchronous decision service callbacks: updates
// the loan record and tells the borrower over WhatsApp.
type DecisionProcessor struct {
	repo    repo.Repository
	sender  convo.Sender
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDecisionProcessor(repository repo.Repository, sender convo.Sender, logger *slog.Logger, metricRegistry *metrics.Metrics) *DecisionProcessor {
	return &DecisionProcessor{
		repo:    repository,
		sender:  sender,
		logger:  logger.With("component", "decision_processor"),
		metrics: metricRegistry,
	}
}

type decisionPayload struct {
	ReferenceID  string   `json:"reference_id"`
	Status       string   `json:"status"`
	OfferAmount  *float64 `json:"offer_amount,omitempty"`
	APR          *float64 `json:"apr,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	DocumentsURL string   `json:"documents_url,omitempty"`
	NextEMIDue   *float64 `json:"next_emi_due,omitempty"`
}

var allowedStatuses = map[string]bool{
	"approved": true, "declined": true, "disbursed": true, "closed": true,
}

// HandleDecisionEvent implements decision.WebhookProcessor.
func (p *DecisionProcessor) HandleDecisionEvent(ctx context.Context, event decision.WebhookEvent) error {
	var payload decisionPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode decision payload: %w", err)
	}
	if payload.ReferenceID == "" {
		return fmt.Errorf("decision payload missing reference_id")
	}
	if !allowedStatuses[payload.Status] {
		return fmt.Errorf("unknown decision status %q", payload.Status)
	}

	loan, err := p.repo.GetLoanByRef(ctx, payload.ReferenceID)
	if err != nil {
		return fmt.Errorf("lookup loan %s: %w", payload.ReferenceID, err)
	}
	if loan == nil {
		return fmt.Errorf("no loan for reference %s", payload.ReferenceID)
	}

	meta := map[string]any{"webhook_event": event.Type}
	if payload.Reason != "" {
		meta["reason"] = payload.Reason
	}
	if payload.DocumentsURL != "" {
		meta["documents_url"] = payload.DocumentsURL
	}
	if payload.NextEMIDue != nil {
		meta["next_emi_due"] = *payload.NextEMIDue
	}
	if err := p.repo.UpdateLoanStatus(ctx, payload.ReferenceID, payload.Status, meta); err != nil {
		return fmt.Errorf("update loan %s: %w", payload.ReferenceID, err)
	}

	p.metrics.Decisions.WithLabelValues("webhook", payload.Status).Inc()
	p.logger.Info("loan status updated from webhook",
		"reference_id", payload.ReferenceID,
		"status", payload.Status,
	)

	p.notify(ctx, loan, payload)
	return nil
}

// notify is best effort: a dropped message must not fail the webhook, the
// loan record is already updated and the user can always ask for status.
func (p *DecisionProcessor) notify(ctx context.Context, loan *repo.LoanRecord, payload decisionPayload) {
	if p.sender == nil {
		return
	}

	lang := session.LanguageEnglish
	if profile, err := p.repo.GetProfileByPhone(ctx, loan.Phone); err == nil && profile != nil && profile.Language != "" {
		lang = session.Language(profile.Language)
	}

	text := statusMessage(lang, payload, loan)
	if text == "" {
		return
	}
	if err := p.sender.SendText(ctx, loan.Phone, text); err != nil {
		p.logger.Error("status notification failed", "phone", loan.Phone, "error", err)
		p.metrics.Errors.WithLabelValues("wa").Inc()
	}
}

func statusMessage(lang session.Language, payload decisionPayload, loan *repo.LoanRecord) string {
	amount := loan.OfferAmount
	if payload.OfferAmount != nil {
		amount = *payload.OfferAmount
	}

	hindi := lang == session.LanguageHindi
	switch payload.Status {
	case "approved":
		if hindi {
			return fmt.Sprintf("🎉 अपडेट: आपका लोन (संदर्भ %s) ₹%.2f के लिए मंज़ूर हो गया है।", loan.ReferenceID, amount)
		}
		return fmt.Sprintf("🎉 Update: your loan (reference %s) has been approved for ₹%.2f.", loan.ReferenceID, amount)
	case "declined":
		if hindi {
			return fmt.Sprintf("अपडेट: हम आपका लोन (संदर्भ %s) अभी स्वीकृत नहीं कर सके। मदद के लिए SUPPORT लिखें।", loan.ReferenceID)
		}
		return fmt.Sprintf("Update: we could not approve your loan (reference %s) at this time. Type SUPPORT if you'd like help.", loan.ReferenceID)
	case "disbursed":
		if hindi {
			return fmt.Sprintf("✅ ₹%.2f आपके खाते में भेज दिए गए हैं (संदर्भ %s)।", amount, loan.ReferenceID)
		}
		return fmt.Sprintf("✅ ₹%.2f has been disbursed to your account (reference %s).", amount, loan.ReferenceID)
	case "closed":
		if hindi {
			return fmt.Sprintf("आपका लोन (संदर्भ %s) बंद कर दिया गया है। हमारे साथ बने रहने के लिए धन्यवाद!", loan.ReferenceID)
		}
		return fmt.Sprintf("Your loan (reference %s) is now closed. Thank you for banking with us!", loan.ReferenceID)
	}
	return ""
}
