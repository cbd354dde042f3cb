package decision

import (
	"fmt"

	"github.com/google/uuid"
)

// Denial reasons reported to callers and stored on the loan record.
const (
	ReasonUnderage       = "underage"
	ReasonConsentMissing = "consent_required"
	ReasonDTIExceeded    = "dti_exceeded"
	ReasonLowIncome      = "income_below_minimum"
)

// Result sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Application is an immutable snapshot of a completed intake attempt.
type Application struct {
	ReferenceID      string  `json:"reference_id"`
	Phone            string  `json:"customer_phone"`
	FullName         string  `json:"full_name"`
	Age              int     `json:"age"`
	EmploymentStatus string  `json:"employment_status"`
	MonthlyIncome    float64 `json:"monthly_income"`
	RequestedAmount  float64 `json:"requested_amount"`
	Purpose          string  `json:"purpose"`
	Consent          bool    `json:"consent_to_credit_check"`
}

// NewApplication assigns a fresh reference id to the given snapshot.
func NewApplication(app Application) Application {
	app.ReferenceID = uuid.NewString()
	return app
}

// Guardrails are the jurisdiction-specific underwriting thresholds. Two
// deployments of this product family ship different values, so nothing here
// is hardcoded in the policy.
type Guardrails struct {
	MinAge             int
	MinIncome          float64
	DTICeiling         float64
	OfferMultiplier    float64
	APRLow             float64
	APRHigh            float64
	APRIncomeThreshold float64
	MaxTermMonths      int
}

// Validate reports the first missing or non-positive threshold.
func (g Guardrails) Validate() error {
	switch {
	case g.MinAge <= 0:
		return fmt.Errorf("min age must be positive, got %d", g.MinAge)
	case g.MinIncome <= 0:
		return fmt.Errorf("min income must be positive, got %v", g.MinIncome)
	case g.DTICeiling <= 0:
		return fmt.Errorf("dti ceiling must be positive, got %v", g.DTICeiling)
	case g.OfferMultiplier <= 0:
		return fmt.Errorf("offer multiplier must be positive, got %v", g.OfferMultiplier)
	case g.APRLow <= 0 || g.APRHigh <= 0:
		return fmt.Errorf("apr tiers must be positive, got %v/%v", g.APRLow, g.APRHigh)
	case g.APRIncomeThreshold <= 0:
		return fmt.Errorf("apr income threshold must be positive, got %v", g.APRIncomeThreshold)
	case g.MaxTermMonths <= 0:
		return fmt.Errorf("max term must be positive, got %d", g.MaxTermMonths)
	}
	return nil
}

// Result is the outcome of evaluating one application.
type Result struct {
	Approved      bool    `json:"approved"`
	OfferAmount   float64 `json:"offer_amount"`
	APR           float64 `json:"apr"`
	MaxTermMonths int     `json:"max_term_months"`
	Reason        string  `json:"reason,omitempty"`
	ReferenceID   string  `json:"reference_id"`
	Source        string  `json:"source,omitempty"`
	FallbackUsed  bool    `json:"fallback_used,omitempty"`
}

// Evaluate applies the guardrail rules in order. It is a pure function of
// (application, guardrails); the reference id is carried through unchanged.
func Evaluate(app Application, g Guardrails) Result {
	deny := func(reason string) Result {
		return Result{
			Approved:    false,
			Reason:      reason,
			ReferenceID: app.ReferenceID,
			Source:      SourceLocal,
		}
	}

	if app.Age < g.MinAge {
		return deny(ReasonUnderage)
	}
	if !app.Consent {
		return deny(ReasonConsentMissing)
	}
	if app.MonthlyIncome <= 0 || app.RequestedAmount/app.MonthlyIncome > g.DTICeiling {
		return deny(ReasonDTIExceeded)
	}
	if app.MonthlyIncome < g.MinIncome {
		return deny(ReasonLowIncome)
	}

	offer := app.MonthlyIncome * g.OfferMultiplier
	if app.RequestedAmount < offer {
		offer = app.RequestedAmount
	}
	apr := g.APRHigh
	if app.MonthlyIncome >= g.APRIncomeThreshold {
		apr = g.APRLow
	}
	return Result{
		Approved:      true,
		OfferAmount:   offer,
		APR:           apr,
		MaxTermMonths: g.MaxTermMonths,
		ReferenceID:   app.ReferenceID,
		Source:        SourceLocal,
	}
}
