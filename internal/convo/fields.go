package convo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"loanbot/internal/session"
)

// Intake field names, asked in this order.
const (
	FieldFullName   = "full_name"
	FieldAge        = "age"
	FieldEmployment = "employment_status"
	FieldIncome     = "monthly_income"
	FieldAmount     = "requested_amount"
	FieldPurpose    = "purpose"
	FieldConsent    = "consent_to_credit_check"
)

var fieldOrder = []string{
	FieldFullName,
	FieldAge,
	FieldEmployment,
	FieldIncome,
	FieldAmount,
	FieldPurpose,
	FieldConsent,
}

// formFieldAliases maps keys a WhatsApp flow form may use onto the canonical
// field names above.
var formFieldAliases = map[string]string{
	"full_name":               FieldFullName,
	"name":                    FieldFullName,
	"age":                     FieldAge,
	"employment_status":       FieldEmployment,
	"employment":              FieldEmployment,
	"occupation":              FieldEmployment,
	"monthly_income":          FieldIncome,
	"income":                  FieldIncome,
	"requested_amount":        FieldAmount,
	"loan_amount":             FieldAmount,
	"amount":                  FieldAmount,
	"purpose":                 FieldPurpose,
	"loan_purpose":            FieldPurpose,
	"consent_to_credit_check": FieldConsent,
	"consent":                 FieldConsent,
}

const (
	ReasonEmpty         = "empty"
	ReasonNotNumeric    = "not_numeric"
	ReasonOutOfRange    = "out_of_range"
	ReasonConsentDenied = "consent_denied"
)

// ValidationError reports why a raw answer cannot fill a field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

var yesWords = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "haan": true, "ha": true, "ji": true,
	"ji haan": true, "हाँ": true, "हां": true, "जी": true, "जी हाँ": true,
	"consent_yes": true, "i agree": true, "agree": true,
}

var noWords = map[string]bool{
	"no": true, "n": true, "nope": true, "nahi": true, "nahin": true,
	"नहीं": true, "na": true, "consent_no": true,
}

// ValidateField parses a raw user answer into a typed field value. The
// returned error is always a *ValidationError.
func ValidateField(field, raw string) (session.FieldValue, *ValidationError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonEmpty}
	}

	switch field {
	case FieldFullName:
		return session.FieldValue{Kind: session.KindText, Text: titleCase(trimmed)}, nil

	case FieldAge:
		n, ok := parseNumber(trimmed)
		if !ok {
			return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonNotNumeric}
		}
		age := int(n)
		if float64(age) != n || age < 18 || age > 75 {
			return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonOutOfRange}
		}
		return session.FieldValue{Kind: session.KindNumber, Num: float64(age)}, nil

	case FieldEmployment:
		return session.FieldValue{Kind: session.KindText, Text: titleCase(trimmed)}, nil

	case FieldIncome, FieldAmount:
		n, ok := parseNumber(trimmed)
		if !ok {
			return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonNotNumeric}
		}
		if n <= 0 {
			return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonOutOfRange}
		}
		return session.FieldValue{Kind: session.KindNumber, Num: n}, nil

	case FieldPurpose:
		return session.FieldValue{Kind: session.KindText, Text: sentenceCase(trimmed)}, nil

	case FieldConsent:
		norm := strings.ToLower(trimmed)
		if yesWords[norm] {
			return session.FieldValue{Kind: session.KindBool, Flag: true}, nil
		}
		if noWords[norm] {
			return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonConsentDenied}
		}
		return session.FieldValue{}, &ValidationError{Field: field, Reason: ReasonConsentDenied}

	default:
		return session.FieldValue{Kind: session.KindText, Text: trimmed}, nil
	}
}

// parseNumber extracts a numeric amount from user text, tolerating currency
// markers and digit grouping ("₹1,50,000", "Rs 2500", "2 500").
func parseNumber(raw string) (float64, bool) {
	cleaned := strings.ToLower(raw)
	for _, marker := range []string{"₹", "rs.", "rs", "inr", "$", ","} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	var b strings.Builder
	for _, r := range cleaned {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		} else if unicode.IsSpace(r) && b.Len() > 0 {
			continue
		} else if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func titleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		r := []rune(strings.ToLower(p))
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func sentenceCase(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// nextMissingField returns the first field in intake order that the session
// has not captured yet, or "" when the application is complete.
func nextMissingField(s *session.Session) string {
	for _, f := range fieldOrder {
		if _, ok := s.Fields[f]; !ok {
			return f
		}
	}
	return ""
}

// repromptText renders the language-appropriate correction message for a
// validation failure, followed by the field prompt again.
func repromptText(p *pack, verr *ValidationError) string {
	var hint string
	switch verr.Reason {
	case ReasonEmpty:
		hint = p.InvalidEmpty
	case ReasonNotNumeric:
		hint = p.InvalidNumeric
	case ReasonOutOfRange:
		hint = p.InvalidRange[verr.Field]
		if hint == "" {
			hint = p.InvalidNumeric
		}
	case ReasonConsentDenied:
		hint = p.ConsentRequired
		return hint
	}
	return hint + "\n" + p.FieldPrompts[verr.Field]
}
