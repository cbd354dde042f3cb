package convo

import (
	"testing"

	"loanbot/internal/session"
)

func TestValidateAgeBounds(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"17", false},
		{"18", true},
		{"30", true},
		{"75", true},
		{"76", false},
		{"0", false},
		{"200", false},
	}
	for _, c := range cases {
		val, verr := ValidateField(FieldAge, c.raw)
		if c.ok && verr != nil {
			t.Fatalf("age %q: unexpected error %v", c.raw, verr)
		}
		if !c.ok && verr == nil {
			t.Fatalf("age %q: expected rejection, got %v", c.raw, val)
		}
		if !c.ok && verr.Reason != ReasonOutOfRange {
			t.Fatalf("age %q: reason = %s, want %s", c.raw, verr.Reason, ReasonOutOfRange)
		}
	}
}

func TestValidateAgeNotNumeric(t *testing.T) {
	_, verr := ValidateField(FieldAge, "thirty")
	if verr == nil || verr.Reason != ReasonNotNumeric {
		t.Fatalf("expected not_numeric, got %v", verr)
	}
}

func TestValidateMoneyStripsCurrencyMarkers(t *testing.T) {
	cases := map[string]float64{
		"2500":      2500,
		"₹1,50,000": 150000,
		"Rs 2500":   2500,
		"rs. 999.5": 999.5,
		"INR 12000": 12000,
	}
	for raw, want := range cases {
		val, verr := ValidateField(FieldIncome, raw)
		if verr != nil {
			t.Fatalf("income %q: unexpected error %v", raw, verr)
		}
		if val.Num != want {
			t.Fatalf("income %q: parsed %v, want %v", raw, val.Num, want)
		}
	}
}

func TestValidateMoneyRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0", "-100"} {
		_, verr := ValidateField(FieldAmount, raw)
		if verr == nil || verr.Reason != ReasonOutOfRange {
			t.Fatalf("amount %q: expected out_of_range, got %v", raw, verr)
		}
	}
}

func TestValidateNameTitleCased(t *testing.T) {
	val, verr := ValidateField(FieldFullName, "  asha rao ")
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if val.Text != "Asha Rao" {
		t.Fatalf("name = %q, want %q", val.Text, "Asha Rao")
	}
}

func TestValidateConsent(t *testing.T) {
	for _, raw := range []string{"yes", "YES", "haan", "ji haan", BtnConsentYes} {
		val, verr := ValidateField(FieldConsent, raw)
		if verr != nil || !val.Flag {
			t.Fatalf("consent %q: expected acceptance, got %v %v", raw, val, verr)
		}
	}
	for _, raw := range []string{"no", "nahi", "maybe", BtnConsentNo} {
		_, verr := ValidateField(FieldConsent, raw)
		if verr == nil || verr.Reason != ReasonConsentDenied {
			t.Fatalf("consent %q: expected consent_denied, got %v", raw, verr)
		}
	}
}

func TestValidateEmpty(t *testing.T) {
	_, verr := ValidateField(FieldFullName, "   ")
	if verr == nil || verr.Reason != ReasonEmpty {
		t.Fatalf("expected empty reason, got %v", verr)
	}
}

func TestNextMissingFieldFollowsIntakeOrder(t *testing.T) {
	s := session.New("919000000001")
	if got := nextMissingField(s); got != FieldFullName {
		t.Fatalf("first missing = %s, want %s", got, FieldFullName)
	}
	s.Fields[FieldFullName] = session.FieldValue{Kind: session.KindText, Text: "Asha Rao"}
	s.Fields[FieldAge] = session.FieldValue{Kind: session.KindNumber, Num: 30}
	if got := nextMissingField(s); got != FieldEmployment {
		t.Fatalf("missing = %s, want %s", got, FieldEmployment)
	}
	for _, f := range fieldOrder {
		s.Fields[f] = session.FieldValue{Kind: session.KindText, Text: "x"}
	}
	if got := nextMissingField(s); got != "" {
		t.Fatalf("complete intake reported %s missing", got)
	}
}
