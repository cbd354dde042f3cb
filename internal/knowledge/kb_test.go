package knowledge

import "testing"

func TestDefaultBaseLoads(t *testing.T) {
	base := DefaultBase()
	if base.Len() != 4 {
		t.Fatalf("expected 4 embedded entries, got %d", base.Len())
	}
}

func TestBestMatchFindsEMIEntry(t *testing.T) {
	base := DefaultBase()
	answer, score := base.BestMatch("how can I pay my EMI?", "en")
	if answer == "" {
		t.Fatal("expected an answer for the EMI question")
	}
	if score <= 0.5 {
		t.Fatalf("expected a strong overlap score, got %v", score)
	}
}

func TestBestMatchNoOverlapScoresZero(t *testing.T) {
	base := DefaultBase()
	_, score := base.BestMatch("unrelated gibberish zxqv", "en")
	if score != 0 {
		t.Fatalf("expected zero score without overlap, got %v", score)
	}
}

func TestBestMatchFallsBackToEnglish(t *testing.T) {
	base := DefaultBase()
	// Unknown language codes resolve against the English entries.
	answer, _ := base.BestMatch("how can I pay my EMI?", "fr")
	if answer == "" {
		t.Fatal("expected English fallback answer")
	}
}

func TestShortcutAnswerMapsButtons(t *testing.T) {
	base := DefaultBase()
	q, a, ok := base.ShortcutAnswer(ShortcutDocs, "en")
	if !ok {
		t.Fatal("expected docs shortcut to resolve")
	}
	if q == "" || a == "" {
		t.Fatal("shortcut must carry both question and answer")
	}
	if _, _, ok := base.ShortcutAnswer("support_unknown", "en"); ok {
		t.Fatal("unknown shortcut must not resolve")
	}
}

func TestSimilarityBounds(t *testing.T) {
	if s := Similarity("a b c", "a b c"); s != 1 {
		t.Fatalf("identical strings must score 1, got %v", s)
	}
	if s := Similarity("", "anything"); s != 0 {
		t.Fatalf("empty string must score 0, got %v", s)
	}
	s := Similarity("pay my emi now", "how can i pay my emi")
	if s <= 0 || s >= 1 {
		t.Fatalf("partial overlap must score in (0,1), got %v", s)
	}
}

func TestGateDecidesDeterministically(t *testing.T) {
	gate := Gate{Threshold: 0.55}

	v := gate.Decide("answer text", 0.40)
	if !v.Escalate {
		t.Fatal("confidence 0.40 below threshold 0.55 must escalate")
	}
	if v.Answer != "" {
		t.Fatal("escalated verdict must not carry an answer")
	}

	v = gate.Decide("answer text", 0.55)
	if v.Escalate {
		t.Fatal("confidence at threshold must pass through")
	}
	if v.Answer != "answer text" {
		t.Fatalf("expected answer pass-through, got %q", v.Answer)
	}

	if v := gate.Decide("", 0.99); !v.Escalate {
		t.Fatal("empty answer must escalate regardless of score")
	}

	// Same inputs, same verdict.
	a := gate.Decide("x", 0.6)
	b := gate.Decide("x", 0.6)
	if a != b {
		t.Fatalf("gate must be deterministic: %+v vs %+v", a, b)
	}
}
