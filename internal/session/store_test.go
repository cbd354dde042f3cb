package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// A fresh session has empty Retries and Metadata maps, which omitempty drops
// from the encoded form. Decoding must hand back usable maps, not nil ones.
func TestSessionJSONRoundTripRestoresMaps(t *testing.T) {
	raw, err := json.Marshal(New("919900001111"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Session
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Fields == nil || got.Retries == nil || got.Metadata == nil {
		t.Fatalf("decoded session carries nil maps: %+v", got)
	}

	got.Retries["age"]++
	got.Metadata[MetaLastSupportQuery] = "emi date"
	got.Fields["age"] = FieldValue{Kind: KindNumber, Num: 30}
	if got.Retries["age"] != 1 {
		t.Fatal("retry write after decode must stick")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "919900001111"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for unseen id, got %v", err)
	}

	s := New("919900001111")
	s.Language = LanguageEnglish
	s.Touch(time.Now())
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("put: %v", err)
	}
	if s.Version != 1 {
		t.Fatalf("expected version bump to 1, got %d", s.Version)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Language != LanguageEnglish || got.Version != 1 {
		t.Fatalf("unexpected session %+v", got)
	}

	got.Fields["full_name"] = FieldValue{Kind: KindText, Text: "Asha"}
	fresh, _ := store.Get(ctx, s.ID)
	if _, leaked := fresh.Fields["full_name"]; leaked {
		t.Fatal("store must not hand out shared maps")
	}
}

func TestMemoryStorePutDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := New("u1")
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, _ := store.Get(ctx, "u1")
	second, _ := store.Get(ctx, "u1")

	first.Stage = StageAwaitingJourneyChoice
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("first writer: %v", err)
	}

	second.Stage = StageAwaitingQuery
	if err := store.Put(ctx, second); err != ErrVersionConflict {
		t.Fatalf("stale writer must get ErrVersionConflict, got %v", err)
	}
}

func TestSessionConsistency(t *testing.T) {
	s := New("u1")
	if !s.Consistent() {
		t.Fatal("fresh session must be consistent")
	}
	s.Journey = JourneySupport
	s.Stage = StageAwaitingField
	if s.Consistent() {
		t.Fatal("onboarding stage under support journey must be inconsistent")
	}
}

func TestResetJourneyKeepsLanguageAndMetadata(t *testing.T) {
	s := New("u1")
	s.Language = LanguageHindi
	s.Journey = JourneyOnboarding
	s.Stage = StageAwaitingField
	s.PendingField = "age"
	s.Fields["full_name"] = FieldValue{Kind: KindText, Text: "Asha"}
	s.Metadata[MetaLastApplicationRef] = "ref-9"

	s.ResetJourney()

	if s.Stage != StageAwaitingJourneyChoice {
		t.Fatalf("expected journey choice stage, got %s", s.Stage)
	}
	if len(s.Fields) != 0 || s.PendingField != "" {
		t.Fatal("reset must discard captured fields")
	}
	if s.Language != LanguageHindi {
		t.Fatal("reset must preserve language")
	}
	if s.Metadata[MetaLastApplicationRef] != "ref-9" {
		t.Fatal("reset must preserve metadata")
	}

	s.Language = LanguageUnset
	s.ResetJourney()
	if s.Stage != StageAwaitingLanguage {
		t.Fatal("reset without language must return to language prompt")
	}
}
