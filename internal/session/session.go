// Package session holds the per-user conversation state entity and its
// pluggable stores. One Session exists per phone identifier; it is created on
// the first inbound event and only ever transitioned, never deleted.
package session

import (
	"encoding/json"
	"time"
)

// Language is the user's chosen conversation language.
type Language string

const (
	LanguageUnset   Language = ""
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// Journey is the top-level path a user is on.
type Journey string

const (
	JourneyUnset      Journey = ""
	JourneyOnboarding Journey = "onboarding"
	JourneySupport    Journey = "support"
)

// Stage is the specific step within a journey.
type Stage string

const (
	StageAwaitingLanguage      Stage = "awaiting_language"
	StageAwaitingJourneyChoice Stage = "awaiting_journey_choice"

	// Onboarding. StageAwaitingField captures the field named by
	// Session.PendingField.
	StageAwaitingField     Stage = "awaiting_field"
	StageAwaitingDecision  Stage = "awaiting_decision"
	StageDecisionDelivered Stage = "decision_delivered"
	StageAccepted          Stage = "accepted"
	StageClosed            Stage = "closed"

	// Support.
	StageAwaitingSupportCategory Stage = "awaiting_support_category"
	StageAwaitingQuery           Stage = "awaiting_query"
	StageAnswerDelivered         Stage = "answer_delivered"
	StageResolved                Stage = "resolved"
	StageEscalated               Stage = "escalated"
)

// Status reflects what the profile/loan stores know about the user.
type Status string

const (
	StatusNew             Status = "new"
	StatusExisting        Status = "existing"
	StatusPendingDecision Status = "pending_decision"
	StatusApproved        Status = "approved"
	StatusDenied          Status = "denied"
	StatusResolved        Status = "resolved"
)

// FieldValue is a validated, normalized capture for one intake field.
type FieldValue struct {
	Kind string  `json:"kind"`
	Text string  `json:"text,omitempty"`
	Num  float64 `json:"num,omitempty"`
	Flag bool    `json:"flag,omitempty"`
}

// Field value kinds.
const (
	KindText   = "text"
	KindNumber = "number"
	KindBool   = "bool"
)

// Metadata keys.
const (
	MetaLastApplicationRef = "last_application_ref"
	MetaLastSupportQuery   = "last_support_query"
	MetaLastEscalationID   = "last_escalation_id"
)

// Session is the conversation state for one phone identifier.
type Session struct {
	ID           string                `json:"id"`
	Language     Language              `json:"language"`
	Journey      Journey               `json:"journey"`
	Stage        Stage                 `json:"stage"`
	PendingField string                `json:"pending_field,omitempty"`
	Status       Status                `json:"status"`
	Fields       map[string]FieldValue `json:"fields"`
	Retries      map[string]int        `json:"retries,omitempty"`
	LastActivity time.Time             `json:"last_activity"`
	LastEventID  string                `json:"last_event_id,omitempty"`
	ReminderSent bool                  `json:"reminder_sent,omitempty"`
	Metadata     map[string]string     `json:"metadata,omitempty"`

	// Version backs the store's optimistic concurrency check. Zero means
	// the session has never been persisted.
	Version int64 `json:"version"`
}

// New returns a fresh session for an unseen phone identifier.
func New(id string) *Session {
	return &Session{
		ID:       id,
		Stage:    StageAwaitingLanguage,
		Status:   StatusNew,
		Fields:   map[string]FieldValue{},
		Retries:  map[string]int{},
		Metadata: map[string]string{},
	}
}

// UnmarshalJSON restores the map fields that omitempty drops when empty, so a
// session decoded from storage never comes back with nil maps.
func (s *Session) UnmarshalJSON(data []byte) error {
	type alias Session
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = Session(a)
	if s.Fields == nil {
		s.Fields = map[string]FieldValue{}
	}
	if s.Retries == nil {
		s.Retries = map[string]int{}
	}
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}
	return nil
}

// Terminal reports whether the stage ends its journey.
func (s *Session) Terminal() bool {
	switch s.Stage {
	case StageAccepted, StageClosed, StageResolved, StageEscalated:
		return true
	}
	return false
}

// Consistent reports whether the stage belongs to the current journey.
// An inconsistent session is reset rather than processed.
func (s *Session) Consistent() bool {
	switch s.Stage {
	case StageAwaitingLanguage, StageAwaitingJourneyChoice:
		return true
	case StageAwaitingField, StageAwaitingDecision, StageDecisionDelivered, StageAccepted, StageClosed:
		return s.Journey == JourneyOnboarding
	case StageAwaitingSupportCategory, StageAwaitingQuery, StageAnswerDelivered, StageResolved, StageEscalated:
		return s.Journey == JourneySupport
	}
	return false
}

// ResetJourney clears in-progress capture and returns the user to the journey
// choice, preserving language, status and metadata.
func (s *Session) ResetJourney() {
	s.Journey = JourneyUnset
	s.PendingField = ""
	s.Fields = map[string]FieldValue{}
	s.Retries = map[string]int{}
	if s.Language == LanguageUnset {
		s.Stage = StageAwaitingLanguage
	} else {
		s.Stage = StageAwaitingJourneyChoice
	}
}

// ResetAll additionally forgets the language choice. Used for state
// corruption recovery and explicit language change.
func (s *Session) ResetAll() {
	s.Language = LanguageUnset
	s.ResetJourney()
}

// Touch records inbound activity and re-arms the idle reminder.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
	s.ReminderSent = false
}

// Clone returns a deep copy, so store implementations never hand out shared maps.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Fields = make(map[string]FieldValue, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	cp.Retries = make(map[string]int, len(s.Retries))
	for k, v := range s.Retries {
		cp.Retries[k] = v
	}
	cp.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}
