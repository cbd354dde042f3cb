package repo

import "time"

// Profile represents the profiles table row: what is durably known about a
// phone identifier across conversations.
type Profile struct {
	ID          string
	Phone       string
	DisplayName *string
	Language    string
	Status      string // new | existing
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileUpsert carries data used to upsert a profile.
type ProfileUpsert struct {
	Phone       string
	DisplayName *string
	Language    *string
	Status      *string
}

// Interaction is one audited inbound/outbound/system exchange.
type Interaction struct {
	Phone     string
	Direction string // inbound | outbound | system
	Category  string
	Payload   map[string]any
	CreatedAt time.Time
}

// LoanRecord represents a row in loans: the latest decision for a phone.
type LoanRecord struct {
	ID            string
	Phone         string
	ReferenceID   string
	Status        string // approved | declined | disbursed | closed
	OfferAmount   float64
	APR           float64
	MaxTermMonths int
	Reason        *string
	NextEMIDue    *float64
	DocumentsURL  *string
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Escalation represents a row in escalations: a support handoff ticket.
type Escalation struct {
	ID        string
	Phone     string
	Question  string
	Queue     string
	Status    string // open | closed
	CreatedAt time.Time
}

// APIKey represents a record in api_keys, used for knowledge service key
// rotation with per-key cooldown.
type APIKey struct {
	ID            string
	Provider      string
	Value         string
	CooldownUntil *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
