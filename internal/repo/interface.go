package repo

import (
	"context"
	"io/fs"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Profiles
	UpsertProfile(ctx context.Context, p ProfileUpsert) (*Profile, error)
	GetProfileByPhone(ctx context.Context, phone string) (*Profile, error)

	// Interactions
	InsertInteraction(ctx context.Context, it Interaction) error
	ListRecentInteractions(ctx context.Context, phone string, limit int) ([]Interaction, error)

	// Loans
	UpsertLoan(ctx context.Context, loan LoanRecord) (*LoanRecord, error)
	GetLoanByPhone(ctx context.Context, phone string) (*LoanRecord, error)
	GetLoanByRef(ctx context.Context, referenceID string) (*LoanRecord, error)
	UpdateLoanStatus(ctx context.Context, referenceID, status string, metadata map[string]any) error

	// Escalations
	InsertEscalation(ctx context.Context, e Escalation) (*Escalation, error)

	// Knowledge service API keys
	SyncKnowledgeKeys(ctx context.Context, keys []string) error
	ListActiveKnowledgeKeys(ctx context.Context) ([]APIKey, error)
	SetKeyCooldown(ctx context.Context, id string, until time.Time) error
}
