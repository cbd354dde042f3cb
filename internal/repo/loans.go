package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertLoan stores the latest decision for a phone. One active loan row per
// phone; a new application replaces the previous decision.
func (r *PG) UpsertLoan(ctx context.Context, loan LoanRecord) (*LoanRecord, error) {
	const q = `
INSERT INTO loans (phone, reference_id, status, offer_amount, apr, max_term_months, reason, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
ON CONFLICT (phone) DO UPDATE SET
    reference_id = EXCLUDED.reference_id,
    status = EXCLUDED.status,
    offer_amount = EXCLUDED.offer_amount,
    apr = EXCLUDED.apr,
    max_term_months = EXCLUDED.max_term_months,
    reason = EXCLUDED.reason,
    metadata = loans.metadata || EXCLUDED.metadata,
    updated_at = NOW()
RETURNING id, created_at;
`
	err := r.pool.QueryRow(ctx, q,
		loan.Phone,
		loan.ReferenceID,
		loan.Status,
		loan.OfferAmount,
		loan.APR,
		loan.MaxTermMonths,
		loan.Reason,
		loan.Metadata,
	).Scan(&loan.ID, &loan.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert loan: %w", err)
	}
	return &loan, nil
}

// GetLoanByPhone returns the loan record for the phone, or nil when absent.
func (r *PG) GetLoanByPhone(ctx context.Context, phone string) (*LoanRecord, error) {
	return r.getLoan(ctx, `WHERE phone = $1`, phone)
}

// GetLoanByRef returns the loan record by decision reference, or nil when absent.
func (r *PG) GetLoanByRef(ctx context.Context, referenceID string) (*LoanRecord, error) {
	return r.getLoan(ctx, `WHERE reference_id = $1`, referenceID)
}

func (r *PG) getLoan(ctx context.Context, where, arg string) (*LoanRecord, error) {
	q := `
SELECT id, phone, reference_id, status, offer_amount, apr, max_term_months, reason, next_emi_due, documents_url, metadata, created_at, updated_at
FROM loans ` + where + `;`

	var loan LoanRecord
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&loan.ID,
		&loan.Phone,
		&loan.ReferenceID,
		&loan.Status,
		&loan.OfferAmount,
		&loan.APR,
		&loan.MaxTermMonths,
		&loan.Reason,
		&loan.NextEMIDue,
		&loan.DocumentsURL,
		&loan.Metadata,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &loan, nil
}

// UpdateLoanStatus updates the status and metadata of an existing loan.
func (r *PG) UpdateLoanStatus(ctx context.Context, referenceID, status string, metadata map[string]any) error {
	const q = `
UPDATE loans
SET status = $2, metadata = metadata || $3, updated_at = NOW()
WHERE reference_id = $1;
`
	if metadata == nil {
		metadata = map[string]any{}
	}
	ct, err := r.pool.Exec(ctx, q, referenceID, status, metadata)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("loan not found: %s", referenceID)
	}
	return nil
}
