package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/claimaudit/internal/model"
	embedsql "github.com/gyeh/claimaudit/internal/sql"
)

// ErrNotArchived is returned by Load for an unknown audit id.
var ErrNotArchived = errors.New("audit result not archived")

// Archive stores terminal audit results in claimaudit.audit_results.
type Archive struct {
	pool *pgxpool.Pool
}

// NewArchive wraps an open pool.
func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// Save inserts the result. Results are immutable, so saving an audit id a
// second time is a no-op.
func (a *Archive) Save(ctx context.Context, r *model.AuditResult) error {
	if r == nil {
		return errors.New("archive: nil result")
	}
	flags, err := json.Marshal(r.Flags)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	full, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = a.pool.Exec(ctx, embedsql.InsertAuditResult,
		r.AuditID,
		string(r.Status),
		r.Bill.ID,
		r.Policy.ID,
		r.Bill.HospitalName,
		r.TotalBilled,
		r.AmountUnderReview,
		r.FullyCoveredAmount,
		len(r.Flags),
		string(flags),
		string(full),
		r.Error,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit result %s: %w", r.AuditID, err)
	}
	return nil
}

// Load reads an archived result back.
func (a *Archive) Load(ctx context.Context, auditID string) (*model.AuditResult, error) {
	var raw string
	err := a.pool.QueryRow(ctx, embedsql.GetAuditResult, auditID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", auditID, ErrNotArchived)
	}
	if err != nil {
		return nil, fmt.Errorf("query audit result %s: %w", auditID, err)
	}

	var r model.AuditResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode audit result %s: %w", auditID, err)
	}
	return &r, nil
}

// CountByStatus returns how many archived results have the given status.
func (a *Archive) CountByStatus(ctx context.Context, status model.Status) (int64, error) {
	var n int64
	if err := a.pool.QueryRow(ctx, embedsql.CountAuditResults, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit results: %w", err)
	}
	return n, nil
}
