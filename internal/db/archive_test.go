package db_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/db"
	"github.com/gyeh/claimaudit/internal/logging"
	"github.com/gyeh/claimaudit/internal/model"
)

const (
	testPort     = 15433
	testDB       = "claimaudittest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	if os.Getenv("CLAIMAUDIT_PG_TESTS") != "1" {
		fmt.Fprintln(os.Stderr, "SKIP: set CLAIMAUDIT_PG_TESTS=1 to run archive tests against embedded postgres")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS claimaudit CASCADE"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	log := logging.Setup("text", "warn")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	// Idempotent.
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("re-applying migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestArchiveSaveAndLoad(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	archive := db.NewArchive(pool)

	created := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	result := &model.AuditResult{
		AuditID: "AUD-0000000000AA",
		Bill: model.Bill{
			ID:           "BILL-1",
			HospitalName: "City Care Hospital",
			Diagnosis:    []string{},
			Charges:      []model.LineItem{{ID: "LI-001", Label: "Room", Category: model.CategoryRoomRent, Amount: 25000}},
		},
		Policy: model.Policy{ID: "POL-1", PEDList: []string{}},
		Flags: []model.AuditFlag{{
			FlagType: model.FlagRoomRent, Severity: model.SeverityWarning, Scope: model.ScopeCharge,
			LineItemID: "LI-001", AmountAffected: model.Amount(10000), Reason: "Room rent exceeds limit.",
		}},
		TotalBilled:        25000,
		AmountUnderReview:  10000,
		FullyCoveredAmount: 15000,
		CreatedAt:          created,
		Status:             model.StatusCompleted,
	}

	if err := archive.Save(ctx, result); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Second save is ignored.
	changed := *result
	changed.TotalBilled = 1
	if err := archive.Save(ctx, &changed); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := archive.Load(ctx, result.AuditID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TotalBilled != 25000 || got.AmountUnderReview != 10000 {
		t.Errorf("totals = %v/%v, want 25000/10000", got.TotalBilled, got.AmountUnderReview)
	}
	if len(got.Flags) != 1 || got.Flags[0].LineItemID != "LI-001" {
		t.Errorf("flags = %+v", got.Flags)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}

	n, err := archive.CountByStatus(ctx, model.StatusCompleted)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("completed count = %d, want 1", n)
	}
}

func TestArchiveFailedResult(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	archive := db.NewArchive(pool)

	failed := audit.FailedResult("AUD-0000000000BB", "extraction failed", time.Now())
	if err := archive.Save(ctx, failed); err != nil {
		t.Fatalf("save: %v", err)
	}

	var errText string
	if err := pool.QueryRow(ctx,
		"SELECT error FROM claimaudit.audit_results WHERE audit_id = $1", failed.AuditID).Scan(&errText); err != nil {
		t.Fatalf("query: %v", err)
	}
	if errText != "extraction failed" {
		t.Errorf("error = %q", errText)
	}

	_, err := archive.Load(ctx, "AUD-MISSING")
	if !errors.Is(err, db.ErrNotArchived) {
		t.Errorf("load missing: got %v, want ErrNotArchived", err)
	}
}
