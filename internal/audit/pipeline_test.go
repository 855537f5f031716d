package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/claimaudit/internal/ingest"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/provider"
	"github.com/gyeh/claimaudit/internal/report"
	"github.com/gyeh/claimaudit/internal/storage"
)

const billJSON = `{
  "bill_id": "BILL-100",
  "hospital_name": "City Care Hospital",
  "patient_name": "R. Sharma",
  "admission_date": "2024-03-10",
  "diagnosis": ["Appendicitis"],
  "charges": [
    {"line_item_id": "LI-001", "label": "Room Rent - Private", "category": "room_rent", "amount": 25000, "quantity": 5, "unit_price": 5000},
    {"line_item_id": "LI-002", "label": "Appendectomy", "category": "surgery", "amount": 75000}
  ],
  "stated_total_amount": 100000
}`

const policyJSON = `{
  "policy_id": "POL-1",
  "insurer_name": "Acme Health",
  "coverage_amount": 500000,
  "ped_list": ["Diabetes"],
  "room_limit_type": "amount",
  "room_limit_value": "3000",
  "copay_percentage": 10,
  "clauses": [{"clause_id": "c-room", "clause_type": "ROOM_RENT", "text": "Room Rent: Capped at 3000 / day"}]
}`

var fixedNow = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *storage.LocalStore
	pipeline *Pipeline
	docs     model.Documents

	mu    sync.Mutex
	steps []string
}

func (f *fixture) progress(step, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
}

func newFixture(t *testing.T, billText, policyText string) *fixture {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	billKey := storage.DocumentKey("AUD-TEST", "bill", ".json")
	policyKey := storage.DocumentKey("AUD-TEST", "policy", ".json")
	require.NoError(t, store.Put(ctx, billKey, []byte(billText), "application/json"))
	require.NoError(t, store.Put(ctx, policyKey, []byte(policyText), "application/json"))

	structurer, err := provider.NewJSONStructurer()
	require.NoError(t, err)
	letters, err := report.NewTemplateLetterWriter()
	require.NoError(t, err)

	return &fixture{
		store: store,
		docs: model.Documents{
			Bill:   &model.DocumentRef{Key: billKey},
			Policy: &model.DocumentRef{Key: policyKey},
		},
		pipeline: &Pipeline{
			Extractor:  provider.StoreExtractor{Store: store},
			Structurer: structurer,
			Citator:    report.ClauseCitator{},
			Letters:    letters,
			Documents:  store,
			Log:        zerolog.Nop(),
			Options:    Options{MinTextLen: 50, CleanupDocuments: true},
			Now:        func() time.Time { return fixedNow },
		},
	}
}

func TestPipelineSuccess(t *testing.T) {
	f := newFixture(t, billJSON, policyJSON)

	result, err := f.pipeline.Run(context.Background(), "AUD-TEST", f.docs, f.progress)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, result.Status)
	assert.Equal(t, "AUD-TEST", result.AuditID)
	assert.Equal(t, fixedNow, result.CreatedAt)
	assert.Equal(t, "BILL-100", result.Bill.ID)

	require.Len(t, result.Flags, 2)
	assert.Equal(t, model.FlagRoomRent, result.Flags[0].FlagType)
	require.NotNil(t, result.Flags[0].AmountAffected)
	assert.Equal(t, 10000.0, *result.Flags[0].AmountAffected)
	assert.Equal(t, model.FlagCopay, result.Flags[1].FlagType)

	assert.Equal(t, 100000.0, result.TotalBilled)
	assert.Equal(t, 10000.0, result.AmountUnderReview)
	assert.Equal(t, 90000.0, result.FullyCoveredAmount)

	require.NotEmpty(t, result.Citations)
	assert.Equal(t, "c-room", result.Citations[0].ClauseID)
	assert.Contains(t, result.DisputeLetterContent, "Acme Health")

	assert.Equal(t, []string{StepOCR, StepStructuring, StepAuditing, StepReporting}, f.steps)

	_, err = f.store.Get(context.Background(), f.docs.Bill.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "documents are removed after the run")
}

func TestPipelineExtractionFailure(t *testing.T) {
	f := newFixture(t, `{"charges": []}`, policyJSON)

	result, err := f.pipeline.Run(context.Background(), "AUD-TEST", f.docs, nil)
	require.Error(t, err)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, PhaseExtract, pe.Phase)
	assert.ErrorIs(t, err, ingest.ErrExtraction)

	assert.Equal(t, model.StatusFailed, result.Status)
	assert.Zero(t, result.TotalBilled)
	assert.Zero(t, result.AmountUnderReview)
	assert.Zero(t, result.FullyCoveredAmount)
	require.Len(t, result.Flags, 1)
	assert.Equal(t, model.FlagMisc, result.Flags[0].FlagType)
	assert.Equal(t, model.SeverityError, result.Flags[0].Severity)
	assert.Contains(t, result.Flags[0].Reason, "Bill text empty or too short")
	assert.Equal(t, FailedLetter, result.DisputeLetterContent)
	assert.Equal(t, result.Flags[0].Reason, result.Error)

	_, err = f.store.Get(context.Background(), f.docs.Policy.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "documents are removed after a failed run too")
}

func TestPipelineFallsBackOnUnstructuredText(t *testing.T) {
	bill := "CITY CARE HOSPITAL\nIn-patient bill for services rendered\nGrand Total: Rs. 48,500.00\n"
	policy := "ACME HEALTH INSURANCE\nPolicy schedule for the insured family\nSum Insured: Rs. 3,00,000\n"
	f := newFixture(t, bill, policy)

	result, err := f.pipeline.Run(context.Background(), "AUD-TEST", f.docs, nil)
	require.NoError(t, err)

	assert.Equal(t, "BILL-FALLBACK", result.Bill.ID)
	assert.Equal(t, 48500.0, result.TotalBilled)
	assert.Equal(t, 300000.0, result.Policy.CoverageAmount)
	assert.Equal(t, 48500.0, result.FullyCoveredAmount)
}

type panickyCitator struct{}

func (panickyCitator) Cite(context.Context, *model.AuditResult) ([]model.Citation, error) {
	panic("index out of range")
}

func TestPipelineRecoversPanics(t *testing.T) {
	f := newFixture(t, billJSON, policyJSON)
	f.pipeline.Citator = panickyCitator{}

	result, err := f.pipeline.Run(context.Background(), "AUD-TEST", f.docs, nil)
	require.Error(t, err)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, PhaseReport, pe.Phase)
	assert.Equal(t, model.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "index out of range")
}

type failingLetters struct{}

func (failingLetters) WriteLetter(context.Context, *model.AuditResult) (string, error) {
	return "", errors.New("model unavailable")
}

func TestPipelineLetterFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, billJSON, policyJSON)
	f.pipeline.Letters = failingLetters{}

	result, err := f.pipeline.Run(context.Background(), "AUD-TEST", f.docs, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, result.Status)
	assert.Equal(t, PlaceholderLetter, result.DisputeLetterContent)
	assert.Equal(t, 10000.0, result.AmountUnderReview)
}

func TestPipelineCancelled(t *testing.T) {
	f := newFixture(t, billJSON, policyJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.pipeline.Run(ctx, "AUD-TEST", f.docs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.StatusFailed, result.Status)
}

func TestEvaluateScenarioPED(t *testing.T) {
	bill := &model.Bill{
		ID:                "B",
		Diagnosis:         []string{"Type 2 Diabetes Mellitus"},
		StatedTotalAmount: 150000,
		Charges: []model.LineItem{
			{ID: "LI-001", Label: "Surgery", Category: model.CategorySurgery, Amount: 150000},
		},
	}
	policy := &model.Policy{ID: "P", PEDList: []string{"Diabetes"}}

	r := Evaluate(nil, "AUD-X", bill, policy, fixedNow)

	require.Len(t, r.Flags, 1)
	assert.Equal(t, model.FlagPED, r.Flags[0].FlagType)
	assert.Equal(t, 150000.0, r.AmountUnderReview)
	assert.Equal(t, 0.0, r.FullyCoveredAmount)
	assert.Equal(t, model.StatusCompleted, r.Status)
}

func TestMessage(t *testing.T) {
	err := &PipelineError{Phase: PhaseStructure, Err: errors.New("structuring failed: could not structure bill data")}
	assert.Equal(t, "structure: structuring failed: could not structure bill data", err.Error())
	assert.Equal(t, "structuring failed: could not structure bill data", Message(err))
	assert.Empty(t, Message(nil))
}
