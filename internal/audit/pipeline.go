// Package audit runs one claim audit end to end: extract text, structure the
// documents, evaluate the rules, reconcile the totals, then cite and write
// the letter. Failures never escape as panics; every run returns a
// well-formed result.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/ingest"
	"github.com/gyeh/claimaudit/internal/metrics"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/provider"
	"github.com/gyeh/claimaudit/internal/reconcile"
	"github.com/gyeh/claimaudit/internal/rules"
	"github.com/gyeh/claimaudit/internal/storage"
)

// Progress steps reported while a session is processing.
const (
	StepOCR         = "ocr"
	StepStructuring = "structuring"
	StepAuditing    = "auditing"
	StepReporting   = "reporting"
)

const cleanupTimeout = 30 * time.Second

// ProgressFunc receives progress updates. It may be nil.
type ProgressFunc func(step, message string)

// Options tunes a Pipeline.
type Options struct {
	Timeout          time.Duration
	MinTextLen       int
	CleanupDocuments bool
}

// Pipeline wires the providers around the deterministic core.
type Pipeline struct {
	Extractor  provider.TextExtractor
	Structurer provider.Structurer
	Citator    provider.Citator
	Letters    provider.LetterWriter
	Engine     *rules.Engine
	Documents  storage.Store // uploaded documents, removed after the run when cleanup is on
	Metrics    *metrics.Metrics
	Log        zerolog.Logger
	Options    Options
	Now        func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes the pipeline for one session. The returned result is never
// nil: on failure it is the FailedResult stub and err is a *PipelineError.
func (p *Pipeline) Run(ctx context.Context, auditID string, docs model.Documents, progress ProgressFunc) (*model.AuditResult, error) {
	totalStart := time.Now()
	log := p.Log.With().Str("audit_id", auditID).Logger()

	if p.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Options.Timeout)
		defer cancel()
	}
	if p.Options.CleanupDocuments {
		defer p.cleanup(ctx, log, docs)
	}

	result, err := p.run(ctx, log, auditID, docs, progress)
	if err != nil {
		log.Error().Err(err).Str("total_duration", time.Since(totalStart).String()).Msg("audit pipeline failed")
		return FailedResult(auditID, Message(err), p.now()), err
	}

	log.Info().
		Int("flags", len(result.Flags)).
		Float64("total_billed", result.TotalBilled).
		Float64("amount_under_review", result.AmountUnderReview).
		Str("total_duration", time.Since(totalStart).String()).
		Msg("audit pipeline complete")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, log zerolog.Logger, auditID string, docs model.Documents, progress ProgressFunc) (*model.AuditResult, error) {
	report := func(step, msg string) {
		if progress != nil {
			progress(step, msg)
		}
	}
	if p.Extractor == nil {
		return nil, &PipelineError{Phase: PhaseExtract, Err: errors.New("no text extractor configured")}
	}

	// Phase 1: Extract
	report(StepOCR, "Reading documents...")
	var texts ingest.Texts
	err := p.phase(ctx, log, PhaseExtract, func() (err error) {
		texts, err = ingest.Extract(ctx, p.Extractor, docs, p.Options.MinTextLen)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: Structure
	report(StepStructuring, "Structuring bill and policy...")
	var (
		bill   *model.Bill
		policy *model.Policy
	)
	err = p.phase(ctx, log, PhaseStructure, func() (err error) {
		if bill, err = ingest.StructureBill(ctx, p.Structurer, texts.Bill, log); err != nil {
			return err
		}
		policy, err = ingest.StructurePolicy(ctx, p.Structurer, texts.Policy, log)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Phase 3: Rules
	report(StepAuditing, "Evaluating policy rules...")
	var flags []model.AuditFlag
	err = p.phase(ctx, log, PhaseRules, func() error {
		engine := p.Engine
		if engine == nil {
			engine = rules.NewEngine(rules.Options{})
		}
		flags = engine.Run(bill, policy)
		flags = append(flags, ingest.Validate(bill, policy)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Phase 4: Reconcile
	var sum reconcile.Summary
	err = p.phase(ctx, log, PhaseReconcile, func() error {
		sum = reconcile.Reconcile(bill, flags)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := assemble(auditID, bill, policy, flags, sum, p.now())

	// Phase 5: Citations and letter
	report(StepReporting, "Generating dispute letter...")
	err = p.phase(ctx, log, PhaseReport, func() error {
		p.annotate(ctx, log, result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// phase runs fn, timing it and converting a panic into an error.
func (p *Pipeline) phase(ctx context.Context, log zerolog.Logger, name string, fn func() error) (err error) {
	if err := ctx.Err(); err != nil {
		return &PipelineError{Phase: name, Err: err}
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
		d := time.Since(start)
		p.Metrics.ObservePhase(name, d)
		if err != nil {
			err = &PipelineError{Phase: name, Err: err}
			return
		}
		log.Debug().Str("phase", name).Dur("duration", d).Msg("phase complete")
	}()
	return fn()
}

// annotate adds citations and the dispute letter. Provider failures are
// logged and never change flags or totals.
func (p *Pipeline) annotate(ctx context.Context, log zerolog.Logger, result *model.AuditResult) {
	if p.Citator != nil {
		cites, err := p.Citator.Cite(ctx, result)
		if err != nil {
			log.Warn().Err(err).Msg("citation provider failed (non-fatal)")
		} else {
			result.Citations = cites
		}
	}

	result.DisputeLetterContent = PlaceholderLetter
	if p.Letters != nil {
		letter, err := p.Letters.WriteLetter(ctx, result)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("letter provider failed (non-fatal)")
		case letter != "":
			result.DisputeLetterContent = letter
		}
	}
}

func (p *Pipeline) cleanup(ctx context.Context, log zerolog.Logger, docs model.Documents) {
	if p.Documents == nil {
		return
	}
	var keys []string
	for _, ref := range []*model.DocumentRef{docs.Bill, docs.Policy} {
		if ref != nil && ref.Key != "" {
			keys = append(keys, ref.Key)
		}
	}
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := p.Documents.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Msg("document cleanup failed (non-fatal)")
	}
}
