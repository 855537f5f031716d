package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/metrics"
	"github.com/gyeh/claimaudit/internal/model"
)

const archiveTimeout = 10 * time.Second

// Runner executes the audit pipeline for one session.
type Runner interface {
	Run(ctx context.Context, auditID string, docs model.Documents, progress audit.ProgressFunc) (*model.AuditResult, error)
}

// Archiver persists finished results.
type Archiver interface {
	Save(ctx context.Context, result *model.AuditResult) error
}

// Options holds the optional collaborators of a Manager.
type Options struct {
	Archive Archiver
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Manager drives the session lifecycle around a Runner.
type Manager struct {
	store   *Store
	runner  Runner
	archive Archiver
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewManager returns a Manager backed by store.
func NewManager(store *Store, runner Runner, opts Options) *Manager {
	return &Manager{
		store:   store,
		runner:  runner,
		archive: opts.Archive,
		metrics: opts.Metrics,
		log:     opts.Log.With().Str("component", "session").Logger(),
	}
}

// Create starts a new session.
func (m *Manager) Create() model.Session {
	s := m.store.Create()
	m.metrics.SessionCreated()
	m.log.Info().Str("audit_id", s.ID).Msg("audit session created")
	return s
}

// AcceptDocuments attaches uploaded documents to a created session.
func (m *Manager) AcceptDocuments(id string, docs model.Documents) (model.Session, error) {
	return m.store.AcceptDocuments(id, docs)
}

// ReplaceDocuments attaches documents and returns the references they
// displaced.
func (m *Manager) ReplaceDocuments(id string, docs model.Documents) (model.Session, []model.DocumentRef, error) {
	return m.store.ReplaceDocuments(id, docs)
}

// Status returns a snapshot of the session.
func (m *Manager) Status(id string) (model.Session, error) {
	return m.store.Get(id)
}

// Complete runs the pipeline synchronously. Only the caller that moves the
// session out of created runs it; every other caller gets ErrInvalidState.
// The returned session is terminal. The run ignores ctx cancellation and is
// bounded by the pipeline timeout instead.
func (m *Manager) Complete(ctx context.Context, id string) (model.Session, error) {
	s, err := m.store.BeginProcessing(id)
	if err != nil {
		return s, err
	}
	log := m.log.With().Str("audit_id", id).Logger()
	log.Info().Msg("audit processing started")

	result, runErr := m.run(context.WithoutCancel(ctx), id, s.Documents)

	final, changed, err := m.store.Finish(id, result, runErr)
	if err != nil {
		return final, fmt.Errorf("finishing audit: %w", err)
	}
	if changed {
		m.metrics.AuditFinished(result)
		m.save(ctx, log, result)
		log.Info().Str("status", string(final.Status)).Msg("audit session finished")
	}
	return final, nil
}

// run invokes the runner and guarantees a well-formed result, even if the
// runner panics or returns none.
func (m *Manager) run(ctx context.Context, id string, docs model.Documents) (result *model.AuditResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
			result = nil
		}
		if err != nil && (result == nil || result.Status != model.StatusFailed) {
			result = audit.FailedResult(id, audit.Message(err), time.Now())
		}
		if result == nil {
			err = errors.New("audit produced no result")
			result = audit.FailedResult(id, err.Error(), time.Now())
		}
	}()

	progress := func(step, message string) {
		m.store.SetProgress(id, step, message)
	}
	return m.runner.Run(ctx, id, docs, progress)
}

func (m *Manager) save(ctx context.Context, log zerolog.Logger, result *model.AuditResult) {
	if m.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := m.archive.Save(ctx, result); err != nil {
		log.Warn().Err(err).Msg("archiving audit result failed (non-fatal)")
	}
}

// Result returns the session's result. A created session with both
// documents is completed on demand; otherwise ErrNotReady is returned until
// the session is terminal.
func (m *Manager) Result(ctx context.Context, id string) (*model.AuditResult, error) {
	s, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	switch {
	case s.Status.Terminal():
		return s.Result, nil
	case s.Status == model.StatusCreated && s.Documents.Complete():
		s, err = m.Complete(ctx, id)
		if errors.Is(err, ErrInvalidState) {
			// Another caller started it first.
			if s.Status.Terminal() {
				return s.Result, nil
			}
			return nil, fmt.Errorf("%s: %w", id, ErrNotReady)
		}
		if err != nil {
			return nil, err
		}
		return s.Result, nil
	default:
		return nil, fmt.Errorf("%s: %w", id, ErrNotReady)
	}
}
