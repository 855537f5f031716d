// Package session owns audit sessions and their state machine:
//
//	created -> processing -> completed | failed
//
// The store is the only mutable shared state in the service. Sessions are
// locked individually, so work on one session never blocks another.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/claimaudit/internal/model"
)

type entry struct {
	mu sync.Mutex
	s  model.Session
}

// Store keeps sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	newID func() string
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		newID:    newAuditID,
		now:      time.Now,
	}
}

// newAuditID returns "AUD-" followed by 12 uppercase hex characters.
func newAuditID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "AUD-" + strings.ToUpper(hex[:12])
}

// Create allocates a session in the created state.
func (st *Store) Create() model.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := st.newID()
	for st.sessions[id] != nil {
		id = st.newID()
	}
	e := &entry{s: model.Session{
		ID:        id,
		Status:    model.StatusCreated,
		CreatedAt: st.now().UTC(),
	}}
	st.sessions[id] = e
	return e.s
}

func (st *Store) lookup(id string) (*entry, error) {
	st.mu.RLock()
	e := st.sessions[id]
	st.mu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e, nil
}

// Get returns a snapshot of the session.
func (st *Store) Get(id string) (model.Session, error) {
	e, err := st.lookup(id)
	if err != nil {
		return model.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s, nil
}

// AcceptDocuments attaches document references. Only non-nil references
// replace existing ones. Allowed only while the session is created.
func (st *Store) AcceptDocuments(id string, docs model.Documents) (model.Session, error) {
	s, _, err := st.ReplaceDocuments(id, docs)
	return s, err
}

// ReplaceDocuments is AcceptDocuments that also returns the references the
// call displaced, so their objects can be removed.
func (st *Store) ReplaceDocuments(id string, docs model.Documents) (model.Session, []model.DocumentRef, error) {
	e, err := st.lookup(id)
	if err != nil {
		return model.Session{}, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Status != model.StatusCreated {
		return e.s, nil, &StateError{ID: id, Op: "accept documents for", Have: e.s.Status}
	}
	var replaced []model.DocumentRef
	if docs.Bill != nil {
		if old := e.s.Documents.Bill; old != nil && old.Key != docs.Bill.Key {
			replaced = append(replaced, *old)
		}
		ref := *docs.Bill
		e.s.Documents.Bill = &ref
	}
	if docs.Policy != nil {
		if old := e.s.Documents.Policy; old != nil && old.Key != docs.Policy.Key {
			replaced = append(replaced, *old)
		}
		ref := *docs.Policy
		e.s.Documents.Policy = &ref
	}
	return e.s, replaced, nil
}

// BeginProcessing moves a created session with both documents to
// processing. It succeeds at most once per session.
func (st *Store) BeginProcessing(id string) (model.Session, error) {
	e, err := st.lookup(id)
	if err != nil {
		return model.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Status != model.StatusCreated {
		return e.s, &StateError{ID: id, Op: "start processing", Have: e.s.Status}
	}
	if !e.s.Documents.Complete() {
		return e.s, fmt.Errorf("%s: %w", id, ErrMissingDocuments)
	}
	e.s.Status = model.StatusProcessing
	return e.s, nil
}

// SetProgress records the current pipeline step. Ignored unless processing.
func (st *Store) SetProgress(id, step, message string) {
	e, err := st.lookup(id)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.s.Status == model.StatusProcessing {
		e.s.ProgressStep = step
		e.s.ProgressMessage = message
	}
}

// Finish moves a processing session to its terminal state and stores the
// result. A non-nil cause (or a failed result) means failed. Finishing a
// terminal session is a no-op and reports changed=false.
func (st *Store) Finish(id string, result *model.AuditResult, cause error) (s model.Session, changed bool, err error) {
	if result == nil {
		return model.Session{}, false, fmt.Errorf("finish %s: nil result", id)
	}
	e, err := st.lookup(id)
	if err != nil {
		return model.Session{}, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.s.Status.Terminal():
		return e.s, false, nil
	case e.s.Status != model.StatusProcessing:
		return e.s, false, &StateError{ID: id, Op: "finish", Have: e.s.Status}
	}

	status := model.StatusCompleted
	if cause != nil || result.Status == model.StatusFailed {
		status = model.StatusFailed
	}
	e.s.Status = status
	e.s.Result = result
	e.s.Error = result.Error
	if cause != nil && e.s.Error == "" {
		e.s.Error = cause.Error()
	}
	finished := st.now().UTC()
	e.s.FinishedAt = &finished
	return e.s, true, nil
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
