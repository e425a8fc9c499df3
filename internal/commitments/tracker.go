// Package commitments tracks the acta's commitment list through local
// toggles and a deferred diff-based save.
package commitments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bitacora/client/internal/api"
	"bitacora/client/internal/rbac"
	"bitacora/client/internal/util"
)

var (
	ErrReadOnly          = errors.New("acta is read-only in this view")
	ErrUnknownCommitment = errors.New("unknown commitment")
	ErrClosed            = errors.New("acta view is closed")
	ErrSaveInFlight      = errors.New("save already in flight")
)

type commitmentAPI interface {
	UpdateCommitment(ctx context.Context, actaID, commitmentID, status string) error
	CreateCommitment(ctx context.Context, actaID string, in api.CreateCommitmentInput) (api.Commitment, error)
}

// Tracker holds two copies of the commitment list: the last
// server-confirmed one and the locally edited one. Toggles apply to
// the local copy immediately; Save issues one independent update per
// commitment whose status diverged.
type Tracker struct {
	mu        sync.Mutex
	api       commitmentAPI
	cap       rbac.Capability
	actaID    string
	confirmed []api.Commitment
	local     []api.Commitment
	saving    bool
	closed    bool
}

func NewTracker(client commitmentAPI, capability rbac.Capability, actaID string, items []api.Commitment) *Tracker {
	t := &Tracker{api: client, cap: capability, actaID: actaID}
	t.confirmed = copyCommitments(items)
	t.local = copyCommitments(items)
	return t
}

// Items returns the locally edited list, the one a view renders.
func (t *Tracker) Items() []api.Commitment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyCommitments(t.local)
}

// Dirty reports whether Save would issue any call.
func (t *Tracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.local {
		if util.IsLocalID(c.ID) {
			return true
		}
		if prev, ok := findCommitment(t.confirmed, c.ID); ok && prev.Status != c.Status {
			return true
		}
	}
	return false
}

// Toggle flips one commitment PENDING<->COMPLETED locally, with no
// network round trip. Rejected with no mutation when read-only.
func (t *Tracker) Toggle(commitmentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if !t.cap.CanEditContent() {
		return ErrReadOnly
	}
	for i := range t.local {
		if t.local[i].ID != commitmentID {
			continue
		}
		if t.local[i].Status == api.CommitmentCompleted {
			t.local[i].Status = api.CommitmentPending
		} else {
			t.local[i].Status = api.CommitmentCompleted
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommitment, commitmentID)
}

// Add appends a new commitment locally under a placeholder id. The
// server assigns the real id during Save.
func (t *Tracker) Add(description string, responsible api.UserRef, due time.Time) (api.Commitment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return api.Commitment{}, ErrClosed
	}
	if !t.cap.CanEditContent() {
		return api.Commitment{}, ErrReadOnly
	}
	item := api.Commitment{
		ID:          util.NewID(util.LocalPrefix),
		Description: description,
		Responsible: responsible,
		DueDate:     due,
		Status:      api.CommitmentPending,
	}
	t.local = append(t.local, item)
	return item, nil
}

// Save diffs the local list against the last confirmed one and issues
// one call per divergent commitment: creations for placeholder ids,
// then a status update per toggled id. Calls are independent; a
// failure does not block siblings and the local list is deliberately
// not rolled back on partial failure. The aggregated error carries
// every individual failure.
func (t *Tracker) Save(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if !t.cap.CanEditContent() {
		t.mu.Unlock()
		return ErrReadOnly
	}
	if t.saving {
		t.mu.Unlock()
		return ErrSaveInFlight
	}
	t.saving = true

	var creations []api.Commitment
	var toggles []api.Commitment
	for _, c := range t.local {
		if util.IsLocalID(c.ID) {
			creations = append(creations, c)
			continue
		}
		if prev, ok := findCommitment(t.confirmed, c.ID); ok && prev.Status != c.Status {
			toggles = append(toggles, c)
		}
	}
	actaID := t.actaID
	t.mu.Unlock()

	var failures []error

	for _, c := range creations {
		created, err := t.api.CreateCommitment(ctx, actaID, api.CreateCommitmentInput{
			Description: c.Description,
			Responsible: c.Responsible,
			DueDate:     c.DueDate,
		})
		if err != nil {
			failures = append(failures, fmt.Errorf("create commitment %q: %w", c.Description, err))
			continue
		}
		t.adoptServerID(c.ID, created)
	}

	for _, c := range toggles {
		if err := t.api.UpdateCommitment(ctx, actaID, c.ID, c.Status); err != nil {
			failures = append(failures, fmt.Errorf("update commitment %s: %w", c.ID, err))
			continue
		}
		t.confirmStatus(c.ID, c.Status)
	}

	t.mu.Lock()
	t.saving = false
	t.mu.Unlock()

	return errors.Join(failures...)
}

// Refresh replaces both lists with a re-fetched server copy. Callers
// use it after a partial Save failure to reconcile instead of guessing.
func (t *Tracker) Refresh(items []api.Commitment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.confirmed = copyCommitments(items)
	t.local = copyCommitments(items)
}

func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func (t *Tracker) adoptServerID(localID string, created api.Commitment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for i := range t.local {
		if t.local[i].ID == localID {
			t.local[i] = created
			break
		}
	}
	t.confirmed = append(t.confirmed, created)
}

func (t *Tracker) confirmStatus(commitmentID, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	for i := range t.confirmed {
		if t.confirmed[i].ID == commitmentID {
			t.confirmed[i].Status = status
			break
		}
	}
}

func findCommitment(items []api.Commitment, id string) (api.Commitment, bool) {
	for _, c := range items {
		if c.ID == id {
			return c, true
		}
	}
	return api.Commitment{}, false
}

func copyCommitments(items []api.Commitment) []api.Commitment {
	out := make([]api.Commitment, len(items))
	copy(out, items)
	return out
}
