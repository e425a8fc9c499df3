// Package reorder reconciles a user-reorderable photo timeline: the
// new order renders immediately, then either the server's canonical
// order replaces it or the whole move rolls back.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bitacora/client/internal/api"
	"bitacora/client/internal/rbac"
)

var (
	ErrReadOnly   = errors.New("collection is read-only in this view")
	ErrBusy       = errors.New("reorder already in flight")
	ErrNoChange   = errors.New("order unchanged")
	ErrOutOfRange = errors.New("index out of range")
	ErrClosed     = errors.New("collection view is closed")
)

type orderAPI interface {
	ReorderPhotos(ctx context.Context, ownerID string, ids []string) (api.PhotoCollection, error)
}

// List holds the last server-confirmed order separately from the
// visible one, so rollback always restores a confirmed order and never
// whatever happened to be rendered when the drag started.
type List struct {
	mu        sync.Mutex
	api       orderAPI
	cap       rbac.Capability
	ownerID   string
	confirmed []api.Photo
	visible   []api.Photo
	focused   int
	busy      bool
	closed    bool
}

func NewList(client orderAPI, capability rbac.Capability, ownerID string, photos []api.Photo, focused int) *List {
	l := &List{api: client, cap: capability, ownerID: ownerID, focused: focused}
	l.confirmed = copyPhotos(photos)
	l.visible = copyPhotos(photos)
	return l
}

// Photos returns the order a view renders: either the last confirmed
// order or a pending permutation of the same ids.
func (l *List) Photos() []api.Photo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyPhotos(l.visible)
}

// Focused returns the index of the currently focused photo.
func (l *List) Focused() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.focused
}

func (l *List) Focus(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.visible) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	l.focused = index
	return nil
}

// Busy reports whether a reorder round trip is in flight. Views
// disable dragging while true.
func (l *List) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Move relocates the photo at from to position to. The permutation is
// rendered immediately and the focused item stays the same logical
// photo. Exactly one call carrying the full id list goes out; the
// server's returned order is adopted verbatim on success, and on
// failure the whole move rolls back to the confirmed order.
func (l *List) Move(ctx context.Context, from, to int) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if !l.cap.CanEditContent() {
		l.mu.Unlock()
		return ErrReadOnly
	}
	if l.busy {
		l.mu.Unlock()
		return ErrBusy
	}
	n := len(l.visible)
	if from < 0 || from >= n || to < 0 || to >= n {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d -> %d of %d", ErrOutOfRange, from, to, n)
	}
	if from == to {
		l.mu.Unlock()
		return ErrNoChange
	}

	focusedID := ""
	if l.focused >= 0 && l.focused < n {
		focusedID = l.visible[l.focused].ID
	}

	moved := l.visible[from]
	l.visible = append(l.visible[:from], l.visible[from+1:]...)
	l.visible = append(l.visible[:to], append([]api.Photo{moved}, l.visible[to:]...)...)
	if focusedID != "" {
		l.focused = indexOf(l.visible, focusedID)
	}

	ids := make([]string, len(l.visible))
	for i, p := range l.visible {
		ids[i] = p.ID
	}
	l.busy = true
	ownerID := l.ownerID
	l.mu.Unlock()

	result, err := l.api.ReorderPhotos(ctx, ownerID, ids)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if l.closed {
		return ErrClosed
	}

	if err != nil {
		l.visible = copyPhotos(l.confirmed)
		if focusedID != "" {
			l.focused = indexOf(l.visible, focusedID)
		}
		return fmt.Errorf("reorder photos of %s: %w", ownerID, err)
	}

	l.confirmed = copyPhotos(result.Photos)
	l.visible = copyPhotos(result.Photos)
	if focusedID != "" {
		l.focused = indexOf(l.visible, focusedID)
	}
	return nil
}

// Reset replaces both orders with a fresh server copy.
func (l *List) Reset(photos []api.Photo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.busy {
		return
	}
	l.confirmed = copyPhotos(photos)
	l.visible = copyPhotos(photos)
	if l.focused >= len(l.visible) {
		l.focused = 0
	}
}

func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func indexOf(photos []api.Photo, id string) int {
	for i, p := range photos {
		if p.ID == id {
			return i
		}
	}
	return 0
}

func copyPhotos(photos []api.Photo) []api.Photo {
	out := make([]api.Photo, len(photos))
	copy(out, photos)
	return out
}
