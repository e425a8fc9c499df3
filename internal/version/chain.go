// Package version resolves the current and historical versions of a
// document chain and drives the "new version" operation.
package version

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"bitacora/client/internal/api"
	"bitacora/client/internal/rbac"
)

var (
	ErrReadOnly = errors.New("document is read-only in this view")
	ErrClosed   = errors.New("document view is closed")
)

type documentAPI interface {
	GetDocument(ctx context.Context, kind, id string) (api.Document, error)
	CreateVersion(ctx context.Context, kind string, in api.CreateVersionInput) (api.Document, error)
}

// Chain is the client-held view of one document chain. The head is
// whatever the server last returned; the pointer graph is never
// walked locally because it may be stale relative to the server.
type Chain struct {
	mu     sync.Mutex
	api    documentAPI
	cap    rbac.Capability
	kind   string
	head   api.Document
	closed bool
}

// Open fetches the chain head for a document id.
func Open(ctx context.Context, client documentAPI, capability rbac.Capability, kind, id string) (*Chain, error) {
	doc, err := client.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", id, err)
	}
	return &Chain{api: client, cap: capability, kind: kind, head: doc}, nil
}

// Current returns the last server-confirmed head.
func (c *Chain) Current() api.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// Versions returns the chain summary newest-first.
func (c *Chain) Versions() []api.VersionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]api.VersionSummary, len(c.head.Versions))
	copy(out, c.head.Versions)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out
}

// Select fetches one version by id for read-only inspection. A failed
// fetch is reported as-is; there is no fallback to another version.
func (c *Chain) Select(ctx context.Context, id string) (api.Document, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return api.Document{}, ErrClosed
	}
	kind := c.kind
	c.mu.Unlock()

	doc, err := c.api.GetDocument(ctx, kind, id)
	if err != nil {
		return api.Document{}, fmt.Errorf("fetch version %s: %w", id, err)
	}
	return doc, nil
}

// Changes carries the mutable fields the new version starts from.
type Changes struct {
	Summary string
}

// CreateNewVersion asks the server to mint the next version of the
// chain, carrying the head's id as previousReportId. The base version
// is never mutated; the server-assigned id and version number in the
// response are authoritative and become the new head.
func (c *Chain) CreateNewVersion(ctx context.Context, changed Changes) (api.Document, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return api.Document{}, ErrClosed
	}
	if !c.cap.CanEditContent() {
		c.mu.Unlock()
		return api.Document{}, ErrReadOnly
	}
	in := api.CreateVersionInput{
		PreviousReportID: c.head.ID,
		Number:           c.head.Number,
		Summary:          changed.Summary,
	}
	c.mu.Unlock()

	doc, err := c.api.CreateVersion(ctx, c.kind, in)
	if err != nil {
		return api.Document{}, fmt.Errorf("create new version of %s: %w", in.PreviousReportID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.Document{}, ErrClosed
	}
	c.head = doc
	return doc, nil
}

// Close detaches the chain from its view. Later completions are
// discarded instead of mutating state nobody is watching.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
