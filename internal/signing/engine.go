// Package signing drives the multi-party signature protocol: consent
// capture, the sign round trip, and reconciliation of the server's
// authoritative result.
package signing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bitacora/client/internal/api"
	"bitacora/client/internal/rbac"
)

var (
	ErrReadOnly      = errors.New("document is read-only in this view")
	ErrNotSignatory  = errors.New("user is not a required signatory")
	ErrAlreadySigned = errors.New("signer already signed")
	ErrNoConsent     = errors.New("consent not given")
	ErrEmptyConsent  = errors.New("consent statement is empty")
	ErrSignInFlight  = errors.New("signature request already in flight")
	ErrClosed        = errors.New("signing view is closed")
)

// SignerState is the per-signatory position in the protocol.
type SignerState int

const (
	StateUnsigned SignerState = iota
	StateConsentGiven
	StatePending
	StateSigned
)

func (s SignerState) String() string {
	switch s {
	case StateConsentGiven:
		return "consent_given"
	case StatePending:
		return "pending"
	case StateSigned:
		return "signed"
	default:
		return "unsigned"
	}
}

type documentAPI interface {
	AddSignature(ctx context.Context, kind, id string, in api.SignRequest) (api.Document, error)
}

type consent struct {
	statement string
	hash      string
	givenAt   time.Time
}

// Engine manages signing for one document view. The server is the
// only party that enforces at-most-one-signature-per-signer, so every
// successful sign replaces the whole local signatures collection with
// the server's copy instead of appending.
type Engine struct {
	mu       sync.Mutex
	api      documentAPI
	cap      rbac.Capability
	doc      api.Document
	consents map[string]consent
	pending  map[string]bool
	lastErr  map[string]string
	closed   bool
}

func NewEngine(client documentAPI, capability rbac.Capability, doc api.Document) *Engine {
	return &Engine{
		api:      client,
		cap:      capability,
		doc:      doc,
		consents: make(map[string]consent),
		pending:  make(map[string]bool),
		lastErr:  make(map[string]string),
	}
}

// Document returns the last server-confirmed document.
func (e *Engine) Document() api.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

func (e *Engine) State(signerID string) SignerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hasSignature(e.doc.Signatures, signerID) {
		return StateSigned
	}
	if e.pending[signerID] {
		return StatePending
	}
	if _, ok := e.consents[signerID]; ok {
		return StateConsentGiven
	}
	return StateUnsigned
}

// LastError returns the server's verbatim message for the signer's
// most recent failed attempt, empty when none.
func (e *Engine) LastError(signerID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr[signerID]
}

// FullyExecuted reports whether every required signatory has signed.
func (e *Engine) FullyExecuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, req := range e.doc.RequiredSignatories {
		if !hasSignature(e.doc.Signatures, req.User.ID) {
			return false
		}
	}
	return len(e.doc.RequiredSignatories) > 0
}

// GiveConsent records the signer's explicit affirmation. Local and
// synchronous; nothing goes on the wire.
func (e *Engine) GiveConsent(signerID, statement string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if !e.cap.CanSign() {
		return ErrReadOnly
	}
	if strings.TrimSpace(statement) == "" {
		return ErrEmptyConsent
	}
	if !isRequiredSignatory(e.doc.RequiredSignatories, signerID) {
		return fmt.Errorf("%w: %s", ErrNotSignatory, signerID)
	}
	if hasSignature(e.doc.Signatures, signerID) {
		return ErrAlreadySigned
	}
	sum := sha256.Sum256([]byte(statement))
	e.consents[signerID] = consent{
		statement: statement,
		hash:      hex.EncodeToString(sum[:]),
		givenAt:   time.Now(),
	}
	delete(e.lastErr, signerID)
	return nil
}

// RevokeConsent drops a recorded affirmation, e.g. when the dialog is
// dismissed without signing.
func (e *Engine) RevokeConsent(signerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.consents, signerID)
}

// RequestSignature issues the sign round trip for a signer whose
// consent is recorded. The capability check happens first and denies
// without any network call. On success the server document replaces
// the local one wholesale; the server may have advanced the status as
// a side effect of the final required signature. On failure the local
// document is untouched, the signer returns to unsigned, and the
// server message is kept for the dialog to show.
func (e *Engine) RequestSignature(ctx context.Context, signerID string) (api.Document, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return api.Document{}, ErrClosed
	}
	if !e.cap.CanSign() {
		e.mu.Unlock()
		return api.Document{}, ErrReadOnly
	}
	if hasSignature(e.doc.Signatures, signerID) {
		e.mu.Unlock()
		return api.Document{}, ErrAlreadySigned
	}
	agreed, ok := e.consents[signerID]
	if !ok {
		e.mu.Unlock()
		return api.Document{}, ErrNoConsent
	}
	if e.pending[signerID] {
		e.mu.Unlock()
		return api.Document{}, ErrSignInFlight
	}
	e.pending[signerID] = true
	kind, id := e.doc.Kind, e.doc.ID
	e.mu.Unlock()

	doc, err := e.api.AddSignature(ctx, kind, id, api.SignRequest{
		SignerID:    signerID,
		ConsentText: agreed.statement,
		ConsentHash: agreed.hash,
		ConsentAt:   agreed.givenAt,
		Method:      "consent_statement",
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, signerID)
	if e.closed {
		return api.Document{}, ErrClosed
	}

	if err != nil {
		delete(e.consents, signerID)
		if apiErr, ok := api.AsError(err); ok {
			e.lastErr[signerID] = apiErr.Message
			if api.IsConflict(err) {
				// Another client won the race. Non-fatal: surface it
				// and leave local state alone.
				return api.Document{}, fmt.Errorf("%w: %s", ErrAlreadySigned, apiErr.Message)
			}
		} else {
			e.lastErr[signerID] = err.Error()
		}
		return api.Document{}, fmt.Errorf("sign %s: %w", id, err)
	}

	e.doc = doc
	delete(e.consents, signerID)
	delete(e.lastErr, signerID)
	return doc, nil
}

func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

func hasSignature(signatures []api.Signature, signerID string) bool {
	for _, s := range signatures {
		if s.Signer.ID == signerID {
			return true
		}
	}
	return false
}

func isRequiredSignatory(required []api.Signatory, signerID string) bool {
	for _, s := range required {
		if s.User.ID == signerID {
			return true
		}
	}
	return false
}
