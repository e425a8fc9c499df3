// Package sigasset manages the user's reusable handwritten-signature
// asset. The payload is sealed with the user's password before it ever
// leaves the client; the server stores and returns it as an opaque
// blob and only hands out non-sensitive metadata otherwise.
package sigasset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bitacora/client/internal/api"
)

var (
	ErrEmptyPassword = errors.New("password is required")
	ErrNoFile        = errors.New("no file selected")
	ErrNoAsset       = errors.New("no signature asset uploaded")
	ErrNotConfirming = errors.New("removal not requested")
	ErrClosed        = errors.New("signature asset view is closed")
)

type assetAPI interface {
	GetSignatureAsset(ctx context.Context) (api.SignatureAssetMeta, error)
	UploadSignatureAsset(ctx context.Context, in api.UploadAssetInput) (api.SignatureAssetMeta, error)
	FetchSignatureAssetBlob(ctx context.Context) ([]byte, error)
	DeleteSignatureAsset(ctx context.Context) error
}

// Store drives the asset lifecycle. Decrypted content lives only in
// the revealed buffer between a successful Reveal and the next
// CloseView; it is never cached across re-fetches and never sent back
// to the server.
type Store struct {
	mu         sync.Mutex
	api        assetAPI
	cipher     Cipher
	meta       *api.SignatureAssetMeta
	revealed   []byte
	confirming bool
	closed     bool
}

func New(client assetAPI, cipher Cipher) *Store {
	if cipher == nil {
		cipher = SecretBoxCipher{}
	}
	return &Store{api: client, cipher: cipher}
}

// Load fetches the asset metadata. Safe to call repeatedly; the api
// client caches it.
func (s *Store) Load(ctx context.Context) (api.SignatureAssetMeta, error) {
	meta, err := s.api.GetSignatureAsset(ctx)
	if err != nil {
		return api.SignatureAssetMeta{}, fmt.Errorf("fetch signature asset: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return api.SignatureAssetMeta{}, ErrClosed
	}
	s.meta = &meta
	return meta, nil
}

// Upload seals the content with the password and sends it. An empty
// password or empty file is rejected before any network call. The
// plaintext is not retained.
func (s *Store) Upload(ctx context.Context, content []byte, mimeType, password string) (api.SignatureAssetMeta, error) {
	if password == "" {
		return api.SignatureAssetMeta{}, ErrEmptyPassword
	}
	if len(content) == 0 {
		return api.SignatureAssetMeta{}, ErrNoFile
	}

	sealed, err := s.cipher.Seal(password, content)
	if err != nil {
		return api.SignatureAssetMeta{}, fmt.Errorf("seal signature asset: %w", err)
	}
	meta, err := s.api.UploadSignatureAsset(ctx, api.UploadAssetInput{Blob: sealed, MimeType: mimeType})
	if err != nil {
		return api.SignatureAssetMeta{}, fmt.Errorf("upload signature asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return api.SignatureAssetMeta{}, ErrClosed
	}
	s.meta = &meta
	return meta, nil
}

// Reveal fetches the sealed payload and opens it with the password.
// ErrWrongPassword means the credential proof failed; any other error
// is a transport failure and retrying with the same password is fine.
// The result is held only until CloseView.
func (s *Store) Reveal(ctx context.Context, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.meta != nil && !s.meta.Exists {
		s.mu.Unlock()
		return nil, ErrNoAsset
	}
	s.mu.Unlock()

	sealed, err := s.api.FetchSignatureAssetBlob(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sealed asset: %w", err)
	}
	plain, err := s.cipher.Open(password, sealed)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.revealed = plain
	out := make([]byte, len(plain))
	copy(out, plain)
	return out, nil
}

// Revealed returns the currently revealed content, if any.
func (s *Store) Revealed() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealed == nil {
		return nil, false
	}
	out := make([]byte, len(s.revealed))
	copy(out, s.revealed)
	return out, true
}

// CloseView drops the revealed content. Viewing again requires a fresh
// password entry.
func (s *Store) CloseView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropRevealed()
	s.confirming = false
}

// RequestRemoval is the first step of the two-step removal.
func (s *Store) RequestRemoval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirming = true
}

func (s *Store) CancelRemoval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirming = false
}

// ConfirmRemoval deletes the asset. Only valid after RequestRemoval;
// irreversible once the server accepts it.
func (s *Store) ConfirmRemoval(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.confirming {
		s.mu.Unlock()
		return ErrNotConfirming
	}
	s.mu.Unlock()

	if err := s.api.DeleteSignatureAsset(ctx); err != nil {
		return fmt.Errorf("remove signature asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirming = false
	s.meta = nil
	s.dropRevealed()
	return nil
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.dropRevealed()
}

// dropRevealed zeroes the buffer before releasing it. Caller holds mu.
func (s *Store) dropRevealed() {
	for i := range s.revealed {
		s.revealed[i] = 0
	}
	s.revealed = nil
}
