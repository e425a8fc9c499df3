// Package api is the JSON-over-HTTP collaborator the rest of the
// client works against. It decodes server rejections into *Error,
// keeps a short-lived read cache, and attaches the session token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"bitacora/client/internal/session"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	base    string
	http    *http.Client
	cache   *gocache.Cache
	session *session.Store

	// SupportsMultipleFiles selects whether photo uploads go out as
	// one batched call or one call per file.
	SupportsMultipleFiles bool
}

func New(baseURL string, sess *session.Store, timeout, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Client{
		base:    baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		session: sess,
	}
}

// GetDocument fetches a document version by id. Served from cache when
// a recent copy exists; every mutating call for the same id evicts it.
func (c *Client) GetDocument(ctx context.Context, kind, id string) (Document, error) {
	key := docKey(kind, id)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(Document), nil
	}
	var doc Document
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/%s/%s", kind, id), nil, &doc); err != nil {
		return Document{}, err
	}
	c.cache.Set(key, doc, gocache.DefaultExpiration)
	return doc, nil
}

// CreateVersion asks the server to mint a new version. The server
// assigns id and version number; the response is authoritative.
func (c *Client) CreateVersion(ctx context.Context, kind string, in CreateVersionInput) (Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/%s", kind), in, &doc); err != nil {
		return Document{}, err
	}
	c.cache.Delete(docKey(kind, in.PreviousReportID))
	c.cache.Set(docKey(kind, doc.ID), doc, gocache.DefaultExpiration)
	return doc, nil
}

func (c *Client) UpdateDocument(ctx context.Context, kind, id string, in UpdateDocumentInput) (Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/%s/%s", kind, id), in, &doc); err != nil {
		return Document{}, err
	}
	c.cache.Set(docKey(kind, id), doc, gocache.DefaultExpiration)
	return doc, nil
}

// UpdateCommitment flips one commitment's status, addressed by its own
// id so sibling updates stay independent.
func (c *Client) UpdateCommitment(ctx context.Context, actaID, commitmentID, status string) error {
	body := map[string]string{"status": status}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/%s/%s/commitments/%s", KindActa, actaID, commitmentID), body, nil)
	if err != nil {
		return err
	}
	c.cache.Delete(docKey(KindActa, actaID))
	return nil
}

func (c *Client) CreateCommitment(ctx context.Context, actaID string, in CreateCommitmentInput) (Commitment, error) {
	var out Commitment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/%s/%s/commitments", KindActa, actaID), in, &out); err != nil {
		return Commitment{}, err
	}
	c.cache.Delete(docKey(KindActa, actaID))
	return out, nil
}

// AddSignature applies one signature. The server enforces the
// at-most-one-per-signer invariant and may advance the document status
// as a side effect of the final required signature.
func (c *Client) AddSignature(ctx context.Context, kind, id string, in SignRequest) (Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/%s/%s/signatures", kind, id), in, &doc); err != nil {
		return Document{}, err
	}
	c.cache.Set(docKey(kind, id), doc, gocache.DefaultExpiration)
	return doc, nil
}

func (c *Client) GetSignatureAsset(ctx context.Context) (SignatureAssetMeta, error) {
	if cached, ok := c.cache.Get(assetMetaKey); ok {
		return cached.(SignatureAssetMeta), nil
	}
	var meta SignatureAssetMeta
	if err := c.do(ctx, http.MethodGet, "/api/me/signature-asset", nil, &meta); err != nil {
		return SignatureAssetMeta{}, err
	}
	c.cache.Set(assetMetaKey, meta, gocache.DefaultExpiration)
	return meta, nil
}

func (c *Client) UploadSignatureAsset(ctx context.Context, in UploadAssetInput) (SignatureAssetMeta, error) {
	var meta SignatureAssetMeta
	if err := c.do(ctx, http.MethodPut, "/api/me/signature-asset", in, &meta); err != nil {
		return SignatureAssetMeta{}, err
	}
	c.cache.Set(assetMetaKey, meta, gocache.DefaultExpiration)
	return meta, nil
}

// FetchSignatureAssetBlob returns the encrypted payload. It is opaque
// to the server and to this client; only the cipher collaborator can
// open it. Never cached.
func (c *Client) FetchSignatureAssetBlob(ctx context.Context) ([]byte, error) {
	var out struct {
		Blob []byte `json:"blob"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me/signature-asset/blob", nil, &out); err != nil {
		return nil, err
	}
	return out.Blob, nil
}

func (c *Client) DeleteSignatureAsset(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/me/signature-asset", nil, nil); err != nil {
		return err
	}
	c.cache.Delete(assetMetaKey)
	return nil
}

func (c *Client) GetPhotoCollection(ctx context.Context, controlPointID string) (PhotoCollection, error) {
	var out PhotoCollection
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/control-points/%s/photos", controlPointID), nil, &out)
	return out, err
}

// ReorderPhotos persists a full new order. The response is the
// authoritative order, which may differ from the requested one.
func (c *Client) ReorderPhotos(ctx context.Context, controlPointID string, ids []string) (PhotoCollection, error) {
	body := map[string]any{"order": ids}
	var out PhotoCollection
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/control-points/%s/photos/order", controlPointID), body, &out)
	return out, err
}

// UploadPhotos sends new photos for a control point, batched or one by
// one depending on the configured capability.
func (c *Client) UploadPhotos(ctx context.Context, controlPointID string, files []PhotoUpload) (PhotoCollection, error) {
	path := fmt.Sprintf("/api/control-points/%s/photos", controlPointID)
	if c.SupportsMultipleFiles {
		body := map[string]any{"files": files}
		var out PhotoCollection
		err := c.do(ctx, http.MethodPost, path, body, &out)
		return out, err
	}
	var out PhotoCollection
	for _, f := range files {
		body := map[string]any{"files": []PhotoUpload{f}}
		if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token, err := c.session.Token(); err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ensureSession refreshes the access token once when it is about to
// expire. Refresh shares the plain HTTP path so it cannot recurse.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.session == nil || !c.session.NeedsRefresh(time.Now()) {
		return nil
	}
	refresh, err := c.session.RefreshToken()
	if err != nil {
		return nil
	}

	body, err := json.Marshal(map[string]string{"refreshToken": refresh})
	if err != nil {
		return fmt.Errorf("encode refresh: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/session/refresh", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var tokens Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	c.session.Set(tokens.Token, tokens.RefreshToken)
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details any    `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error.Message == "" {
		return &Error{
			Status:  resp.StatusCode,
			Code:    "UNEXPECTED",
			Message: http.StatusText(resp.StatusCode),
		}
	}
	return &Error{
		Status:  resp.StatusCode,
		Code:    payload.Error.Code,
		Message: payload.Error.Message,
		Details: payload.Error.Details,
	}
}

const assetMetaKey = "me:signature-asset"

func docKey(kind, id string) string {
	return "doc:" + kind + ":" + id
}
