package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bitacora/client/internal/session"
)

func testSession(t *testing.T, exp time.Time) *session.Store {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return session.New(signed, "refresh-1")
}

func TestGetDocumentUsesCache(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(Document{ID: "rep-1", Number: "INF-015", Version: 1})
	}))
	defer server.Close()

	client := New(server.URL, testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	for i := 0; i < 3; i++ {
		doc, err := client.GetDocument(context.Background(), KindReport, "rep-1")
		if err != nil {
			t.Fatalf("GetDocument: %v", err)
		}
		if doc.Number != "INF-015" {
			t.Fatalf("unexpected number %q", doc.Number)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 backend hit, got %d", hits.Load())
	}
}

func TestUpdateCommitmentEvictsDocumentCache(t *testing.T) {
	var gets atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			json.NewEncoder(w).Encode(Document{ID: "acta-1"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	ctx := context.Background()

	if _, err := client.GetDocument(ctx, KindActa, "acta-1"); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if err := client.UpdateCommitment(ctx, "acta-1", "c1", CommitmentCompleted); err != nil {
		t.Fatalf("UpdateCommitment: %v", err)
	}
	if _, err := client.GetDocument(ctx, KindActa, "acta-1"); err != nil {
		t.Fatalf("GetDocument after update: %v", err)
	}
	if gets.Load() != 2 {
		t.Fatalf("expected cache eviction to cause 2 GETs, got %d", gets.Load())
	}
}

func TestServerRejectionDecodesIntoError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "ALREADY_SIGNED", "message": "This signer already signed the document"},
		})
	}))
	defer server.Close()

	client := New(server.URL, testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	_, err := client.AddSignature(context.Background(), KindReport, "rep-1", SignRequest{SignerID: "u2"})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.Code != "ALREADY_SIGNED" || apiErr.Message != "This signer already signed the document" {
		t.Fatalf("unexpected decoded error: %+v", apiErr)
	}
	if !IsConflict(err) {
		t.Fatal("IsConflict should match a 409")
	}
	if IsStale(err) {
		t.Fatal("IsStale should not match a 409")
	}
}

func TestUnparseableErrorBodyFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := New(server.URL, testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	_, err := client.GetDocument(context.Background(), KindReport, "gone")
	if !IsStale(err) {
		t.Fatalf("expected stale-reference error, got %v", err)
	}
	apiErr, _ := AsError(err)
	if apiErr.Code != "UNEXPECTED" {
		t.Fatalf("expected UNEXPECTED fallback code, got %q", apiErr.Code)
	}
}

func TestExpiredSessionRefreshesOnce(t *testing.T) {
	var refreshes atomic.Int64
	var sawToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session/refresh" {
			refreshes.Add(1)
			var body struct {
				RefreshToken string `json:"refreshToken"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.RefreshToken != "refresh-1" {
				t.Errorf("unexpected refresh token %q", body.RefreshToken)
			}
			json.NewEncoder(w).Encode(Tokens{Token: "opaque-new", RefreshToken: "refresh-2"})
			return
		}
		sawToken = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Document{ID: "rep-1"})
	}))
	defer server.Close()

	client := New(server.URL, testSession(t, time.Now().Add(-time.Minute)), 0, time.Minute)
	if _, err := client.GetDocument(context.Background(), KindReport, "rep-1"); err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if refreshes.Load() != 1 {
		t.Fatalf("expected exactly one refresh, got %d", refreshes.Load())
	}
	if sawToken != "Bearer opaque-new" {
		t.Fatalf("document call should carry the refreshed token, got %q", sawToken)
	}
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	client := New("http://127.0.0.1:1", testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	_, err := client.GetDocument(context.Background(), KindReport, "rep-1")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if _, ok := AsError(err); ok {
		t.Fatal("transport failure must not decode as a server rejection")
	}
}

func TestUploadPhotosCapabilityFlag(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(PhotoCollection{OwnerID: "cp-1"})
	}))
	defer server.Close()

	files := []PhotoUpload{{Name: "a.jpg"}, {Name: "b.jpg"}, {Name: "c.jpg"}}

	client := New(server.URL, testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	client.SupportsMultipleFiles = true
	if _, err := client.UploadPhotos(context.Background(), "cp-1", files); err != nil {
		t.Fatalf("batched upload: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("batched upload should issue 1 call, got %d", calls.Load())
	}

	calls.Store(0)
	client.SupportsMultipleFiles = false
	if _, err := client.UploadPhotos(context.Background(), "cp-1", files); err != nil {
		t.Fatalf("per-file upload: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("per-file upload should issue 3 calls, got %d", calls.Load())
	}
}

func TestErrorStringFormat(t *testing.T) {
	err := &Error{Status: 403, Code: "FORBIDDEN", Message: "Forbidden"}
	if err.Error() != "FORBIDDEN: Forbidden" {
		t.Fatalf("unexpected format %q", err.Error())
	}
}

func TestConfiguredTimeoutReachesHTTPClient(t *testing.T) {
	client := New("http://example.invalid", testSession(t, time.Now().Add(time.Hour)), 3*time.Second, time.Minute)
	if got := client.http.Timeout; got != 3*time.Second {
		t.Fatalf("timeout = %v, want 3s", got)
	}

	fallback := New("http://example.invalid", testSession(t, time.Now().Add(time.Hour)), 0, time.Minute)
	if got := fallback.http.Timeout; got != defaultTimeout {
		t.Fatalf("zero timeout should fall back to %v, got %v", defaultTimeout, got)
	}
}
