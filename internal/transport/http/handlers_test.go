package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubeconv/internal/application/users"
	mediadomain "tubeconv/internal/domain/media"
	userdomain "tubeconv/internal/domain/user"
)

type stubMedia struct {
	finalPath string
	err       error

	lastURL    string
	lastFormat string
	ctxErr     error

	files map[string]string
}

func (s *stubMedia) Convert(ctx context.Context, rawURL, rawFormat string) (string, error) {
	s.lastURL = rawURL
	s.lastFormat = rawFormat
	s.ctxErr = ctx.Err()
	return s.finalPath, s.err
}

func (s *stubMedia) ResolveDownload(name string) (string, error) {
	if full, ok := s.files[name]; ok {
		return full, nil
	}
	return "", mediadomain.ErrFileNotFound
}

type stubUsers struct {
	enabled bool
	err     error
	calls   int
}

func (s *stubUsers) Enabled() bool { return s.enabled }

func (s *stubUsers) Register(_ context.Context, username, email, _ string) (userdomain.User, error) {
	s.calls++
	if s.err != nil {
		return userdomain.User{}, s.err
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return userdomain.User{
		ID:           7,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func newTestServer(media *stubMedia, accounts *stubUsers, baseURL string) http.Handler {
	return NewRouter(NewHandler(media, accounts, baseURL))
}

func decodeDetail(t *testing.T, body io.Reader) string {
	t.Helper()
	var out map[string]string
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out["detail"]
}

func TestConvert_ReturnsDownloadLink(t *testing.T) {
	media := &stubMedia{finalPath: "/data/files/0f6c.mp3"}
	srv := newTestServer(media, &stubUsers{}, "")

	for _, path := range []string{"/convert", "/api/convert"} {
		body := strings.NewReader(`{"url":"https://youtu.be/abc12345678","format":"mp3"}`)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, body))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
		var resp convertResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Filename != "0f6c.mp3" || resp.DownloadURL != "/api/files/0f6c.mp3" {
			t.Fatalf("%s: unexpected response %+v", path, resp)
		}
	}
	if media.lastURL != "https://youtu.be/abc12345678" || media.lastFormat != "mp3" {
		t.Fatalf("unexpected arguments url=%q format=%q", media.lastURL, media.lastFormat)
	}
}

func TestConvert_UsesPublicBaseURL(t *testing.T) {
	srv := newTestServer(&stubMedia{finalPath: "/data/files/a.mp4"}, &stubUsers{}, "https://media.example")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"url":"https://x.example/v","format":"mp4"}`)))

	var resp convertResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.DownloadURL != "https://media.example/api/files/a.mp4" {
		t.Fatalf("unexpected download url %q", resp.DownloadURL)
	}
}

func TestConvert_DetachedFromClientCancellation(t *testing.T) {
	media := &stubMedia{finalPath: "/data/files/a.mp3"}
	srv := newTestServer(media, &stubUsers{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"url":"https://x.example/v","format":"mp3"}`)).WithContext(ctx)
	srv.ServeHTTP(httptest.NewRecorder(), req)

	if media.ctxErr != nil {
		t.Fatalf("conversion must not observe client cancellation, got %v", media.ctxErr)
	}
}

func TestConvert_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid format", mediadomain.ErrInvalidFormat, http.StatusBadRequest},
		{"invalid url", fmt.Errorf("%w: missing host", mediadomain.ErrInvalidURL), http.StatusBadRequest},
		{"fetch", fmt.Errorf("%w: yt-dlp failed: exit status 1\nstderr: ERROR: unavailable", mediadomain.ErrFetch), http.StatusInternalServerError},
		{"transcode", fmt.Errorf("%w: ffmpeg failed", mediadomain.ErrTranscode), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := newTestServer(&stubMedia{err: tc.err}, &stubUsers{}, "")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(`{"url":"https://x.example/v","format":"mp3"}`)))

		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
		if detail := decodeDetail(t, rec.Body); detail != tc.err.Error() {
			t.Fatalf("%s: detail must carry the error verbatim, got %q", tc.name, detail)
		}
	}
}

func TestConvert_MalformedBody(t *testing.T) {
	media := &stubMedia{}
	srv := newTestServer(media, &stubUsers{}, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(`{"url":`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if media.lastURL != "" {
		t.Fatalf("conversion must not start for malformed body")
	}
}

func TestDownloadFile_StreamsAttachment(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "abc.mp3")
	payload := []byte("ID3 fake audio")
	if err := os.WriteFile(full, payload, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	srv := newTestServer(&stubMedia{files: map[string]string{"abc.mp3": full}}, &stubUsers{}, "")

	for _, path := range []string{"/files/abc.mp3", "/api/files/abc.mp3"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=abc.mp3` {
			t.Fatalf("unexpected disposition %q", cd)
		}
		if !bytes.Equal(rec.Body.Bytes(), payload) {
			t.Fatalf("body mismatch")
		}
	}
}

func TestDownloadFile_NotFound(t *testing.T) {
	srv := newTestServer(&stubMedia{}, &stubUsers{}, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/missing.mp3", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if detail := decodeDetail(t, rec.Body); detail != mediadomain.ErrFileNotFound.Error() {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestRegister_ReturnsUserWithoutHash(t *testing.T) {
	accounts := &stubUsers{enabled: true}
	srv := newTestServer(&stubMedia{}, accounts, "")

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"secret-pass"}`)
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/register", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "hash") || strings.Contains(raw, "password") {
		t.Fatalf("response leaks credentials: %s", raw)
	}
	var resp userResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 7 || resp.Username != "alice" || resp.Email != "alice@example.com" || !resp.IsActive {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRegister_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate", userdomain.ErrDuplicate, http.StatusBadRequest},
		{"invalid", users.ErrInvalidInput, http.StatusBadRequest},
		{"storage", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		srv := newTestServer(&stubMedia{}, &stubUsers{enabled: true, err: tc.err}, "")
		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"secret-pass"}`)
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/register", body))

		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}
}

func TestRegister_DisabledWithoutStore(t *testing.T) {
	accounts := &stubUsers{}
	srv := newTestServer(&stubMedia{}, accounts, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(`{}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if accounts.calls != 0 {
		t.Fatalf("register must not be called when disabled")
	}
}

func TestMiddleware_RecoveryAndRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	var h http.Handler = panicking
	h = Logging(logger)(h)
	h = RequestID(h)
	h = Recovery(logger)(h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("request id must be echoed")
	}
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}
