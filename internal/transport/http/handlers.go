package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"tubeconv/internal/application/users"
	mediadomain "tubeconv/internal/domain/media"
	userdomain "tubeconv/internal/domain/user"
)

const maxBodyBytes = 1 << 20

type mediaUseCases interface {
	Convert(ctx context.Context, rawURL, rawFormat string) (string, error)
	ResolveDownload(name string) (string, error)
}

type userUseCases interface {
	Enabled() bool
	Register(ctx context.Context, username, email, password string) (userdomain.User, error)
}

type Handler struct {
	media         mediaUseCases
	users         userUseCases
	publicBaseURL string
}

// NewHandler wires HTTP handlers with application use cases.
// publicBaseURL prefixes download links; empty keeps them relative.
func NewHandler(mediaService mediaUseCases, userService userUseCases, publicBaseURL string) *Handler {
	return &Handler{media: mediaService, users: userService, publicBaseURL: publicBaseURL}
}

type convertRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

type convertResponse struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Convert handles POST /convert and /api/convert.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The job keeps running if the client disconnects.
	finalPath, err := h.media.Convert(context.WithoutCancel(r.Context()), req.URL, req.Format)
	if err != nil {
		writeError(w, convertStatus(err), err.Error())
		return
	}

	name := filepath.Base(finalPath)
	writeJSON(w, http.StatusOK, convertResponse{
		DownloadURL: h.publicBaseURL + "/api/files/" + name,
		Filename:    name,
	})
}

// DownloadFile handles GET /files/{filename} and /api/files/{filename}.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	full, err := h.media.ResolveDownload(mux.Vars(r)["filename"])
	if err != nil {
		if errors.Is(err, mediadomain.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	serveAttachment(w, full)
}

// Register handles POST /api/users/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.users.Enabled() {
		writeError(w, http.StatusServiceUnavailable, users.ErrDisabled.Error())
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, registerStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	})
}

func convertStatus(err error) int {
	switch {
	case errors.Is(err, mediadomain.ErrInvalidFormat), errors.Is(err, mediadomain.ErrInvalidURL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func registerStatus(err error) int {
	switch {
	case errors.Is(err, userdomain.ErrDuplicate), errors.Is(err, users.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
