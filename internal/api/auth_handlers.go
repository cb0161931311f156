package api

import (
	"net/http"

	"github.com/adspilot/metads-assistant/internal/auth"
	"github.com/adspilot/metads-assistant/internal/pkg/httputil"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account. The account activates once the email
// address is confirmed through Supabase.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.BadRequest(w, "email and password are required")
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, user)
}

// Login exchanges email and password for a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	token, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		httputil.Unauthorized(w, err.Error())
		return
	}
	httputil.OK(w, token)
}

// Refresh issues a fresh token for the authenticated user.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	token, err := h.authSvc.Refresh(*user)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, token)
}

// Me returns the authenticated user's profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, auth.CurrentUser(r.Context()))
}

// Logout acknowledges logout. Tokens are short-lived and stateless, so the
// client discards its copy.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"message": "Successfully logged out"})
}
