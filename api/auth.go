package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jobdeck/jobdeck/internal/session"
)

type AuthHandler struct {
	sessions *session.Store
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(s *session.Store) *AuthHandler {
	return &AuthHandler{sessions: s}
}

type signupRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.FullName == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	err := h.sessions.Register(ctx, session.Candidate{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	})
	switch {
	case errors.Is(err, session.ErrDuplicateUsername), errors.Is(err, session.ErrDuplicateEmail):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}

	// Log the fresh credential in so the client gets a token right away.
	if !h.sessions.Login(ctx, req.Username, req.Password, false) {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(authResponse{Token: h.sessions.Token(ctx)})
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if !h.sessions.Login(ctx, req.Identifier, req.Password, req.RememberMe) {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	json.NewEncoder(w).Encode(authResponse{Token: h.sessions.Token(ctx)})
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}

// Me returns the active user's snapshot.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := h.sessions.CurrentUser(ctx)
	if user == nil || !h.sessions.IsLoggedIn(ctx) {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
