package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jobdeck/jobdeck/internal/profile"
	"github.com/jobdeck/jobdeck/pkg/models"
)

type ProfileHandler struct {
	profiles *profile.Store
}

func NewProfileHandler(p *profile.Store) *ProfileHandler {
	return &ProfileHandler{profiles: p}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := h.profiles.CurrentProfile(r.Context())
	if p == nil {
		http.Error(w, "no profile loaded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// PatchSection replaces one named section of the document with the request
// body. With no profile loaded the store ignores the call, so the handler
// answers 204 either way.
func (h *ProfileHandler) PatchSection(w http.ResponseWriter, r *http.Request) {
	section := mux.Vars(r)["section"]
	if section == "" {
		http.Error(w, "missing section", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	h.profiles.UpdateSection(r.Context(), section, json.RawMessage(body))
	w.WriteHeader(http.StatusNoContent)
}

// Replace swaps in a whole new document.
func (h *ProfileHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var doc models.Profile
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if doc.Username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	h.profiles.Replace(r.Context(), doc)
	w.WriteHeader(http.StatusNoContent)
}
