package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jobdeck/jobdeck/internal/application"
	"github.com/jobdeck/jobdeck/internal/dashboard"
	"github.com/jobdeck/jobdeck/pkg/models"
)

type ApplicationsHandler struct {
	apps *application.Store
	dash *dashboard.Service
}

func NewApplicationsHandler(apps *application.Store, dash *dashboard.Service) *ApplicationsHandler {
	return &ApplicationsHandler{apps: apps, dash: dash}
}

// List returns the collection, newest first. ?mine=true narrows it to the
// current user's applications.
func (h *ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	var apps []models.Application
	if r.URL.Query().Get("mine") == "true" {
		apps = h.dash.UserApplications(r.Context())
	} else {
		apps = h.apps.Applications()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apps)
}

// Create records a job application. Unknown body fields are carried
// through verbatim on the stored record.
func (h *ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var partial models.Application
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	created := h.apps.Save(r.Context(), partial, r.URL.Query().Get("ownerEmail"))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// Delete withdraws the application with the given id.
func (h *ApplicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	h.apps.Remove(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

type importResponse struct {
	Imported int `json:"imported"`
}

// Import bulk-overwrites the collection. Records failing schema validation
// are dropped.
func (h *ApplicationsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var records []models.Application
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	h.apps.ReplaceAll(r.Context(), records)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(importResponse{Imported: len(h.apps.Applications())})
}

// Stats serves the dashboard counters for the current user.
func (h *ApplicationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.dash.Stats(r.Context()))
}
