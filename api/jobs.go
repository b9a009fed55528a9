package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jobdeck/jobdeck/pkg/jobsfeed"
)

type JobsHandler struct {
	feed *jobsfeed.Client
}

func NewJobsHandler(feed *jobsfeed.Client) *JobsHandler {
	return &JobsHandler{feed: feed}
}

type jobsResponse struct {
	Jobs    []jobsfeed.Job `json:"jobs"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// List proxies the public feed with client-side search and pagination, the
// same shaping the browser did.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.feed.List(r.Context())
	if err != nil {
		http.Error(w, "jobs feed unavailable", http.StatusBadGateway)
		return
	}

	q := r.URL.Query()
	filtered := jobsfeed.Filter(jobs, q.Get("search"))

	page := intParam(q.Get("page"), 1)
	perPage := intParam(q.Get("per_page"), 10)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobsResponse{
		Jobs:    jobsfeed.Page(filtered, page, perPage),
		Total:   len(filtered),
		Page:    page,
		PerPage: perPage,
	})
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	job, err := h.feed.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "jobs feed unavailable", http.StatusBadGateway)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func intParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
