package jobsfeed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobdeck/jobdeck/pkg/jobsfeed"
)

const feedBody = `{
	"job-count": 3,
	"jobs": [
		{"id": 1, "title": "Backend Engineer", "company_name": "Acme", "category": "Software Development"},
		{"id": 2, "title": "SRE", "company_name": "Globex", "category": "DevOps / Sysadmin"},
		{"id": 3, "title": "Frontend Engineer", "company_name": "Acme", "category": "Software Development"}
	]
}`

func testConfig(baseURL string) jobsfeed.Config {
	cfg := jobsfeed.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.Retries = 2
	cfg.Backoff = time.Millisecond
	cfg.CircuitFailureThreshold = 3
	cfg.CircuitReset = time.Minute
	return cfg
}

func TestListSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/remote-jobs" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	c, err := jobsfeed.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	jobs, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].Title != "Backend Engineer" || jobs[0].CompanyName != "Acme" {
		t.Fatalf("first job decoded wrong: %+v", jobs[0])
	}
}

func TestListRetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	c, err := jobsfeed.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	jobs, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs after retry, got %d", len(jobs))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 0
	c, err := jobsfeed.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for i := 0; i < cfg.CircuitFailureThreshold; i++ {
		if _, err := c.List(ctx); err == nil {
			t.Fatal("expected failure")
		}
	}

	if _, err := c.List(ctx); !errors.Is(err, jobsfeed.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	c, err := jobsfeed.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	job, err := c.GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job == nil || job.Title != "SRE" {
		t.Fatalf("expected SRE listing, got %+v", job)
	}

	missing, err := c.GetByID(ctx, 999)
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v", missing)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := jobsfeed.NewClient(jobsfeed.Config{BaseURL: "not a url"}, nil); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}

func TestFilter(t *testing.T) {
	jobs := []jobsfeed.Job{
		{ID: 1, Title: "Backend Engineer", CompanyName: "Acme", Category: "Software Development"},
		{ID: 2, Title: "SRE", CompanyName: "Globex", Category: "DevOps / Sysadmin"},
		{ID: 3, Title: "Frontend Engineer", CompanyName: "Acme", Category: "Software Development"},
	}

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"empty query keeps everything", "", []int64{1, 2, 3}},
		{"title match", "backend", []int64{1}},
		{"company match", "globex", []int64{2}},
		{"category match", "software", []int64{1, 3}},
		{"no match", "zzz", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jobsfeed.Filter(jobs, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, j := range got {
				if j.ID != tt.want[i] {
					t.Errorf("job[%d].ID = %d, want %d", i, j.ID, tt.want[i])
				}
			}
		})
	}
}

func TestPage(t *testing.T) {
	jobs := make([]jobsfeed.Job, 5)
	for i := range jobs {
		jobs[i].ID = int64(i + 1)
	}

	tests := []struct {
		name          string
		page, perPage int
		want          []int64
	}{
		{"first page", 1, 2, []int64{1, 2}},
		{"middle page", 2, 2, []int64{3, 4}},
		{"short last page", 3, 2, []int64{5}},
		{"out of range", 4, 2, []int64{}},
		{"page below one clamps", 0, 2, []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jobsfeed.Page(jobs, tt.page, tt.perPage)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, j := range got {
				if j.ID != tt.want[i] {
					t.Errorf("job[%d].ID = %d, want %d", i, j.ID, tt.want[i])
				}
			}
		})
	}
}
