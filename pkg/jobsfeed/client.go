// Package jobsfeed consumes a remotive-style public jobs API. The portal
// never stores listings; it fetches them and filters/pages client-side.
package jobsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

var ErrCircuitOpen = errors.New("jobsfeed circuit open")

// Job is one listing as the feed returns it.
type Job struct {
	ID              int64  `json:"id"`
	URL             string `json:"url,omitempty"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	CompanyLogo     string `json:"company_logo,omitempty"`
	Category        string `json:"category,omitempty"`
	JobType         string `json:"job_type,omitempty"`
	Location        string `json:"candidate_required_location,omitempty"`
	Salary          string `json:"salary,omitempty"`
	Description     string `json:"description,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
}

type listResponse struct {
	JobCount int   `json:"job-count"`
	Jobs     []Job `json:"jobs"`
}

// Client wraps the feed endpoint and adds retries, timeout, and a circuit
// breaker.
type Client struct {
	cfg    Config
	base   *url.URL
	client *http.Client

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

// NewClient creates a new feed client wrapper.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{cfg: cfg, base: u, client: httpClient}
	logger.Info("jobsfeed: client created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

// package-level logger for pkg/jobsfeed; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/jobsfeed. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt32(&c.failures, 0)
}

// List fetches the full set of listings, retrying transient failures with
// backoff.
func (c *Client) List(ctx context.Context) ([]Job, error) {
	if c.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	endpoint := c.base.JoinPath("api", "remote-jobs").String()

	var lastErr error
	attempts := c.cfg.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.Backoff * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		jobs, err := c.fetch(ctx, endpoint)
		if err == nil {
			c.recordSuccess()
			return jobs, nil
		}

		lastErr = err
		c.recordFailure()
		logger.Warn("jobsfeed: fetch failed", slog.Int("attempt", attempt+1), slog.Any("err", err))
	}

	return nil, fmt.Errorf("list jobs after %d attempts: %w", attempts, lastErr)
}

// GetByID fetches the listing with the given id, or nil when the feed does
// not carry it.
func (c *Client) GetByID(ctx context.Context, id int64) (*Job, error) {
	jobs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], nil
		}
	}

	return nil, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]Job, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	return lr.Jobs, nil
}

// Close releases idle connections on the underlying transport when
// supported. Close is idempotent and safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
		}
	}
	return nil
}

// Filter keeps the listings whose title, company or category contains the
// query, case-insensitively. An empty query keeps everything.
func Filter(jobs []Job, query string) []Job {
	q := strings.TrimSpace(strings.ToLower(query))
	if q == "" {
		return jobs
	}

	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if strings.Contains(strings.ToLower(j.Title), q) ||
			strings.Contains(strings.ToLower(j.CompanyName), q) ||
			strings.Contains(strings.ToLower(j.Category), q) {
			out = append(out, j)
		}
	}

	return out
}

// Page slices jobs for 1-based page numbers. Out-of-range pages return an
// empty slice.
func Page(jobs []Job, page, perPage int) []Job {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	start := (page - 1) * perPage
	if start >= len(jobs) {
		return []Job{}
	}

	end := start + perPage
	if end > len(jobs) {
		end = len(jobs)
	}

	return jobs[start:end]
}
