// Package application owns the canonical collection of job applications:
// loading and normalizing persisted records, assigning ids, deriving
// review statuses over elapsed time and pushing fresh snapshots at
// subscribers after every mutation.
package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jobdeck/jobdeck/pkg/models"
	"github.com/jobdeck/jobdeck/pkg/storage"
	"github.com/jobdeck/jobdeck/pkg/stream"
)

// Validator screens externally-sourced records before a bulk import.
// Records it rejects are dropped, never errors.
type Validator interface {
	ValidApplication(ctx context.Context, app models.Application) bool
}

// Store is the application state manager.
type Store struct {
	kv        storage.Store
	logger    *slog.Logger
	validator Validator

	mu      sync.Mutex
	apps    []models.Application
	updates *stream.Broadcast[[]models.Application]
}

// New loads the persisted collection (malformed JSON degrades to empty),
// normalizes application dates, applies status derivation and re-persists
// the normalized form before the first emission. validator may be nil.
func New(ctx context.Context, kv storage.Store, validator Validator, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{kv: kv, logger: logger, validator: validator}
	s.apps = s.load(ctx)
	if s.apps == nil {
		s.apps = []models.Application{}
	}
	s.persist(ctx)
	s.updates = stream.NewSeeded(snapshot(s.apps))

	return s
}

// Applications returns the current snapshot, newest first.
func (s *Store) Applications() []models.Application {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.apps)
}

// Stream pushes a fresh snapshot after every mutation; new subscribers
// immediately receive the current one.
func (s *Store) Stream() *stream.Broadcast[[]models.Application] {
	return s.updates
}

// Save fills in the partial record's defaults, assigns the next id,
// resolves the owner email (the override wins over the logged-in user's
// snapshot), prepends the record and persists. The created record is
// returned.
func (s *Store) Save(ctx context.Context, partial models.Application, ownerEmailOverride string) models.Application {
	s.mu.Lock()

	rec := partial
	rec.ID = s.nextID()
	if rec.JobTitle == "" {
		rec.JobTitle = "Untitled Role"
	}
	if rec.Company == "" {
		rec.Company = "Unknown"
	}
	if rec.Status == "" {
		rec.Status = models.StatusInReview
	}
	if rec.DateApplied.IsZero() {
		rec.DateApplied = time.Now()
	}
	if ownerEmailOverride != "" {
		rec.UserEmail = ownerEmailOverride
	} else if rec.UserEmail == "" {
		rec.UserEmail = s.sessionEmail(ctx)
	}

	// newest first
	s.apps = append([]models.Application{rec}, s.apps...)
	s.persist(ctx)
	snap := snapshot(s.apps)
	s.mu.Unlock()

	// publish after releasing the lock so subscribers may call back into
	// the store
	s.updates.Publish(snap)

	return rec
}

// Remove deletes the record with the matching id, leaving the relative
// order of the rest untouched.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()

	kept := s.apps[:0]
	for _, a := range s.apps {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.apps = kept

	s.persist(ctx)
	snap := snapshot(s.apps)
	s.mu.Unlock()

	s.updates.Publish(snap)
}

// ReplaceAll overwrites the whole collection. Records the validator
// rejects are dropped with a log line; dates and statuses are normalized
// the same way a load is.
func (s *Store) ReplaceAll(ctx context.Context, records []models.Application) {
	now := time.Now()
	next := make([]models.Application, 0, len(records))
	for _, r := range records {
		if s.validator != nil && !s.validator.ValidApplication(ctx, r) {
			s.logger.Warn("dropping invalid application record", slog.String("id", r.ID))
			continue
		}
		next = append(next, normalize(r, now))
	}

	s.mu.Lock()
	s.apps = next
	s.persist(ctx)
	snap := snapshot(s.apps)
	s.mu.Unlock()

	s.updates.Publish(snap)
}

// RefreshStatuses re-runs status derivation over the collection and, when
// anything changed, persists and emits. Long-running processes call this
// periodically so records keep advancing without a reload.
func (s *Store) RefreshStatuses(ctx context.Context) {
	s.mu.Lock()

	now := time.Now()
	changed := false
	for i, a := range s.apps {
		if next := Derive(a.Status, a.DateApplied, now); next != a.Status {
			s.apps[i].Status = next
			changed = true
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}

	s.persist(ctx)
	snap := snapshot(s.apps)
	s.mu.Unlock()

	s.updates.Publish(snap)
}

// load reads and normalizes the persisted collection. Any parse failure
// recovers to an empty collection.
func (s *Store) load(ctx context.Context) []models.Application {
	raw, ok, err := s.kv.Get(ctx, storage.KeyApplications)
	if err != nil || !ok {
		return nil
	}

	var apps []models.Application
	if err := json.Unmarshal([]byte(raw), &apps); err != nil {
		s.logger.Warn("malformed application collection", slog.Any("err", err))
		return nil
	}

	now := time.Now()
	for i, a := range apps {
		apps[i] = normalize(a, now)
	}

	return apps
}

func (s *Store) persist(ctx context.Context) {
	b, err := json.Marshal(s.apps)
	if err != nil {
		s.logger.Error("marshal applications", slog.Any("err", err))
		return
	}
	if err := s.kv.Set(ctx, storage.KeyApplications, string(b)); err != nil {
		s.logger.Error("persist applications", slog.Any("err", err))
	}
}

// nextID returns max-numeric-id+1 when any numeric id exists, else the
// current epoch milliseconds. The fallback is itself numeric, so later
// saves keep increasing from it.
func (s *Store) nextID() string {
	var max int64
	seen := false
	for _, a := range s.apps {
		if n, err := strconv.ParseInt(a.ID, 10, 64); err == nil {
			if !seen || n > max {
				max = n
			}
			seen = true
		}
	}
	if seen {
		return strconv.FormatInt(max+1, 10)
	}

	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// sessionEmail reads the logged-in user's snapshot through the shared
// storage, never through the session store itself.
func (s *Store) sessionEmail(ctx context.Context) string {
	raw, ok, err := s.kv.Get(ctx, storage.KeySessionUser)
	if err != nil || !ok {
		return ""
	}

	var user struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return ""
	}

	return user.Email
}

func normalize(a models.Application, now time.Time) models.Application {
	if a.DateApplied.IsZero() {
		a.DateApplied = now
	}
	a.Status = Derive(a.Status, a.DateApplied, now)
	return a
}

func snapshot(apps []models.Application) []models.Application {
	out := make([]models.Application, len(apps))
	copy(out, apps)
	return out
}
