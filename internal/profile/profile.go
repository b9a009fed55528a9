// Package profile owns the active user's profile document: whole-document
// replaces and single-section patches, persisted both as the current
// snapshot and inside the master profile collection.
package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jobdeck/jobdeck/pkg/models"
	"github.com/jobdeck/jobdeck/pkg/storage"
	"github.com/jobdeck/jobdeck/pkg/stream"
)

// Validator screens replaced documents before they enter the store.
// Documents it rejects are dropped, never errors.
type Validator interface {
	ValidProfile(ctx context.Context, p models.Profile) bool
}

// Store is the profile state manager for the active session.
type Store struct {
	kv        storage.Store
	validator Validator
	logger    *slog.Logger

	mu      sync.Mutex
	current *models.Profile
	updates *stream.Broadcast[*models.Profile]
}

// New loads the profile bound to the stored current user: the persisted
// snapshot when present, else the collection entry matching the session
// user's name. validator may be nil.
func New(ctx context.Context, kv storage.Store, validator Validator, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{kv: kv, validator: validator, logger: logger}
	s.current = s.load(ctx)
	s.updates = stream.NewSeeded(copyProfile(s.current))

	return s
}

// CurrentProfile returns the loaded snapshot, or nil. A store built before
// the user existed re-resolves from storage, so a document seeded after
// construction (registration does this) is still found.
func (s *Store) CurrentProfile(ctx context.Context) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.current = s.load(ctx)
	}

	return copyProfile(s.current)
}

// Stream pushes the snapshot after every mutation; new subscribers
// immediately receive the current one.
func (s *Store) Stream() *stream.Broadcast[*models.Profile] {
	return s.updates
}

// UpdateSection replaces exactly the named section of the document with the
// given JSON value. With no profile loaded it persists nothing and emits
// nothing.
func (s *Store) UpdateSection(ctx context.Context, section string, value json.RawMessage) {
	s.mu.Lock()

	if s.current == nil {
		s.current = s.load(ctx)
	}
	if s.current == nil {
		s.mu.Unlock()
		return
	}

	doc, err := json.Marshal(s.current)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("marshal profile", slog.Any("err", err))
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		s.mu.Unlock()
		s.logger.Error("reshape profile", slog.Any("err", err))
		return
	}
	fields[section] = value

	patched, err := json.Marshal(fields)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("marshal patched profile", slog.Any("err", err))
		return
	}

	var next models.Profile
	if err := json.Unmarshal(patched, &next); err != nil {
		s.mu.Unlock()
		s.logger.Warn("section value does not fit profile document",
			slog.String("section", section), slog.Any("err", err))
		return
	}

	snap := s.persist(ctx, &next)
	s.mu.Unlock()

	if snap != nil {
		s.updates.Publish(snap)
	}
}

// Replace swaps in a whole new document through the same persistence path
// as UpdateSection. Documents the validator rejects are dropped with a log
// line.
func (s *Store) Replace(ctx context.Context, doc models.Profile) {
	if s.validator != nil && !s.validator.ValidProfile(ctx, doc) {
		s.logger.Warn("dropping invalid profile document", slog.String("username", doc.Username))
		return
	}

	s.mu.Lock()
	snap := s.persist(ctx, &doc)
	s.mu.Unlock()

	if snap != nil {
		s.updates.Publish(snap)
	}
}

func (s *Store) load(ctx context.Context) *models.Profile {
	if raw, ok, err := s.kv.Get(ctx, storage.KeyCurrentProfile); err == nil && ok {
		var p models.Profile
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p
		}
		s.logger.Warn("malformed current profile, falling back to collection")
	}

	username := s.sessionUsername(ctx)
	if username == "" {
		return nil
	}

	profiles := s.loadCollection(ctx)
	if p, ok := profiles[username]; ok {
		return &p
	}

	return nil
}

// persist writes the document under the current-profile key and mirrors it
// into the collection matched by username. The caller holds s.mu; the
// returned copy is what it should publish after releasing the lock.
func (s *Store) persist(ctx context.Context, p *models.Profile) *models.Profile {
	b, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("marshal profile", slog.Any("err", err))
		return nil
	}
	if err := s.kv.Set(ctx, storage.KeyCurrentProfile, string(b)); err != nil {
		s.logger.Error("persist current profile", slog.Any("err", err))
	}

	profiles := s.loadCollection(ctx)
	profiles[p.Username] = *p
	if cb, err := json.Marshal(profiles); err != nil {
		s.logger.Error("marshal profile collection", slog.Any("err", err))
	} else if err := s.kv.Set(ctx, storage.KeyProfiles, string(cb)); err != nil {
		s.logger.Error("persist profile collection", slog.Any("err", err))
	}

	s.current = p
	return copyProfile(p)
}

func (s *Store) loadCollection(ctx context.Context) map[string]models.Profile {
	profiles := make(map[string]models.Profile)
	if raw, ok, err := s.kv.Get(ctx, storage.KeyProfiles); err == nil && ok {
		if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
			s.logger.Warn("malformed profile collection", slog.Any("err", err))
			profiles = make(map[string]models.Profile)
		}
	}

	return profiles
}

func (s *Store) sessionUsername(ctx context.Context) string {
	raw, ok, err := s.kv.Get(ctx, storage.KeySessionUser)
	if err != nil || !ok {
		return ""
	}

	var user struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return ""
	}

	return user.Username
}

func copyProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
