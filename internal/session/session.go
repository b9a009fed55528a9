// Package session owns the credential collection and the local session
// lifecycle: issuing tokens on login, tracking the logged-in signal and
// expiring sessions. It persists through the shared key-value store and
// never coordinates with the other state stores directly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobdeck/jobdeck/pkg/models"
	"github.com/jobdeck/jobdeck/pkg/storage"
	"github.com/jobdeck/jobdeck/pkg/stream"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// Candidate is the registration input. Field-shape validation is the
// caller's concern; this layer only enforces uniqueness.
type Candidate struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Store is the session state manager. Construct one per process and pass
// it by reference to consumers.
type Store struct {
	kv          storage.Store
	secret      []byte
	tokenDur    time.Duration
	rememberDur time.Duration
	logger      *slog.Logger

	mu         sync.Mutex
	loginState *stream.Broadcast[bool]
}

// New builds a Store and seeds its login-state stream from whatever token
// is already persisted.
func New(kv storage.Store, secret string, tokenDur, rememberDur time.Duration, logger *slog.Logger) *Store {
	if tokenDur <= 0 {
		tokenDur = time.Hour
	}
	if rememberDur <= 0 {
		rememberDur = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		kv:          kv,
		secret:      []byte(secret),
		tokenDur:    tokenDur,
		rememberDur: rememberDur,
		logger:      logger,
	}
	s.loginState = stream.NewSeeded(s.IsLoggedIn(context.Background()))

	return s
}

// LoginStream reports login-state changes. New subscribers immediately
// receive the current state.
func (s *Store) LoginStream() *stream.Broadcast[bool] {
	return s.loginState
}

// Register appends a new credential after checking case-sensitive
// uniqueness of username and email across the stored collection, and seeds
// the matching profile document.
func (s *Store) Register(ctx context.Context, cand Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := s.loadCredentials(ctx)
	for _, c := range creds {
		if c.Username == cand.Username {
			return ErrDuplicateUsername
		}
	}
	for _, c := range creds {
		if c.Email == cand.Email {
			return ErrDuplicateEmail
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cand.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	creds = append(creds, models.Credential{
		Username:     cand.Username,
		PasswordHash: string(hash),
		FullName:     cand.FullName,
		Email:        cand.Email,
	})
	if err := s.saveCredentials(ctx, creds); err != nil {
		return err
	}

	s.seedProfile(ctx, cand)
	return nil
}

// Login matches identifier (case-insensitively) against usernames and
// emails and verifies the password against the stored hash. On success it
// mints a session token, persists the user snapshot and remember flag, and
// pushes login-state true. On failure it returns false with no side
// effects.
func (s *Store) Login(ctx context.Context, identifier, password string, rememberMe bool) bool {
	if !s.login(ctx, identifier, password, rememberMe) {
		return false
	}

	// publish after releasing the lock so subscribers may call back into
	// the store
	s.loginState.Publish(true)
	return true
}

func (s *Store) login(ctx context.Context, identifier, password string, rememberMe bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident := strings.ToLower(identifier)

	var match *models.Credential
	for _, c := range s.loadCredentials(ctx) {
		if !strings.EqualFold(c.Username, ident) && !strings.EqualFold(c.Email, ident) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil {
			cred := c
			match = &cred
			break
		}
	}
	if match == nil {
		return false
	}

	dur := s.tokenDur
	if rememberMe {
		dur = s.rememberDur
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": match.Username,
		"fullName": match.FullName,
		"email":    match.Email,
		"exp":      time.Now().Add(dur).Unix(),
	})
	tokenStr, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("sign session token", slog.Any("err", err))
		return false
	}

	snapshot, err := json.Marshal(match.Snapshot())
	if err != nil {
		s.logger.Error("marshal user snapshot", slog.Any("err", err))
		return false
	}

	if err := s.kv.Set(ctx, storage.KeySessionToken, tokenStr); err != nil {
		s.logger.Error("persist session token", slog.Any("err", err))
		return false
	}
	if err := s.kv.Set(ctx, storage.KeySessionUser, string(snapshot)); err != nil {
		s.logger.Error("persist session user", slog.Any("err", err))
	}
	if err := s.kv.Set(ctx, storage.KeyRememberMe, fmt.Sprintf("%t", rememberMe)); err != nil {
		s.logger.Error("persist remember flag", slog.Any("err", err))
	}

	return true
}

// Logout clears the token, user snapshot and remember flag and pushes
// login-state false.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	for _, key := range []string{storage.KeySessionToken, storage.KeySessionUser, storage.KeyRememberMe} {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error("clear session key", slog.String("key", key), slog.Any("err", err))
		}
	}
	s.mu.Unlock()

	s.loginState.Publish(false)
}

// IsLoggedIn reports whether a verifiable, unexpired token is persisted.
// Malformed tokens never surface as errors.
func (s *Store) IsLoggedIn(ctx context.Context) bool {
	tokenStr, ok, err := s.kv.Get(ctx, storage.KeySessionToken)
	if err != nil || !ok || tokenStr == "" {
		return false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return s.secret, nil
	})

	return err == nil && token.Valid
}

// CurrentUser returns the persisted user snapshot, or nil when absent or
// unreadable.
func (s *Store) CurrentUser(ctx context.Context) *models.Credential {
	raw, ok, err := s.kv.Get(ctx, storage.KeySessionUser)
	if err != nil || !ok {
		return nil
	}

	var c models.Credential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.Warn("malformed session user snapshot", slog.Any("err", err))
		return nil
	}

	return &c
}

// RefreshStatus re-emits the computed login state so consumers can
// resynchronize after storage changed out-of-band.
func (s *Store) RefreshStatus(ctx context.Context) {
	s.loginState.Publish(s.IsLoggedIn(ctx))
}

// Token returns the persisted session token, or "".
func (s *Store) Token(ctx context.Context) string {
	v, ok, err := s.kv.Get(ctx, storage.KeySessionToken)
	if err != nil || !ok {
		return ""
	}

	return v
}

// RememberMe reports the persisted remember flag.
func (s *Store) RememberMe(ctx context.Context) bool {
	v, ok, err := s.kv.Get(ctx, storage.KeyRememberMe)
	return err == nil && ok && v == "true"
}

func (s *Store) loadCredentials(ctx context.Context) []models.Credential {
	raw, ok, err := s.kv.Get(ctx, storage.KeyCredentials)
	if err != nil || !ok {
		return nil
	}

	var creds []models.Credential
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		// recover with an empty collection
		s.logger.Warn("malformed credential collection", slog.Any("err", err))
		return nil
	}

	return creds
}

func (s *Store) saveCredentials(ctx context.Context, creds []models.Credential) error {
	b, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	return s.kv.Set(ctx, storage.KeyCredentials, string(b))
}

// seedProfile creates the implicit profile document for a fresh
// registration. Failures are logged, never propagated; the profile store
// recreates missing documents lazily.
func (s *Store) seedProfile(ctx context.Context, cand Candidate) {
	profiles := make(map[string]models.Profile)
	if raw, ok, err := s.kv.Get(ctx, storage.KeyProfiles); err == nil && ok {
		if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
			s.logger.Warn("malformed profile collection", slog.Any("err", err))
			profiles = make(map[string]models.Profile)
		}
	}

	if _, exists := profiles[cand.Username]; exists {
		return
	}

	profiles[cand.Username] = models.Profile{
		Username: cand.Username,
		FullName: cand.FullName,
		Email:    cand.Email,
	}

	b, err := json.Marshal(profiles)
	if err != nil {
		s.logger.Error("marshal profile collection", slog.Any("err", err))
		return
	}
	if err := s.kv.Set(ctx, storage.KeyProfiles, string(b)); err != nil {
		s.logger.Error("persist profile collection", slog.Any("err", err))
	}
}
