package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobdeck/jobdeck/internal/session"
	storageimpl "github.com/jobdeck/jobdeck/internal/storage"
	"github.com/jobdeck/jobdeck/pkg/storage"
)

const testSecret = "testsecret"

func newStore(t *testing.T) (*session.Store, *storageimpl.Memory) {
	t.Helper()
	kv := storageimpl.NewMemory()
	return session.New(kv, testSecret, time.Hour, 7*24*time.Hour, nil), kv
}

func register(t *testing.T, s *session.Store, username, password, fullName, email string) {
	t.Helper()
	err := s.Register(context.Background(), session.Candidate{
		Username: username, Password: password, FullName: fullName, Email: email,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func TestLoginStreamSubscriberMayCallBackIntoStore(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	register(t, s, "alice", "pw", "Alice A", "alice@x.com")

	// a subscriber driving the store from inside an emission must not
	// deadlock: log straight back out the moment the state goes true
	var states []bool
	sub := s.LoginStream().Subscribe(func(loggedIn bool) {
		states = append(states, loggedIn)
		if loggedIn {
			s.Logout(ctx)
		}
	})
	defer sub.Unsubscribe()

	if !s.Login(ctx, "alice", "pw", false) {
		t.Fatal("login failed")
	}

	if s.IsLoggedIn(ctx) {
		t.Fatal("subscriber logout should have cleared the session")
	}
	want := []bool{false, true, false}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	register(t, s, "alice", "pw1", "Alice A", "alice@x.com")

	err := s.Register(ctx, session.Candidate{
		Username: "alice", Password: "pw9", FullName: "Other", Email: "other@x.com",
	})
	if !errors.Is(err, session.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	err = s.Register(ctx, session.Candidate{
		Username: "bob", Password: "pw2", FullName: "Bob B", Email: "alice@x.com",
	})
	if !errors.Is(err, session.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterUniquenessIsCaseSensitive(t *testing.T) {
	s, _ := newStore(t)

	register(t, s, "alice", "pw1", "Alice A", "alice@x.com")
	// differing only in case passes the exact-match check
	register(t, s, "Alice", "pw2", "Alice Two", "ALICE@x.com")
}

func TestRegisterSeedsProfile(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	register(t, s, "alice", "pw1", "Alice A", "alice@x.com")

	raw, ok, err := kv.Get(ctx, storage.KeyProfiles)
	if err != nil || !ok {
		t.Fatalf("profiles collection missing: ok=%v err=%v", ok, err)
	}
	var profiles map[string]map[string]any
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		t.Fatalf("unmarshal profiles: %v", err)
	}
	if profiles["alice"]["email"] != "alice@x.com" {
		t.Fatalf("seeded profile mismatch: %v", profiles["alice"])
	}
}

func TestLoginSuccessAndFailure(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	register(t, s, "john", "Password@123", "John Doe", "john@test.com")

	tests := []struct {
		name       string
		identifier string
		password   string
		want       bool
	}{
		{"by_username", "john", "Password@123", true},
		{"by_email", "john@test.com", "Password@123", true},
		{"identifier_case_insensitive", "JOHN", "Password@123", true},
		{"email_case_insensitive", "John@Test.com", "Password@123", true},
		{"wrong_password", "john", "nope", false},
		{"unknown_identifier", "ghost", "Password@123", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s.Logout(ctx)
			if got := s.Login(ctx, tc.identifier, tc.password, false); got != tc.want {
				t.Fatalf("login(%q) = %v, want %v", tc.identifier, got, tc.want)
			}
			if got := s.IsLoggedIn(ctx); got != tc.want {
				t.Fatalf("IsLoggedIn = %v after login result %v", got, tc.want)
			}
		})
	}
}

func TestFailedLoginHasNoSideEffects(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	register(t, s, "john", "pw", "John", "john@test.com")
	if s.Login(ctx, "john", "wrong", false) {
		t.Fatal("login should fail")
	}

	if _, ok, _ := kv.Get(ctx, storage.KeySessionToken); ok {
		t.Fatal("failed login must not persist a token")
	}
	if u := s.CurrentUser(ctx); u != nil {
		t.Fatalf("failed login must not persist a user snapshot, got %+v", u)
	}
}

func TestLoginPersistsSnapshotWithoutPasswordHash(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	register(t, s, "john", "pw", "John Doe", "john@test.com")
	if !s.Login(ctx, "john", "pw", true) {
		t.Fatal("login failed")
	}

	user := s.CurrentUser(ctx)
	if user == nil || user.Username != "john" || user.FullName != "John Doe" {
		t.Fatalf("unexpected snapshot: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatal("snapshot must not carry the password hash")
	}

	if v, _, _ := kv.Get(ctx, storage.KeyRememberMe); v != "true" {
		t.Fatalf("remember flag = %q, want true", v)
	}
	if !s.RememberMe(ctx) {
		t.Fatal("RememberMe should report true")
	}
}

func TestIsLoggedInTokenChecks(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	expired := mintToken(t, testSecret, time.Now().Add(-time.Minute))
	valid := mintToken(t, testSecret, time.Now().Add(time.Hour))
	foreign := mintToken(t, "othersecret", time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"no_token", "", false},
		{"valid", valid, true},
		{"expired", expired, false},
		{"malformed", "not-a-token", false},
		{"wrong_signature", foreign, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv.Delete(ctx, storage.KeySessionToken)
			if tc.token != "" {
				kv.Set(ctx, storage.KeySessionToken, tc.token)
			}
			if got := s.IsLoggedIn(ctx); got != tc.want {
				t.Fatalf("IsLoggedIn = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLogoutClearsSession(t *testing.T) {
	s, kv := newStore(t)
	ctx := context.Background()

	register(t, s, "john", "pw", "John", "john@test.com")
	if !s.Login(ctx, "john", "pw", true) {
		t.Fatal("login failed")
	}

	s.Logout(ctx)

	if s.IsLoggedIn(ctx) {
		t.Fatal("still logged in after logout")
	}
	for _, key := range []string{storage.KeySessionToken, storage.KeySessionUser, storage.KeyRememberMe} {
		if _, ok, _ := kv.Get(ctx, key); ok {
			t.Fatalf("key %q should be cleared", key)
		}
	}
}

func TestLoginStreamEmits(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var states []bool
	sub := s.LoginStream().Subscribe(func(v bool) { states = append(states, v) })
	defer sub.Unsubscribe()

	// initial replay of the seeded state
	if len(states) != 1 || states[0] {
		t.Fatalf("expected initial [false], got %v", states)
	}

	register(t, s, "john", "pw", "John", "john@test.com")
	s.Login(ctx, "john", "pw", false)
	s.Logout(ctx)
	s.RefreshStatus(ctx)

	want := []bool{false, true, false, false}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestMalformedCredentialCollectionRecovers(t *testing.T) {
	kv := storageimpl.NewMemory()
	ctx := context.Background()
	kv.Set(ctx, storage.KeyCredentials, "{definitely not json")

	s := session.New(kv, testSecret, time.Hour, 0, nil)

	// registration starts from an empty collection instead of failing
	register(t, s, "alice", "pw", "Alice", "alice@x.com")
	if !s.Login(ctx, "alice", "pw", false) {
		t.Fatal("login after recovery failed")
	}
}

func mintToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "john",
		"exp":      exp.Unix(),
	})
	str, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return str
}
