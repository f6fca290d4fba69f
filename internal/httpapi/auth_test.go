package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"restoweb/backend/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	found := user
	return &found, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func stubWithAdmin(password string) *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  password,
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := stubWithAdmin("admin123")
	manager := NewAuthManager("test-secret", time.Hour, store)

	resp, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("role = %q, want admin", resp.Role)
	}

	store.mu.Lock()
	stored := store.users["admin"].Password
	updates := store.updates
	store.mu.Unlock()

	if updates != 1 {
		t.Fatalf("expected one password upgrade, got %d", updates)
	}
	if stored == "admin123" {
		t.Fatalf("expected password to be upgraded from plain-text")
	}
	if !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", stored)
	}

	// Second login verifies against the upgraded hash without rewriting it.
	if _, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	}); err != nil {
		t.Fatalf("login after upgrade failed: %v", err)
	}
	store.mu.Lock()
	updates = store.updates
	store.mu.Unlock()
	if updates != 1 {
		t.Fatalf("expected no further upgrades, got %d", updates)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, stubWithAdmin("admin123"))

	if _, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "nope",
	}); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	store := stubWithAdmin("admin123")
	store.users["admin"] = domain.UserAccount{
		Username: "admin",
		Password: "admin123",
		Role:     "admin",
		Active:   false,
	}
	manager := NewAuthManager("test-secret", time.Hour, store)

	if _, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	}); err == nil {
		t.Fatal("expected inactive user login to fail")
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, stubWithAdmin("admin123"))

	resp, err := manager.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthManager("secret-one", time.Hour, stubWithAdmin("admin123"))
	verifier := NewAuthManager("secret-two", time.Hour, stubWithAdmin("admin123"))

	resp, err := issuer.Login(context.Background(), domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with different secret to fail")
	}
}
