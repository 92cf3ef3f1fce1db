package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cytogate/internal/engine/scopes"
	"cytogate/internal/platform/config"
)

func TestIssuer_Issue(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	repo := NewRepository(db)
	issuer := NewIssuer(repo, config.PATConfig{})

	token, secret, err := issuer.Issue("usr_1", "ci token", []string{"fcs:analyze", "workspaces:read"}, 0)
	if err != nil {
		t.Fatalf("Failed to issue: %v", err)
	}

	if !ValidFormat(secret) {
		t.Errorf("Issued secret has bad format: %s", secret)
	}
	if !strings.HasPrefix(secret, token.TokenPrefix) {
		t.Errorf("Prefix %s is not a prefix of the secret", token.TokenPrefix)
	}

	// Round-trip law: hashing the returned plaintext reproduces the stored hash.
	stored, err := repo.GetByID(token.ID)
	if err != nil || stored == nil {
		t.Fatalf("Failed to load stored token: %v", err)
	}
	if HashSecret(secret) != stored.TokenHash {
		t.Error("Hash of returned plaintext does not match stored hash")
	}
	if stored.ExpiresAt != nil {
		t.Error("Expected never-expiring token for zero ttl")
	}
}

func TestIssuer_UniquePlaintexts(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	issuer := NewIssuer(NewRepository(db), config.PATConfig{})

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		_, secret, err := issuer.Issue("usr_1", "t", []string{"fcs:read"}, 0)
		if err != nil {
			t.Fatalf("Failed to issue: %v", err)
		}
		if seen[secret] {
			t.Fatalf("Duplicate plaintext issued: %s", secret)
		}
		seen[secret] = true
	}
}

func TestIssuer_InvalidScope(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewIssuer(NewRepository(db), config.PATConfig{})

	_, _, err := issuer.Issue("usr_1", "t", []string{"workspaces:read", "spaceships:fly"}, 0)
	if !errors.Is(err, scopes.ErrInvalidScope) {
		t.Fatalf("Expected ErrInvalidScope, got %v", err)
	}
	if !strings.Contains(err.Error(), "spaceships:fly") {
		t.Errorf("Error should name the bad entry, got %q", err.Error())
	}
}

func TestIssuer_TTL(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	issuer := NewIssuer(NewRepository(db), config.PATConfig{})

	token, _, err := issuer.Issue("usr_1", "t", []string{"fcs:read"}, 30)
	if err != nil {
		t.Fatalf("Failed to issue: %v", err)
	}
	if token.ExpiresAt == nil {
		t.Fatal("Expected expiry for 30-day ttl")
	}

	want := time.Now().Add(30 * 24 * time.Hour).Unix()
	if *token.ExpiresAt < want-5 || *token.ExpiresAt > want+5 {
		t.Errorf("Expiry %d not near %d", *token.ExpiresAt, want)
	}
}

func TestIssuer_NegativeTTL(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewIssuer(NewRepository(db), config.PATConfig{})

	_, _, err := issuer.Issue("usr_1", "t", []string{"fcs:read"}, -1)
	if !errors.Is(err, ErrInvalidTTL) {
		t.Errorf("Expected ErrInvalidTTL, got %v", err)
	}
}

func TestIssuer_MaxTTLPolicy(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	issuer := NewIssuer(NewRepository(db), config.PATConfig{MaxTTLDays: 90})

	if _, _, err := issuer.Issue("usr_1", "t", []string{"fcs:read"}, 365); !errors.Is(err, ErrTTLTooLong) {
		t.Errorf("Expected ErrTTLTooLong for 365 days, got %v", err)
	}
	// Never-expires also exceeds a configured maximum.
	if _, _, err := issuer.Issue("usr_1", "t", []string{"fcs:read"}, 0); !errors.Is(err, ErrTTLTooLong) {
		t.Errorf("Expected ErrTTLTooLong for no ttl under a max policy, got %v", err)
	}
	if _, _, err := issuer.Issue("usr_1", "t", []string{"fcs:read"}, 90); err != nil {
		t.Errorf("Expected 90 days to pass, got %v", err)
	}
}
