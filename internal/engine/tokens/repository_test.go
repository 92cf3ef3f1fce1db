package tokens

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cytogate/internal/platform/database"
	"cytogate/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func insertTestUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	now := time.Now().Unix()
	_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, "user-"+id, id+"@example.com", "x", now, now)
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	repo := NewRepository(db)

	token := &models.PersonalAccessToken{
		UserID:      "usr_1",
		Name:        "ci token",
		TokenHash:   HashSecret("pat_aaaaaaaabbbbbbbbccccccccdddddddd"),
		TokenPrefix: "pat_aaaaaaaa",
		Scopes:      []string{"fcs:read", "workspaces:write"},
	}
	if err := repo.Create(token); err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}
	if token.ID == "" {
		t.Error("Expected generated token id")
	}

	fetched, err := repo.GetByID(token.ID)
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if fetched == nil {
		t.Fatal("Expected token, got nil")
	}
	if fetched.TokenPrefix != "pat_aaaaaaaa" {
		t.Errorf("Expected prefix pat_aaaaaaaa, got %s", fetched.TokenPrefix)
	}
	if len(fetched.Scopes) != 2 || fetched.Scopes[0] != "fcs:read" {
		t.Errorf("Scopes not round-tripped: %v", fetched.Scopes)
	}
	if fetched.ExpiresAt != nil {
		t.Error("Expected nil expiry for never-expiring token")
	}
	if fetched.Revoked {
		t.Error("New token should not be revoked")
	}
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	fetched, err := repo.GetByID("tok_missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fetched != nil {
		t.Error("Expected nil for missing token")
	}
}

func TestRepository_DuplicateHashRejected(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	repo := NewRepository(db)

	hash := HashSecret("pat_aaaaaaaabbbbbbbbccccccccdddddddd")
	first := &models.PersonalAccessToken{UserID: "usr_1", Name: "a", TokenHash: hash, TokenPrefix: "pat_aaaaaaaa", Scopes: []string{"fcs:read"}}
	if err := repo.Create(first); err != nil {
		t.Fatalf("Failed to create first token: %v", err)
	}

	dup := &models.PersonalAccessToken{UserID: "usr_1", Name: "b", TokenHash: hash, TokenPrefix: "pat_aaaaaaaa", Scopes: []string{"fcs:read"}}
	err := repo.Create(dup)
	if err == nil {
		t.Fatal("Expected unique constraint error, got nil")
	}
	if !isHashCollision(err) {
		t.Errorf("Expected hash collision error, got %v", err)
	}
}

func TestRepository_ListByUser(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	insertTestUser(t, db, "usr_2")
	repo := NewRepository(db)

	for i, user := range []string{"usr_1", "usr_1", "usr_2"} {
		secret, _ := GenerateSecret()
		token := &models.PersonalAccessToken{UserID: user, Name: "t", TokenHash: HashSecret(secret), TokenPrefix: "pat_xxxxxxxx", Scopes: []string{"fcs:read"}}
		if err := repo.Create(token); err != nil {
			t.Fatalf("Failed to create token %d: %v", i, err)
		}
	}

	list, err := repo.ListByUser("usr_1")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 tokens for usr_1, got %d", len(list))
	}
}

func TestRepository_RevokeIdempotent(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	repo := NewRepository(db)

	secret, _ := GenerateSecret()
	token := &models.PersonalAccessToken{UserID: "usr_1", Name: "t", TokenHash: HashSecret(secret), TokenPrefix: "pat_xxxxxxxx", Scopes: []string{"fcs:read"}}
	if err := repo.Create(token); err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}

	if err := repo.Revoke(token.ID); err != nil {
		t.Fatalf("First revoke failed: %v", err)
	}
	if err := repo.Revoke(token.ID); err != nil {
		t.Fatalf("Second revoke failed: %v", err)
	}

	fetched, err := repo.GetByID(token.ID)
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if !fetched.Revoked {
		t.Error("Expected revoked flag set")
	}
}

func TestRepository_RevokeMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	if err := repo.Revoke("tok_missing"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRepository_GetByHashTxAndTouch(t *testing.T) {
	db := setupTestDB(t)
	insertTestUser(t, db, "usr_1")
	repo := NewRepository(db)

	secret, _ := GenerateSecret()
	hash := HashSecret(secret)
	token := &models.PersonalAccessToken{UserID: "usr_1", Name: "t", TokenHash: hash, TokenPrefix: "pat_xxxxxxxx", Scopes: []string{"fcs:read"}}
	if err := repo.Create(token); err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}

	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}

	fetched, err := repo.GetByHashTx(tx, hash)
	if err != nil {
		t.Fatalf("Failed to get by hash: %v", err)
	}
	if fetched == nil || fetched.ID != token.ID {
		t.Fatalf("Wrong token fetched: %+v", fetched)
	}
	if fetched.LastUsedAt != nil {
		t.Error("Expected nil last_used_at before first use")
	}

	now := time.Now().Unix()
	if err := repo.TouchLastUsedTx(tx, token.ID, now); err != nil {
		t.Fatalf("Failed to touch last used: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	fetched, err = repo.GetByID(token.ID)
	if err != nil {
		t.Fatalf("Failed to get token: %v", err)
	}
	if fetched.LastUsedAt == nil || *fetched.LastUsedAt != now {
		t.Errorf("Expected last_used_at %d, got %v", now, fetched.LastUsedAt)
	}

	tx, err = repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	defer tx.Rollback()

	missing, err := repo.GetByHashTx(tx, HashSecret("pat_nosuchtokennosuchtokennosuchtok"))
	if err != nil {
		t.Fatalf("Unexpected error for missing hash: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown hash")
	}
}
