package tokens

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"cytogate/internal/platform/models"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *Repository) Create(t *models.PersonalAccessToken) error {
	if t.ID == "" {
		t.ID = "tok_" + uuid.NewString()
	}
	t.CreatedAt = time.Now().Unix()

	scopesJSON, err := json.Marshal(t.Scopes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tokens (id, user_id, name, token_hash, token_prefix, scopes, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	`
	_, err = r.db.Exec(query, t.ID, t.UserID, t.Name, t.TokenHash, t.TokenPrefix, string(scopesJSON), t.ExpiresAt, t.CreatedAt)
	return err
}

const tokenColumns = `id, user_id, name, token_hash, token_prefix, scopes, expires_at, last_used_at, revoked, created_at`

func scanToken(row interface{ Scan(...interface{}) error }) (*models.PersonalAccessToken, error) {
	var t models.PersonalAccessToken
	var scopesStr string
	var expiresAt, lastUsedAt sql.NullInt64

	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.TokenPrefix, &scopesStr, &expiresAt, &lastUsedAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t.ExpiresAt = new(int64)
		*t.ExpiresAt = expiresAt.Int64
	}
	if lastUsedAt.Valid {
		t.LastUsedAt = new(int64)
		*t.LastUsedAt = lastUsedAt.Int64
	}
	json.Unmarshal([]byte(scopesStr), &t.Scopes)
	return &t, nil
}

func (r *Repository) GetByID(id string) (*models.PersonalAccessToken, error) {
	row := r.db.QueryRow(`SELECT `+tokenColumns+` FROM tokens WHERE id = ?`, id)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetByHashTx is the validation-path point lookup. It runs inside the
// caller's transaction so the state decision and the last-used touch see one
// consistent snapshot of the row.
func (r *Repository) GetByHashTx(tx *sql.Tx, hash string) (*models.PersonalAccessToken, error) {
	row := tx.QueryRow(`SELECT `+tokenColumns+` FROM tokens WHERE token_hash = ?`, hash)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *Repository) TouchLastUsedTx(tx *sql.Tx, id string, now int64) error {
	_, err := tx.Exec(`UPDATE tokens SET last_used_at = ? WHERE id = ?`, now, id)
	return err
}

func (r *Repository) ListByUser(userID string) ([]*models.PersonalAccessToken, error) {
	rows, err := r.db.Query(`SELECT `+tokenColumns+` FROM tokens WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PersonalAccessToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Revoke sets the revoked flag in a single atomic update. Monotonic: revoking
// an already revoked token succeeds and changes nothing. Returns ErrNotFound
// only when no row exists at all.
func (r *Repository) Revoke(id string) error {
	res, err := r.db.Exec(`UPDATE tokens SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The update matches revoked rows too, so zero rows means no row.
		return ErrNotFound
	}
	return nil
}
