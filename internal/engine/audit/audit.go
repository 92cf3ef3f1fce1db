package audit

import (
	"context"
	"database/sql"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entry is one authorization decision, recorded append-only. TokenID is nil
// when the request was unauthenticated or used a session credential.
type Entry struct {
	ID         string  `json:"id"`
	TokenID    *string `json:"token_id,omitempty"`
	Timestamp  int64   `json:"timestamp"`
	IPAddress  string  `json:"ip_address"`
	Method     string  `json:"method"`
	Endpoint   string  `json:"endpoint"`
	StatusCode int     `json:"status_code"`
	Authorized bool    `json:"authorized"`
	Reason     *string `json:"reason,omitempty"`
}

// Recorder is consumed by the token validator. Implementations must write in
// a transaction independent of the validation transaction: a failed audit
// insert never alters the authorization decision it describes.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// newID returns a lexicographically sortable id so audit rows order by key
// the same way they order by time.
func newID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}

	query := `
		INSERT INTO audit_logs (id, token_id, timestamp, ip_address, method, endpoint, status_code, authorized, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, e.ID, e.TokenID, e.Timestamp, e.IPAddress, e.Method, e.Endpoint, e.StatusCode, e.Authorized, e.Reason)
	return err
}

// ListByToken returns entries for one token, newest first, plus the total
// count for pagination.
func (s *Store) ListByToken(ctx context.Context, tokenID string, limit, offset int) ([]Entry, int, error) {
	return s.list(ctx,
		`SELECT id, token_id, timestamp, ip_address, method, endpoint, status_code, authorized, reason
		 FROM audit_logs WHERE token_id = ? ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		`SELECT COUNT(*) FROM audit_logs WHERE token_id = ?`,
		tokenID, limit, offset)
}

// ListByUser returns entries across all of a user's tokens, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, int, error) {
	return s.list(ctx,
		`SELECT a.id, a.token_id, a.timestamp, a.ip_address, a.method, a.endpoint, a.status_code, a.authorized, a.reason
		 FROM audit_logs a JOIN tokens t ON a.token_id = t.id
		 WHERE t.user_id = ? ORDER BY a.timestamp DESC, a.id DESC LIMIT ? OFFSET ?`,
		`SELECT COUNT(*) FROM audit_logs a JOIN tokens t ON a.token_id = t.id WHERE t.user_id = ?`,
		userID, limit, offset)
}

func (s *Store) list(ctx context.Context, query, countQuery, key string, limit, offset int) ([]Entry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, query, key, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var tokenID, reason sql.NullString
		if err := rows.Scan(&e.ID, &tokenID, &e.Timestamp, &e.IPAddress, &e.Method, &e.Endpoint, &e.StatusCode, &e.Authorized, &reason); err != nil {
			return nil, 0, err
		}
		if tokenID.Valid {
			e.TokenID = &tokenID.String
		}
		if reason.Valid {
			e.Reason = &reason.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, key).Scan(&total); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
