package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"cytogate/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = "usr_" + uuid.NewString()
	}
	now := time.Now().Unix()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpdateEmail(id, email string) error {
	_, err := r.db.Exec(`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`, email, time.Now().Unix(), id)
	return err
}

type WorkspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) Create(ws *models.Workspace) error {
	if ws.ID == "" {
		ws.ID = "ws_" + uuid.NewString()
	}
	now := time.Now().Unix()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO workspaces (id, owner_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ws.ID, ws.OwnerID, ws.Name, ws.Description, ws.CreatedAt, ws.UpdatedAt)
	return err
}

func (r *WorkspaceRepository) GetByID(id string) (*models.Workspace, error) {
	ws := &models.Workspace{}
	err := r.db.QueryRow(`
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM workspaces WHERE id = ?
	`, id).Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ws, nil
}

func (r *WorkspaceRepository) ListByOwner(ownerID string) ([]*models.Workspace, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM workspaces WHERE owner_id = ? ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Workspace
	for rows.Next() {
		ws := &models.Workspace{}
		if err := rows.Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (r *WorkspaceRepository) Update(ws *models.Workspace) error {
	ws.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE workspaces SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`, ws.Name, ws.Description, ws.UpdatedAt, ws.ID)
	return err
}

func (r *WorkspaceRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM workspaces WHERE id = ?`, id)
	return err
}

type FCSRepository struct {
	db *sql.DB
}

func NewFCSRepository(db *sql.DB) *FCSRepository {
	return &FCSRepository{db: db}
}

func (r *FCSRepository) Create(f *models.FCSFile) error {
	if f.ID == "" {
		f.ID = "fcs_" + uuid.NewString()
	}
	f.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO fcs_files (id, workspace_id, filename, event_count, parameter_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.ID, f.WorkspaceID, f.Filename, f.EventCount, f.ParameterCount, f.CreatedAt)
	return err
}

func (r *FCSRepository) GetByID(id string) (*models.FCSFile, error) {
	f := &models.FCSFile{}
	var analyzedAt sql.NullInt64
	err := r.db.QueryRow(`
		SELECT id, workspace_id, filename, event_count, parameter_count, analyzed_at, created_at
		FROM fcs_files WHERE id = ?
	`, id).Scan(&f.ID, &f.WorkspaceID, &f.Filename, &f.EventCount, &f.ParameterCount, &analyzedAt, &f.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if analyzedAt.Valid {
		f.AnalyzedAt = new(int64)
		*f.AnalyzedAt = analyzedAt.Int64
	}
	return f, nil
}

func (r *FCSRepository) ListByWorkspace(workspaceID string) ([]*models.FCSFile, error) {
	rows, err := r.db.Query(`
		SELECT id, workspace_id, filename, event_count, parameter_count, analyzed_at, created_at
		FROM fcs_files WHERE workspace_id = ? ORDER BY created_at DESC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FCSFile
	for rows.Next() {
		f := &models.FCSFile{}
		var analyzedAt sql.NullInt64
		if err := rows.Scan(&f.ID, &f.WorkspaceID, &f.Filename, &f.EventCount, &f.ParameterCount, &analyzedAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		if analyzedAt.Valid {
			f.AnalyzedAt = new(int64)
			*f.AnalyzedAt = analyzedAt.Int64
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FCSRepository) MarkAnalyzed(id string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE fcs_files SET analyzed_at = ? WHERE id = ?`, timestamp, id)
	return err
}
