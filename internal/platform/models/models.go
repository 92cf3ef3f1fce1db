package models

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Workspace struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type FCSFile struct {
	ID             string `json:"id"`
	WorkspaceID    string `json:"workspace_id"`
	Filename       string `json:"filename"`
	EventCount     int64  `json:"event_count"`
	ParameterCount int64  `json:"parameter_count"`
	AnalyzedAt     *int64 `json:"analyzed_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}
