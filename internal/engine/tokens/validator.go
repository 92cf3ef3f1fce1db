package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"cytogate/internal/engine/audit"
	"cytogate/internal/engine/scopes"
	"cytogate/internal/platform/auth"
	"cytogate/internal/platform/models"
)

// Audit reason strings. The presenter only ever sees a generic unauthorized
// response; these live in the audit trail.
const (
	reasonInvalid      = "Invalid token"
	reasonRevoked      = "Token revoked"
	reasonExpired      = "Token expired"
	reasonInsufficient = "Insufficient permissions"
	reasonInternal     = "Internal error"
)

func nowUnix() int64 { return time.Now().Unix() }

type UserStore interface {
	GetByID(id string) (*models.User, error)
}

// RequestInfo is the caller context recorded with every authorization
// decision.
type RequestInfo struct {
	IP     string
	Method string
	Path   string
}

// Validator resolves presented credentials to an identity and effective
// scopes. Every call through ValidatePAT or ValidateSession records exactly
// one audit entry, at the moment the decision is known; recording is not
// something callers can skip or defer.
type Validator struct {
	repo     *Repository
	users    UserStore
	sessions *auth.SessionService
	recorder audit.Recorder
}

func NewValidator(repo *Repository, users UserStore, sessions *auth.SessionService, recorder audit.Recorder) *Validator {
	return &Validator{repo: repo, users: users, sessions: sessions, recorder: recorder}
}

// ValidatePAT runs the PAT state machine, in precedence order: not found,
// revoked, expired, valid. The row read, state decision and last-used touch
// happen inside one transaction, so a concurrent revoke serializes cleanly
// against in-flight validations.
//
// When required is non-nil the scope check is folded into the same decision,
// so the single audit entry carries the final outcome: a valid token without
// the scope records a deny, not a success.
func (v *Validator) ValidatePAT(ctx context.Context, secret string, required *scopes.Scope, req RequestInfo) (*models.User, *models.PersonalAccessToken, error) {
	token, err := v.claim(ctx, secret)
	if err != nil {
		var tokenID *string
		if token != nil {
			tokenID = &token.ID
		}
		switch err {
		case ErrInvalidToken:
			v.record(ctx, nil, req, 401, false, reasonInvalid)
		case ErrTokenRevoked:
			v.record(ctx, tokenID, req, 401, false, reasonRevoked)
		case ErrTokenExpired:
			v.record(ctx, tokenID, req, 401, false, reasonExpired)
		default:
			v.record(ctx, tokenID, req, 500, false, reasonInternal)
		}
		return nil, nil, err
	}

	user, err := v.users.GetByID(token.UserID)
	if err != nil {
		v.record(ctx, &token.ID, req, 500, false, reasonInternal)
		return nil, nil, fmt.Errorf("resolve token owner: %w", err)
	}
	if user == nil {
		v.record(ctx, &token.ID, req, 500, false, reasonInternal)
		return nil, nil, fmt.Errorf("%w: user %s", ErrOwnerMissing, token.UserID)
	}

	if required != nil && scopes.Authorize(token.Scopes, *required) == scopes.Deny {
		v.record(ctx, &token.ID, req, 403, false, reasonInsufficient)
		return nil, nil, fmt.Errorf("%w: requires %s", ErrPermissionDenied, required)
	}

	v.record(ctx, &token.ID, req, 200, true, "")
	return user, token, nil
}

// claim runs the PAT state machine inside one transaction: read the row by
// hash, decide, and touch last_used only when the token is valid. The
// transaction is closed before the caller records the audit entry, keeping
// the audit write fully independent of the validation transaction.
//
// On a state-machine failure the matched token row (if any) is returned
// alongside the error so the audit entry can reference it.
func (v *Validator) claim(ctx context.Context, secret string) (*models.PersonalAccessToken, error) {
	// A malformed secret can never match a stored hash; skip the lookup.
	if !ValidFormat(secret) {
		return nil, ErrInvalidToken
	}

	tx, err := v.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin validation tx: %w", err)
	}
	defer tx.Rollback()

	token, err := v.repo.GetByHashTx(tx, HashSecret(secret))
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	now := nowUnix()
	switch {
	case token == nil:
		return nil, ErrInvalidToken
	case token.Revoked:
		return token, ErrTokenRevoked
	case token.Expired(now):
		return token, ErrTokenExpired
	}

	if err := v.repo.TouchLastUsedTx(tx, token.ID, now); err != nil {
		return token, fmt.Errorf("touch last used: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return token, fmt.Errorf("commit validation tx: %w", err)
	}
	token.LastUsedAt = &now
	return token, nil
}

// ValidateSession verifies a session credential: signature, then expiry. No
// storage consulted for token state; session credentials are not revocable.
func (v *Validator) ValidateSession(ctx context.Context, credential string, req RequestInfo) (*models.User, error) {
	userID, err := v.sessions.Validate(credential)
	if err != nil {
		switch err {
		case auth.ErrSessionExpired:
			v.record(ctx, nil, req, 401, false, reasonExpired)
			return nil, ErrTokenExpired
		case auth.ErrMissingSecret:
			v.record(ctx, nil, req, 500, false, reasonInternal)
			return nil, err
		default:
			v.record(ctx, nil, req, 401, false, reasonInvalid)
			return nil, ErrInvalidToken
		}
	}

	user, err := v.users.GetByID(userID)
	if err != nil {
		v.record(ctx, nil, req, 500, false, reasonInternal)
		return nil, fmt.Errorf("resolve session user: %w", err)
	}
	if user == nil {
		v.record(ctx, nil, req, 401, false, reasonInvalid)
		return nil, ErrInvalidToken
	}

	v.record(ctx, nil, req, 200, true, "")
	return user, nil
}

// record writes the audit entry for one decision. Best effort: an audit
// storage failure is logged and never changes the decision being recorded.
func (v *Validator) record(ctx context.Context, tokenID *string, req RequestInfo, status int, authorized bool, reason string) {
	entry := audit.Entry{
		TokenID:    tokenID,
		IPAddress:  req.IP,
		Method:     req.Method,
		Endpoint:   req.Path,
		StatusCode: status,
		Authorized: authorized,
	}
	if reason != "" {
		entry.Reason = &reason
	}
	if err := v.recorder.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("endpoint", req.Path).Msg("failed to record audit entry")
	}
}
