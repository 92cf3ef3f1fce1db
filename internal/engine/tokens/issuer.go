package tokens

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"cytogate/internal/engine/scopes"
	"cytogate/internal/platform/config"
	"cytogate/internal/platform/models"
)

// collision retries on the token_hash unique index. With 32 chars of random
// body a collision is effectively impossible, but an insert can also collide
// with garbage data restored from a backup, so retry a couple of times before
// giving up.
const maxIssueAttempts = 3

type Issuer struct {
	repo   *Repository
	policy config.PATConfig
}

func NewIssuer(repo *Repository, policy config.PATConfig) *Issuer {
	return &Issuer{repo: repo, policy: policy}
}

// Issue mints a new PAT for userID. The returned plaintext secret exists only
// in this return value: storage keeps the hash and display prefix, and no log
// line ever includes it. ttlDays == 0 means the token never expires.
func (i *Issuer) Issue(userID, name string, requestedScopes []string, ttlDays int) (*models.PersonalAccessToken, string, error) {
	if invalid := scopes.ValidateAll(requestedScopes); len(invalid) > 0 {
		return nil, "", fmt.Errorf("%w: %s", scopes.ErrInvalidScope, strings.Join(invalid, ", "))
	}
	if ttlDays < 0 {
		return nil, "", fmt.Errorf("%w: must not be negative", ErrInvalidTTL)
	}
	if i.policy.MaxTTLDays > 0 && (ttlDays == 0 || ttlDays > i.policy.MaxTTLDays) {
		return nil, "", fmt.Errorf("%w: limit is %d days", ErrTTLTooLong, i.policy.MaxTTLDays)
	}

	var expiresAt *int64
	if ttlDays > 0 {
		exp := time.Now().Add(time.Duration(ttlDays) * 24 * time.Hour).Unix()
		expiresAt = &exp
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		secret, err := GenerateSecret()
		if err != nil {
			return nil, "", err
		}
		prefix, err := DisplayPrefix(secret)
		if err != nil {
			return nil, "", err
		}

		token := &models.PersonalAccessToken{
			UserID:      userID,
			Name:        name,
			TokenHash:   HashSecret(secret),
			TokenPrefix: prefix,
			Scopes:      requestedScopes,
			ExpiresAt:   expiresAt,
		}

		if err := i.repo.Create(token); err != nil {
			if isHashCollision(err) {
				lastErr = err
				continue
			}
			return nil, "", err
		}

		log.Info().
			Str("token_id", token.ID).
			Str("token_prefix", token.TokenPrefix).
			Str("user_id", userID).
			Strs("scopes", requestedScopes).
			Msg("personal access token issued")

		return token, secret, nil
	}
	return nil, "", fmt.Errorf("issue token: %w", lastErr)
}

func isHashCollision(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: tokens.token_hash")
}
