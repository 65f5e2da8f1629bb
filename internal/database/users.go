package database

import (
	"context"
	"fmt"

	"github.com/snarg/scribe-engine/internal/entitlement"
)

// GetUser returns the subscription/trial view of an account.
func (db *DB) GetUser(ctx context.Context, id string) (*entitlement.User, error) {
	var u entitlement.User
	err := db.Pool.QueryRow(ctx, `
		SELECT id, email, subscription_status, trial_transcriptions_used, trial_ends_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.SubscriptionStatus, &u.TrialTranscriptionsUsed, &u.TrialEndsAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserIDByToken resolves an API token to a user ID.
func (db *DB) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM users WHERE api_token = $1
	`, token).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// IncrementTrialUsage bumps the trial counter by one. The trialing
// condition is part of the statement so it is a no-op for subscribed or
// canceled users and cannot double-apply under concurrent callers.
func (db *DB) IncrementTrialUsage(ctx context.Context, userID string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET trial_transcriptions_used = trial_transcriptions_used + 1
		WHERE id = $1 AND subscription_status = 'trialing'
	`, userID)
	if err != nil {
		return fmt.Errorf("increment trial usage: %w", err)
	}
	return nil
}
