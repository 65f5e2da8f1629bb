// Package entitlement decides whether a user's subscription or trial
// permits starting a new transcription. Pure functions only; callers
// supply the persisted user record and the current time.
package entitlement

import "time"

// TrialLimit is the number of transcriptions included in a free trial.
const TrialLimit = 3

// activeStatuses are the subscription states that grant unlimited access.
// Trialing users are governed by the trial rules instead.
var activeStatuses = map[string]bool{
	"active":           true,
	"Active Unlimited": true,
}

// User is the persisted subscription/trial view of an account.
type User struct {
	ID                      string
	Email                   string
	SubscriptionStatus      string
	TrialTranscriptionsUsed int
	TrialEndsAt             *time.Time
}

// Access is the result of an entitlement check.
type Access struct {
	Allowed            bool   `json:"has_access"`
	LimitReached       bool   `json:"limit_reached"`
	TrialExpired       bool   `json:"trial_ended"`
	TranscriptionsUsed int    `json:"transcriptions_used"`
	SubscriptionStatus string `json:"subscription_status"`
}

// IsActiveSubscription reports whether status grants unlimited access.
func IsActiveSubscription(status string) bool {
	return activeStatuses[status]
}

// Check evaluates the entitlement rules in order; the first matching rule
// decides the human-facing reason. No side effects.
func Check(u User, now time.Time) Access {
	a := Access{
		TranscriptionsUsed: u.TrialTranscriptionsUsed,
		SubscriptionStatus: u.SubscriptionStatus,
	}

	if IsActiveSubscription(u.SubscriptionStatus) {
		a.Allowed = true
		return a
	}
	if u.TrialEndsAt != nil && u.TrialEndsAt.Before(now) {
		a.TrialExpired = true
		return a
	}
	if u.TrialTranscriptionsUsed >= TrialLimit {
		a.LimitReached = true
		return a
	}
	a.Allowed = true
	return a
}
