// Package storage issues signed URLs against the object store holding
// uploaded media. Media bytes never transit this service; clients upload
// and the transcription provider downloads via presigned URLs.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// ObjectStore abstracts the managed object store.
type ObjectStore interface {
	// SignedDownloadURL returns a short-lived GET URL for an object.
	SignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// SignedUploadURL returns a write-once PUT slot for an object key.
	SignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (UploadSlot, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies the bucket is reachable with the configured credentials.
	HealthCheck(ctx context.Context) error
}

// UploadSlot is a presigned upload destination. Token is set only by
// backends that issue one alongside the URL; S3 encodes everything in the
// URL itself.
type UploadSlot struct {
	URL   string `json:"signed_url"`
	Token string `json:"token,omitempty"`
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ObjectKey derives the canonical storage path for a user upload:
// {userID}/{unixMillis}_{sanitizedFilename}. Deterministic for a given
// user, time, and name.
func ObjectKey(userID, filename string, now time.Time) string {
	sanitized := unsafeChars.ReplaceAllString(filename, "_")
	return fmt.Sprintf("%s/%d_%s", userID, now.UnixMilli(), sanitized)
}
