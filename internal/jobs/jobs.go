// Package jobs implements the transcription job lifecycle: resolving a
// media source, submitting it to the hosted provider, polling the provider
// and normalizing its payload into the ledger, and exporting results.
package jobs

import (
	"context"
	"time"

	"github.com/snarg/scribe-engine/internal/entitlement"
	"github.com/snarg/scribe-engine/internal/extractor"
	"github.com/snarg/scribe-engine/internal/provider"
)

// Status is a job's lifecycle state. Queued/analyzing phases at the
// provider are sub-phases of processing, distinguished only by progress.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the persisted ledger record for one transcription.
type Job struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Filename      string     `json:"filename"`
	Source        string     `json:"source"`
	FileSizeBytes int64      `json:"file_size_bytes"`
	ProviderJobID string     `json:"provider_job_id"`
	Status        Status     `json:"status"`
	Progress      int        `json:"progress"`
	Result        Result     `json:"result"`
	Error         string     `json:"error,omitempty"`
	FolderID      string     `json:"folder_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Result is the flattened transcription output. All list fields are
// non-nil on a completed job so consumers need no null checks.
type Result struct {
	Text            string      `json:"transcript_text"`
	Speakers        []Speaker   `json:"speakers"`
	Sentiments      []Sentiment `json:"sentiment_analysis"`
	Topics          []string    `json:"topics"`
	Summary         string      `json:"summary"`
	Entities        []Entity    `json:"entities"`
	Highlights      []Highlight `json:"highlights"`
	Words           []Word      `json:"words"`
	DurationSeconds float64     `json:"duration"`
	Language        string      `json:"language"`
}

// Word is a timed word; offsets are milliseconds from audio start.
type Word struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Speaker is one diarized utterance.
type Speaker struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// Sentiment is the sentiment of one spoken sentence.
type Sentiment struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// Entity is a detected named entity.
type Entity struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Highlight is a key phrase with its occurrences.
type Highlight struct {
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Rank       float64 `json:"rank"`
	Timestamps []Span  `json:"timestamps"`
}

// Span is a millisecond time range.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ListFilter selects a page of a user's job history.
type ListFilter struct {
	Status   string
	FolderID string
	Limit    int
	Offset   int
}

// Ledger persists transcription jobs. Implemented by the database layer.
type Ledger interface {
	InsertJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id, userID string) (*Job, error)

	// UpdateProgress persists a progress snapshot for a processing job.
	UpdateProgress(ctx context.Context, id string, progress int) error

	// CompleteJob transitions a job to completed with its result, guarded
	// by the job still being in processing. Returns whether this call
	// performed the transition.
	CompleteJob(ctx context.Context, id string, res Result, completedAt time.Time) (bool, error)

	// FailJob transitions a job to failed, with the same guard.
	FailJob(ctx context.Context, id, errText string) (bool, error)

	ListJobs(ctx context.Context, userID string, f ListFilter) ([]Job, int, error)
}

// UserStore reads user records and applies the trial-usage bump.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*entitlement.User, error)

	// IncrementTrialUsage bumps trial_transcriptions_used by one, but only
	// while the user is still trialing; the condition lives in the single
	// update statement so concurrent callers cannot double-apply it.
	IncrementTrialUsage(ctx context.Context, userID string) error
}

// VocabEntry is one custom-vocabulary row: a word plus related phrases.
type VocabEntry struct {
	Word    string
	Phrases []string
}

// VocabularyStore lists a user's custom vocabulary.
type VocabularyStore interface {
	ListForUser(ctx context.Context, userID string) ([]VocabEntry, error)
}

// MediaStore issues signed download URLs for stored uploads.
type MediaStore interface {
	SignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Provider is the hosted transcription service.
type Provider interface {
	Submit(ctx context.Context, req provider.SubmitRequest) (string, error)
	Get(ctx context.Context, id string) (*provider.Transcript, error)
}

// Extractor resolves video-platform URLs into fetchable audio URLs.
type Extractor interface {
	Extract(ctx context.Context, videoURL string) (*extractor.Media, error)
}
