package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/metrics"
	"github.com/snarg/scribe-engine/internal/provider"
)

// SubmitOptions are caller-supplied extras for a submission.
type SubmitOptions struct {
	Language string
	FolderID string
}

// Submitter sends resolved media to the provider and opens a ledger row.
type Submitter struct {
	ledger   Ledger
	vocab    VocabularyStore
	provider Provider
	log      zerolog.Logger
}

func NewSubmitter(ledger Ledger, vocab VocabularyStore, p Provider, log zerolog.Logger) *Submitter {
	return &Submitter{
		ledger:   ledger,
		vocab:    vocab,
		provider: p,
		log:      log.With().Str("component", "submitter").Logger(),
	}
}

// Submit starts a transcription at the provider and persists the new job
// in processing state at progress 10. A ledger insert failing after the
// provider accepted the submission is reported as a persistence failure
// and never retried: a retry would create a duplicate upstream job.
func (s *Submitter) Submit(ctx context.Context, userID string, src *ResolvedSource, opts SubmitOptions) (*Job, error) {
	boost := s.wordBoost(ctx, userID)

	req := provider.SubmitRequest{
		AudioURL:     src.MediaURL,
		LanguageCode: opts.Language,

		SpeechModel: "nano",

		SpeakerLabels:     true,
		SentimentAnalysis: true,
		IABCategories:     true,
		ContentSafety:     true,
		Summarization:     true,
		SummaryModel:      "informative",
		SummaryType:       "bullets",
		EntityDetection:   true,
		AutoHighlights:    true,
		FormatText:        true,
		Punctuate:         true,
		RedactPII:         false,
		Disfluencies:      false,
	}
	// The provider distinguishes "no boosting" from an empty boost list, so
	// the boost fields are omitted entirely when there is nothing to boost.
	if len(boost) > 0 {
		req.WordBoost = boost
		req.BoostParam = "high"
	}

	providerJobID, err := s.provider.Submit(ctx, req)
	if err != nil {
		return nil, providerError(err)
	}

	job := &Job{
		ID:            uuid.NewString(),
		UserID:        userID,
		Filename:      src.Filename,
		Source:        src.Source,
		FileSizeBytes: src.FileSizeBytes,
		ProviderJobID: providerJobID,
		Status:        StatusProcessing,
		Progress:      10,
		FolderID:      opts.FolderID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.ledger.InsertJob(ctx, job); err != nil {
		// The upstream job now exists without a local row; surface loudly.
		s.log.Error().Err(err).
			Str("provider_job_id", providerJobID).
			Str("user_id", userID).
			Msg("ledger insert failed after provider accepted submission")
		return nil, E(KindPersistenceFailure, "Failed to save transcription. Please try again.").WithCause(err)
	}

	metrics.JobsSubmittedTotal.Inc()
	s.log.Info().
		Str("job_id", job.ID).
		Str("provider_job_id", providerJobID).
		Int("word_boost", len(boost)).
		Msg("transcription submitted")

	return job, nil
}

// wordBoost merges the user's vocabulary words and phrases into a single
// boost list. Vocabulary read failures degrade to no boosting.
func (s *Submitter) wordBoost(ctx context.Context, userID string) []string {
	entries, err := s.vocab.ListForUser(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("vocabulary lookup failed, submitting without boost")
		return nil
	}

	var boost []string
	for _, e := range entries {
		if e.Word != "" {
			boost = append(boost, e.Word)
		}
		for _, p := range e.Phrases {
			if p != "" {
				boost = append(boost, p)
			}
		}
	}
	return boost
}

// providerError translates a provider failure into a classified taxonomy
// error with a user-facing message.
func providerError(err error) error {
	msg := err.Error()
	if apiErr, ok := err.(*provider.APIError); ok {
		msg = apiErr.Message
	}
	cause, human := provider.Classify(msg)
	return E(KindProviderError, human).WithField("cause", string(cause)).WithCause(err)
}
