package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/metrics"
	"github.com/snarg/scribe-engine/internal/provider"
)

// Poller advances a job's lifecycle on each caller-driven status check.
// One invocation does at most one provider query and one ledger write.
type Poller struct {
	ledger   Ledger
	users    UserStore
	provider Provider
	log      zerolog.Logger
}

func NewPoller(ledger Ledger, users UserStore, p Provider, log zerolog.Logger) *Poller {
	return &Poller{
		ledger:   ledger,
		users:    users,
		provider: p,
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Poll returns the job's current lifecycle snapshot. Terminal jobs are
// returned unchanged without querying the provider; otherwise the provider
// is queried once and the resulting state is persisted.
func (p *Poller) Poll(ctx context.Context, jobID, userID string) (*Job, error) {
	job, err := p.ledger.GetJob(ctx, jobID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindNotFound, "Transcription not found")
		}
		return nil, E(KindPersistenceFailure, "Failed to load transcription").WithCause(err)
	}

	// Idempotent short-circuit: no transition out of a terminal state.
	if job.Status.Terminal() {
		return job, nil
	}

	tr, err := p.provider.Get(ctx, job.ProviderJobID)
	if err != nil {
		return nil, providerError(err)
	}

	switch tr.Status {
	case provider.StatusQueued:
		// Floor of 10, never below what the ledger already shows; the
		// persisted value is monotone and the snapshot must match it.
		job.Progress = max(job.Progress, 10)
		if err := p.ledger.UpdateProgress(ctx, job.ID, job.Progress); err != nil {
			return nil, E(KindPersistenceFailure, "Failed to update transcription").WithCause(err)
		}

	case provider.StatusCompleted:
		return p.complete(ctx, job, tr)

	case provider.StatusError:
		return p.fail(ctx, job, tr)

	default:
		// processing, plus any status the provider adds later: heuristic
		// display estimate, never reaching 100 without confirmed completion.
		job.Progress = min(job.Progress+10, 90)
		if err := p.ledger.UpdateProgress(ctx, job.ID, job.Progress); err != nil {
			return nil, E(KindPersistenceFailure, "Failed to update transcription").WithCause(err)
		}
	}

	return job, nil
}

func (p *Poller) complete(ctx context.Context, job *Job, tr *provider.Transcript) (*Job, error) {
	res := Normalize(tr)
	completedAt := time.Now().UTC()

	transitioned, err := p.ledger.CompleteJob(ctx, job.ID, res, completedAt)
	if err != nil {
		return nil, E(KindPersistenceFailure, "Failed to save transcription result").WithCause(err)
	}

	// Bump the trial counter only when this call performed the transition,
	// so concurrent status checks cannot double-count; the trialing
	// condition itself lives inside the update statement.
	if transitioned {
		metrics.JobsCompletedTotal.Inc()
		if err := p.users.IncrementTrialUsage(ctx, job.UserID); err != nil {
			p.log.Warn().Err(err).Str("user_id", job.UserID).Msg("trial usage bump failed")
		}
		p.log.Info().Str("job_id", job.ID).Float64("duration", res.DurationSeconds).Msg("transcription completed")
	}

	job.Status = StatusCompleted
	job.Progress = 100
	job.Result = res
	job.CompletedAt = &completedAt
	return job, nil
}

func (p *Poller) fail(ctx context.Context, job *Job, tr *provider.Transcript) (*Job, error) {
	errText := tr.Error
	if errText == "" {
		errText = "Transcription failed"
	}

	transitioned, err := p.ledger.FailJob(ctx, job.ID, errText)
	if err != nil {
		return nil, E(KindPersistenceFailure, "Failed to update transcription").WithCause(err)
	}
	if transitioned {
		metrics.JobsFailedTotal.Inc()
		p.log.Info().Str("job_id", job.ID).Str("error", errText).Msg("transcription failed at provider")
	}

	job.Status = StatusFailed
	job.Error = errText
	return job, nil
}
