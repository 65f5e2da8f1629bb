package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/snarg/scribe-engine/internal/jobs"
)

// InsertJob creates the ledger row for a freshly submitted transcription.
func (db *DB) InsertJob(ctx context.Context, job *jobs.Job) error {
	var folderID *string
	if job.FolderID != "" {
		folderID = &job.FolderID
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO transcription_jobs (
			id, user_id, filename, source, file_size_bytes,
			provider_job_id, status, progress, folder_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		job.ID, job.UserID, job.Filename, job.Source, job.FileSizeBytes,
		job.ProviderJobID, string(job.Status), job.Progress, folderID, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

const jobColumns = `
	id, user_id, filename, source, file_size_bytes, provider_job_id,
	status, progress,
	transcript_text, speakers, sentiments, topics, summary,
	entities, highlights, words, duration_seconds, language,
	error, COALESCE(folder_id::text, ''), created_at, completed_at`

// GetJob returns one job scoped to its owner. Returns pgx.ErrNoRows for
// unknown IDs and for jobs owned by someone else.
func (db *DB) GetJob(ctx context.Context, id, userID string) (*jobs.Job, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM transcription_jobs
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	return scanJob(row)
}

// UpdateProgress persists a progress snapshot. GREATEST keeps progress
// monotone even if two status checks race.
func (db *DB) UpdateProgress(ctx context.Context, id string, progress int) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE transcription_jobs
		SET progress = GREATEST(progress, $2)
		WHERE id = $1 AND status = 'processing'
	`, id, progress)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// CompleteJob transitions a processing job to completed and writes the
// flattened result in the same statement. The status guard makes the
// transition happen exactly once; the return value reports whether this
// call was the one that performed it.
func (db *DB) CompleteJob(ctx context.Context, id string, res jobs.Result, completedAt time.Time) (bool, error) {
	speakers, err := json.Marshal(res.Speakers)
	if err != nil {
		return false, fmt.Errorf("marshal speakers: %w", err)
	}
	sentiments, err := json.Marshal(res.Sentiments)
	if err != nil {
		return false, fmt.Errorf("marshal sentiments: %w", err)
	}
	topics, err := json.Marshal(res.Topics)
	if err != nil {
		return false, fmt.Errorf("marshal topics: %w", err)
	}
	entities, err := json.Marshal(res.Entities)
	if err != nil {
		return false, fmt.Errorf("marshal entities: %w", err)
	}
	highlights, err := json.Marshal(res.Highlights)
	if err != nil {
		return false, fmt.Errorf("marshal highlights: %w", err)
	}
	words, err := json.Marshal(res.Words)
	if err != nil {
		return false, fmt.Errorf("marshal words: %w", err)
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE transcription_jobs SET
			status = 'completed',
			progress = 100,
			transcript_text = $2,
			speakers = $3,
			sentiments = $4,
			topics = $5,
			summary = $6,
			entities = $7,
			highlights = $8,
			words = $9,
			duration_seconds = $10,
			language = $11,
			completed_at = $12
		WHERE id = $1 AND status = 'processing'
	`,
		id, res.Text, speakers, sentiments, topics, res.Summary,
		entities, highlights, words, res.DurationSeconds, res.Language, completedAt,
	)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FailJob transitions a processing job to failed with the provider's
// error text, with the same exactly-once guard as CompleteJob.
func (db *DB) FailJob(ctx context.Context, id, errText string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE transcription_jobs
		SET status = 'failed', error = $2
		WHERE id = $1 AND status = 'processing'
	`, id, errText)
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListJobs returns a page of a user's job history, newest first.
func (db *DB) ListJobs(ctx context.Context, userID string, f jobs.ListFilter) ([]jobs.Job, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.FolderID != "" {
		args = append(args, f.FolderID)
		where += fmt.Sprintf(" AND folder_id = $%d", len(args))
	}

	var total int
	if err := db.Pool.QueryRow(ctx, "SELECT count(*) FROM transcription_jobs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := db.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM transcription_jobs
		%s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d
	`, jobColumns, where, limit, f.Offset), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	result := []jobs.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *job)
	}
	return result, total, rows.Err()
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*jobs.Job, error) {
	var (
		j          jobs.Job
		status     string
		speakers   []byte
		sentiments []byte
		topics     []byte
		entities   []byte
		highlights []byte
		words      []byte
	)

	err := row.Scan(
		&j.ID, &j.UserID, &j.Filename, &j.Source, &j.FileSizeBytes, &j.ProviderJobID,
		&status, &j.Progress,
		&j.Result.Text, &speakers, &sentiments, &topics, &j.Result.Summary,
		&entities, &highlights, &words, &j.Result.DurationSeconds, &j.Result.Language,
		&j.Error, &j.FolderID, &j.CreatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = jobs.Status(status)

	if err := unmarshalInto(speakers, &j.Result.Speakers); err != nil {
		return nil, fmt.Errorf("decode speakers: %w", err)
	}
	if err := unmarshalInto(sentiments, &j.Result.Sentiments); err != nil {
		return nil, fmt.Errorf("decode sentiments: %w", err)
	}
	if err := unmarshalInto(topics, &j.Result.Topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	if err := unmarshalInto(entities, &j.Result.Entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	if err := unmarshalInto(highlights, &j.Result.Highlights); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}
	if err := unmarshalInto(words, &j.Result.Words); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}

	return &j, nil
}

func unmarshalInto(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
