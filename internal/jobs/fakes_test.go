package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snarg/scribe-engine/internal/entitlement"
	"github.com/snarg/scribe-engine/internal/extractor"
	"github.com/snarg/scribe-engine/internal/provider"
)

// In-memory fakes for the collaborator interfaces. Each records calls so
// tests can assert on interaction counts, not just returned state.

type fakeLedger struct {
	jobs map[string]*Job

	insertErr   error
	completeErr error

	inserts         int
	progressUpdates []int
	completeCalls   int
	failCalls       int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{jobs: map[string]*Job{}}
}

func (f *fakeLedger) InsertJob(_ context.Context, job *Job) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeLedger) GetJob(_ context.Context, id, userID string) (*Job, error) {
	job, ok := f.jobs[id]
	if !ok || job.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (f *fakeLedger) UpdateProgress(_ context.Context, id string, progress int) error {
	f.progressUpdates = append(f.progressUpdates, progress)
	if job, ok := f.jobs[id]; ok && progress > job.Progress {
		job.Progress = progress
	}
	return nil
}

func (f *fakeLedger) CompleteJob(_ context.Context, id string, res Result, completedAt time.Time) (bool, error) {
	f.completeCalls++
	if f.completeErr != nil {
		return false, f.completeErr
	}
	job, ok := f.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return false, nil
	}
	job.Status = StatusCompleted
	job.Progress = 100
	job.Result = res
	job.CompletedAt = &completedAt
	return true, nil
}

func (f *fakeLedger) FailJob(_ context.Context, id, errText string) (bool, error) {
	f.failCalls++
	job, ok := f.jobs[id]
	if !ok || job.Status != StatusProcessing {
		return false, nil
	}
	job.Status = StatusFailed
	job.Error = errText
	return true, nil
}

func (f *fakeLedger) ListJobs(_ context.Context, userID string, _ ListFilter) ([]Job, int, error) {
	var out []Job
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, len(out), nil
}

type fakeUsers struct {
	user      *entitlement.User
	bumps     int
	bumpErr   error
	getUserID string
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*entitlement.User, error) {
	f.getUserID = id
	if f.user == nil {
		return nil, pgx.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUsers) IncrementTrialUsage(_ context.Context, _ string) error {
	f.bumps++
	return f.bumpErr
}

type fakeVocab struct {
	entries []VocabEntry
	err     error
}

func (f *fakeVocab) ListForUser(_ context.Context, _ string) ([]VocabEntry, error) {
	return f.entries, f.err
}

type fakeMediaStore struct {
	url     string
	err     error
	lastKey string
}

func (f *fakeMediaStore) SignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	f.lastKey = key
	return f.url, f.err
}

type fakeExtractor struct {
	media   *extractor.Media
	err     error
	calls   int
	lastURL string
}

func (f *fakeExtractor) Extract(_ context.Context, videoURL string) (*extractor.Media, error) {
	f.calls++
	f.lastURL = videoURL
	return f.media, f.err
}

type fakeProvider struct {
	submitID   string
	submitErr  error
	lastSubmit provider.SubmitRequest

	transcript *provider.Transcript
	getErr     error
	getCalls   int
}

func (f *fakeProvider) Submit(_ context.Context, req provider.SubmitRequest) (string, error) {
	f.lastSubmit = req
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.submitID, nil
}

func (f *fakeProvider) Get(_ context.Context, _ string) (*provider.Transcript, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.transcript, nil
}

var errBoom = errors.New("boom")
