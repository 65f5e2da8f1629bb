package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/entitlement"
	"github.com/snarg/scribe-engine/internal/extractor"
	"github.com/snarg/scribe-engine/internal/jobs"
	"github.com/snarg/scribe-engine/internal/provider"
)

// Fakes for the lifecycle collaborators; kept minimal, each endpoint test
// drives the handler through a real chi router with the user pre-set in
// the request context.

type fakeUserStore struct {
	user *entitlement.User
}

func (f *fakeUserStore) GetUser(_ context.Context, _ string) (*entitlement.User, error) {
	if f.user == nil {
		return nil, pgx.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUserStore) IncrementTrialUsage(_ context.Context, _ string) error { return nil }

type fakeLedger struct {
	jobs     map[string]*jobs.Job
	inserted *jobs.Job
}

func newFakeLedger() *fakeLedger { return &fakeLedger{jobs: map[string]*jobs.Job{}} }

func (f *fakeLedger) InsertJob(_ context.Context, job *jobs.Job) error {
	cp := *job
	f.inserted = &cp
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeLedger) GetJob(_ context.Context, id, userID string) (*jobs.Job, error) {
	job, ok := f.jobs[id]
	if !ok || job.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (f *fakeLedger) UpdateProgress(_ context.Context, id string, progress int) error {
	if job, ok := f.jobs[id]; ok && progress > job.Progress {
		job.Progress = progress
	}
	return nil
}

func (f *fakeLedger) CompleteJob(_ context.Context, id string, res jobs.Result, completedAt time.Time) (bool, error) {
	job, ok := f.jobs[id]
	if !ok || job.Status != jobs.StatusProcessing {
		return false, nil
	}
	job.Status = jobs.StatusCompleted
	job.Progress = 100
	job.Result = res
	job.CompletedAt = &completedAt
	return true, nil
}

func (f *fakeLedger) FailJob(_ context.Context, id, errText string) (bool, error) {
	job, ok := f.jobs[id]
	if !ok || job.Status != jobs.StatusProcessing {
		return false, nil
	}
	job.Status = jobs.StatusFailed
	job.Error = errText
	return true, nil
}

func (f *fakeLedger) ListJobs(_ context.Context, userID string, _ jobs.ListFilter) ([]jobs.Job, int, error) {
	var out []jobs.Job
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	return out, len(out), nil
}

type fakeVocab struct{}

func (fakeVocab) ListForUser(_ context.Context, _ string) ([]jobs.VocabEntry, error) {
	return nil, nil
}

type fakeMediaStore struct{ url string }

func (f *fakeMediaStore) SignedDownloadURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return f.url, nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, _ string) (*extractor.Media, error) {
	return &extractor.Media{AudioURL: "https://cdn.example.com/a.m4a", Title: "Video"}, nil
}

type fakeProvider struct {
	submitID   string
	transcript *provider.Transcript
}

func (f *fakeProvider) Submit(_ context.Context, _ provider.SubmitRequest) (string, error) {
	return f.submitID, nil
}

func (f *fakeProvider) Get(_ context.Context, _ string) (*provider.Transcript, error) {
	return f.transcript, nil
}

func newTestHandler(users *fakeUserStore, ledger *fakeLedger, prov *fakeProvider) *TranscriptionsHandler {
	log := zerolog.Nop()
	resolver := jobs.NewResolver(&fakeMediaStore{url: "https://signed.example.com/a"}, fakeExtractor{}, time.Hour, log)
	submitter := jobs.NewSubmitter(ledger, fakeVocab{}, prov, log)
	poller := jobs.NewPoller(ledger, users, prov, log)
	return NewTranscriptionsHandler(users, ledger, resolver, submitter, poller, log)
}

func testRouter(h *TranscriptionsHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/transcriptions", h.Create)
	r.Get("/transcriptions", h.List)
	r.Get("/transcriptions/{id}", h.Get)
	r.Get("/transcriptions/{id}/export", h.Export)
	r.Get("/me/access", h.Access)
	return r
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(context.WithValue(req.Context(), userIDKey, "u1"))
}

func trialUser(used int) *entitlement.User {
	return &entitlement.User{ID: "u1", SubscriptionStatus: "trialing", TrialTranscriptionsUsed: used}
}

func TestCreateTranscription(t *testing.T) {
	ledger := newFakeLedger()
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, ledger, &fakeProvider{submitID: "tr_1"})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodPost, "/transcriptions",
		`{"storage_path":"u1/1_a.mp3","file_name":"a.mp3","file_size_bytes":1024}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var job jobs.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if job.Status != jobs.StatusProcessing || job.Progress != 10 {
		t.Errorf("got status=%s progress=%d, want processing/10", job.Status, job.Progress)
	}
	if ledger.inserted == nil {
		t.Error("job not persisted")
	}
}

func TestCreateTranscriptionEntitlementGate(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name string
		user *entitlement.User
	}{
		{"limit_reached", trialUser(entitlement.TrialLimit)},
		{"trial_expired", &entitlement.User{ID: "u1", SubscriptionStatus: "trialing", TrialEndsAt: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			prov := &fakeProvider{submitID: "tr_1"}
			h := newTestHandler(&fakeUserStore{user: tt.user}, ledger, prov)

			rec := httptest.NewRecorder()
			testRouter(h).ServeHTTP(rec, authedRequest(http.MethodPost, "/transcriptions",
				`{"storage_path":"u1/1_a.mp3","file_name":"a.mp3","file_size_bytes":1024}`))

			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", rec.Code)
			}
			if ledger.inserted != nil {
				t.Error("denied submission must not create a job")
			}

			var body struct {
				Access entitlement.Access `json:"access"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Access.Allowed {
				t.Error("access snapshot reports allowed on a denial")
			}
		})
	}
}

func TestCreateTranscriptionSubscribedBypassesTrialLimit(t *testing.T) {
	user := &entitlement.User{ID: "u1", SubscriptionStatus: "active", TrialTranscriptionsUsed: 99}
	h := newTestHandler(&fakeUserStore{user: user}, newFakeLedger(), &fakeProvider{submitID: "tr_1"})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodPost, "/transcriptions",
		`{"storage_path":"u1/1_a.mp3","file_name":"a.mp3","file_size_bytes":1024}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestCreateTranscriptionFileTooLarge(t *testing.T) {
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, newFakeLedger(), &fakeProvider{submitID: "tr_1"})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodPost, "/transcriptions",
		`{"storage_path":"u1/1_big.mp4","file_name":"big.mp4","file_size_bytes":209715200}`))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413, body %s", rec.Code, rec.Body)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != string(jobs.KindFileTooLarge) {
		t.Errorf("error label = %v", body["error"])
	}
	if body["message"] == "" {
		t.Error("human message missing from response")
	}
	if _, ok := body["max_size_mb"]; !ok {
		t.Error("size-limit detail fields missing from response")
	}
}

func TestGetTranscriptionAdvancesLifecycle(t *testing.T) {
	ledger := newFakeLedger()
	ledger.jobs["j1"] = &jobs.Job{ID: "j1", UserID: "u1", ProviderJobID: "tr_1", Status: jobs.StatusProcessing, Progress: 10}
	prov := &fakeProvider{transcript: &provider.Transcript{ID: "tr_1", Status: provider.StatusCompleted, Text: "done"}}
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, ledger, prov)

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/transcriptions/j1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var job jobs.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if job.Status != jobs.StatusCompleted || job.Progress != 100 {
		t.Errorf("got status=%s progress=%d, want completed/100", job.Status, job.Progress)
	}
}

func TestGetTranscriptionNotFound(t *testing.T) {
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, newFakeLedger(), &fakeProvider{})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/transcriptions/missing", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExportTranscription(t *testing.T) {
	ledger := newFakeLedger()
	ledger.jobs["j1"] = &jobs.Job{
		ID: "j1", UserID: "u1", Filename: "meeting.mp3", Status: jobs.StatusCompleted,
		Result: jobs.Result{Text: "hello world"},
	}
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, ledger, &fakeProvider{})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/transcriptions/j1/export?format=txt", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != "hello world" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `"meeting.txt"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestExportIncompleteTranscription(t *testing.T) {
	ledger := newFakeLedger()
	ledger.jobs["j1"] = &jobs.Job{ID: "j1", UserID: "u1", Status: jobs.StatusProcessing}
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, ledger, &fakeProvider{})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/transcriptions/j1/export", ""))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestListTranscriptions(t *testing.T) {
	ledger := newFakeLedger()
	ledger.jobs["j1"] = &jobs.Job{ID: "j1", UserID: "u1", Status: jobs.StatusCompleted}
	ledger.jobs["j2"] = &jobs.Job{ID: "j2", UserID: "someone-else", Status: jobs.StatusCompleted}
	h := newTestHandler(&fakeUserStore{user: trialUser(0)}, ledger, &fakeProvider{})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/transcriptions", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body listTranscriptionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Total != 1 || len(body.Transcriptions) != 1 || body.Transcriptions[0].ID != "j1" {
		t.Errorf("list = %+v, want only the caller's job", body)
	}
}

func TestAccessSnapshot(t *testing.T) {
	h := newTestHandler(&fakeUserStore{user: trialUser(2)}, newFakeLedger(), &fakeProvider{})

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/me/access", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var access entitlement.Access
	if err := json.Unmarshal(rec.Body.Bytes(), &access); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !access.Allowed || access.TranscriptionsUsed != 2 {
		t.Errorf("access = %+v", access)
	}
}
