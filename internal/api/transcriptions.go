package api

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/entitlement"
	"github.com/snarg/scribe-engine/internal/jobs"
)

// TranscriptionsHandler serves the transcription job lifecycle endpoints.
type TranscriptionsHandler struct {
	users     jobs.UserStore
	ledger    jobs.Ledger
	resolver  *jobs.Resolver
	submitter *jobs.Submitter
	poller    *jobs.Poller
	log       zerolog.Logger
}

func NewTranscriptionsHandler(users jobs.UserStore, ledger jobs.Ledger, resolver *jobs.Resolver, submitter *jobs.Submitter, poller *jobs.Poller, log zerolog.Logger) *TranscriptionsHandler {
	return &TranscriptionsHandler{
		users:     users,
		ledger:    ledger,
		resolver:  resolver,
		submitter: submitter,
		poller:    poller,
		log:       log,
	}
}

type createTranscriptionRequest struct {
	AudioURL      string `json:"audio_url"`
	StoragePath   string `json:"storage_path"`
	FileName      string `json:"file_name"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	Language      string `json:"language"`
	FolderID      string `json:"folder_id"`
}

// Create starts a transcription. The entitlement gate runs before any
// resolution work so denied users never consume extractor or storage calls.
func (h *TranscriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var req createTranscriptionRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		WriteJobError(w, r, jobs.E(jobs.KindPersistenceFailure, "Failed to load account").WithCause(err))
		return
	}

	access := entitlement.Check(*user, time.Now())
	if !access.Allowed {
		msg := "Upgrade to continue transcribing."
		switch {
		case access.TrialExpired:
			msg = "Your free trial has ended. Upgrade to continue transcribing."
		case access.LimitReached:
			msg = fmt.Sprintf("You've used all %d free transcriptions. Upgrade to continue.", entitlement.TrialLimit)
		}
		WriteJSON(w, http.StatusForbidden, map[string]any{
			"error":   string(jobs.KindAccessDenied),
			"message": msg,
			"access":  access,
		})
		return
	}

	src, err := h.resolver.Resolve(r.Context(), jobs.ResolveRequest{
		AudioURL:      req.AudioURL,
		StoragePath:   req.StoragePath,
		FileName:      req.FileName,
		FileSizeBytes: req.FileSizeBytes,
	}, entitlement.IsActiveSubscription(user.SubscriptionStatus))
	if err != nil {
		WriteJobError(w, r, err)
		return
	}

	job, err := h.submitter.Submit(r.Context(), userID, src, jobs.SubmitOptions{
		Language: req.Language,
		FolderID: req.FolderID,
	})
	if err != nil {
		WriteJobError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, job)
}

// Get returns the current lifecycle snapshot of one job, advancing it via
// a provider status check when it is still processing.
func (h *TranscriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.poller.Poll(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		WriteJobError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type listTranscriptionsResponse struct {
	Transcriptions []jobs.Job `json:"transcriptions"`
	Total          int        `json:"total"`
	Limit          int        `json:"limit"`
	Offset         int        `json:"offset"`
}

// List returns a page of the caller's job history, newest first.
func (h *TranscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, total, err := h.ledger.ListJobs(r.Context(), UserID(r.Context()), jobs.ListFilter{
		Status:   r.URL.Query().Get("status"),
		FolderID: r.URL.Query().Get("folder_id"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if err != nil {
		WriteJobError(w, r, jobs.E(jobs.KindPersistenceFailure, "Failed to load transcriptions").WithCause(err))
		return
	}

	WriteJSON(w, http.StatusOK, listTranscriptionsResponse{
		Transcriptions: list,
		Total:          total,
		Limit:          p.Limit,
		Offset:         p.Offset,
	})
}

// Export renders a completed job's transcript in the requested format and
// serves it as a download.
func (h *TranscriptionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	job, err := h.ledger.GetJob(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteJobError(w, r, jobs.E(jobs.KindNotFound, "Transcription not found"))
			return
		}
		WriteJobError(w, r, jobs.E(jobs.KindPersistenceFailure, "Failed to load transcription").WithCause(err))
		return
	}
	if job.Status != jobs.StatusCompleted {
		WriteJSON(w, http.StatusConflict, map[string]any{
			"error":   "not_completed",
			"message": "Transcription is not completed yet",
			"status":  job.Status,
		})
		return
	}

	kind := jobs.ExportKind(r.URL.Query().Get("format"))
	if kind == "" {
		kind = jobs.ExportPlaintext
	}

	out, err := jobs.Export(job, kind)
	if err != nil {
		WriteJobError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", jobs.ContentType(kind))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(job.Filename, kind)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func exportFilename(filename string, kind jobs.ExportKind) string {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	if base == "" {
		base = "transcript"
	}
	return base + "." + string(kind)
}

// Access returns the caller's entitlement snapshot.
func (h *TranscriptionsHandler) Access(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		WriteJobError(w, r, jobs.E(jobs.KindPersistenceFailure, "Failed to load account").WithCause(err))
		return
	}
	WriteJSON(w, http.StatusOK, entitlement.Check(*user, time.Now()))
}
