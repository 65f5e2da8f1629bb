package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/storage"
)

// UploadHandler issues presigned upload slots and deletes uploaded objects.
// Media bytes never pass through this service.
type UploadHandler struct {
	store     storage.ObjectStore
	uploadTTL time.Duration
	log       zerolog.Logger
}

func NewUploadHandler(store storage.ObjectStore, uploadTTL time.Duration, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{store: store, uploadTTL: uploadTTL, log: log}
}

type createUploadRequest struct {
	FileName      string `json:"file_name"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	ContentType   string `json:"content_type"`
}

type createUploadResponse struct {
	storage.UploadSlot
	Path string `json:"path"`
}

// Create returns a presigned PUT slot plus the storage path to submit the
// transcription with once the upload finishes.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUploadRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileName == "" {
		WriteError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	if req.FileSizeBytes <= 0 {
		WriteError(w, http.StatusBadRequest, "file_size_bytes is required")
		return
	}

	key := storage.ObjectKey(UserID(r.Context()), req.FileName, time.Now())
	slot, err := h.store.SignedUploadURL(r.Context(), key, req.ContentType, h.uploadTTL)
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("signed upload URL failed")
		WriteError(w, http.StatusServiceUnavailable, "Upload service unavailable. Please try again.")
		return
	}

	WriteJSON(w, http.StatusOK, createUploadResponse{UploadSlot: slot, Path: key})
}

type deleteUploadRequest struct {
	Path string `json:"path"`
}

// Delete removes an uploaded object. The key must live under the caller's
// own prefix; other users' objects are not addressable.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteUploadRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		WriteError(w, http.StatusBadRequest, "path is required")
		return
	}

	if !strings.HasPrefix(req.Path, UserID(r.Context())+"/") {
		WriteError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.store.Delete(r.Context(), req.Path); err != nil {
		h.log.Error().Err(err).Str("key", req.Path).Msg("upload delete failed")
		WriteError(w, http.StatusServiceUnavailable, "Failed to delete upload. Please try again.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
