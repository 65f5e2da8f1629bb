package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/extractor"
)

// File-size ceilings by subscription tier.
const (
	trialMaxFileBytes = 100 * 1024 * 1024
	paidMaxFileBytes  = 5 * 1024 * 1024 * 1024
)

// ResolveRequest describes the media source of a submission. Exactly one
// of AudioURL and StoragePath must be set.
type ResolveRequest struct {
	AudioURL      string
	StoragePath   string
	FileName      string
	FileSizeBytes int64
}

// ResolvedSource is a single fetchable media URL plus the descriptor and
// effective filename to persist.
type ResolvedSource struct {
	MediaURL        string
	Filename        string
	Source          string
	FileSizeBytes   int64
	DurationSeconds float64
}

// Resolver turns a submission request into a fetchable media URL.
type Resolver struct {
	store       MediaStore
	extractor   Extractor
	downloadTTL time.Duration
	log         zerolog.Logger
}

func NewResolver(store MediaStore, ex Extractor, downloadTTL time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:       store,
		extractor:   ex,
		downloadTTL: downloadTTL,
		log:         log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve produces the media URL the provider will fetch. subscribed
// selects the file-size ceiling for stored uploads.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest, subscribed bool) (*ResolvedSource, error) {
	hasURL := req.AudioURL != ""
	hasPath := req.StoragePath != ""

	switch {
	case !hasURL && !hasPath:
		return nil, E(KindInvalidRequest, "No storage path or audio URL provided")
	case hasURL && hasPath:
		return nil, E(KindInvalidRequest, "Provide either a storage path or an audio URL, not both")
	case hasURL:
		return r.resolveURL(ctx, req)
	default:
		return r.resolveStored(ctx, req, subscribed)
	}
}

func (r *Resolver) resolveURL(ctx context.Context, req ResolveRequest) (*ResolvedSource, error) {
	if extractor.IsSupportedVideoURL(req.AudioURL) {
		media, err := r.extractor.Extract(ctx, req.AudioURL)
		if err != nil {
			return nil, E(KindExtractionFailed, err.Error()).
				WithField("suggestion", "Download the video and upload the file directly, or try a different video URL.").
				WithCause(err)
		}

		filename := req.FileName
		if filename == "" {
			filename = media.Title
		}
		r.log.Debug().Str("title", media.Title).Msg("video audio extracted")
		return &ResolvedSource{
			MediaURL:        media.AudioURL,
			Filename:        filename,
			Source:          req.AudioURL,
			DurationSeconds: media.DurationSeconds,
		}, nil
	}

	// Not a known video platform: treat as an already fetchable media URL.
	filename := req.FileName
	if filename == "" {
		filename = "URL-based transcription"
	}
	return &ResolvedSource{MediaURL: req.AudioURL, Filename: filename, Source: req.AudioURL}, nil
}

func (r *Resolver) resolveStored(ctx context.Context, req ResolveRequest, subscribed bool) (*ResolvedSource, error) {
	limit := int64(trialMaxFileBytes)
	limitText := "100MB"
	if subscribed {
		limit = paidMaxFileBytes
		limitText = "5GB"
	}

	if req.FileSizeBytes > limit {
		sizeMB := float64(req.FileSizeBytes) / (1024 * 1024)
		msg := fmt.Sprintf("Your file is %.1fMB. The maximum file size for paid users is %s. Please use a smaller file.", sizeMB, limitText)
		if !subscribed {
			msg = fmt.Sprintf("Your file is %.1fMB. The maximum file size for trial users is %s. Upgrade to Pro to transcribe files up to 5GB!", sizeMB, limitText)
		}
		return nil, E(KindFileTooLarge, msg).
			WithField("file_size_mb", sizeMB).
			WithField("max_size_mb", limit/(1024*1024))
	}

	url, err := r.store.SignedDownloadURL(ctx, req.StoragePath, r.downloadTTL)
	if err != nil {
		return nil, E(KindStorageUnavailable, "Failed to access uploaded file. Please try uploading again.").WithCause(err)
	}

	return &ResolvedSource{
		MediaURL:      url,
		Filename:      req.FileName,
		Source:        req.StoragePath,
		FileSizeBytes: req.FileSizeBytes,
	}, nil
}
