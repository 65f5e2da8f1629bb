// Package extractor resolves video-platform URLs into directly fetchable
// audio URLs via an external yt-dlp style extraction service.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// supportedPlatforms lists video-hosting domains handled by the extraction
// service. Matching is exact host or dot-suffix, never substring.
var supportedPlatforms = []string{
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"vimeo.com",
	"dailymotion.com",
	"twitch.tv",
}

// Media is the extraction result for one video URL.
type Media struct {
	AudioURL        string  `json:"audioUrl"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
}

// IsSupportedVideoURL reports whether raw points at a known video platform.
func IsSupportedVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, platform := range supportedPlatforms {
		if host == platform || strings.HasSuffix(host, "."+platform) {
			return true
		}
	}
	return false
}

// Client calls the extraction service.
type Client struct {
	serviceURL string
	client     *http.Client
	log        zerolog.Logger
}

// NewClient creates an extraction client. serviceURL may be empty, in which
// case every Extract call fails with a configuration error.
func NewClient(serviceURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		serviceURL: serviceURL,
		client:     &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "extractor").Logger(),
	}
}

// Extract asks the extraction service for a fetchable audio URL plus
// metadata. One request, no retry; a failed extraction needs a new
// caller-initiated attempt.
func (c *Client) Extract(ctx context.Context, videoURL string) (*Media, error) {
	if c.serviceURL == "" {
		return nil, fmt.Errorf("extraction service not configured")
	}

	body, _ := json.Marshal(map[string]string{"url": videoURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &failure); err == nil && failure.Message != "" {
			return nil, fmt.Errorf("%s", failure.Message)
		}
		return nil, fmt.Errorf("extraction failed: %s", resp.Status)
	}

	var media Media
	if err := json.Unmarshal(raw, &media); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if media.AudioURL == "" {
		return nil, fmt.Errorf("extraction returned no audio URL")
	}
	if media.Title == "" {
		media.Title = "Video"
	}

	c.log.Debug().Str("title", media.Title).Float64("duration", media.DurationSeconds).Msg("audio extracted")
	return &media, nil
}
