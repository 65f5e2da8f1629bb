package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportKind selects an export format.
type ExportKind string

const (
	ExportPlaintext ExportKind = "txt"
	ExportJSON      ExportKind = "json"
	ExportSRT       ExportKind = "srt"
	ExportVTT       ExportKind = "vtt"
)

// Words per subtitle cue.
const cueWords = 10

// Export renders a completed job in the requested format. Subtitle kinds
// need word timings; without them they fall back to the plain transcript.
func Export(job *Job, kind ExportKind) ([]byte, error) {
	switch kind {
	case ExportPlaintext:
		return []byte(job.Result.Text), nil
	case ExportJSON:
		return json.MarshalIndent(job, "", "  ")
	case ExportSRT:
		if len(job.Result.Words) == 0 {
			return []byte(job.Result.Text), nil
		}
		return []byte(formatSubtitles(job.Result.Words, true)), nil
	case ExportVTT:
		if len(job.Result.Words) == 0 {
			return []byte(job.Result.Text), nil
		}
		return []byte(formatSubtitles(job.Result.Words, false)), nil
	default:
		return nil, E(KindInvalidRequest, fmt.Sprintf("unsupported export format %q", kind))
	}
}

// ContentType returns the MIME type for an export kind.
func ContentType(kind ExportKind) string {
	switch kind {
	case ExportJSON:
		return "application/json"
	case ExportVTT:
		return "text/vtt"
	default:
		return "text/plain; charset=utf-8"
	}
}

// formatSubtitles groups words into fixed 10-word cues. Each cue spans the
// first word's start to the last word's end. SRT cues carry a 1-based
// index line and comma decimals; VTT has no index lines, dot decimals, and
// a WEBVTT header.
func formatSubtitles(words []Word, srt bool) string {
	var b strings.Builder
	if !srt {
		b.WriteString("WEBVTT\n\n")
	}

	cue := 1
	for i := 0; i < len(words); i += cueWords {
		end := min(i+cueWords, len(words))
		chunk := words[i:end]

		texts := make([]string, len(chunk))
		for j, w := range chunk {
			texts[j] = w.Text
		}

		if srt {
			fmt.Fprintf(&b, "%d\n", cue)
			fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(chunk[0].Start, ','), formatTimestamp(chunk[len(chunk)-1].End, ','))
		} else {
			fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(chunk[0].Start, '.'), formatTimestamp(chunk[len(chunk)-1].End, '.'))
		}
		b.WriteString(strings.Join(texts, " "))
		b.WriteString("\n\n")
		cue++
	}

	return b.String()
}

// formatTimestamp renders a millisecond offset as HH:MM:SS<sep>mmm.
func formatTimestamp(ms int, sep byte) string {
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, frac)
}
