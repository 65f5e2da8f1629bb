package provider

import "strings"

// Cause classifies a provider rejection into a small set of reasons.
type Cause string

const (
	CauseNotFound          Cause = "not_found"
	CauseUnauthorized      Cause = "unauthorized"
	CauseTimeout           Cause = "timeout"
	CauseUnsupportedFormat Cause = "unsupported_format"
	CauseOther             Cause = "other"
)

// classifications is an ordered list of (substring, cause, message) rules
// evaluated against the lowercased provider error text; first match wins.
// The provider exposes no structured error code, so this is substring
// matching against its current message wording.
var classifications = []struct {
	substr  string
	cause   Cause
	message string
}{
	{"not found", CauseNotFound, "Audio file not found. Please check the URL and try again."},
	{"404", CauseNotFound, "Audio file not found. Please check the URL and try again."},
	{"unauthorized", CauseUnauthorized, "API authentication error. Please contact support."},
	{"timeout", CauseTimeout, "Transcription timed out. Please try a shorter file."},
	{"format", CauseUnsupportedFormat, "Unsupported format. Please use MP3, MP4, WAV, or M4A files."},
	{"codec", CauseUnsupportedFormat, "Unsupported format. Please use MP3, MP4, WAV, or M4A files."},
}

// Classify maps a provider error message to a cause and a user-facing
// sentence. Unclassified messages pass the provider's wording through.
func Classify(msg string) (Cause, string) {
	lower := strings.ToLower(msg)
	for _, c := range classifications {
		if strings.Contains(lower, c.substr) {
			return c.cause, c.message
		}
	}
	if msg != "" {
		return CauseOther, "Transcription error: " + msg
	}
	return CauseOther, "Transcription failed"
}
