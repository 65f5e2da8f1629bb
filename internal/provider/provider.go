// Package provider talks to the hosted speech-transcription API.
// Transcription is fully delegated: this service submits a media URL,
// then re-fetches the transcript by ID until the provider reports a
// terminal status.
package provider

// Transcript statuses reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// SubmitRequest is the transcription submission payload. Every analysis
// facet the provider supports is requested in the same call; boost fields
// are omitted entirely when empty because the provider distinguishes
// "no boosting" from an empty boost list.
type SubmitRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`

	WordBoost  []string `json:"word_boost,omitempty"`
	BoostParam string   `json:"boost_param,omitempty"`

	SpeechModel string `json:"speech_model"`

	SpeakerLabels     bool   `json:"speaker_labels"`
	SentimentAnalysis bool   `json:"sentiment_analysis"`
	IABCategories     bool   `json:"iab_categories"`
	ContentSafety     bool   `json:"content_safety"`
	Summarization     bool   `json:"summarization"`
	SummaryModel      string `json:"summary_model,omitempty"`
	SummaryType       string `json:"summary_type,omitempty"`
	EntityDetection   bool   `json:"entity_detection"`
	AutoHighlights    bool   `json:"auto_highlights"`
	FormatText        bool   `json:"format_text"`
	Punctuate         bool   `json:"punctuate"`
	RedactPII         bool   `json:"redact_pii"`
	Disfluencies      bool   `json:"disfluencies"`
}

// Transcript is the provider's transcript resource.
type Transcript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	Text                     string            `json:"text"`
	Utterances               []Utterance       `json:"utterances"`
	SentimentAnalysisResults []SentimentResult `json:"sentiment_analysis_results"`
	IABCategoriesResult      *IABResult        `json:"iab_categories_result"`
	Summary                  string            `json:"summary"`
	Entities                 []Entity          `json:"entities"`
	AutoHighlightsResult     *HighlightsResult `json:"auto_highlights_result"`
	Words                    []Word            `json:"words"`
	AudioDuration            float64           `json:"audio_duration"`
	LanguageCode             string            `json:"language_code"`
}

// Word is a single timed word. Offsets are milliseconds from audio start.
type Word struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Utterance is a contiguous span attributed to one speaker.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// SentimentResult is the sentiment for one spoken sentence.
type SentimentResult struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// IABResult holds topic-detection output.
type IABResult struct {
	Results []IABEntry `json:"results"`
}

// IABEntry is one detected topic span; Labels is ordered by relevance.
type IABEntry struct {
	Text   string     `json:"text"`
	Labels []IABLabel `json:"labels"`
}

type IABLabel struct {
	Label     string  `json:"label"`
	Relevance float64 `json:"relevance"`
}

// Entity is a detected named entity.
type Entity struct {
	EntityType string `json:"entity_type"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// HighlightsResult holds auto-highlight output.
type HighlightsResult struct {
	Results []Highlight `json:"results"`
}

// Highlight is one key phrase with its occurrences.
type Highlight struct {
	Text       string          `json:"text"`
	Count      int             `json:"count"`
	Rank       float64         `json:"rank"`
	Timestamps []HighlightSpan `json:"timestamps"`
}

type HighlightSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
