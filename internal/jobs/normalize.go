package jobs

import "github.com/snarg/scribe-engine/internal/provider"

// Normalize flattens a completed provider transcript into the ledger's
// stable result shape. Missing optional sections become empty lists or
// strings, never nulls.
func Normalize(tr *provider.Transcript) Result {
	res := Result{
		Text:            tr.Text,
		Speakers:        make([]Speaker, 0, len(tr.Utterances)),
		Sentiments:      make([]Sentiment, 0, len(tr.SentimentAnalysisResults)),
		Topics:          []string{},
		Summary:         tr.Summary,
		Entities:        make([]Entity, 0, len(tr.Entities)),
		Highlights:      []Highlight{},
		Words:           normalizeWords(tr.Words),
		DurationSeconds: tr.AudioDuration,
		Language:        tr.LanguageCode,
	}

	for _, u := range tr.Utterances {
		res.Speakers = append(res.Speakers, Speaker{
			Speaker:    u.Speaker,
			Text:       u.Text,
			Start:      u.Start,
			End:        u.End,
			Confidence: u.Confidence,
			Words:      normalizeWords(u.Words),
		})
	}

	for _, s := range tr.SentimentAnalysisResults {
		res.Sentiments = append(res.Sentiments, Sentiment{
			Text:       s.Text,
			Sentiment:  s.Sentiment,
			Confidence: s.Confidence,
			Start:      s.Start,
			End:        s.End,
		})
	}

	if tr.IABCategoriesResult != nil {
		for _, entry := range tr.IABCategoriesResult.Results {
			// Labels are ordered by relevance; keep the top one per span.
			if len(entry.Labels) > 0 {
				res.Topics = append(res.Topics, entry.Labels[0].Label)
			}
		}
	}

	for _, e := range tr.Entities {
		res.Entities = append(res.Entities, Entity{
			Type:  e.EntityType,
			Text:  e.Text,
			Start: e.Start,
			End:   e.End,
		})
	}

	if tr.AutoHighlightsResult != nil {
		for _, h := range tr.AutoHighlightsResult.Results {
			spans := make([]Span, 0, len(h.Timestamps))
			for _, ts := range h.Timestamps {
				spans = append(spans, Span{Start: ts.Start, End: ts.End})
			}
			res.Highlights = append(res.Highlights, Highlight{
				Text:       h.Text,
				Count:      h.Count,
				Rank:       h.Rank,
				Timestamps: spans,
			})
		}
	}

	return res
}

func normalizeWords(words []provider.Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		out = append(out, Word{
			Text:       w.Text,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Confidence,
			Speaker:    w.Speaker,
		})
	}
	return out
}
