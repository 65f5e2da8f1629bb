package jobs

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/provider"
)

func TestSubmitOpensProcessingJob(t *testing.T) {
	ledger := newFakeLedger()
	prov := &fakeProvider{submitID: "tr_abc123"}
	s := NewSubmitter(ledger, &fakeVocab{}, prov, zerolog.Nop())

	src := &ResolvedSource{
		MediaURL:      "https://cdn.example.com/audio.m4a",
		Filename:      "meeting.mp3",
		Source:        "u1/1700000000000_meeting.mp3",
		FileSizeBytes: 2048,
	}
	job, err := s.Submit(context.Background(), "u1", src, SubmitOptions{FolderID: "f1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if job.Status != StatusProcessing {
		t.Errorf("Status = %s, want processing", job.Status)
	}
	if job.Progress != 10 {
		t.Errorf("Progress = %d, want 10", job.Progress)
	}
	if job.ProviderJobID != "tr_abc123" {
		t.Errorf("ProviderJobID = %q", job.ProviderJobID)
	}
	if job.ID == "" {
		t.Error("job ID not assigned")
	}
	if job.FolderID != "f1" {
		t.Errorf("FolderID = %q", job.FolderID)
	}
	if ledger.inserts != 1 {
		t.Errorf("ledger inserts = %d, want 1", ledger.inserts)
	}

	req := prov.lastSubmit
	if req.AudioURL != src.MediaURL {
		t.Errorf("submitted AudioURL = %q", req.AudioURL)
	}
	if req.SpeechModel != "nano" {
		t.Errorf("SpeechModel = %q, want nano", req.SpeechModel)
	}
	if !req.SpeakerLabels || !req.SentimentAnalysis || !req.Summarization || !req.EntityDetection || !req.AutoHighlights {
		t.Error("analysis facets should all be requested")
	}
	if req.RedactPII || req.Disfluencies {
		t.Error("redaction and disfluencies should stay off")
	}
}

func TestSubmitWordBoost(t *testing.T) {
	tests := []struct {
		name      string
		vocab     *fakeVocab
		wantBoost []string
		wantParam string
	}{
		{
			name: "words_and_phrases_merged",
			vocab: &fakeVocab{entries: []VocabEntry{
				{Word: "Kubernetes", Phrases: []string{"control plane", "kubelet"}},
				{Word: "pgx"},
			}},
			wantBoost: []string{"Kubernetes", "control plane", "kubelet", "pgx"},
			wantParam: "high",
		},
		{
			name:  "empty_vocabulary_omits_boost",
			vocab: &fakeVocab{},
		},
		{
			name:  "lookup_failure_degrades_to_no_boost",
			vocab: &fakeVocab{err: errBoom},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := &fakeProvider{submitID: "tr_1"}
			s := NewSubmitter(newFakeLedger(), tt.vocab, prov, zerolog.Nop())

			_, err := s.Submit(context.Background(), "u1", &ResolvedSource{MediaURL: "https://x/a.mp3"}, SubmitOptions{})
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if !reflect.DeepEqual(prov.lastSubmit.WordBoost, tt.wantBoost) {
				t.Errorf("WordBoost = %v, want %v", prov.lastSubmit.WordBoost, tt.wantBoost)
			}
			if prov.lastSubmit.BoostParam != tt.wantParam {
				t.Errorf("BoostParam = %q, want %q", prov.lastSubmit.BoostParam, tt.wantParam)
			}
		})
	}
}

func TestSubmitProviderFailureClassified(t *testing.T) {
	prov := &fakeProvider{submitErr: &provider.APIError{StatusCode: 401, Message: "Unauthorized"}}
	ledger := newFakeLedger()
	s := NewSubmitter(ledger, &fakeVocab{}, prov, zerolog.Nop())

	_, err := s.Submit(context.Background(), "u1", &ResolvedSource{MediaURL: "https://x/a.mp3"}, SubmitOptions{})
	e, ok := AsError(err)
	if !ok || e.Kind != KindProviderError {
		t.Fatalf("got %v, want kind %s", err, KindProviderError)
	}
	if e.Fields["cause"] != string(provider.CauseUnauthorized) {
		t.Errorf("cause = %v, want %s", e.Fields["cause"], provider.CauseUnauthorized)
	}
	if ledger.inserts != 0 {
		t.Error("no ledger row should be created when the provider rejects the submission")
	}
}

func TestSubmitLedgerFailureIsPersistenceFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.insertErr = errBoom
	s := NewSubmitter(ledger, &fakeVocab{}, &fakeProvider{submitID: "tr_1"}, zerolog.Nop())

	_, err := s.Submit(context.Background(), "u1", &ResolvedSource{MediaURL: "https://x/a.mp3"}, SubmitOptions{})
	if KindOf(err) != KindPersistenceFailure {
		t.Fatalf("got %v, want kind %s", err, KindPersistenceFailure)
	}
	if ledger.inserts != 1 {
		t.Errorf("inserts = %d, insert must not be retried", ledger.inserts)
	}
}
