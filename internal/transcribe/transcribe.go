// Package transcribe defines the speech-to-text contract of the analysis
// pipeline.
package transcribe

import (
	"context"
	"io"

	"aula-backend/internal/speech"
)

// Segment is one timed chunk of the transcript.
type Segment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// Result is the raw output of a transcription provider.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Spans projects the segments into timing spans for speech metrics.
func (r Result) Spans() []speech.Span {
	if len(r.Segments) == 0 {
		return nil
	}
	spans := make([]speech.Span, 0, len(r.Segments))
	for _, seg := range r.Segments {
		spans = append(spans, speech.Span{Start: seg.Start, End: seg.End})
	}
	return spans
}

// Document renders the result as the stored transcription document, with the
// derived speech metrics merged in.
func (r Result) Document(metrics speech.Metrics) map[string]any {
	doc := map[string]any{
		"text": r.Text,
	}
	if r.Language != "" {
		doc["language"] = r.Language
	}
	if r.Duration > 0 {
		doc["duration"] = r.Duration
	}
	if len(r.Segments) > 0 {
		segs := make([]map[string]any, 0, len(r.Segments))
		for _, seg := range r.Segments {
			segs = append(segs, map[string]any{
				"id":    seg.ID,
				"start": seg.Start,
				"end":   seg.End,
				"text":  seg.Text,
			})
		}
		doc["segments"] = segs
	}
	for k, v := range metrics.Document() {
		doc[k] = v
	}
	return doc
}

// Transcriber converts classroom audio into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, fileName string, audio io.Reader) (Result, error)
}
