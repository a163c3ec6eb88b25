// Package speech computes delivery metrics over a transcript: word count,
// speech rate, filler-word frequency and a punctuation-based pause estimate.
// It is pure text arithmetic with no external dependencies and, by contract,
// never fails: malformed input degrades to zero-valued metrics.
package speech

import (
	"math"
	"regexp"
	"strings"
)

const (
	// fallbackDurationSeconds is assumed when no timing spans are available.
	fallbackDurationSeconds = 60.0

	// Pause figures are heuristic placeholders derived from punctuation
	// density, not measured silence. A provider with real segment timing
	// should derive pauses from inter-span gaps instead.
	pauseAvgMs = 500
	pauseMaxMs = 1000
	pauseMinMs = 200
)

var pauseIndicators = []string{".", ",", ";", ":", "!", "?"}

// Span is one time-aligned slice of the transcript, in seconds.
type Span struct {
	Start float64
	End   float64
}

// Pauses is the estimated pause profile of a transcript.
type Pauses struct {
	Count   int `json:"count"`
	AvgMs   int `json:"avg_ms"`
	TotalMs int `json:"total_ms"`
	MaxMs   int `json:"max_ms"`
	MinMs   int `json:"min_ms"`
}

// Metrics is the computed delivery profile of a transcript.
type Metrics struct {
	WordCount   int            `json:"word_count"`
	WPM         float64        `json:"wpm"`
	Fillers     map[string]int `json:"fillers"`
	FillerCount int            `json:"filler_count"`
	FillerRate  float64        `json:"filler_rate"`
	Pauses      Pauses         `json:"pauses"`
}

// Extractor computes Metrics against a fixed filler lexicon.
type Extractor struct {
	patterns []fillerPattern
}

type fillerPattern struct {
	word string
	re   *regexp.Regexp
}

// NewExtractor builds an Extractor for the given lexicon. An empty lexicon
// falls back to DefaultFillerWords. Lexicon entries are matched lower-cased
// and whole-word only.
func NewExtractor(lexicon []string) *Extractor {
	if len(lexicon) == 0 {
		lexicon = DefaultFillerWords
	}
	patterns := make([]fillerPattern, 0, len(lexicon))
	for _, word := range lexicon {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
		if err != nil {
			continue
		}
		patterns = append(patterns, fillerPattern{word: word, re: re})
	}
	return &Extractor{patterns: patterns}
}

// Analyze computes Metrics for the transcript. Spans may be empty; when at
// least one span exists the speech duration is taken from the span range,
// otherwise a fixed 60-second estimate applies.
func (e *Extractor) Analyze(text string, spans []Span) Metrics {
	words := strings.Fields(text)
	wordCount := len(words)

	var wpm float64
	if len(spans) > 0 {
		duration := spans[len(spans)-1].End - spans[0].Start
		if duration > 0 {
			wpm = round1(float64(wordCount) / duration * 60)
		}
	} else {
		wpm = round1(float64(wordCount) / fallbackDurationSeconds * 60)
	}

	lower := strings.ToLower(text)
	fillers := make(map[string]int)
	fillerCount := 0
	for _, p := range e.patterns {
		if matches := len(p.re.FindAllStringIndex(lower, -1)); matches > 0 {
			fillers[p.word] = matches
			fillerCount += matches
		}
	}

	fillerRate := 0.0
	if wordCount > 0 {
		fillerRate = round2(float64(fillerCount) / float64(wordCount) * 100)
	}

	return Metrics{
		WordCount:   wordCount,
		WPM:         wpm,
		Fillers:     fillers,
		FillerCount: fillerCount,
		FillerRate:  fillerRate,
		Pauses:      estimatePauses(text),
	}
}

// Document renders the metrics as a generic JSON-style document, the form in
// which they are merged into the persisted transcription stage output.
func (m Metrics) Document() map[string]any {
	fillers := make(map[string]any, len(m.Fillers))
	for word, count := range m.Fillers {
		fillers[word] = count
	}
	return map[string]any{
		"word_count":   m.WordCount,
		"wpm":          m.WPM,
		"fillers":      fillers,
		"filler_count": m.FillerCount,
		"filler_rate":  m.FillerRate,
		"pauses": map[string]any{
			"count":    m.Pauses.Count,
			"avg_ms":   m.Pauses.AvgMs,
			"total_ms": m.Pauses.TotalMs,
			"max_ms":   m.Pauses.MaxMs,
			"min_ms":   m.Pauses.MinMs,
		},
	}
}

func estimatePauses(text string) Pauses {
	count := 0
	for _, indicator := range pauseIndicators {
		count += strings.Count(text, indicator)
	}
	return Pauses{
		Count:   count,
		AvgMs:   pauseAvgMs,
		TotalMs: count * pauseAvgMs,
		MaxMs:   pauseMaxMs,
		MinMs:   pauseMinMs,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
