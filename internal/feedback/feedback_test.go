package feedback

import (
	"errors"
	"strings"
	"testing"

	"aula-backend/internal/recordings"
)

func TestDigestTruncatesTranscript(t *testing.T) {
	long := strings.Repeat("palabra ", 200)
	sum := Summary{
		Transcription: map[string]any{
			"text":         long,
			"word_count":   200,
			"wpm":          120.0,
			"filler_count": 0,
			"filler_rate":  0.0,
		},
		Prosody: map[string]any{"f0_mean_hz": 180.0},
		Context: recordings.Recording{}.Context(),
	}

	digest := sum.Digest()
	if strings.Contains(digest, long) {
		t.Fatal("digest contains full transcript, want truncation")
	}
	if !strings.Contains(digest, "...") {
		t.Fatal("truncated transcript missing ellipsis")
	}
	if !strings.Contains(digest, "Materia: General") {
		t.Fatalf("digest missing default subject:\n%s", digest)
	}
	if !strings.Contains(digest, "Nivel: No especificado") {
		t.Fatalf("digest missing default grade level:\n%s", digest)
	}
}

func TestDigestListsTopFillers(t *testing.T) {
	sum := Summary{
		Transcription: map[string]any{
			"text":         "hola",
			"word_count":   1,
			"wpm":          1.0,
			"filler_count": 21,
			"filler_rate":  10.0,
			"fillers": map[string]any{
				"eh":       10.0,
				"este":     5.0,
				"bueno":    3.0,
				"pues":     1.0,
				"o sea":    1.0,
				"entonces": 1.0,
			},
		},
		Prosody: map[string]any{},
	}

	digest := sum.Digest()
	if !strings.Contains(digest, "eh (10)") {
		t.Fatalf("digest missing top filler:\n%s", digest)
	}
	// Six distinct fillers, only the five most frequent should appear.
	// The alphabetical tie-break keeps "entonces" and "o sea" over "pues".
	if strings.Contains(digest, "pues (1)") {
		t.Fatalf("digest lists more than five fillers:\n%s", digest)
	}
}

func TestDegradedKeepsResultSchema(t *testing.T) {
	doc := Degraded(errors.New("rate limited"))

	if got := doc["overall_score"]; got != 0 {
		t.Fatalf("overall_score = %v, want 0", got)
	}
	if got := doc["coach_version"]; got != CoachVersion {
		t.Fatalf("coach_version = %v, want %q", got, CoachVersion)
	}
	if got := doc["error"]; got != "rate limited" {
		t.Fatalf("error = %v, want rate limited", got)
	}
	for _, key := range []string{"strengths", "areas_for_improvement", "detailed_analysis", "action_plan", "grade_specific_tips"} {
		list, ok := doc[key].([]any)
		if !ok {
			t.Fatalf("%s is %T, want list", key, doc[key])
		}
		if len(list) != 0 {
			t.Fatalf("%s = %v, want empty", key, list)
		}
	}
}

func TestDegradedWithoutCause(t *testing.T) {
	doc := Degraded(nil)
	if got := doc["error"]; got != "feedback generation unavailable" {
		t.Fatalf("error = %v", got)
	}
}
