// Package feedback turns transcription and prosody output into pedagogical
// feedback for the teacher.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aula-backend/internal/recordings"
)

// CoachVersion tags every feedback document with the prompt generation that
// produced it.
const CoachVersion = "1.0"

const digestTranscriptLimit = 500

// Summary is the condensed pipeline output a generator works from.
type Summary struct {
	Transcription map[string]any
	Prosody       map[string]any
	Context       recordings.Context
}

// Generator produces the feedback document for a recording. Generators never
// fail the pipeline: on any fault they return a degraded document instead of
// an error.
type Generator interface {
	Generate(ctx context.Context, sum Summary) map[string]any
}

// Degraded is the feedback document emitted when generation fails. It keeps
// the result schema intact so clients can render it without special cases.
func Degraded(err error) map[string]any {
	msg := "feedback generation unavailable"
	if err != nil {
		msg = err.Error()
	}
	return map[string]any{
		"overall_score":         0,
		"summary":               "No se pudo generar retroalimentación para esta grabación.",
		"strengths":             []any{},
		"areas_for_improvement": []any{},
		"detailed_analysis":     []any{},
		"key_metrics":           map[string]any{},
		"action_plan":           []any{},
		"grade_specific_tips":   []any{},
		"error":                 msg,
		"coach_version":         CoachVersion,
	}
}

// Digest renders the summary as the prompt body sent to the model. The
// transcript is truncated so oversized lessons stay within prompt limits.
func (s Summary) Digest() string {
	var b strings.Builder

	b.WriteString("CONTEXTO DE LA CLASE\n")
	fmt.Fprintf(&b, "Materia: %s\n", s.Context.Subject)
	fmt.Fprintf(&b, "Nivel: %s\n", s.Context.GradeLevel)
	fmt.Fprintf(&b, "Tema: %s\n", s.Context.LessonTopic)
	if s.Context.AdditionalContext != "" {
		fmt.Fprintf(&b, "Notas adicionales: %s\n", s.Context.AdditionalContext)
	}

	b.WriteString("\nTRANSCRIPCION (extracto)\n")
	transcript, _ := s.Transcription["text"].(string)
	if len(transcript) > digestTranscriptLimit {
		transcript = transcript[:digestTranscriptLimit] + "..."
	}
	if transcript == "" {
		transcript = "(sin transcripción)"
	}
	b.WriteString(transcript)
	b.WriteString("\n")

	b.WriteString("\nMETRICAS DE HABLA\n")
	fmt.Fprintf(&b, "Palabras: %v\n", s.Transcription["word_count"])
	fmt.Fprintf(&b, "Palabras por minuto: %v\n", s.Transcription["wpm"])
	fmt.Fprintf(&b, "Muletillas: %v (%v%%)\n", s.Transcription["filler_count"], s.Transcription["filler_rate"])
	if top := topFillers(s.Transcription, 5); top != "" {
		fmt.Fprintf(&b, "Muletillas frecuentes: %s\n", top)
	}
	if pauses, ok := s.Transcription["pauses"].(map[string]any); ok {
		fmt.Fprintf(&b, "Pausas estimadas: %v\n", pauses["count"])
	}

	b.WriteString("\nPROSODIA\n")
	fmt.Fprintf(&b, "Tono medio: %v Hz (rango %v Hz)\n", s.Prosody["f0_mean_hz"], s.Prosody["f0_range_hz"])
	fmt.Fprintf(&b, "Intensidad media: %v dB (rango %v dB)\n", s.Prosody["intensity_mean_db"], s.Prosody["intensity_range_db"])
	fmt.Fprintf(&b, "Jitter: %v, Shimmer: %v\n", s.Prosody["jitter_local"], s.Prosody["shimmer_local"])

	return b.String()
}

// topFillers formats the n most frequent fillers as "word (count)" entries,
// most frequent first.
func topFillers(transcription map[string]any, n int) string {
	fillers, ok := transcription["fillers"].(map[string]any)
	if !ok || len(fillers) == 0 {
		return ""
	}
	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(fillers))
	for word, raw := range fillers {
		switch v := raw.(type) {
		case int:
			entries = append(entries, entry{word, v})
		case float64:
			entries = append(entries, entry{word, int(v)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%d)", e.word, e.count))
	}
	return strings.Join(parts, ", ")
}
