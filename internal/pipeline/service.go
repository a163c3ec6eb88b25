// Package pipeline orchestrates the analysis stages of a recording:
// transcription, prosody, and pedagogical feedback.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aula-backend/internal/feedback"
	"aula-backend/internal/prosody"
	"aula-backend/internal/recordings"
	"aula-backend/internal/shared/metrics"
	"aula-backend/internal/shared/storage/object"
	"aula-backend/internal/shared/telemetry"
	"aula-backend/internal/speech"
	"aula-backend/internal/transcribe"
)

const maxErrorMessageLen = 500

// Service runs the analysis pipeline for uploaded recordings.
type Service struct {
	Repo        recordings.Repo
	Store       object.ObjectStore
	Transcriber transcribe.Transcriber
	Prosody     prosody.Analyzer
	Feedback    feedback.Generator
	Speech      *speech.Extractor
}

// Run executes the pipeline for a recording. It is a no-op unless the
// recording is in the uploaded state, which makes concurrent or repeated
// triggers safe. Each stage output is persisted as soon as it exists, so a
// crash loses at most the stage in flight.
//
// Transcription and persistence are the only stage faults that fail the run;
// prosody and feedback degrade in place and never error.
func (s *Service) Run(ctx context.Context, id string) error {
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != recordings.StatusUploaded {
		return nil
	}

	start := time.Now()
	metrics.IncPipelineStarted()
	telemetry.Info("pipeline.start", map[string]any{
		"recording_id": id,
		"file_name":    rec.OriginalFilename,
	})

	if err := s.Repo.MarkProcessing(ctx, id); err != nil {
		return s.fail(ctx, id, start, "persist", err)
	}

	result, err := s.transcribeStage(ctx, rec)
	if err != nil {
		return s.fail(ctx, id, start, "transcription", err)
	}
	spans := result.Spans()
	m := s.Speech.Analyze(result.Text, spans)
	if err := s.Repo.SetTranscription(ctx, id, result.Document(m)); err != nil {
		return s.fail(ctx, id, start, "persist", err)
	}

	prosodyDoc := s.Prosody.Analyze(ctx, rec.StorageKey)
	if err := s.Repo.SetProsody(ctx, id, prosodyDoc); err != nil {
		return s.fail(ctx, id, start, "persist", err)
	}

	feedbackDoc := s.Feedback.Generate(ctx, feedback.Summary{
		Transcription: result.Document(m),
		Prosody:       prosodyDoc,
		Context:       rec.Context(),
	})
	if err := s.Repo.SetFeedback(ctx, id, feedbackDoc); err != nil {
		return s.fail(ctx, id, start, "persist", err)
	}

	if err := s.Repo.MarkCompleted(ctx, id, time.Now().UTC()); err != nil {
		return s.fail(ctx, id, start, "persist", err)
	}

	elapsed := time.Since(start)
	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDurationMs(float64(elapsed.Milliseconds()))
	telemetry.Info("pipeline.complete", map[string]any{
		"recording_id": id,
		"duration_ms":  elapsed.Milliseconds(),
		"word_count":   m.WordCount,
	})
	return nil
}

func (s *Service) transcribeStage(ctx context.Context, rec recordings.Recording) (transcribe.Result, error) {
	audio, err := s.Store.Open(ctx, rec.StorageKey)
	if err != nil {
		return transcribe.Result{}, fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()
	return s.Transcriber.Transcribe(ctx, rec.OriginalFilename, audio)
}

// fail parks the recording in the error state with a sanitized message and
// returns the original error to the caller.
func (s *Service) fail(ctx context.Context, id string, start time.Time, stage string, cause error) error {
	msg := sanitizeError(cause)
	metrics.IncPipelineError()
	telemetry.Error("pipeline.error", map[string]any{
		"recording_id": id,
		"stage":        stage,
		"duration_ms":  time.Since(start).Milliseconds(),
		"error":        msg,
	})
	if err := s.Repo.MarkError(ctx, id, msg); err != nil {
		telemetry.Error("pipeline.mark_error_failed", map[string]any{
			"recording_id": id,
			"error":        err.Error(),
		})
	}
	return fmt.Errorf("%s: %w", stage, cause)
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}
