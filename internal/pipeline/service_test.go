package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"aula-backend/internal/feedback"
	"aula-backend/internal/recordings"
	"aula-backend/internal/speech"
	"aula-backend/internal/transcribe"
)

type fakeStore struct {
	openErr error
}

func (f *fakeStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	return "stored/" + fileName, 0, "audio/mpeg", nil
}

func (f *fakeStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader("audio-bytes")), nil
}

func (f *fakeStore) Size(ctx context.Context, storageKey string) (int64, error) {
	return 1024, nil
}

type fakeTranscriber struct {
	calls  int
	result transcribe.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, fileName string, audio io.Reader) (transcribe.Result, error) {
	f.calls++
	if f.err != nil {
		return transcribe.Result{}, f.err
	}
	return f.result, nil
}

type fakeProsody struct {
	calls int
	doc   map[string]any
}

func (f *fakeProsody) Analyze(ctx context.Context, storageKey string) map[string]any {
	f.calls++
	return f.doc
}

type fakeFeedback struct {
	calls int
	doc   map[string]any
	last  feedback.Summary
}

func (f *fakeFeedback) Generate(ctx context.Context, sum feedback.Summary) map[string]any {
	f.calls++
	f.last = sum
	return f.doc
}

func newTestService(t *testing.T) (*Service, *recordings.MemoryRepo, *fakeTranscriber, *fakeProsody, *fakeFeedback) {
	t.Helper()
	repo := recordings.NewMemoryRepo()
	tr := &fakeTranscriber{result: transcribe.Result{
		Text: "hola eh clase hoy veremos fracciones",
		Segments: []transcribe.Segment{
			{ID: 0, Start: 0, End: 3, Text: "hola eh clase"},
			{ID: 1, Start: 3, End: 6, Text: "hoy veremos fracciones"},
		},
	}}
	pr := &fakeProsody{doc: map[string]any{"f0_mean_hz": 180.0}}
	fb := &fakeFeedback{doc: map[string]any{"overall_score": 85, "coach_version": "1.0"}}
	svc := &Service{
		Repo:        repo,
		Store:       &fakeStore{},
		Transcriber: tr,
		Prosody:     pr,
		Feedback:    fb,
		Speech:      speech.NewExtractor(nil),
	}
	return svc, repo, tr, pr, fb
}

func seedRecording(t *testing.T, repo *recordings.MemoryRepo) recordings.Recording {
	t.Helper()
	rec := recordings.Recording{
		ID:               "rec-1",
		FileName:         "abc_clase.mp3",
		OriginalFilename: "clase.mp3",
		StorageKey:       "abc/clase.mp3",
		Subject:          "Matemáticas",
		Status:           recordings.StatusUploaded,
		UploadedAt:       time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rec
}

func TestRunCompletesAllStages(t *testing.T) {
	svc, repo, _, pr, fb := newTestService(t)
	rec := seedRecording(t, repo)

	if err := svc.Run(context.Background(), rec.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != recordings.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.AnalyzedAt == nil {
		t.Fatal("analyzedAt not set")
	}
	if got.Transcription == nil || got.Prosody == nil || got.Feedback == nil {
		t.Fatalf("stage outputs missing: %+v", got)
	}
	if got.Transcription["word_count"] != 6 {
		t.Fatalf("word_count = %v, want 6", got.Transcription["word_count"])
	}
	// 6 words over 6 seconds of segments.
	if got.Transcription["wpm"] != 60.0 {
		t.Fatalf("wpm = %v, want 60.0", got.Transcription["wpm"])
	}
	if pr.calls != 1 || fb.calls != 1 {
		t.Fatalf("prosody calls = %d, feedback calls = %d, want 1 each", pr.calls, fb.calls)
	}
	if fb.last.Context.Subject != "Matemáticas" {
		t.Fatalf("feedback subject = %q", fb.last.Context.Subject)
	}
	if fb.last.Context.GradeLevel != "No especificado" {
		t.Fatalf("feedback grade level = %q, want display default", fb.last.Context.GradeLevel)
	}
}

func TestRunTranscriptionFailureStopsPipeline(t *testing.T) {
	svc, repo, tr, pr, fb := newTestService(t)
	tr.err = errors.New("whisper unavailable\nretry later")
	rec := seedRecording(t, repo)

	err := svc.Run(context.Background(), rec.ID)
	if err == nil {
		t.Fatal("Run succeeded, want error")
	}

	got, _ := repo.GetByID(context.Background(), rec.ID)
	if got.Status != recordings.StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	if got.ErrorMessage == nil {
		t.Fatal("error message not set")
	}
	if strings.Contains(*got.ErrorMessage, "\n") {
		t.Fatalf("error message not sanitized: %q", *got.ErrorMessage)
	}
	if got.Transcription != nil || got.Prosody != nil || got.Feedback != nil {
		t.Fatal("stage outputs written after transcription failure")
	}
	if pr.calls != 0 || fb.calls != 0 {
		t.Fatalf("later stages ran: prosody=%d feedback=%d", pr.calls, fb.calls)
	}
}

func TestRunDegradedFeedbackStillCompletes(t *testing.T) {
	svc, repo, _, _, fb := newTestService(t)
	fb.doc = feedback.Degraded(errors.New("rate limited"))
	rec := seedRecording(t, repo)

	if err := svc.Run(context.Background(), rec.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), rec.ID)
	if got.Status != recordings.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.Feedback["error"] != "rate limited" {
		t.Fatalf("feedback error = %v", got.Feedback["error"])
	}
}

func TestRunIsIdempotent(t *testing.T) {
	svc, repo, tr, _, _ := newTestService(t)
	rec := seedRecording(t, repo)

	if err := svc.Run(context.Background(), rec.ID); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := svc.Run(context.Background(), rec.ID); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if tr.calls != 1 {
		t.Fatalf("transcriber calls = %d, want 1", tr.calls)
	}
}

func TestRunUnknownRecording(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	if err := svc.Run(context.Background(), "missing"); !errors.Is(err, recordings.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSanitizeErrorTruncates(t *testing.T) {
	long := errors.New(strings.Repeat("x", 800))
	if got := sanitizeError(long); len(got) != maxErrorMessageLen {
		t.Fatalf("len = %d, want %d", len(got), maxErrorMessageLen)
	}
}
