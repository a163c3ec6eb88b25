package recordings

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"aula-backend/internal/shared/storage/object"
)

// allowedExtensions is the audio format whitelist applied at upload time.
var allowedExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".ogg":  {},
	".flac": {},
}

// UploadInput carries the multipart fields of an upload request.
type UploadInput struct {
	FileName          string
	Subject           string
	GradeLevel        string
	LessonTopic       string
	AdditionalContext string
}

// Service contains business logic for recordings.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Upload validates the audio format, saves the file to object storage and
// records the recording in the uploaded state.
func (s *Service) Upload(ctx context.Context, in UploadInput, r io.Reader) (Recording, error) {
	if in.FileName == "" {
		return Recording{}, fmt.Errorf("%w: file name required", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return Recording{}, fmt.Errorf("%w: unsupported audio format %q", ErrInvalidInput, ext)
	}

	storageKey, _, _, err := s.Store.Save(ctx, in.FileName, r)
	if err != nil {
		return Recording{}, err
	}

	rec := Recording{
		ID:                uuid.NewString(),
		FileName:          filepath.Base(storageKey),
		OriginalFilename:  in.FileName,
		StorageKey:        storageKey,
		Subject:           in.Subject,
		GradeLevel:        in.GradeLevel,
		LessonTopic:       in.LessonTopic,
		AdditionalContext: in.AdditionalContext,
		Status:            StatusUploaded,
		UploadedAt:        time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, rec); err != nil {
		return Recording{}, err
	}

	return rec, nil
}

// Get returns a recording by ID.
func (s *Service) Get(ctx context.Context, id string) (Recording, error) {
	if id == "" {
		return Recording{}, fmt.Errorf("%w: recording id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// Results returns the full analysis output of a completed recording.
func (s *Service) Results(ctx context.Context, id string) (Recording, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Recording{}, err
	}
	if rec.Status != StatusCompleted {
		return Recording{}, ErrNotCompleted
	}
	return rec, nil
}

// List returns recordings newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Recording, error) {
	return s.Repo.List(ctx, limit, offset)
}
