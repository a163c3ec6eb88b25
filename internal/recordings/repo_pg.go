package recordings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

var _ Repo = (*PGRepo)(nil)

const recordingColumns = `id, file_name, original_filename, storage_key,
       subject, grade_level, lesson_topic, additional_context,
       transcription, prosody, feedback,
       status, error_message, uploaded_at, analyzed_at, updated_at`

// Create inserts a new recording.
func (r *PGRepo) Create(ctx context.Context, rec Recording) error {
	const query = `
INSERT INTO recordings (
	id, file_name, original_filename, storage_key,
	subject, grade_level, lesson_topic, additional_context,
	status, uploaded_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.FileName,
		rec.OriginalFilename,
		rec.StorageKey,
		rec.Subject,
		rec.GradeLevel,
		rec.LessonTopic,
		rec.AdditionalContext,
		rec.Status,
		rec.UploadedAt,
	)
	return err
}

// GetByID returns a recording by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Recording, error) {
	query := `
SELECT ` + recordingColumns + `
FROM recordings
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, id)
	rec, err := scanRecording(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recording{}, ErrNotFound
		}
		return Recording{}, err
	}
	return rec, nil
}

// List returns recordings ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Recording, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + recordingColumns + `
FROM recordings
ORDER BY uploaded_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkProcessing moves a recording into processing and clears any previous error.
func (r *PGRepo) MarkProcessing(ctx context.Context, id string) error {
	const query = `
UPDATE recordings
SET status = 'processing',
    error_message = NULL,
    updated_at = now()
WHERE id = $1::uuid`
	return r.exec(ctx, query, id)
}

func (r *PGRepo) SetTranscription(ctx context.Context, id string, doc map[string]any) error {
	return r.setStage(ctx, id, "transcription", doc)
}

func (r *PGRepo) SetProsody(ctx context.Context, id string, doc map[string]any) error {
	return r.setStage(ctx, id, "prosody", doc)
}

func (r *PGRepo) SetFeedback(ctx context.Context, id string, doc map[string]any) error {
	return r.setStage(ctx, id, "feedback", doc)
}

// MarkCompleted finishes the pipeline and stamps analyzed_at.
func (r *PGRepo) MarkCompleted(ctx context.Context, id string, analyzedAt time.Time) error {
	const query = `
UPDATE recordings
SET status = 'completed',
    analyzed_at = $1::timestamptz,
    updated_at = now()
WHERE id = $2::uuid`
	return r.exec(ctx, query, analyzedAt, id)
}

// MarkError parks a recording in the error state with a message.
func (r *PGRepo) MarkError(ctx context.Context, id string, message string) error {
	const query = `
UPDATE recordings
SET status = 'error',
    error_message = $1::text,
    updated_at = now()
WHERE id = $2::uuid`
	return r.exec(ctx, query, message, id)
}

func (r *PGRepo) setStage(ctx context.Context, id, column string, doc map[string]any) error {
	// column comes from a fixed caller set, never user input.
	query := `
UPDATE recordings
SET ` + column + ` = $1::jsonb,
    updated_at = now()
WHERE id = $2::uuid`
	payload, err := marshalJSONB(doc)
	if err != nil {
		return err
	}
	return r.exec(ctx, query, payload, id)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (Recording, error) {
	var rec Recording
	var subject sql.NullString
	var gradeLevel sql.NullString
	var lessonTopic sql.NullString
	var additionalContext sql.NullString
	var transcription sql.NullString
	var prosody sql.NullString
	var feedback sql.NullString
	var errorMessage sql.NullString
	var analyzedAt sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.FileName,
		&rec.OriginalFilename,
		&rec.StorageKey,
		&subject,
		&gradeLevel,
		&lessonTopic,
		&additionalContext,
		&transcription,
		&prosody,
		&feedback,
		&rec.Status,
		&errorMessage,
		&rec.UploadedAt,
		&analyzedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Recording{}, err
	}
	if subject.Valid {
		rec.Subject = subject.String
	}
	if gradeLevel.Valid {
		rec.GradeLevel = gradeLevel.String
	}
	if lessonTopic.Valid {
		rec.LessonTopic = lessonTopic.String
	}
	if additionalContext.Valid {
		rec.AdditionalContext = additionalContext.String
	}
	if transcription.Valid {
		rec.Transcription = map[string]any{}
		if err := json.Unmarshal([]byte(transcription.String), &rec.Transcription); err != nil {
			rec.Transcription = nil
		}
	}
	if prosody.Valid {
		rec.Prosody = map[string]any{}
		if err := json.Unmarshal([]byte(prosody.String), &rec.Prosody); err != nil {
			rec.Prosody = nil
		}
	}
	if feedback.Valid {
		rec.Feedback = map[string]any{}
		if err := json.Unmarshal([]byte(feedback.String), &rec.Feedback); err != nil {
			rec.Feedback = nil
		}
	}
	if errorMessage.Valid {
		rec.ErrorMessage = &errorMessage.String
	}
	if analyzedAt.Valid {
		rec.AnalyzedAt = &analyzedAt.Time
	}
	return rec, nil
}
