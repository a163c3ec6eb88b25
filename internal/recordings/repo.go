package recordings

import (
	"context"
	"time"
)

// Repo persists recordings and their per-stage analysis outputs. Stage
// setters write through immediately so a crash mid-pipeline loses at most
// the stage in flight.
type Repo interface {
	Create(ctx context.Context, rec Recording) error
	GetByID(ctx context.Context, id string) (Recording, error)
	List(ctx context.Context, limit, offset int) ([]Recording, error)

	MarkProcessing(ctx context.Context, id string) error
	SetTranscription(ctx context.Context, id string, doc map[string]any) error
	SetProsody(ctx context.Context, id string, doc map[string]any) error
	SetFeedback(ctx context.Context, id string, doc map[string]any) error
	MarkCompleted(ctx context.Context, id string, analyzedAt time.Time) error
	MarkError(ctx context.Context, id string, message string) error
}
