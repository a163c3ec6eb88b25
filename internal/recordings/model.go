package recordings

import "time"

// Recording status state machine. Transitions are one-directional:
// uploaded -> processing -> completed, with error reachable from processing
// and terminal.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Recording represents one uploaded classroom audio file and its journey
// through the analysis pipeline. Stage outputs are nil until their stage has
// succeeded at least once.
type Recording struct {
	ID                string         `json:"id"`
	FileName          string         `json:"fileName"`
	OriginalFilename  string         `json:"originalFilename"`
	StorageKey        string         `json:"-"`
	Subject           string         `json:"subject,omitempty"`
	GradeLevel        string         `json:"gradeLevel,omitempty"`
	LessonTopic       string         `json:"lessonTopic,omitempty"`
	AdditionalContext string         `json:"additionalContext,omitempty"`
	Transcription     map[string]any `json:"transcription,omitempty"`
	Prosody           map[string]any `json:"prosody,omitempty"`
	Feedback          map[string]any `json:"feedback,omitempty"`
	Status            string         `json:"status"`
	ErrorMessage      *string        `json:"errorMessage,omitempty"`
	UploadedAt        time.Time      `json:"uploadedAt"`
	AnalyzedAt        *time.Time     `json:"analyzedAt,omitempty"`
	UpdatedAt         time.Time      `json:"-"`
}

// Context is the educational context of a recording with display defaults
// applied. Defaults are presentation-only and never written back to the record.
type Context struct {
	Subject           string
	GradeLevel        string
	LessonTopic       string
	AdditionalContext string
}

// Context returns the recording's educational context with display defaults.
func (r Recording) Context() Context {
	ctx := Context{
		Subject:           r.Subject,
		GradeLevel:        r.GradeLevel,
		LessonTopic:       r.LessonTopic,
		AdditionalContext: r.AdditionalContext,
	}
	if ctx.Subject == "" {
		ctx.Subject = "General"
	}
	if ctx.GradeLevel == "" {
		ctx.GradeLevel = "No especificado"
	}
	if ctx.LessonTopic == "" {
		ctx.LessonTopic = "Tema general"
	}
	return ctx
}
