package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"aula-backend/internal/feedback"
	feedbackopenai "aula-backend/internal/feedback/openai"
	"aula-backend/internal/pipeline"
	"aula-backend/internal/prosody"
	"aula-backend/internal/recordings"
	"aula-backend/internal/shared/config"
	"aula-backend/internal/shared/metrics"
	"aula-backend/internal/shared/server/middleware"
	"aula-backend/internal/shared/server/respond"
	"aula-backend/internal/shared/storage/db"
	localstore "aula-backend/internal/shared/storage/object/local"
	"aula-backend/internal/speech"
	"aula-backend/internal/transcribe"
	transcribeopenai "aula-backend/internal/transcribe/openai"
)

// Deps holds the analysis providers the router wires into the pipeline.
// Tests inject fakes here.
type Deps struct {
	Transcriber transcribe.Transcriber
	Feedback    feedback.Generator
}

// DefaultDeps builds the production providers from configuration.
func DefaultDeps(cfg config.Config) (Deps, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	transcriber, err := transcribeopenai.NewClient(apiKey, cfg.TranscribeModel, cfg.TranscribeLanguage)
	if err != nil {
		return Deps{}, err
	}
	generator, err := feedbackopenai.NewClient(apiKey, cfg.FeedbackModel)
	if err != nil {
		return Deps{}, err
	}
	return Deps{Transcriber: transcriber, Feedback: generator}, nil
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"STATUS": {Rate: 2, Burst: 10},
				"UPLOAD": {Rate: 0.5, Burst: 5},
			},
			GroupFor: func(c *gin.Context) string {
				switch {
				case c.FullPath() == "/api/v1/recordings/:id/status":
					return "STATUS"
				case c.FullPath() == "/api/v1/recordings" && c.Request.Method == http.MethodPost:
					return "UPLOAD"
				}
				return ""
			},
		}),
	)

	// Dependencies
	store := localstore.New(cfg.LocalStoreDir)
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var repo recordings.Repo
	if sqlDB != nil {
		repo = &recordings.PGRepo{DB: sqlDB}
	} else {
		repo = recordings.NewMemoryRepo()
	}

	pipe := &pipeline.Service{
		Repo:        repo,
		Store:       store,
		Transcriber: deps.Transcriber,
		Prosody:     &prosody.BaselineAnalyzer{Store: store},
		Feedback:    deps.Feedback,
		Speech:      speech.NewExtractor(cfg.FillerWords),
	}
	recSvc := &recordings.Service{Store: store, Repo: repo}
	recHandler := recordings.NewHandler(recSvc, pipe, cfg.MaxUploadBytes)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	recHandler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
