package recordings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"aula-backend/internal/feedback"
	"aula-backend/internal/shared/config"
	"aula-backend/internal/shared/server"
	"aula-backend/internal/transcribe"
)

type fakeTranscriber struct {
	result transcribe.Result
	err    error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, fileName string, audio io.Reader) (transcribe.Result, error) {
	if f.err != nil {
		return transcribe.Result{}, f.err
	}
	return f.result, nil
}

type fakeGenerator struct{}

func (f *fakeGenerator) Generate(ctx context.Context, sum feedback.Summary) map[string]any {
	return map[string]any{"overall_score": 90.0, "coach_version": feedback.CoachVersion}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		MaxUploadBytes:  1 << 20,
	}
	deps := server.Deps{
		Transcriber: &fakeTranscriber{result: transcribe.Result{
			Text: "hola eh clase",
			Segments: []transcribe.Segment{
				{ID: 0, Start: 0, End: 3, Text: "hola eh clase"},
			},
		}},
		Feedback: &fakeGenerator{},
	}
	return server.NewRouter(cfg, deps)
}

func uploadRecording(t *testing.T, router *gin.Engine, fileName string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("audio_file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte("fake audio bytes")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.WriteField("subject", "Matemáticas"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recordings", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUploadAndAnalyzeFlow(t *testing.T) {
	router := newTestRouter(t)

	resp := uploadRecording(t, router, "clase.mp3")
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", resp.Code, resp.Body.String())
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected id, got empty")
	}
	if created.Status != "uploaded" {
		t.Fatalf("status = %q, want uploaded", created.Status)
	}

	// Results are gated until the pipeline has run.
	reqResults := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/"+created.ID+"/results", nil)
	respResults := httptest.NewRecorder()
	router.ServeHTTP(respResults, reqResults)
	if respResults.Code != http.StatusBadRequest {
		t.Fatalf("early results status = %d, want 400", respResults.Code)
	}
	var gated struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(respResults.Body).Decode(&gated); err != nil {
		t.Fatalf("decode gated response: %v", err)
	}
	if gated.Error.Code != "not_completed" {
		t.Fatalf("error code = %q, want not_completed", gated.Error.Code)
	}

	// First status poll runs the pipeline inline.
	reqStatus := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/"+created.ID+"/status", nil)
	respStatus := httptest.NewRecorder()
	router.ServeHTTP(respStatus, reqStatus)
	if respStatus.Code != http.StatusOK {
		t.Fatalf("status poll = %d, body %s", respStatus.Code, respStatus.Body.String())
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(respStatus.Body).Decode(&status); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if status.Status != "completed" {
		t.Fatalf("status = %q, want completed", status.Status)
	}

	// Results are now available with all three documents.
	reqResults2 := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/"+created.ID+"/results", nil)
	respResults2 := httptest.NewRecorder()
	router.ServeHTTP(respResults2, reqResults2)
	if respResults2.Code != http.StatusOK {
		t.Fatalf("results status = %d, body %s", respResults2.Code, respResults2.Body.String())
	}
	var results struct {
		Transcription map[string]any `json:"transcription"`
		Prosody       map[string]any `json:"prosody"`
		Feedback      map[string]any `json:"feedback"`
	}
	if err := json.NewDecoder(respResults2.Body).Decode(&results); err != nil {
		t.Fatalf("decode results response: %v", err)
	}
	if results.Transcription["text"] != "hola eh clase" {
		t.Fatalf("transcription = %v", results.Transcription)
	}
	if results.Transcription["word_count"] != 3.0 {
		t.Fatalf("word_count = %v, want 3", results.Transcription["word_count"])
	}
	if results.Prosody["f0_mean_hz"] != 180.0 {
		t.Fatalf("prosody = %v", results.Prosody)
	}
	if results.Feedback["overall_score"] != 90.0 {
		t.Fatalf("feedback = %v", results.Feedback)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	router := newTestRouter(t)

	resp := uploadRecording(t, router, "notas.txt")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("upload status = %d, want 400", resp.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("error code = %q, want validation_error", body.Error.Code)
	}
}

func TestStatusUnknownRecording(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/nope/status", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestListRecordings(t *testing.T) {
	router := newTestRouter(t)

	if resp := uploadRecording(t, router, "primera.mp3"); resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.Code)
	}
	if resp := uploadRecording(t, router, "segunda.wav"); resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}

	var items []struct {
		OriginalFilename string `json:"originalFilename"`
		Status           string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].OriginalFilename != "segunda.wav" {
		t.Fatalf("newest first, got %q", items[0].OriginalFilename)
	}
}
