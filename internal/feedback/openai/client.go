// Package openai implements feedback generation using OpenAI Chat
// Completions in JSON mode.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"aula-backend/internal/feedback"
	"aula-backend/internal/shared/metrics"
	"aula-backend/internal/shared/telemetry"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = `Eres un coach pedagógico experto que analiza grabaciones de clases.
A partir del contexto, la transcripción y las métricas entregadas, evalúa la clase en cinco dimensiones:
1. Claridad de la explicación
2. Ritmo y fluidez del habla
3. Uso de muletillas
4. Variación de tono y energía vocal
5. Estructura de la clase

Adapta tus comentarios al nivel educativo indicado en el contexto.

Responde únicamente con un objeto JSON con esta forma:
{
  "overall_score": <entero 0-100>,
  "summary": "<resumen breve en español>",
  "strengths": ["<fortaleza>"],
  "areas_for_improvement": ["<área de mejora>"],
  "detailed_analysis": [{"dimension": "<dimensión>", "score": <entero 0-100>, "feedback": "<comentario>", "recommendations": ["<recomendación accionable>"]}],
  "key_metrics": {"ritmo": "<lento|adecuado|rápido>", "muletillas": "<bajo|moderado|alto>", "energia_vocal": "<baja|adecuada|alta>"},
  "action_plan": ["<acción concreta para la próxima clase>"],
  "grade_specific_tips": ["<consejo para el nivel educativo>"]
}`

// Client implements feedback.Generator using OpenAI.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ feedback.Generator = (*Client)(nil)

// NewClient constructs a new feedback client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("FEEDBACK_MODEL is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float32        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate asks the model for feedback on the summarized recording. Any
// fault degrades to a placeholder document rather than failing the pipeline.
func (c *Client) Generate(ctx context.Context, sum feedback.Summary) map[string]any {
	doc, err := c.generate(ctx, sum)
	if err != nil {
		telemetry.Warn("feedback.degraded", map[string]any{
			"model": c.model,
			"error": err.Error(),
		})
		metrics.IncFeedbackDegraded()
		return feedback.Degraded(err)
	}
	return doc
}

func (c *Client) generate(ctx context.Context, sum feedback.Summary) (map[string]any, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sum.Digest()},
		},
		Temperature:    0.7,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("feedback is not valid JSON: %w", err)
	}
	doc["coach_version"] = feedback.CoachVersion
	return doc, nil
}
