// Package llm implements C3, the LLM client the grading pipeline calls for
// name extraction, per-question grading, and the final narrative summary.
// Grounded on the openai-compatible generator pattern in
// storbeck-augustus/internal/generators/openaicompat, collapsed to the
// three operations spec.md names and adapted to this core's retry and
// markdown-fence-stripping requirements.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Client is C3. Every method returns apperror.Transient for retriable
// upstream failures (timeouts, 5xx, rate limits) and apperror.ParseErr
// when the model's output cannot be coerced to the requested shape after
// all retries are exhausted.
type Client interface {
	// CompleteText sends a single prompt and returns the raw text
	// response, no parsing or retry beyond normal transport retries.
	CompleteText(ctx context.Context, prompt string) (string, error)

	// CompleteJSON sends a prompt expecting a JSON object response,
	// strips markdown code fences, and unmarshals into out. On parse
	// failure it retries up to maxRetries (2) more times, each with a
	// corrective follow-up prompt, before giving up.
	CompleteJSON(ctx context.Context, prompt string, out any) error

	// CompleteVisionJSON is CompleteJSON plus one or more images, used
	// for answer-sheet name extraction and grading. Retries bump
	// temperature by +0.05 per attempt, capped at 0.30 — vision
	// extraction is the failure-prone step; text/json completions retry
	// at a fixed temperature (SPEC_FULL.md Open Question #1).
	CompleteVisionJSON(ctx context.Context, prompt string, images []Image, out any) error
}

// Image is one inlined image the vision call attaches to its prompt.
type Image struct {
	// Base64 is the image's raw bytes, base64-encoded (no data: prefix).
	Base64     string
	ContentType string
}

// Usage captures one completion's token accounting, logged by callers for
// cost observability.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func unmarshalLenient(raw string, out any) error {
	return json.Unmarshal([]byte(stripFences(raw)), out)
}

// stripFences removes a leading/trailing ```json ... ``` or ``` ... ```
// fence some models wrap structured output in, matching the original
// grading service's markdown-fence tolerance.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if len(t) < 3 {
		return t
	}
	if strings.HasPrefix(t, "```") {
		if nl := strings.IndexByte(t, '\n'); nl != -1 {
			t = t[nl+1:]
		}
		if idx := strings.LastIndex(t, "```"); idx != -1 {
			t = t[:idx]
		}
	}
	return strings.TrimSpace(t)
}
