package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/apperror"
)

// maxRetries bounds the parse-failure retry loops of CompleteJSON (which
// re-prompts with a corrective follow-up) and CompleteVisionJSON (which
// resends the same prompt at a higher temperature). One initial attempt
// plus this many follow-ups.
const maxRetries = 2

// visionTemperatureStep and visionTemperatureCap implement SPEC_FULL.md's
// vision-only temperature bump on retry.
const (
	visionTemperatureStep = 0.05
	visionTemperatureCap  = 0.30
)

// OpenAIClient is the production Client backed by sashabaranov/go-openai,
// pointed at either the real OpenAI API or a compatible endpoint via
// LLMBaseURL (same "OpenAI-compatible" idiom the storbeck-augustus
// generators use for Groq/Mistral/etc).
type OpenAIClient struct {
	client      *openai.Client
	model       string
	visionModel string
	log         zerolog.Logger
}

// NewOpenAIClient builds an OpenAIClient. baseURL may be empty to use the
// default OpenAI endpoint.
func NewOpenAIClient(apiKey, model, visionModel, baseURL string, log zerolog.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		visionModel: visionModel,
		log:         log,
	}
}

func (c *OpenAIClient) CompleteText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", wrapErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperror.ParseErr("LLM_EMPTY_RESPONSE", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) CompleteJSON(ctx context.Context, prompt string, out any) error {
	current := prompt
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: current},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
		if err != nil {
			return wrapErr(err)
		}
		if len(resp.Choices) == 0 {
			lastErr = apperror.ParseErr("LLM_EMPTY_RESPONSE", nil)
			continue
		}
		raw := resp.Choices[0].Message.Content
		if err := unmarshalLenient(raw, out); err != nil {
			lastErr = apperror.ParseErr("LLM_INVALID_JSON", err)
			current = correctivePrompt(prompt, raw, err)
			continue
		}
		return nil
	}
	return lastErr
}

func (c *OpenAIClient) CompleteVisionJSON(ctx context.Context, prompt string, images []Image, out any) error {
	temperature := float32(0)
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		content := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
		for _, img := range images {
			content = append(content, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", img.ContentType, img.Base64),
				},
			})
		}
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.visionModel,
			Temperature: temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, MultiContent: content},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
		if err != nil {
			return wrapErr(err)
		}
		if len(resp.Choices) == 0 {
			lastErr = apperror.ParseErr("LLM_EMPTY_RESPONSE", nil)
			temperature = bumpTemperature(temperature)
			continue
		}
		raw := resp.Choices[0].Message.Content
		if err := unmarshalLenient(raw, out); err != nil {
			lastErr = apperror.ParseErr("LLM_INVALID_JSON", err)
			temperature = bumpTemperature(temperature)
			continue
		}
		return nil
	}
	return lastErr
}

func bumpTemperature(t float32) float32 {
	next := t + visionTemperatureStep
	if next > visionTemperatureCap {
		return visionTemperatureCap
	}
	return next
}

func correctivePrompt(original, badOutput string, parseErr error) string {
	return fmt.Sprintf(
		"%s\n\nYour previous response could not be parsed as JSON (%v):\n%s\n\nRespond again with ONLY valid JSON, no markdown fences.",
		original, parseErr, badOutput,
	)
}

func wrapErr(err error) error {
	var apiErr *openai.APIError
	if ok := asAPIError(err, &apiErr); ok {
		switch {
		case apiErr.HTTPStatusCode == 429, apiErr.HTTPStatusCode >= 500:
			return apperror.Transient("LLM_UPSTREAM_ERROR", err)
		}
	}
	return apperror.Transient("LLM_REQUEST_FAILED", err)
}

func asAPIError(err error, target **openai.APIError) bool {
	apiErr, ok := err.(*openai.APIError)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}
