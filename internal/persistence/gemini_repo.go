package persistence

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/felixbrock/promptenhancer/internal/domain"
)

const DefaultGeminiModel = "gemini-2.0-flash-001"

type GeminiRepo struct {
	BaseUrl string
	Model   string
	Client  *http.Client
}

func NewGeminiRepo(baseUrl string, model string) GeminiRepo {
	if model == "" {
		model = DefaultGeminiModel
	}

	return GeminiRepo{BaseUrl: baseUrl, Model: model, Client: &http.Client{Timeout: defaultTimeout}}
}

func (r GeminiRepo) Name() string {
	return "gemini"
}

func (r GeminiRepo) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      req.Credential,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  r.Client,
		HTTPOptions: genai.HTTPOptions{BaseURL: r.BaseUrl},
	})
	if err != nil {
		return "", fmt.Errorf("creating genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content

	for _, m := range req.Messages {
		part := &genai.Part{Text: m.Content}
		switch m.Role {
		case domain.RoleSystem:
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{part}}
		default:
			contents = append(contents, &genai.Content{Role: domain.RoleUser, Parts: []*genai.Part{part}})
		}
	}

	resp, err := client.Models.GenerateContent(ctx, r.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		if fb.BlockReasonMessage != "" {
			return "", fmt.Errorf("gemini: prompt blocked (%s): %s", fb.BlockReason, fb.BlockReasonMessage)
		}
		return "", fmt.Errorf("gemini: prompt blocked (%s)", fb.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates returned")
	}

	text := resp.Text()
	if reason := resp.Candidates[0].FinishReason; text == "" && reason != "" && reason != genai.FinishReasonStop {
		return "", fmt.Errorf("gemini: no text returned (finish reason %s)", reason)
	}

	return text, nil
}
