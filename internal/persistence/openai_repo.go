package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixbrock/promptenhancer/internal/domain"
)

const (
	DefaultOpenAIModel   = "gpt-4"
	DefaultOpenAIBaseUrl = "https://api.openai.com/v1"

	defaultTimeout = 120 * time.Second
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionResponse struct {
	Id      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

type OpenAIRepo struct {
	BaseUrl string
	Model   string
	Client  *http.Client
}

func NewOpenAIRepo(baseUrl string, model string) OpenAIRepo {
	if baseUrl == "" {
		baseUrl = DefaultOpenAIBaseUrl
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	return OpenAIRepo{BaseUrl: baseUrl, Model: model, Client: &http.Client{Timeout: defaultTimeout}}
}

func (r OpenAIRepo) Name() string {
	return "openai"
}

func (r OpenAIRepo) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	msgs := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(chatCompletionRequest{Model: r.Model, Messages: msgs})

	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := request[chatCompletionResponse](ctx, r.Client, reqConfig{
		Method: "POST",
		Url:    fmt.Sprintf("%s/chat/completions", r.BaseUrl),
		Headers: []string{
			"Content-Type:application/json",
			fmt.Sprintf("Authorization:Bearer %s", req.Credential)},
		Body: body},
		200)

	if err != nil {
		var sErr *StatusError
		if errors.As(err, &sErr) {
			return "", openAIError(sErr)
		}
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		if choice.Message.Refusal != "" {
			return "", fmt.Errorf("openai refused: %s", choice.Message.Refusal)
		}
		if choice.FinishReason == "content_filter" {
			return "", errors.New("openai error: response blocked by content filter")
		}
	}

	return choice.Message.Content, nil
}

func openAIError(sErr *StatusError) error {
	errResp, err := ReadJSON[openAIErrorResponse](sErr.Body)
	if err != nil || errResp == nil || errResp.Error.Message == "" {
		return fmt.Errorf("openai error: status %d", sErr.Code)
	}

	return fmt.Errorf("openai error (%d): %s", sErr.Code, errResp.Error.Message)
}
