package persistence

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/felixbrock/promptenhancer/internal/domain"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

	anthropicMaxTokens = 4096
)

type AnthropicRepo struct {
	BaseUrl string
	Model   string
	Client  *http.Client
}

func NewAnthropicRepo(baseUrl string, model string) AnthropicRepo {
	if model == "" {
		model = DefaultAnthropicModel
	}

	return AnthropicRepo{BaseUrl: baseUrl, Model: model, Client: &http.Client{Timeout: defaultTimeout}}
}

func (r AnthropicRepo) Name() string {
	return "anthropic"
}

// Generate builds a client per call because the credential belongs to the
// session, not to the process. Retries are disabled.
func (r AnthropicRepo) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(req.Credential),
		option.WithMaxRetries(0),
	}
	if r.BaseUrl != "" {
		opts = append(opts, option.WithBaseURL(r.BaseUrl))
	}
	if r.Client != nil {
		opts = append(opts, option.WithHTTPClient(r.Client))
	}

	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.Model),
		MaxTokens: anthropicMaxTokens,
	}

	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: completion failed: %w", err)
	}

	if msg.StopReason == anthropic.StopReasonRefusal {
		return "", fmt.Errorf("anthropic: request refused (stop reason %s)", msg.StopReason)
	}

	var content strings.Builder
	found := false
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(variant.Text)
			found = true
		}
	}

	if !found {
		return "", fmt.Errorf("anthropic: no text in response (stop reason %s)", msg.StopReason)
	}

	return content.String(), nil
}
