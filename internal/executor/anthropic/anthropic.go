// Package anthropic adapts the Anthropic Messages API to the executor
// contract, under the provider identifier "claude".
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/executor"
)

const providerName = "claude"

const defaultModel = "claude-sonnet-4-5"

type Executor struct {
	client anthropic.Client
	model  string
}

func New(apiKey string, baseURL string, model string) (*Executor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("missing anthropic api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &Executor{client: anthropic.NewClient(opts...), model: model}, nil
}

func (e *Executor) Name() string { return providerName }

func (e *Executor) Invoke(ctx context.Context, history []entity.Message, input string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 4096,
		Messages:  buildMessages(history, input),
	}
	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return "", executor.Fail(providerName, err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", executor.Fail(providerName, errors.New("empty response"))
	}
	return text, nil
}

func buildMessages(history []entity.Message, input string) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if m.Role == entity.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		} else {
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		}
	}
	if strings.TrimSpace(input) != "" {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(strings.TrimSpace(input))))
	}
	return out
}
