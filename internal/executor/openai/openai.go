// Package openai adapts the OpenAI Chat Completions API to the executor
// contract, under the provider identifier "codex".
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/executor"
)

const providerName = "codex"

const defaultModel = "gpt-4o"

type Executor struct {
	client openai.Client
	model  string
}

func New(apiKey string, baseURL string, model string) (*Executor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("missing openai api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &Executor{client: openai.NewClient(opts...), model: model}, nil
}

func (e *Executor) Name() string { return providerName }

func (e *Executor) Invoke(ctx context.Context, history []entity.Message, input string) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if m.Role == entity.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(content))
		} else {
			msgs = append(msgs, openai.UserMessage(content))
		}
	}
	if strings.TrimSpace(input) != "" {
		msgs = append(msgs, openai.UserMessage(strings.TrimSpace(input)))
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.model),
		Messages: msgs,
	})
	if err != nil {
		return "", executor.Fail(providerName, err)
	}
	if len(resp.Choices) == 0 {
		return "", executor.Fail(providerName, errors.New("empty response"))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", executor.Fail(providerName, errors.New("empty response"))
	}
	return text, nil
}
