// Package gemini adapts the Gemini API to the executor contract, under the
// provider identifier "gemini".
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/executor"
)

const providerName = "gemini"

const defaultModel = "gemini-2.0-flash"

type Executor struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey string, model string) (*Executor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("missing gemini api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &Executor{client: client, model: model}, nil
}

func (e *Executor) Name() string { return providerName }

func (e *Executor) Invoke(ctx context.Context, history []entity.Message, input string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := "user"
		if m.Role == entity.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(content)},
		})
	}
	if strings.TrimSpace(input) != "" {
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(strings.TrimSpace(input))},
		})
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", executor.Fail(providerName, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", executor.Fail(providerName, errors.New("empty response"))
	}
	return text, nil
}
