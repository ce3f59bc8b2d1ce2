package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// GenerationError reports a failed call to the chat model.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("generate: %v", e.Err)
	}
	return fmt.Sprintf("generate with %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

var errNoChoices = errors.New("chat completion returned no choices")

// ChatModel sends a single prompt to a fixed model at a fixed temperature.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

func NewChatModel(client *openai.Client, model string, temperature float64, logger *zap.Logger) *ChatModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		logger:      logger,
	}
}

func (m *ChatModel) Model() string {
	return m.model
}

// Generate blocks until the model answers. Failures are returned as *GenerationError.
func (m *ChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &GenerationError{Model: m.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Model: m.model, Err: errNoChoices}
	}

	m.logger.Debug("chat completion",
		zap.String("model", m.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
