package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/model/contract"

	"github.com/sashabaranov/go-openai"
)

// Provider speaks the OpenAI chat completions API, which Ollama also serves.
type Provider struct {
	client *openai.Client
	name   string
}

func New(apiKey, baseURL, name string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if name == "" {
		name = "openai"
	}

	return &Provider{client: openai.NewClientWithConfig(cfg), name: name}
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toMessages(req.System, req.Messages),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toTools(req.Tools)
		if req.ToolChoice == contract.ToolChoiceAuto {
			chatReq.ToolChoice = "auto"
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return &contract.CompletionResponse{StopReason: contract.StopText}, nil
	}

	choice := resp.Choices[0]
	out := &contract.CompletionResponse{StopReason: contract.StopText}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, contract.TextBlock{Text: choice.Message.Content})
	}

	for i, tc := range choice.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i+1)
		}
		out.Content = append(out.Content, contract.ToolUseBlock{
			ID:    id,
			Name:  tc.Function.Name,
			Input: toolInput(tc.Function.Arguments),
		})
	}
	if choice.FinishReason == openai.FinishReasonToolCalls || len(choice.Message.ToolCalls) > 0 {
		out.StopReason = contract.StopToolUse
	}

	return out, nil
}

func (p *Provider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

func toMessages(system string, in []contract.Message) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}

	for _, m := range in {
		var text []string
		var calls []openai.ToolCall
		var results []openai.ChatCompletionMessage

		for _, block := range m.Content {
			switch b := block.(type) {
			case contract.TextBlock:
				text = append(text, b.Text)
			case contract.ToolUseBlock:
				calls = append(calls, openai.ToolCall{
					ID:   b.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.Name,
						Arguments: string(b.Input),
					},
				})
			case contract.ToolResultBlock:
				content := b.Content
				if b.IsError {
					content = "Error: " + content
				}
				results = append(results, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    content,
					ToolCallID: b.ToolUseID,
				})
			}
		}

		if m.Role == contract.RoleAssistant {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   strings.Join(text, "\n"),
				ToolCalls: calls,
			})
			continue
		}

		// Tool results must directly follow the assistant turn that requested them.
		messages = append(messages, results...)
		if len(text) > 0 {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: strings.Join(text, "\n"),
			})
		}
	}
	return messages
}

func toTools(defs []contract.ToolDef) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, t := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema.JSONSchema(),
			},
		})
	}
	return tools
}

// toolInput keeps malformed arguments as a JSON string so schema validation rejects them.
func toolInput(arguments string) json.RawMessage {
	if strings.TrimSpace(arguments) == "" {
		return json.RawMessage(`{}`)
	}
	if json.Valid([]byte(arguments)) {
		return json.RawMessage(arguments)
	}
	return json.RawMessage(strconv.Quote(arguments))
}

func (p *Provider) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return lecternErrors.Transport(lecternErrors.KindFromStatus(apiErr.HTTPStatusCode), p.name, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return lecternErrors.Transport(lecternErrors.KindFromStatus(reqErr.HTTPStatusCode), p.name, reqErr.HTTPStatusCode, err)
	}
	return lecternErrors.Transport(lecternErrors.KindAPI, p.name, 0, err)
}
