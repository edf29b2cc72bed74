package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/model/contract"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const providerName = "anthropic"

type Provider struct {
	client anthropic.Client
}

// New creates an Anthropic provider. The SDK's own retry loop is disabled.
func New(apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{client: anthropic.NewClient(opts...)}
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    toMessages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
		if req.ToolChoice == contract.ToolChoiceAuto {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	resp := &contract.CompletionResponse{StopReason: contract.StopText}
	if msg.StopReason == anthropic.StopReasonToolUse {
		resp.StopReason = contract.StopToolUse
	}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, contract.TextBlock{Text: b.Text})
		case anthropic.ToolUseBlock:
			input, err := json.Marshal(b.Input)
			if err != nil {
				return nil, lecternErrors.InvalidModelOutput(fmt.Sprintf("tool_use %s input: %v", b.ID, err))
			}
			resp.Content = append(resp.Content, contract.ToolUseBlock{
				ID:    b.ID,
				Name:  b.Name,
				Input: input,
			})
		}
	}

	return resp, nil
}

func (p *Provider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding not supported by anthropic provider")
}

func toMessages(in []contract.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(in))
	for _, m := range in {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, block := range m.Content {
			switch b := block.(type) {
			case contract.TextBlock:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case contract.ToolUseBlock:
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
			case contract.ToolResultBlock:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			}
		}

		if m.Role == contract.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}
	return messages
}

func toTools(defs []contract.ToolDef) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		schema := t.InputSchema.JSONSchema()
		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   t.InputSchema.Required,
			},
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return lecternErrors.Transport(lecternErrors.KindFromStatus(apiErr.StatusCode), providerName, apiErr.StatusCode, err)
	}
	return lecternErrors.Transport(lecternErrors.KindAPI, providerName, 0, err)
}
