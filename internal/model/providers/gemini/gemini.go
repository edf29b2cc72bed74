package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/model/contract"

	"google.golang.org/genai"
)

const (
	providerName          = "gemini"
	defaultEmbeddingModel = "text-embedding-004"
)

type Provider struct {
	client *genai.Client
}

func New(apiKey, baseURL string) (*Provider, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		tools, err := toTools(req.Tools)
		if err != nil {
			return nil, err
		}
		config.Tools = tools
		if req.ToolChoice == contract.ToolChoiceAuto {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
			}
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, toContents(req.Messages), config)
	if err != nil {
		return nil, classify(err)
	}

	out := &contract.CompletionResponse{StopReason: contract.StopText}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, nil
	}

	for i, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, lecternErrors.InvalidModelOutput(fmt.Sprintf("function call %s args: %v", part.FunctionCall.Name, err))
			}
			if part.FunctionCall.Args == nil {
				args = []byte(`{}`)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("%s_%d", part.FunctionCall.Name, i)
			}
			out.Content = append(out.Content, contract.ToolUseBlock{ID: id, Name: part.FunctionCall.Name, Input: args})
			out.StopReason = contract.StopToolUse
		case part.Text != "":
			out.Content = append(out.Content, contract.TextBlock{Text: part.Text})
		}
	}

	return out, nil
}

func (p *Provider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if model == "" {
		model = defaultEmbeddingModel
	}
	resp, err := p.client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
	if err != nil {
		return nil, classify(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embedding returned empty result")
	}

	return resp.Embeddings[0].Values, nil
}

func toContents(messages []contract.Message) []*genai.Content {
	names := make(map[string]string)
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		role := "user"
		if m.Role == contract.RoleAssistant {
			role = "model"
		}

		content := &genai.Content{Role: role}
		for _, block := range m.Content {
			switch b := block.(type) {
			case contract.TextBlock:
				content.Parts = append(content.Parts, &genai.Part{Text: b.Text})
			case contract.ToolUseBlock:
				names[b.ID] = b.Name
				var args map[string]any
				_ = json.Unmarshal(b.Input, &args)
				content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: b.ID, Name: b.Name, Args: args}})
			case contract.ToolResultBlock:
				key := "output"
				if b.IsError {
					key = "error"
				}
				content.Parts = append(content.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       b.ToolUseID,
					Name:     names[b.ToolUseID],
					Response: map[string]any{key: b.Content},
				}})
			}
		}
		contents = append(contents, content)
	}
	return contents
}

func toTools(defs []contract.ToolDef) ([]*genai.Tool, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, t := range defs {
		raw, err := json.Marshal(t.InputSchema.JSONSchema())
		if err != nil {
			return nil, err
		}
		var schema genai.Schema
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("tool %s schema: %w", t.Name, err)
		}
		decls = append(decls, &genai.FunctionDeclaration{Name: t.Name, Description: t.Description, Parameters: &schema})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return lecternErrors.Transport(lecternErrors.KindFromStatus(apiErr.Code), providerName, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return lecternErrors.Transport(lecternErrors.KindFromStatus(apiErrPtr.Code), providerName, apiErrPtr.Code, err)
	}
	return lecternErrors.Transport(lecternErrors.KindAPI, providerName, 0, err)
}
