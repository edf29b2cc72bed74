package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/logger"
	"github.com/harunnryd/lectern/internal/model"
	"github.com/harunnryd/lectern/internal/model/contract"
	"github.com/harunnryd/lectern/internal/tool"
)

// DefaultSystemPrompt instructs the model on tool use and answer style.
const DefaultSystemPrompt = `You are an assistant for course materials and educational content, with tools for looking up course information.

Available tools:
- search_course_content: search within course materials for specific content
- get_course_outline: get a course outline with its title, link and complete lesson list

Tool usage:
- Use search_course_content for questions about specific topics or lessons
- Use get_course_outline for questions about course structure or lesson lists
- You may make up to 2 rounds of tool calls, gathering information first and refining after
- Synthesize tool results into accurate, fact-based answers
- If tools return no results, say so plainly without offering alternatives

Outline answers:
- Return get_course_outline output exactly as formatted, without summaries or additions

Response protocol:
- General knowledge questions: answer from existing knowledge without tools
- Course outline questions: use get_course_outline first
- Course content questions: use search_course_content first, then synthesize
- Give direct answers only. Do not describe your reasoning or the tools, and do not say "based on the search results"

Keep answers brief, educational and clear, with examples where they help.`

// ToolDispatcher executes tool invocations requested by the model.
type ToolDispatcher interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (tool.Result, error)
}

// Generator drives the bounded, tool-augmented completion loop.
type Generator struct {
	completer model.Completer
	cfg       config.GenerationConfig
	model     string
}

func NewGenerator(completer model.Completer, cfg config.GenerationConfig, modelName string) *Generator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = config.DefaultGenerationMaxToolRounds
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = config.DefaultGenerationMaxTokens
	}
	if strings.TrimSpace(cfg.FallbackAnswer) == "" {
		cfg.FallbackAnswer = config.DefaultGenerationFallbackAnswer
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Generator{completer: completer, cfg: cfg, model: modelName}
}

// Generate answers query, letting the model call tools for at most
// MaxToolRounds rounds. A pass-through tool result is returned verbatim.
// Completion service errors are returned unchanged.
func (g *Generator) Generate(ctx context.Context, query string, history string, tools []contract.ToolDef, dispatcher ToolDispatcher) (string, error) {
	traceID := logger.GetTraceID(ctx)

	system := g.cfg.SystemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}
	if dispatcher == nil {
		tools = nil
	}

	messages := []contract.Message{contract.UserText(query)}

	for round := 1; round <= g.cfg.MaxToolRounds; round++ {
		resp, err := g.completer.Complete(ctx, g.request(system, messages, tools))
		if err != nil {
			return "", err
		}

		uses := resp.ToolUses()
		if resp.StopReason != contract.StopToolUse || len(uses) == 0 || dispatcher == nil {
			return g.answer(resp), nil
		}

		slog.Info("Model requested tools", "round", round, "count", len(uses), "trace_id", traceID)
		messages = append(messages, contract.Message{Role: contract.RoleAssistant, Content: resp.Content})

		results, direct, failed := g.executeRound(ctx, uses, dispatcher)
		messages = append(messages, contract.Message{Role: contract.RoleUser, Content: results})

		if direct != nil {
			slog.Info("Returning pass-through tool output", "round", round, "trace_id", traceID)
			return *direct, nil
		}
		if failed {
			slog.Warn("Tool round had failures, stopping tool use", "round", round, "trace_id", traceID)
			break
		}
	}

	resp, err := g.completer.Complete(ctx, g.request(system, messages, nil))
	if err != nil {
		return "", err
	}
	return g.answer(resp), nil
}

// executeRound runs every invocation before any branching so each one gets
// a matching result block.
func (g *Generator) executeRound(ctx context.Context, uses []contract.ToolUseBlock, dispatcher ToolDispatcher) ([]contract.Block, *string, bool) {
	results := make([]contract.Block, 0, len(uses))
	var direct *string
	failed := false

	for _, use := range uses {
		res, err := dispatcher.Execute(ctx, use.Name, use.Input)
		if err != nil {
			res = tool.Failure(err)
		}

		results = append(results, contract.ToolResultBlock{
			ToolUseID: use.ID,
			Content:   res.Content,
			IsError:   res.IsError,
		})

		if res.IsError {
			failed = true
		}
		if direct == nil && res.PassThrough() {
			content := res.Content
			direct = &content
		}
	}
	return results, direct, failed
}

func (g *Generator) request(system string, messages []contract.Message, tools []contract.ToolDef) contract.CompletionRequest {
	req := contract.CompletionRequest{
		Model:       g.model,
		System:      system,
		Messages:    append([]contract.Message(nil), messages...),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = contract.ToolChoiceAuto
	}
	return req
}

func (g *Generator) answer(resp *contract.CompletionResponse) string {
	text, ok := resp.FirstText()
	if !ok || strings.TrimSpace(text) == "" {
		return g.cfg.FallbackAnswer
	}
	return text
}
