package contract

import "encoding/json"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Block is one piece of message content. The set of implementations is closed.
type Block interface {
	isBlock()
}

type TextBlock struct {
	Text string `json:"text"`
}

type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

func (TextBlock) isBlock()       {}
func (ToolUseBlock) isBlock()    {}
func (ToolResultBlock) isBlock() {}

type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// UserText builds a user message holding a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []Block{TextBlock{Text: text}}}
}

// DeliveryMode tells the orchestrator what to do with a tool's output.
type DeliveryMode string

const (
	// DeliverySynthesize feeds the output back to the model.
	DeliverySynthesize DeliveryMode = "synthesize"
	// DeliveryPassThrough returns the output to the caller verbatim.
	DeliveryPassThrough DeliveryMode = "pass_through"
)

type ToolDef struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema InputSchema  `json:"input_schema"`
	Delivery    DeliveryMode `json:"-"`
}

// PassThrough reports whether the tool output skips synthesis.
func (d ToolDef) PassThrough() bool {
	return d.Delivery == DeliveryPassThrough
}

// InputSchema is the object schema of a tool's named parameters.
type InputSchema struct {
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// JSONSchema renders the schema as a generic JSON schema object.
func (s InputSchema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]interface{}{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[name] = prop
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		required := make([]interface{}, len(s.Required))
		for i, r := range s.Required {
			required[i] = r
		}
		schema["required"] = required
	}
	return schema
}

type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
)

type CompletionRequest struct {
	Model       string     `json:"model"`
	System      string     `json:"system,omitempty"`
	Messages    []Message  `json:"messages"`
	Tools       []ToolDef  `json:"tools,omitempty"`
	ToolChoice  ToolChoice `json:"tool_choice,omitempty"`
	Temperature float64    `json:"temperature"`
	MaxTokens   int        `json:"max_tokens"`
}

type StopReason string

const (
	StopText    StopReason = "text"
	StopToolUse StopReason = "tool_use"
)

type CompletionResponse struct {
	StopReason StopReason `json:"stop_reason"`
	Content    []Block    `json:"content"`
}

// FirstText returns the first text block of the response, if any.
func (r *CompletionResponse) FirstText() (string, bool) {
	if r == nil {
		return "", false
	}
	for _, b := range r.Content {
		if t, ok := b.(TextBlock); ok {
			return t.Text, true
		}
	}
	return "", false
}

// ToolUses returns the tool invocations of the response in model order.
func (r *CompletionResponse) ToolUses() []ToolUseBlock {
	if r == nil {
		return nil
	}
	var uses []ToolUseBlock
	for _, b := range r.Content {
		if u, ok := b.(ToolUseBlock); ok {
			uses = append(uses, u)
		}
	}
	return uses
}
