package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, captured *map[string]interface{}, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/v1/messages", r.URL.Path)
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func searchTool() contract.ToolDef {
	return contract.ToolDef{
		Name:        "search_course_content",
		Description: "Search course materials",
		InputSchema: contract.InputSchema{
			Properties: map[string]contract.Property{
				"query": {Type: "string", Description: "What to search for"},
			},
			Required: []string{"query"},
		},
	}
}

func TestComplete_ToolUseResponse(t *testing.T) {
	var body map[string]interface{}
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [
			{"type": "text", "text": "Let me look that up."},
			{"type": "tool_use", "id": "toolu_1", "name": "search_course_content", "input": {"query": "MCP"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &body, nil)

	p := New("sk-ant-test", srv.URL)
	resp, err := p.Complete(context.Background(), contract.CompletionRequest{
		Model:      "claude-sonnet-4-20250514",
		System:     "You answer course questions.",
		Messages:   []contract.Message{contract.UserText("What is MCP?")},
		Tools:      []contract.ToolDef{searchTool()},
		ToolChoice: contract.ToolChoiceAuto,
		MaxTokens:  800,
	})
	require.NoError(t, err)

	assert.Equal(t, contract.StopToolUse, resp.StopReason)
	text, ok := resp.FirstText()
	require.True(t, ok)
	assert.Equal(t, "Let me look that up.", text)

	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "toolu_1", uses[0].ID)
	assert.Equal(t, "search_course_content", uses[0].Name)
	assert.JSONEq(t, `{"query":"MCP"}`, string(uses[0].Input))

	assert.Equal(t, map[string]interface{}{"type": "auto"}, body["tool_choice"])
	assert.Equal(t, float64(0), body["temperature"])
	assert.Equal(t, float64(800), body["max_tokens"])
	tools, ok := body["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 1)
	schema := tools[0].(map[string]interface{})["input_schema"].(map[string]interface{})
	assert.Equal(t, []interface{}{"query"}, schema["required"])
}

func TestComplete_SendsToolResultsAndOmitsToolsWhenNone(t *testing.T) {
	var body map[string]interface{}
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_2",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [{"type": "text", "text": "MCP is a protocol."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &body, nil)

	p := New("sk-ant-test", srv.URL)
	resp, err := p.Complete(context.Background(), contract.CompletionRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []contract.Message{
			contract.UserText("What is MCP?"),
			{Role: contract.RoleAssistant, Content: []contract.Block{
				contract.ToolUseBlock{ID: "toolu_1", Name: "search_course_content", Input: json.RawMessage(`{"query":"MCP"}`)},
			}},
			{Role: contract.RoleUser, Content: []contract.Block{
				contract.ToolResultBlock{ToolUseID: "toolu_1", Content: "backend down", IsError: true},
			}},
		},
		MaxTokens: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, contract.StopText, resp.StopReason)

	_, hasTools := body["tools"]
	assert.False(t, hasTools)
	_, hasChoice := body["tool_choice"]
	assert.False(t, hasChoice)

	messages := body["messages"].([]interface{})
	require.Len(t, messages, 3)
	last := messages[2].(map[string]interface{})
	assert.Equal(t, "user", last["role"])
	result := last["content"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "tool_result", result["type"])
	assert.Equal(t, "toolu_1", result["tool_use_id"])
	assert.Equal(t, true, result["is_error"])
}

func TestComplete_ClassifiesTransportErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		errType  string
		sentinel error
		kind     lecternErrors.TransportKind
	}{
		{name: "authentication", status: http.StatusUnauthorized, errType: "authentication_error", sentinel: lecternErrors.ErrAuthentication, kind: lecternErrors.KindAuthentication},
		{name: "rate limit", status: http.StatusTooManyRequests, errType: "rate_limit_error", sentinel: lecternErrors.ErrRateLimited, kind: lecternErrors.KindRateLimit},
		{name: "api", status: http.StatusInternalServerError, errType: "api_error", sentinel: lecternErrors.ErrAPI, kind: lecternErrors.KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := newServer(t, tt.status, `{"type":"error","error":{"type":"`+tt.errType+`","message":"nope"}}`, nil, &hits)

			p := New("sk-ant-test", srv.URL)
			_, err := p.Complete(context.Background(), contract.CompletionRequest{
				Model:     "claude-sonnet-4-20250514",
				Messages:  []contract.Message{contract.UserText("hi")},
				MaxTokens: 10,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			te, ok := lecternErrors.IsTransport(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "requests must not be retried")
		})
	}
}

func TestEmbed_Unsupported(t *testing.T) {
	p := New("sk-ant-test", "")
	_, err := p.Embed(context.Background(), "claude", "text")
	assert.ErrorContains(t, err, "embedding not supported")
}
