package llm

import "context"

// ChatMessage is one entry of the conversation sent to (and received from)
// the chat-completions API. A JSON null content decodes to the empty string.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a structured request from the model to run a local function.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDef describes one callable function to the model.
type ToolDef struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Client interface {
	Ping(ctx context.Context) error
	// ChatTools sends the accumulated messages plus the tool schemas and
	// returns the assistant message: either final content or tool calls.
	ChatTools(ctx context.Context, messages []ChatMessage, tools []ToolDef) (*ChatMessage, error)
}
