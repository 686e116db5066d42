package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
	"github.com/ccastromar/cso-chat-orchestrator/internal/predict"
	"github.com/ccastromar/cso-chat-orchestrator/internal/stats"
	"github.com/ccastromar/cso-chat-orchestrator/internal/tools"
	"github.com/ccastromar/cso-chat-orchestrator/internal/ui"
)

// scriptedClient replays canned assistant messages and records every request.
type scriptedClient struct {
	responses []*llm.ChatMessage
	calls     [][]llm.ChatMessage
	err       error
}

func (c *scriptedClient) Ping(ctx context.Context) error { return nil }

func (c *scriptedClient) ChatTools(ctx context.Context, messages []llm.ChatMessage, defs []llm.ToolDef) (*llm.ChatMessage, error) {
	cp := make([]llm.ChatMessage, len(messages))
	copy(cp, messages)
	c.calls = append(c.calls, cp)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.calls) > len(c.responses) {
		return nil, errors.New("script exhausted")
	}
	return c.responses[len(c.calls)-1], nil
}

var _ llm.Client = (*scriptedClient)(nil)

func testPrompts() Prompts {
	return Prompts{System: "system prompt", Developer: "developer prompt"}
}

func newTestOrchestrator(client llm.Client, maxTurns int) *Orchestrator {
	registry := tools.NewRegistry(
		predict.NewWithScorer(nil),
		stats.NewFromMap(map[string]any{"satisfaction_rate": 0.55}),
	)
	return NewOrchestrator(client, registry, testPrompts(), maxTurns, ui.NewStore())
}

func toolCallMsg(id, name, args string) *llm.ChatMessage {
	return &llm.ChatMessage{
		Role: "assistant",
		ToolCalls: []llm.ToolCall{
			{ID: id, Type: "function", Function: llm.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func TestRun_ToolCallResolvedBeforeNextLLMCall(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatMessage{
		toolCallMsg("call-1", tools.ToolGetStat, `{"key":"satisfaction_rate"}`),
		{Role: "assistant", Content: `{"intent":"stat","answer_md":"54.67%"}`},
	}}

	res, err := newTestOrchestrator(client, 8).Run(context.Background(), "t1", "what is the satisfaction rate?")
	require.NoError(t, err)
	require.Equal(t, "stat", res.Intent)
	require.Equal(t, "54.67%", res.AnswerMD)

	// second LLM call must carry exactly one tool message answering call-1
	require.Len(t, client.calls, 2)
	second := client.calls[1]

	var toolMsgs []llm.ChatMessage
	for _, m := range second {
		if m.Role == "tool" {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 1)
	require.Equal(t, "call-1", toolMsgs[0].ToolCallID)
	require.Equal(t, tools.ToolGetStat, toolMsgs[0].Name)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolMsgs[0].Content), &payload))
	require.Equal(t, true, payload["found"])
	require.Equal(t, 0.55, payload["value"])

	// the assistant's tool-call message precedes the tool result
	require.Equal(t, "assistant", second[len(second)-2].Role)
	require.Len(t, second[len(second)-2].ToolCalls, 1)

	// the action log mirrors the dispatch
	require.Len(t, res.ActionsResult, 1)
	require.Equal(t, tools.ToolGetStat, res.ActionsResult[0].Tool)
}

func TestRun_SeedsSystemDeveloperUser(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatMessage{
		{Role: "assistant", Content: "hi"},
	}}

	_, err := newTestOrchestrator(client, 8).Run(context.Background(), "t2", "hello")
	require.NoError(t, err)

	first := client.calls[0]
	require.Len(t, first, 3)
	require.Equal(t, "system", first[0].Role)
	require.Equal(t, "system prompt", first[0].Content)
	require.Equal(t, "developer", first[1].Role)
	require.Equal(t, "user", first[2].Role)
	require.Equal(t, "hello", first[2].Content)
}

func TestRun_NullContentIsEmptyAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatMessage{
		{Role: "assistant"}, // content absent (null on the wire)
	}}

	res, err := newTestOrchestrator(client, 8).Run(context.Background(), "t3", "hello")
	require.NoError(t, err)
	require.Equal(t, "answer", res.Intent)
	require.Equal(t, "", res.AnswerMD)
	require.Empty(t, res.ActionsResult)
}

func TestRun_PlainTextFallsBackToAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatMessage{
		{Role: "assistant", Content: "Just regular markdown, no JSON."},
	}}

	res, err := newTestOrchestrator(client, 8).Run(context.Background(), "t4", "hello")
	require.NoError(t, err)
	require.Equal(t, "answer", res.Intent)
	require.Equal(t, "Just regular markdown, no JSON.", res.AnswerMD)
}

func TestRun_FencedJSONIsParsed(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatMessage{
		{Role: "assistant", Content: "```json\n{\"intent\":\"predict\",\"answer_md\":\"**Satisfied**\"}\n```"},
	}}

	res, err := newTestOrchestrator(client, 8).Run(context.Background(), "t5", "hello")
	require.NoError(t, err)
	require.Equal(t, "predict", res.Intent)
	require.Equal(t, "**Satisfied**", res.AnswerMD)
}

func TestRun_UnknownToolKeepsLoopAlive(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatMessage{
		toolCallMsg("call-9", "no_such_tool", `{}`),
		{Role: "assistant", Content: `{"intent":"answer","answer_md":"sorry"}`},
	}}

	res, err := newTestOrchestrator(client, 8).Run(context.Background(), "t6", "hello")
	require.NoError(t, err)
	require.Equal(t, "sorry", res.AnswerMD)
	require.Len(t, res.ActionsResult, 1)
	require.Contains(t, res.ActionsResult[0].Result["error"], "unknown tool")
}

func TestRun_TurnsExhausted(t *testing.T) {
	// the model never stops asking for tools
	loop := toolCallMsg("call-x", tools.ToolGetStat, `{"key":"satisfaction_rate"}`)
	client := &scriptedClient{responses: []*llm.ChatMessage{loop, loop, loop}}

	_, err := newTestOrchestrator(client, 3).Run(context.Background(), "t7", "hello")
	require.ErrorIs(t, err, ErrTurnsExhausted)
	require.Len(t, client.calls, 3)
}

func TestRun_LLMErrorPropagates(t *testing.T) {
	client := &scriptedClient{err: errors.New("boom")}

	_, err := newTestOrchestrator(client, 8).Run(context.Background(), "t8", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestParseFinal_JSONObjectDefaults(t *testing.T) {
	intent, answer := parseFinal(`{"something":"else"}`)
	require.Equal(t, "answer", intent)
	require.Equal(t, "", answer)

	intent, answer = parseFinal(`{"intent":"stat"}`)
	require.Equal(t, "stat", intent)
	require.Equal(t, "", answer)
}
