package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
	"github.com/ccastromar/cso-chat-orchestrator/internal/logx"
	"github.com/ccastromar/cso-chat-orchestrator/internal/tools"
	"github.com/ccastromar/cso-chat-orchestrator/internal/ui"
)

// ErrTurnsExhausted means the model kept requesting tools past the turn cap.
var ErrTurnsExhausted = errors.New("conversation turns exhausted")

// ActionResult is one entry of the action log: which tool ran and what it
// returned, in execution order.
type ActionResult struct {
	Tool   string         `json:"tool"`
	Result map[string]any `json:"result"`
}

// ChatResult is what one conversation produces.
type ChatResult struct {
	Intent        string         `json:"intent"`
	AnswerMD      string         `json:"answer_md"`
	ActionsResult []ActionResult `json:"actions_result"`
}

// Orchestrator drives the tool-calling loop: query the model with the
// accumulated messages, execute any requested tools in the order returned,
// feed the results back, and repeat until the model answers in plain content.
type Orchestrator struct {
	llm      llm.Client
	registry *tools.Registry
	prompts  Prompts
	maxTurns int
	uiStore  *ui.Store
}

func NewOrchestrator(client llm.Client, registry *tools.Registry, prompts Prompts, maxTurns int, store *ui.Store) *Orchestrator {
	if maxTurns <= 0 {
		maxTurns = 8
	}
	return &Orchestrator{
		llm:      client,
		registry: registry,
		prompts:  prompts,
		maxTurns: maxTurns,
		uiStore:  store,
	}
}

// Run executes one conversation for the given user message. Every tool call
// the model emits is answered with exactly one tool message carrying the same
// call id before the next model call.
func (o *Orchestrator) Run(ctx context.Context, id, message string) (*ChatResult, error) {
	messages := []llm.ChatMessage{
		{Role: "system", Content: o.prompts.System},
		{Role: "developer", Content: o.prompts.Developer},
		{Role: "user", Content: message},
	}

	actions := []ActionResult{}
	toolDefs := o.registry.Schemas()

	for turn := 1; turn <= o.maxTurns; turn++ {
		timer := logx.Start(id, "Agent", fmt.Sprintf("ChatTurn%d", turn))
		msg, err := o.llm.ChatTools(ctx, messages, toolDefs)
		timer.End()
		if err != nil {
			return nil, fmt.Errorf("llm call: %w", err)
		}

		if len(msg.ToolCalls) == 0 {
			// Final assistant content. A missing/null content is a valid
			// empty answer, not a failure.
			intent, answerMD := parseFinal(msg.Content)
			o.uiStore.AddEvent(id, "Agent", "answer", intent, "")
			logx.L(id, "Agent", "final answer intent=%s after %d turn(s), %d action(s)", intent, turn, len(actions))
			return &ChatResult{
				Intent:        intent,
				AnswerMD:      answerMD,
				ActionsResult: actions,
			}, nil
		}

		// Echo the assistant's tool-call message, then resolve each call in
		// the order the model returned them.
		messages = append(messages, llm.ChatMessage{
			Role:      "assistant",
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})

		for _, tc := range msg.ToolCalls {
			name := tc.Function.Name
			rawArgs := json.RawMessage(tc.Function.Arguments)
			if len(strings.TrimSpace(tc.Function.Arguments)) == 0 {
				rawArgs = json.RawMessage("{}")
			}

			t := logx.Start(id, "Agent", "Tool:"+name)
			result := o.registry.Dispatch(ctx, name, rawArgs)
			t.End()

			actions = append(actions, ActionResult{Tool: name, Result: result})
			o.uiStore.AddEvent(id, "Agent", "tool", name, "")

			content, err := json.Marshal(result)
			if err != nil {
				content = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
			}
			messages = append(messages, llm.ChatMessage{
				Role:       "tool",
				Name:       name,
				ToolCallID: tc.ID,
				Content:    string(content),
			})
		}
	}

	logx.Error("Agent", "id=%s gave up after %d turns with pending tool requests", id, o.maxTurns)
	return nil, ErrTurnsExhausted
}

// parseFinal extracts {intent, answer_md} from the final content when it is a
// JSON object, falling back to the raw text as the markdown answer.
func parseFinal(content string) (intent, answerMD string) {
	if strings.TrimSpace(content) == "" {
		return "answer", ""
	}

	var plan map[string]any
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		// second chance: models like to wrap JSON in code fences
		clean := sanitizeLLMOutput(content)
		if err := json.Unmarshal([]byte(clean), &plan); err != nil {
			return "answer", content
		}
	}
	if plan == nil {
		return "answer", content
	}

	intent = "answer"
	if v, ok := plan["intent"].(string); ok && v != "" {
		intent = v
	}
	if v, ok := plan["answer_md"].(string); ok {
		answerMD = v
	}
	return intent, answerMD
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

// sanitizeLLMOutput strips code fences and curly quotes, then pulls the first
// JSON object out of the text.
func sanitizeLLMOutput(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) > 1 {
			s = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	if match := jsonObjectRe.FindString(s); match != "" {
		s = match
	}

	s = strings.ReplaceAll(s, "“", "\"")
	s = strings.ReplaceAll(s, "”", "\"")
	s = strings.ReplaceAll(s, "‘", "'")
	s = strings.ReplaceAll(s, "’", "'")

	return strings.TrimSpace(s)
}
