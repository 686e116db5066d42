package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ccastromar/cso-chat-orchestrator/internal/guard"
	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
	"github.com/ccastromar/cso-chat-orchestrator/internal/logx"
	"github.com/ccastromar/cso-chat-orchestrator/internal/metrics"
	"github.com/ccastromar/cso-chat-orchestrator/internal/predict"
	"github.com/ccastromar/cso-chat-orchestrator/internal/stats"
)

// Registry maps tool names to their local handlers. Every dispatch produces a
// structured result payload; failures come back inside it, never as a Go
// error, so the conversation loop always has something to hand the model.
type Registry struct {
	predictor *predict.Predictor
	stats     *stats.Store
}

func NewRegistry(p *predict.Predictor, s *stats.Store) *Registry {
	return &Registry{
		predictor: p,
		stats:     s,
	}
}

// Schemas returns the tool definitions for the chat request.
func (r *Registry) Schemas() []llm.ToolDef {
	return Schemas()
}

// Dispatch runs the named tool with its raw JSON arguments.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) map[string]any {
	switch name {
	case ToolGetStat:
		return r.dispatchGetStat(rawArgs)
	case ToolPredictCustomer:
		return r.dispatchPredict(ctx, rawArgs)
	default:
		metrics.ToolCalls.Inc(map[string]string{"tool": name, "outcome": "unknown"})
		logx.Warn("Agent", "unknown tool requested: %s", name)
		return map[string]any{"error": fmt.Sprintf("unknown tool %s", name)}
	}
}

func (r *Registry) dispatchGetStat(rawArgs json.RawMessage) map[string]any {
	var args struct {
		Key string `json:"key"`
	}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			metrics.ToolCalls.Inc(map[string]string{"tool": ToolGetStat, "outcome": "invalid"})
			return map[string]any{"error": fmt.Sprintf("invalid arguments: %v", err)}
		}
	}

	value, found := r.stats.Lookup(args.Key)
	out := map[string]any{
		"key":   args.Key,
		"found": found,
	}
	if found {
		out["value"] = value
	}
	metrics.ToolCalls.Inc(map[string]string{"tool": ToolGetStat, "outcome": "ok"})
	return out
}

func (r *Registry) dispatchPredict(ctx context.Context, rawArgs json.RawMessage) map[string]any {
	features, err := predict.ParseFeatures(rawArgs)
	if err != nil {
		metrics.ToolCalls.Inc(map[string]string{"tool": ToolPredictCustomer, "outcome": "invalid"})
		return map[string]any{"error": fmt.Sprintf("invalid payload: %v", err)}
	}
	if err := guard.ValidateFeatures(features); err != nil {
		metrics.ToolCalls.Inc(map[string]string{"tool": ToolPredictCustomer, "outcome": "invalid"})
		return map[string]any{"error": fmt.Sprintf("invalid payload: %v", err)}
	}

	metrics.ToolCalls.Inc(map[string]string{"tool": ToolPredictCustomer, "outcome": "ok"})
	return r.predictor.Predict(ctx, features)
}
