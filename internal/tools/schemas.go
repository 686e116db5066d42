package tools

import (
	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
)

// Tool names as exposed to the model.
const (
	ToolPredictCustomer = "predict_customer"
	ToolGetStat         = "get_stat"
)

func intProp() map[string]any    { return map[string]any{"type": "integer"} }
func numberProp() map[string]any { return map[string]any{"type": "number"} }
func stringProp() map[string]any { return map[string]any{"type": "string"} }

func enumProp(values ...string) map[string]any {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return map[string]any{"type": "string", "enum": vs}
}

// Schemas returns the function definitions handed to the model on every turn.
func Schemas() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolPredictCustomer,
				Description: "Predict customer satisfaction using the scoring endpoint (or the local heuristic).",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"Age":            intProp(),
						"Gender":         enumProp("Male", "Female"),
						"TravelCategory": enumProp("Business", "Personal"),
						"TravelClass":    enumProp("Economy", "Economy Plus", "Business"),
						"Distance":       numberProp(),
						"DepDelay":       numberProp(),
						"ArrDelay":       numberProp(),
						"SeatComfort":    intProp(),
						"Food":           intProp(),
						"Entertainment":  intProp(),
						"LegRoom":        intProp(),
						"Cleanliness":    intProp(),
						"Luggage":        intProp(),
						"BoardingPoint":  stringProp(),
					},
					"required": []any{
						"Age", "Gender", "TravelCategory", "TravelClass", "Distance",
						"DepDelay", "ArrDelay", "SeatComfort", "Food", "Entertainment",
						"LegRoom", "Cleanliness", "Luggage", "BoardingPoint",
					},
					"additionalProperties": false,
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolGetStat,
				Description: "Return a precomputed statistic by key from the stats store.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"key": stringProp(),
					},
					"required":             []any{"key"},
					"additionalProperties": false,
				},
			},
		},
	}
}
