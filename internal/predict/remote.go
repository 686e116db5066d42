package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ccastromar/cso-chat-orchestrator/internal/logx"
	"github.com/ccastromar/cso-chat-orchestrator/internal/metrics"
)

// bodyShape enumerates the candidate request bodies for the scoring endpoint.
// Deployments differ in what they accept, so each shape is tried in order and
// the first 2xx response with a non-empty body wins.
type bodyShape int

const (
	shapeColumnsData bodyShape = iota // {"input_data":{"columns":[...],"data":[[...]]}}
	shapeNamedInputs                  // {"inputs":[{"name":"input-0","columns":[...],"data":[[...]]}]}
	shapeRawList                      // {"input_data":[<feature map>]}
)

var shapeOrder = []bodyShape{shapeColumnsData, shapeNamedInputs, shapeRawList}

func (s bodyShape) String() string {
	switch s {
	case shapeColumnsData:
		return "columns_data"
	case shapeNamedInputs:
		return "named_inputs"
	case shapeRawList:
		return "raw_list"
	}
	return "unknown"
}

func (s bodyShape) payload(f Features) map[string]any {
	switch s {
	case shapeColumnsData:
		return map[string]any{
			"input_data": map[string]any{
				"columns": Columns(),
				"data":    []any{f.Row()},
			},
		}
	case shapeNamedInputs:
		return map[string]any{
			"inputs": []any{
				map[string]any{
					"name":    "input-0",
					"columns": Columns(),
					"data":    []any{f.Row()},
				},
			},
		}
	default:
		return map[string]any{
			"input_data": []any{f.Map()},
		}
	}
}

// snippetLimit caps how much upstream error text we carry in diagnostics.
const snippetLimit = 2000

func snippet(s string) string {
	if len(s) > snippetLimit {
		return s[:snippetLimit]
	}
	return s
}

// RemoteScorer calls the deployed classifier over HTTP.
type RemoteScorer struct {
	URI        string
	APIKey     string
	Deployment string
	HTTP       *http.Client
	Timeout    time.Duration
}

func NewRemoteScorer(uri, apiKey, deployment string, timeout time.Duration) *RemoteScorer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteScorer{
		URI:        uri,
		APIKey:     apiKey,
		Deployment: deployment,
		HTTP:       &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

// Score tries each candidate body shape in order against the endpoint and
// returns the first parsed 2xx result. HTTP-level failure is recovered into a
// diagnostic payload and never returned as a Go error.
func (r *RemoteScorer) Score(ctx context.Context, f Features) map[string]any {
	var lastError map[string]any

	for _, shape := range shapeOrder {
		body := shape.payload(f)
		raw, err := json.Marshal(body)
		if err != nil {
			// only possible with exotic values; carry on like a failed attempt
			lastError = map[string]any{"exception": err.Error(), "tried_body": body}
			continue
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URI, bytes.NewReader(raw))
		if err != nil {
			lastError = map[string]any{"exception": err.Error(), "tried_body": body}
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if r.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+r.APIKey)
		}
		if r.Deployment != "" {
			req.Header.Set("azureml-model-deployment", r.Deployment)
		}

		resp, err := r.HTTP.Do(req)
		if err != nil {
			metrics.ScoringAttempts.Inc(map[string]string{"shape": shape.String(), "outcome": "net_error"})
			lastError = map[string]any{"exception": err.Error(), "tried_body": body}
			continue
		}

		text, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			metrics.ScoringAttempts.Inc(map[string]string{"shape": shape.String(), "outcome": "net_error"})
			lastError = map[string]any{"exception": readErr.Error(), "tried_body": body}
			continue
		}

		reqID := resp.Header.Get("x-ms-request-id")
		if reqID == "" {
			reqID = resp.Header.Get("x-request-id")
		}

		if resp.StatusCode/100 != 2 {
			metrics.ScoringAttempts.Inc(map[string]string{"shape": shape.String(), "outcome": "http_error"})
			logx.Debug("Predict", "scoring shape %s rejected: status %d", shape, resp.StatusCode)
			lastError = map[string]any{
				"status":       resp.StatusCode,
				"request_id":   reqID,
				"tried_body":   body,
				"body_snippet": snippet(string(text)),
			}
			continue
		}

		if len(bytes.TrimSpace(text)) == 0 {
			metrics.ScoringAttempts.Inc(map[string]string{"shape": shape.String(), "outcome": "empty"})
			lastError = map[string]any{
				"status":       resp.StatusCode,
				"request_id":   reqID,
				"tried_body":   body,
				"body_snippet": "",
				"note":         "empty 2xx response",
			}
			continue
		}

		var obj any
		if err := json.Unmarshal(text, &obj); err != nil {
			// a 2xx we cannot parse is still an answer: hand back the raw text
			metrics.ScoringAttempts.Inc(map[string]string{"shape": shape.String(), "outcome": "unparseable"})
			return map[string]any{
				"status":     resp.StatusCode,
				"request_id": reqID,
				"text":       snippet(string(text)),
				"tried_body": body,
			}
		}

		metrics.ScoringAttempts.Inc(map[string]string{"shape": shape.String(), "outcome": "ok"})
		return normalizeResponse(obj)
	}

	return map[string]any{
		"error":   "remote scoring endpoint call failed",
		"hint":    "match the request body to the endpoint's consume contract and verify key/headers",
		"details": lastError,
	}
}

// normalizeResponse coerces common scoring responses to a friendly shape.
// Unrecognized formats come back wrapped but intact.
func normalizeResponse(obj any) map[string]any {
	switch v := obj.(type) {
	case map[string]any:
		// {"predictions":[{"label":"Satisfied","probabilities":{"Satisfied":0.81,...}}]}
		if preds, ok := v["predictions"].([]any); ok && len(preds) > 0 {
			if p, ok := preds[0].(map[string]any); ok {
				label, hasLabel := p["label"].(string)
				probs, hasProbs := p["probabilities"].(map[string]any)
				if hasLabel && hasProbs {
					return map[string]any{
						"label":  label,
						"proba":  probs[label],
						"raw":    obj,
						"source": "remote",
					}
				}
			}
		}
		// {"label":"Satisfied","proba":0.81}
		if _, hasLabel := v["label"]; hasLabel {
			if _, hasProba := v["proba"]; hasProba {
				v["source"] = "remote"
				return v
			}
		}
		// {"result":[0]}
		if res, ok := v["result"]; ok {
			return map[string]any{"result": res, "raw": obj, "source": "remote"}
		}
		v["source"] = "remote"
		return v
	case []any:
		// bare list, e.g. [0.81]
		return map[string]any{"result": v, "source": "remote"}
	default:
		return map[string]any{"result": obj, "source": "remote"}
	}
}
