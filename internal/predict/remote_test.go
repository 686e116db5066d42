package predict

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newScorer(url string) *RemoteScorer {
	return NewRemoteScorer(url, "secret", "blue", 2*time.Second)
}

func TestRemoteScorer_FirstShapeWins(t *testing.T) {
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		json.NewEncoder(w).Encode(map[string]any{"label": "Satisfied", "proba": 0.81})
	}))
	defer ts.Close()

	out := newScorer(ts.URL).Score(context.Background(), baseFeatures())

	require.Len(t, bodies, 1)
	require.Contains(t, bodies[0], `"input_data"`)
	require.Contains(t, bodies[0], `"columns"`)
	require.Equal(t, "Satisfied", out["label"])
	require.Equal(t, 0.81, out["proba"])
	require.Equal(t, "remote", out["source"])
}

func TestRemoteScorer_SecondShapeAfterFirstFails(t *testing.T) {
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		if len(bodies) == 1 {
			http.Error(w, "bad input", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []any{1}})
	}))
	defer ts.Close()

	out := newScorer(ts.URL).Score(context.Background(), baseFeatures())

	// second shape succeeded, third was never attempted
	require.Len(t, bodies, 2)
	require.Contains(t, bodies[1], `"inputs"`)
	require.Contains(t, bodies[1], `"input-0"`)
	require.NotNil(t, out["result"])
	require.Equal(t, "remote", out["source"])
}

func TestRemoteScorer_AllShapesFailDiagnostic(t *testing.T) {
	var attempts int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("x-ms-request-id", "req-42")
		http.Error(w, strings.Repeat("x", 3000), http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	out := newScorer(ts.URL).Score(context.Background(), baseFeatures())

	require.Equal(t, 3, attempts)
	require.Equal(t, "remote scoring endpoint call failed", out["error"])

	details, ok := out["details"].(map[string]any)
	require.True(t, ok, "details missing: %v", out)
	require.Equal(t, http.StatusUnprocessableEntity, details["status"])
	require.Equal(t, "req-42", details["request_id"])
	require.NotNil(t, details["tried_body"])

	snip, _ := details["body_snippet"].(string)
	require.LessOrEqual(t, len(snip), 2000)
	require.NotEmpty(t, snip)
}

func TestRemoteScorer_Unparseable2xxReturnsRawText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-request-id", "trace-1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("this is not JSON " + strings.Repeat("y", 3000)))
	}))
	defer ts.Close()

	out := newScorer(ts.URL).Score(context.Background(), baseFeatures())

	require.Equal(t, http.StatusOK, out["status"])
	require.Equal(t, "trace-1", out["request_id"])
	text, _ := out["text"].(string)
	require.True(t, strings.HasPrefix(text, "this is not JSON"))
	require.LessOrEqual(t, len(text), 2000)
}

func TestRemoteScorer_Empty2xxKeepsTrying(t *testing.T) {
	var attempts int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusOK) // 2xx but empty body
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"label": "Dissatisfied", "proba": 0.6})
	}))
	defer ts.Close()

	out := newScorer(ts.URL).Score(context.Background(), baseFeatures())

	require.Equal(t, 3, attempts)
	require.Equal(t, "Dissatisfied", out["label"])
}

func TestRemoteScorer_AuthAndDeploymentHeaders(t *testing.T) {
	var gotAuth, gotDeployment string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDeployment = r.Header.Get("azureml-model-deployment")
		json.NewEncoder(w).Encode(map[string]any{"label": "Satisfied", "proba": 0.9})
	}))
	defer ts.Close()

	newScorer(ts.URL).Score(context.Background(), baseFeatures())

	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "blue", gotDeployment)
}

func TestNormalizeResponse_PredictionsShape(t *testing.T) {
	obj := map[string]any{
		"predictions": []any{
			map[string]any{
				"label": "Satisfied",
				"probabilities": map[string]any{
					"Satisfied":    0.81,
					"Dissatisfied": 0.19,
				},
			},
		},
	}

	out := normalizeResponse(obj)
	require.Equal(t, "Satisfied", out["label"])
	require.Equal(t, 0.81, out["proba"])
	require.Equal(t, obj, out["raw"])
}

func TestNormalizeResponse_BareList(t *testing.T) {
	out := normalizeResponse([]any{0.81})
	require.Equal(t, []any{0.81}, out["result"])
}
