package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
	"github.com/ccastromar/cso-chat-orchestrator/internal/runtime"
)

type fakeLLM struct{ pingErr error }

func (f *fakeLLM) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeLLM) ChatTools(ctx context.Context, msgs []llm.ChatMessage, defs []llm.ToolDef) (*llm.ChatMessage, error) {
	return &llm.ChatMessage{Role: "assistant"}, nil
}

var _ llm.Client = (*fakeLLM)(nil)

func readyRuntime(pingErr error) *runtime.Runtime {
	return &runtime.Runtime{StatsLoaded: true, PromptsLoaded: true, LLMClient: &fakeLLM{pingErr: pingErr}}
}

func TestLiveHandler_OK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()

	LiveHandler(w, req)

	res := w.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) == "" {
		t.Fatalf("expected non-empty body")
	}
}

func TestReadyHandler_StatsNotLoaded(t *testing.T) {
	rt := readyRuntime(nil)
	rt.StatsLoaded = false
	h := ReadyHandler(rt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestReadyHandler_PromptsNotLoaded(t *testing.T) {
	rt := readyRuntime(nil)
	rt.PromptsLoaded = false
	h := ReadyHandler(rt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestReadyHandler_LLMUnreachable(t *testing.T) {
	h := ReadyHandler(readyRuntime(errors.New("down")))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestReadyHandler_OK(t *testing.T) {
	h := ReadyHandler(readyRuntime(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if string(body) == "" {
		t.Fatalf("expected non-empty body")
	}
}
