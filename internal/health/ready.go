package health

import (
	"net/http"

	"github.com/ccastromar/cso-chat-orchestrator/internal/runtime"
)

func ReadyHandler(rt *runtime.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		if !rt.StatsLoaded {
			http.Error(w, "stats not loaded", 503)
			return
		}

		if !rt.PromptsLoaded {
			http.Error(w, "prompts not loaded", 503)
			return
		}

		if err := rt.LLMClient.Ping(r.Context()); err != nil {
			http.Error(w, "llm unreachable", 503)
			return
		}

		w.WriteHeader(200)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
