package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccastromar/cso-chat-orchestrator/internal/agent"
	"github.com/ccastromar/cso-chat-orchestrator/internal/config"
	"github.com/ccastromar/cso-chat-orchestrator/internal/logx"
	"github.com/ccastromar/cso-chat-orchestrator/internal/ui"
)

// conversationRunner is what the chat API needs from the orchestrator.
type conversationRunner interface {
	Run(ctx context.Context, id, message string) (*agent.ChatResult, error)
}

// Max request size for POST /api/chat to protect the server (1MB)
const maxChatBodyBytes int64 = 1 << 20

// ChatAPI owns the /api/chat endpoint: auth, rate limiting, request parsing,
// and running the conversation loop synchronously.
type ChatAPI struct {
	cfg     *config.EnvVars
	orch    conversationRunner
	uiStore *ui.Store
	apiKey  string

	// naive fixed-window rate limiter per client key
	rl struct {
		Window  time.Duration
		Limit   int
		mu      chan struct{} // lightweight mutex using channel
		buckets map[string]*rateBucket
	}
}

func NewChatAPI(cfg *config.EnvVars, orch conversationRunner, uiStore *ui.Store) *ChatAPI {
	a := &ChatAPI{
		cfg:     cfg,
		orch:    orch,
		uiStore: uiStore,
		apiKey:  strings.TrimSpace(cfg.APIKey),
	}
	a.rl.Window = 1 * time.Minute
	a.rl.Limit = 60
	a.rl.mu = make(chan struct{}, 1)
	a.rl.buckets = make(map[string]*rateBucket)
	return a
}

// rateBucket tracks hits in a fixed window
type rateBucket struct {
	start time.Time
	hits  int
}

// acquireRL returns error if rate limit exceeded
func (a *ChatAPI) acquireRL(key string) error {
	if key == "" {
		key = "anon"
	}
	a.rl.mu <- struct{}{}
	defer func() { <-a.rl.mu }()

	b, ok := a.rl.buckets[key]
	now := time.Now()
	if !ok || now.Sub(b.start) >= a.rl.Window {
		a.rl.buckets[key] = &rateBucket{start: now, hits: 1}
		return nil
	}
	if b.hits >= a.rl.Limit {
		return errors.New("rate limit exceeded")
	}
	b.hits++
	return nil
}

// getClientKey picks an identifier for auth/rate limit: API key if present, else IP
func getClientKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return "key:" + k
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return "key:" + strings.TrimSpace(auth[7:])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return "ip:" + host
}

// checkAuth enforces the API key when one is configured
func (a *ChatAPI) checkAuth(r *http.Request) bool {
	if a.apiKey == "" {
		return true // auth disabled
	}
	if k := r.Header.Get("X-API-Key"); k != "" && k == a.apiKey {
		return true
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:]) == a.apiKey
	}
	return false
}

// RegisterHTTP registers the chat endpoint on the mux.
func (a *ChatAPI) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/api/chat", a.handleChat)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (a *ChatAPI) handleChat(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error("Api", "panic recovered in /api/chat: %v", rec)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
		}
	}()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !a.checkAuth(r) {
		w.Header().Set("WWW-Authenticate", "Bearer, X-API-Key")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := a.acquireRL(getClientKey(r)); err != nil {
		writeJSONError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "unsupported media type")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpErr := http.StatusBadRequest
		if err.Error() == "http: request body too large" {
			httpErr = http.StatusRequestEntityTooLarge
		}
		writeJSONError(w, httpErr, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message required")
		return
	}

	id := uuid.NewString()
	logx.Info("Api", "new chat id=%s message='%s'", id, req.Message)
	a.uiStore.AddEvent(id, "Api", "request", req.Message, "")

	ctx := r.Context()
	if a.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()
	}

	result, err := a.orch.Run(ctx, id, req.Message)
	if err != nil {
		// the end user never sees a stack trace, only a structured error
		logx.Error("Api", "chat id=%s failed: %v", id, err)
		a.uiStore.AddEvent(id, "Api", "error", err.Error(), "")
		if errors.Is(err, agent.ErrTurnsExhausted) {
			writeJSONError(w, http.StatusBadGateway, "conversation exhausted without a final answer")
			return
		}
		writeJSONError(w, http.StatusBadGateway, "upstream model call failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
