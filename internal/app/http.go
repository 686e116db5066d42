package app

import (
	"context"
	"net/http"
	"strconv"

	"time"

	"github.com/ccastromar/cso-chat-orchestrator/internal/health"
	"github.com/ccastromar/cso-chat-orchestrator/internal/logx"
	"github.com/ccastromar/cso-chat-orchestrator/internal/metrics"
	"github.com/ccastromar/cso-chat-orchestrator/internal/runtime"
	"github.com/ccastromar/cso-chat-orchestrator/internal/ui"
)

type HTTPServer struct {
	srv *http.Server
}

// httpPort holds the port used by the HTTP server. Default is 8080.
var httpPort = "8080"

// SetHTTPPort allows overriding the default HTTP port before starting the app.
func SetHTTPPort(p string) {
	if p == "" {
		return
	}
	httpPort = p
}

func NewHTTPServer(chatAPI *ChatAPI, uiStore *ui.Store, rt *runtime.Runtime) *HTTPServer {
	mux := http.NewServeMux()

	chatAPI.RegisterHTTP(mux)
	mux.HandleFunc("/ui", uiStore.HandleIndex)
	mux.HandleFunc("/ui/task", uiStore.HandleTask)
	mux.HandleFunc("/health/live", health.LiveHandler)
	mux.HandleFunc("/health/ready", health.ReadyHandler(rt))
	mux.HandleFunc("/metrics", metrics.ServeHTTP)

	// Wrap with metrics then security middleware
	hardened := secureMiddleware(metricsMiddleware(mux))

	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + httpPort,
			Handler:           hardened,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      150 * time.Second, // must outlive a slow multi-turn chat
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
		},
	}
}

func (h *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logx.Info("HTTP", "listening on port :%s", httpPort)
		errCh <- h.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logx.Info("HTTP", "shutting down server...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.srv.Shutdown(shutCtx)
	}
}

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware counts requests and observes latency per path and status.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		lbls := map[string]string{
			"path":   r.URL.Path,
			"method": r.Method,
			"status": strconv.Itoa(rec.status),
		}
		metrics.HTTPRequests.Inc(lbls)
		metrics.HTTPDuration.Observe(lbls, time.Since(start).Seconds())
	})
}

// secureMiddleware adds basic hardening to HTTP server:
// - Common security headers
// - Body size limit
// - Block TRACE method
func secureMiddleware(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Block TRACE to avoid request smuggling tricks
		if r.Method == http.MethodTrace {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Limit body size early
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		// Security headers
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		next.ServeHTTP(w, r)
	})
}
