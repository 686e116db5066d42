package app

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/cso-chat-orchestrator/internal/agent"
	"github.com/ccastromar/cso-chat-orchestrator/internal/config"
	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
	"github.com/ccastromar/cso-chat-orchestrator/internal/logx"
	"github.com/ccastromar/cso-chat-orchestrator/internal/predict"
	"github.com/ccastromar/cso-chat-orchestrator/internal/runtime"
	"github.com/ccastromar/cso-chat-orchestrator/internal/stats"
	"github.com/ccastromar/cso-chat-orchestrator/internal/tools"
	"github.com/ccastromar/cso-chat-orchestrator/internal/ui"
)

type App struct {
	cfg   *config.EnvVars
	stats *stats.Store
	ui    *ui.Store
	llm   llm.Client
	orch  *agent.Orchestrator
	http  *HTTPServer
}

func New() (*App, error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	statsStore, err := stats.Load("data/stats.yaml")
	if err != nil {
		return nil, err
	}
	logx.Info("Stats", "loaded %d statistic(s)", statsStore.Len())

	prompts, err := agent.LoadPrompts("prompts")
	if err != nil {
		return nil, err
	}

	llmClient := llm.NewAzureClient(
		cfg.AzureOpenAIEndpoint,
		cfg.AzureOpenAIAPIKey,
		cfg.AzureOpenAIDeployment,
		cfg.OpenAIAPIVersion,
	)
	llmClient.Timeout = cfg.LLMTimeout

	predictor := predict.New(cfg)
	if predictor.RemoteEnabled() {
		logx.Info("Predict", "remote scoring enabled: %s", cfg.AMLScoringURI)
	} else {
		logx.Info("Predict", "no scoring endpoint configured, using local heuristic")
	}

	registry := tools.NewRegistry(predictor, statsStore)
	uiStore := ui.NewStore()
	orch := agent.NewOrchestrator(llmClient, registry, prompts, cfg.MaxTurns, uiStore)

	rt := &runtime.Runtime{
		StatsLoaded:   true,
		PromptsLoaded: true,
		LLMClient:     llmClient,
	}

	chatAPI := NewChatAPI(cfg, orch, uiStore)
	httpServer := NewHTTPServer(chatAPI, uiStore, rt)

	return &App{
		cfg:   cfg,
		stats: statsStore,
		ui:    uiStore,
		llm:   llmClient,
		orch:  orch,
		http:  httpServer,
	}, nil
}

// Handler exposes the root HTTP handler, mainly for tests that want to
// mount the app without binding a real port.
func (a *App) Handler() http.Handler {
	return a.http.srv.Handler
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.http.Start(gctx)
	})

	logx.Info("App", "CSO chat orchestrator started")

	return g.Wait()
}
