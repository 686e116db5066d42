package predict

import (
	"context"

	"github.com/ccastromar/cso-chat-orchestrator/internal/config"
)

// Predictor routes a feature payload either to the remote scoring endpoint or
// to the local heuristic when none is configured.
type Predictor struct {
	remote *RemoteScorer
}

func New(cfg *config.EnvVars) *Predictor {
	p := &Predictor{}
	if cfg.RemoteScoringEnabled() {
		p.remote = NewRemoteScorer(cfg.AMLScoringURI, cfg.AMLAPIKey, cfg.AMLDeployment, cfg.AMLTimeout)
	}
	return p
}

// NewWithScorer builds a predictor around an explicit scorer. Used by tests.
func NewWithScorer(r *RemoteScorer) *Predictor {
	return &Predictor{remote: r}
}

// RemoteEnabled reports whether predictions go to the scoring endpoint.
func (p *Predictor) RemoteEnabled() bool {
	return p.remote != nil
}

// Predict returns the prediction payload for a validated feature record.
// It never returns an error: scoring failures come back as diagnostics.
func (p *Predictor) Predict(ctx context.Context, f Features) map[string]any {
	if p.remote == nil {
		r := Heuristic(f)
		return map[string]any{
			"label":  r.Label,
			"proba":  r.Proba,
			"source": r.Source,
		}
	}
	return p.remote.Score(ctx, f)
}
