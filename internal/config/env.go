package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvVars is the process configuration, loaded once at startup and passed
// into the components that need it. Nothing reads the environment after that.
type EnvVars struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Optional API key for clients of this service. Empty disables auth.
	APIKey string `envconfig:"API_KEY"`

	AzureOpenAIEndpoint   string        `envconfig:"AZURE_OPENAI_ENDPOINT" required:"true"`
	AzureOpenAIAPIKey     string        `envconfig:"AZURE_OPENAI_API_KEY" required:"true"`
	AzureOpenAIDeployment string        `envconfig:"AZURE_OPENAI_DEPLOYMENT" required:"true"`
	OpenAIAPIVersion      string        `envconfig:"OPENAI_API_VERSION" default:"2024-05-01-preview"`
	LLMTimeout            time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	// Remote scoring endpoint. Presence of the URI switches the predictor
	// from the local heuristic to remote mode.
	AMLScoringURI string        `envconfig:"AML_SCORING_URI"`
	AMLAPIKey     string        `envconfig:"AML_API_KEY"`
	AMLDeployment string        `envconfig:"AML_DEPLOYMENT"`
	AMLTimeout    time.Duration `envconfig:"AML_TIMEOUT" default:"30s"`

	// Hard cap on conversation turns before the loop gives up.
	MaxTurns int `envconfig:"CSO_MAX_TURNS" default:"8"`

	// Budget for one whole /api/chat request, including every LLM round trip.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"120s"`
}

func LoadEnv() (*EnvVars, error) {
	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	v.AMLScoringURI = strings.TrimSpace(v.AMLScoringURI)
	v.AMLAPIKey = strings.TrimSpace(v.AMLAPIKey)
	v.AMLDeployment = strings.TrimSpace(v.AMLDeployment)
	return &v, nil
}

// RemoteScoringEnabled reports whether the predictor should call the remote
// endpoint instead of the local heuristic.
func (v *EnvVars) RemoteScoringEnabled() bool {
	return v.AMLScoringURI != ""
}
