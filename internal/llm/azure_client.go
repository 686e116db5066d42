package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ccastromar/cso-chat-orchestrator/internal/metrics"
)

// AzureClient talks to an Azure OpenAI chat-completions deployment.
type AzureClient struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	HTTP       *http.Client
	Timeout    time.Duration
}

// Compile-time interface conformance
var _ Client = (*AzureClient)(nil)

func NewAzureClient(endpoint, apiKey, deployment, apiVersion string) *AzureClient {
	if apiVersion == "" {
		apiVersion = "2024-05-01-preview"
	}

	return &AzureClient{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		APIKey:     apiKey,
		Deployment: deployment,
		APIVersion: apiVersion,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		Timeout: 30 * time.Second,
	}
}

func (c *AzureClient) chatURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.Endpoint, c.Deployment, c.APIVersion)
}

// Ping checks that the endpoint is reachable and the key is accepted.
func (c *AzureClient) Ping(ctx context.Context) error {
	if c.APIKey == "" {
		return fmt.Errorf("azure openai api key is empty")
	}

	to := c.Timeout
	if to <= 0 {
		to = 2 * time.Second
	}
	var cancel context.CancelFunc
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel = context.WithTimeout(ctx, to)
	defer cancel()

	url := fmt.Sprintf("%s/openai/models?api-version=%s", c.Endpoint, c.APIVersion)
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: to}
	}

	resp, err := retryHTTP(ctx, 3, 100*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("api-key", c.APIKey)
		return httpClient.Do(req)
	})
	if err != nil {
		metrics.LLMPings.Inc(map[string]string{"provider": "azure", "outcome": "error"})
		return fmt.Errorf("azure openai ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		metrics.LLMPings.Inc(map[string]string{"provider": "azure", "outcome": "error"})
		return fmt.Errorf("azure openai ping bad status: %d, body: %s", resp.StatusCode, string(b))
	}

	metrics.LLMPings.Inc(map[string]string{"provider": "azure", "outcome": "ok"})
	return nil
}

// ChatTools calls the deployment in non-stream mode with the given messages
// and tool schemas, tool_choice auto.
func (c *AzureClient) ChatTools(ctx context.Context, messages []ChatMessage, tools []ToolDef) (*ChatMessage, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("azure openai api key is empty")
	}

	payload := map[string]any{
		"messages":    messages,
		"temperature": 0,
	}
	if len(tools) > 0 {
		payload["tools"] = tools
		payload["tool_choice"] = "auto"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	to := c.Timeout
	if to <= 0 {
		to = 30 * time.Second
	}
	var cancel context.CancelFunc
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel = context.WithTimeout(ctx, to)
	defer cancel()

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: to}
	}

	start := time.Now()
	resp, err := retryHTTP(ctx, 3, 100*time.Millisecond, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL(), bytes.NewBuffer(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("api-key", c.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return httpClient.Do(req)
	})
	if err != nil {
		metrics.LLMChats.Inc(map[string]string{"provider": "azure", "outcome": "error"})
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		metrics.LLMChats.Inc(map[string]string{"provider": "azure", "outcome": "error"})
		return nil, fmt.Errorf("azure openai chat failed: status %d, body: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Choices []struct {
			Message ChatMessage `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.LLMChats.Inc(map[string]string{"provider": "azure", "outcome": "error"})
		return nil, err
	}

	if len(result.Choices) == 0 {
		metrics.LLMChats.Inc(map[string]string{"provider": "azure", "outcome": "error"})
		return nil, fmt.Errorf("azure openai: empty response")
	}

	metrics.LLMChats.Inc(map[string]string{"provider": "azure", "outcome": "ok"})
	metrics.LLMChatDur.Observe(map[string]string{"provider": "azure", "outcome": "ok"}, time.Since(start).Seconds())
	msg := result.Choices[0].Message
	return &msg, nil
}
