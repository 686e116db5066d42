package runtime

import (
	"github.com/ccastromar/cso-chat-orchestrator/internal/llm"
)

type Runtime struct {
	StatsLoaded   bool
	PromptsLoaded bool
	LLMClient     llm.Client
}
