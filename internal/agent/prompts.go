package agent

import (
	"fmt"
	"os"
	"path/filepath"
)

// Prompts seed every conversation: a system prompt (role and tone) and a
// developer prompt (tool-usage and output-format instructions).
type Prompts struct {
	System    string
	Developer string
}

// LoadPrompts reads system.md and developer.md from dir.
func LoadPrompts(dir string) (Prompts, error) {
	var p Prompts

	system, err := os.ReadFile(filepath.Join(dir, "system.md"))
	if err != nil {
		return p, fmt.Errorf("reading system prompt: %w", err)
	}
	developer, err := os.ReadFile(filepath.Join(dir, "developer.md"))
	if err != nil {
		return p, fmt.Errorf("reading developer prompt: %w", err)
	}

	p.System = string(system)
	p.Developer = string(developer)
	return p, nil
}
