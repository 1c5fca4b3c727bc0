package generation

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/execcoach/coach/internal/markdown"
	"github.com/execcoach/coach/internal/model"
)

//go:embed prompts/*.md
var promptsFS embed.FS

// Prompt is a system prompt for one agent variant.
type Prompt struct {
	Variant  model.AgentVariant
	Title    string
	MaxWords int
	Body     string
}

// System returns the full system instruction, including the length limit.
func (p Prompt) System() string {
	if p.MaxWords <= 0 {
		return p.Body
	}
	return fmt.Sprintf("%s\n\nKeep the response under %d words.", p.Body, p.MaxWords)
}

// PromptLibrary holds the embedded system prompts keyed by variant.
type PromptLibrary struct {
	prompts map[model.AgentVariant]Prompt
}

func LoadPrompts() (*PromptLibrary, error) {
	return loadPrompts(promptsFS, "prompts")
}

func loadPrompts(fsys fs.FS, dir string) (*PromptLibrary, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}

	parser := markdown.NewParser()
	lib := &PromptLibrary{prompts: make(map[model.AgentVariant]Prompt)}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", entry.Name(), err)
		}

		meta, body := parser.SplitFrontmatter(content)

		variant := model.AgentVariant(metaString(meta, "variant"))
		if !variant.Valid() {
			return nil, fmt.Errorf("prompt %s: unknown variant %q", entry.Name(), variant)
		}

		lib.prompts[variant] = Prompt{
			Variant:  variant,
			Title:    metaString(meta, "title"),
			MaxWords: metaInt(meta, "max_words"),
			Body:     string(body),
		}
	}

	for _, v := range model.Variants {
		if _, ok := lib.prompts[v]; !ok {
			return nil, fmt.Errorf("missing prompt for variant %s", v)
		}
	}

	return lib, nil
}

// For returns the prompt of a variant, defaulting to the execution coach.
func (l *PromptLibrary) For(v model.AgentVariant) Prompt {
	if p, ok := l.prompts[v]; ok {
		return p
	}
	return l.prompts[model.VariantExecutionCoach]
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
