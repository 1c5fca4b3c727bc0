package transport

import (
	"strings"
	"unicode/utf8"

	"github.com/execcoach/coach/internal/markdown"
)

// MaxMessageRunes is the longest chunk sent as one chat message.
const MaxMessageRunes = 4000

// Formatter turns markdown replies into plain-text chat messages.
type Formatter struct {
	parser *markdown.Parser
	limit  int
}

func NewFormatter() *Formatter {
	return &Formatter{parser: markdown.NewParser(), limit: MaxMessageRunes}
}

// Messages renders text and splits it into deliverable chunks.
func (f *Formatter) Messages(text string) []string {
	plain := f.parser.PlainText([]byte(text))
	if plain == "" {
		plain = strings.TrimSpace(text)
	}
	return Split(plain, f.limit)
}

// Split cuts text into chunks of at most limit runes, preferring paragraph
// then line then word boundaries.
func Split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		head := string([]rune(text)[:limit])

		cut := -1
		for _, sep := range []string{"\n\n", "\n", " "} {
			if i := strings.LastIndex(head, sep); i > 0 {
				cut = i
				break
			}
		}
		if cut < 0 {
			cut = len(head)
		}

		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}

	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
