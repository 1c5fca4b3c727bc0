package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	p := NewParser()
	source := []byte("---\nvariant: business_ideas\nmax_words: 300\n---\n\n# Ideas Agent\n\nBe creative.\n")

	meta, body := p.SplitFrontmatter(source)

	require.Equal(t, "business_ideas", meta["variant"])
	assert.EqualValues(t, 300, meta["max_words"])
	assert.Equal(t, "# Ideas Agent\n\nBe creative.", string(body))
}

func TestSplitFrontmatterWithoutHeader(t *testing.T) {
	p := NewParser()

	meta, body := p.SplitFrontmatter([]byte("Just a prompt."))

	assert.Empty(t, meta)
	assert.Equal(t, "Just a prompt.", string(body))
}

func TestPlainText(t *testing.T) {
	p := NewParser()
	source := []byte(`## Your next move

You are **close**. Try *one* thing:

- Email 3 customers
- Ship the [landing page](https://example.com)

1. Draft
2. Send

Use ` + "`/win`" + ` when done.`)

	got := p.PlainText(source)

	want := "Your next move\n\n" +
		"You are close. Try one thing:\n\n" +
		"• Email 3 customers\n" +
		"• Ship the landing page (https://example.com)\n\n" +
		"1. Draft\n" +
		"2. Send\n\n" +
		"Use /win when done."
	assert.Equal(t, want, got)
}
