package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_MastodonHCard(t *testing.T) {
	raw := `<p><span class="h-card" translate="no"><a href="https://example.social/@bot" class="u-url mention">@<span>bot</span></a></span> What is 2+2?</p>`

	assert.Equal(t, "What is 2+2?", NewContentExtractor().Extract(raw))
}

func TestExtract_BareMentionLink(t *testing.T) {
	raw := `<p><a href="https://example.social/@bot" class="u-url mention">@bot@example.social</a> 今日の天気は？</p>`

	assert.Equal(t, "今日の天気は？", NewContentExtractor().Extract(raw))
}

func TestExtract_LineBreaksBecomeSpaces(t *testing.T) {
	raw := `<p><span class="h-card"><a href="https://example.social/@bot">@<span>bot</span></a></span> first line<br>second<br />third</p>`

	assert.Equal(t, "first line second third", NewContentExtractor().Extract(raw))
}

func TestExtract_NothingAfterMention(t *testing.T) {
	raw := `<p><span class="h-card"><a href="https://example.social/@bot">@<span>bot</span></a></span></p>`

	assert.Equal(t, "", NewContentExtractor().Extract(raw))
}

func TestExtract_NoMention(t *testing.T) {
	assert.Equal(t, "", NewContentExtractor().Extract(`<p>just text</p>`))
	assert.Equal(t, "", NewContentExtractor().Extract(""))
}

func TestCountLinks(t *testing.T) {
	single := `<p><span class="h-card"><a href="https://example.social/@bot">@<span>bot</span></a></span> hi</p>`
	double := `<p><span class="h-card"><a href="https://example.social/@bot">@<span>bot</span></a></span> see <a href="https://example.com">example.com</a></p>`

	assert.Equal(t, 1, CountLinks(single))
	assert.Equal(t, 2, CountLinks(double))
	assert.Equal(t, 0, CountLinks("plain"))
}
