package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/mailboost/mailboost/internal/errors"
)

const testMirror = "mirror.example"

func TestExtractPostLink_NormalizesAllShapes(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "rss mirror link",
			html: `<html><body><a href="https://rss.mirror.example/alice/status/42#m">view</a></body></html>`,
		},
		{
			name: "mirror link without rss prefix",
			html: `<html><body><a href="https://mirror.example/alice/status/42">view</a></body></html>`,
		},
		{
			name: "direct x.com link",
			html: `<html><body><a href="https://x.com/alice/status/42">view</a></body></html>`,
		},
		{
			name: "direct twitter.com link",
			html: `<html><body><a href="https://twitter.com/alice/status/42">view</a></body></html>`,
		},
	}

	extractor := NewExtractorService(testMirror)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := extractor.ExtractPostLink(tt.html)

			require.NoError(t, err)
			assert.Equal(t, "https://x.com/alice/status/42", link)
		})
	}
}

func TestExtractPostLink_FirstMatchWins(t *testing.T) {
	// Two boostable links in one email; document order decides.
	html := `<html><body>
		<a href="https://rss.mirror.example/alice/status/42#m">first</a>
		<a href="https://rss.mirror.example/bob/status/99#m">second</a>
	</body></html>`
	extractor := NewExtractorService(testMirror)

	link, err := extractor.ExtractPostLink(html)

	require.NoError(t, err)
	assert.Equal(t, "https://x.com/alice/status/42", link)
}

func TestExtractPostLink_IgnoresUnrelatedAnchors(t *testing.T) {
	html := `<html><body>
		<a href="https://example.com/unsubscribe">unsubscribe</a>
		<a href="https://mirror.example/alice/profile">profile</a>
		<a href="https://mirror.example/alice/status/42">post</a>
	</body></html>`
	extractor := NewExtractorService(testMirror)

	link, err := extractor.ExtractPostLink(html)

	require.NoError(t, err)
	assert.Equal(t, "https://x.com/alice/status/42", link)
}

func TestExtractPostLink_NoMatch(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "no anchors at all", html: `<html><body><p>nothing here</p></body></html>`},
		{name: "anchor without status", html: `<html><body><a href="https://example.com/about">about</a></body></html>`},
		{name: "empty input", html: ""},
		{name: "wrapped plain text without links", html: WrapPlainText("just words, no links")},
	}

	extractor := NewExtractorService(testMirror)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := extractor.ExtractPostLink(tt.html)

			assert.ErrorIs(t, err, er.ErrNoFeedLink)
			assert.Empty(t, link)
		})
	}
}

func TestExtractPostLink_Idempotent(t *testing.T) {
	html := `<html><body><a href="https://rss.mirror.example/alice/status/42#m">view</a></body></html>`
	extractor := NewExtractorService(testMirror)

	first, err1 := extractor.ExtractPostLink(html)
	second, err2 := extractor.ExtractPostLink(html)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestExtractPostLink_WrappedPlainTextAnchor(t *testing.T) {
	// Some feed templates ship anchor markup inside the text/plain part.
	html := WrapPlainText(`New post: <a href="https://mirror.example/alice/status/42">link</a>`)
	extractor := NewExtractorService(testMirror)

	link, err := extractor.ExtractPostLink(html)

	require.NoError(t, err)
	assert.Equal(t, "https://x.com/alice/status/42", link)
}

func TestUsernameFromLink(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		expected string
		err      error
	}{
		{name: "canonical link", link: "https://x.com/alice/status/42", expected: "alice"},
		{name: "underscore username", link: "https://x.com/some_user/status/1", expected: "some_user"},
		{name: "too few segments", link: "https://x.com", err: er.ErrMalformedLink},
		{name: "empty username segment", link: "https://x.com//status/42", err: er.ErrUsernameNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := UsernameFromLink(tt.link)

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, username)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, username)
		})
	}
}
