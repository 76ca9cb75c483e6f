package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	entry := map[string]any{
		"title":       "plain title",
		"media:group": map[string]any{"@url": "https://img.example.com/1.jpg"},
		"dc:creator":  "John Doe",
	}

	t.Run("exact key wins", func(t *testing.T) {
		v, ok := extract(entry, "title")
		require.True(t, ok)
		assert.Equal(t, "plain title", v)
	})

	t.Run("namespace-agnostic suffix match", func(t *testing.T) {
		v, ok := extract(entry, "creator")
		require.True(t, ok)
		assert.Equal(t, "John Doe", v)

		v, ok = extract(entry, "group")
		require.True(t, ok)
		assert.Equal(t, map[string]any{"@url": "https://img.example.com/1.jpg"}, v)
	})

	t.Run("prefixed field name matches itself", func(t *testing.T) {
		v, ok := extract(entry, "media:group")
		require.True(t, ok)
		assert.NotNil(t, v)
	})

	t.Run("absent field", func(t *testing.T) {
		_, ok := extract(entry, "nonexistent")
		assert.False(t, ok)
	})

	t.Run("nil entry", func(t *testing.T) {
		_, ok := extract(nil, "title")
		assert.False(t, ok)
	})
}

func TestTextOf(t *testing.T) {
	assert.Equal(t, "plain", textOf("plain"))
	assert.Equal(t, "wrapped", textOf(map[string]any{"@type": "text", "#text": "wrapped"}))
	assert.Equal(t, "", textOf(map[string]any{"@type": "text"}))
	assert.Equal(t, "", textOf([]any{"a", "b"}))
	assert.Equal(t, "", textOf(nil))
}

func TestLinkOf(t *testing.T) {
	assert.Equal(t, "https://example.com/a", linkOf("https://example.com/a"))
	assert.Equal(t, "https://example.com/b", linkOf(map[string]any{"@href": "https://example.com/b"}))
	assert.Equal(t, "https://example.com/c", linkOf([]any{
		map[string]any{"@rel": "self"},
		map[string]any{"@href": "https://example.com/c"},
	}))
	assert.Equal(t, "https://example.com/d", linkOf([]any{"https://example.com/d"}))
	assert.Equal(t, "", linkOf(nil))
	assert.Equal(t, "", linkOf(42))
}

func TestAuthorOf(t *testing.T) {
	assert.Equal(t, "jane@example.com", authorOf("jane@example.com"))
	assert.Equal(t, "Jane Doe", authorOf(map[string]any{"name": "Jane Doe"}))
	assert.Equal(t, "John", authorOf(map[string]any{"#text": "John"}))
	assert.Equal(t, "", authorOf(map[string]any{"uri": "https://example.com"}))
	assert.Equal(t, "", authorOf(nil))
}

func TestURLAttr(t *testing.T) {
	u, ok := urlAttr(map[string]any{"@url": "https://img.example.com/1.jpg"})
	require.True(t, ok)
	assert.Equal(t, "https://img.example.com/1.jpg", u)

	_, ok = urlAttr(map[string]any{"@width": "100"})
	assert.False(t, ok)

	_, ok = urlAttr("not a map")
	assert.False(t, ok)

	_, ok = urlAttr(map[string]any{"@url": ""})
	assert.False(t, ok)
}
