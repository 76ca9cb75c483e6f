package feed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/samber/lo"
)

//go:embed data/sources.json
var defaultSourcesJSON []byte

// generalCategory is the category every source is expected to carry; it
// serves as the fallback when a source has no feed for the requested one.
const generalCategory = "general"

// Source describes one configured feed provider: a stable id, a display
// name and a mapping of category to feed endpoint. Immutable after load.
type Source struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Feeds map[string]string `json:"feeds"`
}

// FeedURL returns the feed endpoint for the category, falling back to the
// general feed; ok is false when the source carries neither.
func (s Source) FeedURL(category string) (string, bool) {
	if u, ok := s.Feeds[category]; ok {
		return u, true
	}
	if u, ok := s.Feeds[generalCategory]; ok {
		return u, true
	}
	return "", false
}

// Categories returns the categories the source carries, sorted.
func (s Source) Categories() []string {
	cats := lo.Keys(s.Feeds)
	sort.Strings(cats)
	return cats
}

// ParseSources reads a source registry from JSON, preserving the
// configuration order of sources.
func ParseSources(r io.Reader) ([]Source, error) {
	var srcs []Source
	if err := json.NewDecoder(r).Decode(&srcs); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}

	for _, src := range srcs {
		if src.ID == "" {
			return nil, fmt.Errorf("source %q has no id", src.Name)
		}
	}

	return srcs, nil
}

// LoadSources reads a source registry from a file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()

	return ParseSources(f)
}

// DefaultSources returns the built-in source registry.
func DefaultSources() []Source {
	srcs, err := ParseSources(bytes.NewReader(defaultSourcesJSON))
	if err != nil {
		panic(fmt.Sprintf("parse embedded sources: %v", err))
	}
	return srcs
}
