package feed

import "strings"

// extract resolves a field out of a decoded feed entry. Feeds carry the same
// field under different namespace prefixes, so after an exact match it accepts
// any key that ends with ":"+field, e.g. "media:title" for "title". Malformed
// input yields absent, never an error.
func extract(entry map[string]any, field string) (any, bool) {
	if entry == nil {
		return nil, false
	}

	if v, ok := entry[field]; ok {
		return v, true
	}

	for k, v := range entry {
		if k == field || strings.HasSuffix(k, ":"+field) {
			return v, true
		}
	}

	return nil, false
}

// textOf unwraps a scalar value that may be wrapped into a text node,
// e.g. <title type="text">...</title> decodes into {"@type": ..., "#text": ...}.
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["#text"].(string); ok {
			return s
		}
	}
	return ""
}

// textValue resolves a field and unwraps it to plain text, empty when absent.
func textValue(entry map[string]any, field string) string {
	v, ok := extract(entry, field)
	if !ok {
		return ""
	}
	return textOf(v)
}

// linkOf unwraps an entry link: RSS carries it as a plain string, Atom as one
// or several href-bearing elements. The first usable value wins.
func linkOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["@href"].(string); ok {
			return s
		}
	case []any:
		for _, el := range t {
			switch it := el.(type) {
			case string:
				return it
			case map[string]any:
				if s, ok := it["@href"].(string); ok {
					return s
				}
			}
		}
	}
	return ""
}

// authorOf unwraps an author value: plain string in RSS, a structured
// element with a name in Atom.
func authorOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["#text"].(string); ok {
			return s
		}
		if s, ok := t["name"].(string); ok {
			return s
		}
	}
	return ""
}

// urlAttr returns the url attribute of a mapping-shaped value.
func urlAttr(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m["@url"].(string)
	return s, ok && s != ""
}
