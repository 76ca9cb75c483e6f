package feed

import (
	"math/rand"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fallbackImages are stock images used when an entry carries no image of its own.
var fallbackImages = []string{
	"https://wallpapercave.com/wp/wp7939960.jpg",
	"https://static.vecteezy.com/system/resources/thumbnails/004/216/831/original/3d-world-news-background-loop-free-video.jpg",
	"https://ichef.bbci.co.uk/images/ic/1200x675/p0fd863k.jpg",
	"https://img.freepik.com/premium-photo/world-news-background-blue-earth-globe-with-glowing-news-icons-headlines-3d-rendering_494747-6195.jpg",
}

// imageExts are the enclosure path suffixes accepted as images.
var imageExts = []string{".jpg", ".jpeg", ".png", ".gif"}

// resolveImage finds a representative image for an entry. It probes media
// elements, the enclosure, and inline <img> tags of the description and
// encoded content, in that order, and falls back to a random stock image.
// It always returns a non-empty URL.
func resolveImage(entry map[string]any) string {
	if u, ok := mediaImage(entry); ok {
		return u
	}

	if u, ok := enclosureImage(entry); ok {
		return u
	}

	desc, ok := extract(entry, "description")
	if !ok {
		desc, _ = extract(entry, "summary")
	}
	if u, ok := firstImgSrc(textOf(desc)); ok {
		return u
	}

	if u, ok := firstImgSrc(textValue(entry, "encoded")); ok {
		return u
	}

	return fallbackImages[rand.Intn(len(fallbackImages))]
}

// mediaImage probes media:content and media:thumbnail, which may be a single
// element or a sequence; the first element with a url attribute wins.
func mediaImage(entry map[string]any) (string, bool) {
	media, ok := extract(entry, "media:content")
	if !ok {
		if media, ok = extract(entry, "media:thumbnail"); !ok {
			return "", false
		}
	}

	switch t := media.(type) {
	case map[string]any:
		return urlAttr(t)
	case []any:
		for _, el := range t {
			if u, ok := urlAttr(el); ok {
				return u, true
			}
		}
	}

	return "", false
}

// enclosureImage accepts the enclosure url only when its path looks like an
// image file, as enclosures frequently point at audio or video payloads.
func enclosureImage(entry map[string]any) (string, bool) {
	enc, ok := extract(entry, "enclosure")
	if !ok {
		return "", false
	}

	u, ok := urlAttr(enc)
	if !ok {
		return "", false
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return "", false
	}

	p := strings.ToLower(parsed.Path)
	for _, ext := range imageExts {
		if strings.HasSuffix(p, ext) {
			return u, true
		}
	}

	return "", false
}

// firstImgSrc parses an HTML fragment and returns the src of the first <img>.
// Malformed HTML yields no match.
func firstImgSrc(fragment string) (string, bool) {
	if fragment == "" {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", false
	}

	src, ok := doc.Find("img").First().Attr("src")
	if !ok || src == "" {
		return "", false
	}

	return src, true
}
