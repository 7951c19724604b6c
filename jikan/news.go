package jikan

import (
	"encoding/json"
	"strings"
	"time"
)

// NewsItem is the canonical news shape shared by every news candidate.
type NewsItem struct {
	MalID    int       `json:"mal_id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	ImageURL string    `json:"image_url"`
	Author   string    `json:"author"`
	Excerpt  string    `json:"excerpt"`
	Date     time.Time `json:"date"`
}

// Candidate field paths, most specific first.
var (
	newsIDPaths      = []string{"mal_id", "entry.mal_id"}
	newsTitlePaths   = []string{"title", "name", "entry.title"}
	newsAuthorPaths  = []string{"author_username", "user.username", "author"}
	newsExcerptPaths = []string{"excerpt", "content", "synopsis", "review"}
	newsDatePaths    = []string{"date", "published_at", "created_at"}
	newsURLPaths     = []string{"url", "forum_url", "link", "entry.url", "trailer.url"}
	newsImagePaths   = []string{
		"images.jpg.image_url",
		"images.jpg.large_image_url",
		"image_url",
		"entry.images.jpg.image_url",
		"entry.images.jpg.large_image_url",
		"trailer.images.maximum_image_url",
		"trailer.images.image_url",
	}
)

// NormalizeNewsItem maps a news-like object from any candidate endpoint
// into NewsItem. Missing fields become PlaceholderImageURL, UntitledTitle,
// AnonymousAuthor and now.
func NormalizeNewsItem(raw json.RawMessage, now time.Time) (NewsItem, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return NewsItem{}, err
	}

	return NewsItem{
		MalID:    int(lookupNumber(obj, newsIDPaths...)),
		Title:    firstNonEmpty(lookupString(obj, newsTitlePaths...), UntitledTitle),
		URL:      lookupString(obj, newsURLPaths...),
		ImageURL: firstNonEmpty(lookupString(obj, newsImagePaths...), PlaceholderImageURL),
		Author:   firstNonEmpty(lookupString(obj, newsAuthorPaths...), AnonymousAuthor),
		Excerpt:  lookupString(obj, newsExcerptPaths...),
		Date:     parseTime(lookupString(obj, newsDatePaths...), now),
	}, nil
}

// lookupString returns the first non-empty string found at any dotted path.
func lookupString(obj map[string]any, paths ...string) string {
	for _, p := range paths {
		if s, ok := lookup(obj, p).(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func lookupNumber(obj map[string]any, paths ...string) float64 {
	for _, p := range paths {
		if n, ok := lookup(obj, p).(float64); ok {
			return n
		}
	}
	return 0
}

func lookup(obj map[string]any, path string) any {
	var cur any = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}
