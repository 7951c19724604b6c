package jikan

import (
	"encoding/json"
	"time"
)

// Defaults substituted for missing upstream fields.
const (
	PlaceholderImageURL = "https://cdn.myanimelist.net/images/qm_50.gif"
	UntitledTitle       = "Untitled"
	AnonymousAuthor     = "Anonymous"
)

// Anime is the canonical anime summary shape.
type Anime struct {
	MalID         int      `json:"mal_id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	TitleEnglish  string   `json:"title_english,omitempty"`
	TitleJapanese string   `json:"title_japanese,omitempty"`
	ImageURL      string   `json:"image_url"`
	TrailerURL    string   `json:"trailer_url,omitempty"`
	Synopsis      string   `json:"synopsis"`
	Type          string   `json:"type,omitempty"`
	Status        string   `json:"status,omitempty"`
	Episodes      int      `json:"episodes"`
	Score         float64  `json:"score"`
	ScoredBy      int      `json:"scored_by"`
	Rank          int      `json:"rank"`
	Year          int      `json:"year"`
	Season        string   `json:"season,omitempty"`
	Broadcast     string   `json:"broadcast,omitempty"`
	Genres        []string `json:"genres"`
	Studios       []string `json:"studios"`
}

// Character is one entry of an anime's character list.
type Character struct {
	MalID         int    `json:"mal_id"`
	Name          string `json:"name"`
	ImageURL      string `json:"image_url"`
	Role          string `json:"role"`
	VoiceActor    string `json:"voice_actor,omitempty"`
	VoiceLanguage string `json:"voice_language,omitempty"`
}

// StaffMember is one entry of an anime's staff list.
type StaffMember struct {
	MalID     int      `json:"mal_id"`
	Name      string   `json:"name"`
	ImageURL  string   `json:"image_url"`
	Positions []string `json:"positions"`
}

// Recommendation is an anime recommended alongside another.
type Recommendation struct {
	MalID    int    `json:"mal_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
	Votes    int    `json:"votes"`
}

// Review is a user review of an anime.
type Review struct {
	MalID    int       `json:"mal_id"`
	URL      string    `json:"url"`
	Author   string    `json:"author"`
	Score    int       `json:"score"`
	Date     time.Time `json:"date"`
	Body     string    `json:"body"`
	Tags     []string  `json:"tags"`
	Spoiler  bool      `json:"spoiler"`
	Watched  int       `json:"episodes_watched"`
}

// CompositeRecord is an anime with its characters and staff. It is only
// ever returned complete.
type CompositeRecord struct {
	Details    Anime         `json:"details"`
	Characters []Character   `json:"characters"`
	Staff      []StaffMember `json:"staff"`
}

type imageSet struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
	WebP struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"webp"`
}

func (s imageSet) best() string {
	return firstNonEmpty(s.JPG.LargeImageURL, s.JPG.ImageURL, s.WebP.LargeImageURL, s.WebP.ImageURL, PlaceholderImageURL)
}

type named struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

// NormalizeAnime maps one upstream anime object into Anime.
// Missing title and image fall back to UntitledTitle and PlaceholderImageURL.
func NormalizeAnime(raw json.RawMessage) (Anime, error) {
	var in struct {
		MalID         int      `json:"mal_id"`
		URL           string   `json:"url"`
		Title         string   `json:"title"`
		TitleEnglish  string   `json:"title_english"`
		TitleJapanese string   `json:"title_japanese"`
		Images        imageSet `json:"images"`
		Trailer       struct {
			URL string `json:"url"`
		} `json:"trailer"`
		Synopsis  string   `json:"synopsis"`
		Type      string   `json:"type"`
		Status    string   `json:"status"`
		Episodes  *int     `json:"episodes"`
		Score     *float64 `json:"score"`
		ScoredBy  *int     `json:"scored_by"`
		Rank      *int     `json:"rank"`
		Year      *int     `json:"year"`
		Season    string   `json:"season"`
		Broadcast struct {
			String string `json:"string"`
		} `json:"broadcast"`
		Genres  []named `json:"genres"`
		Studios []named `json:"studios"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return Anime{}, err
	}

	return Anime{
		MalID:         in.MalID,
		URL:           in.URL,
		Title:         firstNonEmpty(in.Title, in.TitleEnglish, UntitledTitle),
		TitleEnglish:  in.TitleEnglish,
		TitleJapanese: in.TitleJapanese,
		ImageURL:      in.Images.best(),
		TrailerURL:    in.Trailer.URL,
		Synopsis:      in.Synopsis,
		Type:          in.Type,
		Status:        in.Status,
		Episodes:      deref(in.Episodes),
		Score:         deref(in.Score),
		ScoredBy:      deref(in.ScoredBy),
		Rank:          deref(in.Rank),
		Year:          deref(in.Year),
		Season:        in.Season,
		Broadcast:     in.Broadcast.String,
		Genres:        names(in.Genres),
		Studios:       names(in.Studios),
	}, nil
}

// NormalizeCharacter maps one entry of /anime/{id}/characters.
// The Japanese voice actor is preferred when several are listed.
func NormalizeCharacter(raw json.RawMessage) (Character, error) {
	var in struct {
		Character struct {
			MalID  int      `json:"mal_id"`
			Name   string   `json:"name"`
			Images imageSet `json:"images"`
		} `json:"character"`
		Role        string `json:"role"`
		VoiceActors []struct {
			Person   named  `json:"person"`
			Language string `json:"language"`
		} `json:"voice_actors"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return Character{}, err
	}

	c := Character{
		MalID:    in.Character.MalID,
		Name:     firstNonEmpty(in.Character.Name, UntitledTitle),
		ImageURL: in.Character.Images.best(),
		Role:     in.Role,
	}
	for i, va := range in.VoiceActors {
		if i == 0 || va.Language == "Japanese" {
			c.VoiceActor = va.Person.Name
			c.VoiceLanguage = va.Language
		}
		if va.Language == "Japanese" {
			break
		}
	}
	return c, nil
}

// NormalizeStaffMember maps one entry of /anime/{id}/staff.
func NormalizeStaffMember(raw json.RawMessage) (StaffMember, error) {
	var in struct {
		Person struct {
			MalID  int      `json:"mal_id"`
			Name   string   `json:"name"`
			Images imageSet `json:"images"`
		} `json:"person"`
		Positions []string `json:"positions"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return StaffMember{}, err
	}
	if in.Positions == nil {
		in.Positions = []string{}
	}
	return StaffMember{
		MalID:     in.Person.MalID,
		Name:      firstNonEmpty(in.Person.Name, AnonymousAuthor),
		ImageURL:  in.Person.Images.best(),
		Positions: in.Positions,
	}, nil
}

// NormalizeRecommendation maps one entry of /anime/{id}/recommendations.
func NormalizeRecommendation(raw json.RawMessage) (Recommendation, error) {
	var in struct {
		Entry struct {
			MalID  int      `json:"mal_id"`
			URL    string   `json:"url"`
			Title  string   `json:"title"`
			Images imageSet `json:"images"`
		} `json:"entry"`
		URL   string `json:"url"`
		Votes int    `json:"votes"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return Recommendation{}, err
	}
	return Recommendation{
		MalID:    in.Entry.MalID,
		Title:    firstNonEmpty(in.Entry.Title, UntitledTitle),
		URL:      firstNonEmpty(in.Entry.URL, in.URL),
		ImageURL: in.Entry.Images.best(),
		Votes:    in.Votes,
	}, nil
}

// NormalizeReview maps one entry of /anime/{id}/reviews. A missing or
// unparseable date becomes now.
func NormalizeReview(raw json.RawMessage, now time.Time) (Review, error) {
	var in struct {
		MalID int    `json:"mal_id"`
		URL   string `json:"url"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
		Score           int      `json:"score"`
		Date            string   `json:"date"`
		Review          string   `json:"review"`
		Tags            []string `json:"tags"`
		IsSpoiler       bool     `json:"is_spoiler"`
		EpisodesWatched *int     `json:"episodes_watched"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return Review{}, err
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return Review{
		MalID:   in.MalID,
		URL:     in.URL,
		Author:  firstNonEmpty(in.User.Username, AnonymousAuthor),
		Score:   in.Score,
		Date:    parseTime(in.Date, now),
		Body:    in.Review,
		Tags:    in.Tags,
		Spoiler: in.IsSpoiler,
		Watched: deref(in.EpisodesWatched),
	}, nil
}

func names(in []named) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(s string, fallback time.Time) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}
