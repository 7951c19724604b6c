package jikan

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func expectedAnimeOne() CompositeRecord {
	return CompositeRecord{
		Details: Anime{
			MalID: 1, URL: "https://myanimelist.net/anime/1", Title: "Cowboy Bebop",
			TitleJapanese: "カウボーイビバップ", ImageURL: "https://img/1l.jpg",
			Synopsis: "Space bounty hunters.", Type: "TV", Status: "Finished Airing",
			Episodes: 26, Score: 8.75, ScoredBy: 1000, Rank: 40, Year: 1998, Season: "spring",
			Broadcast: "Saturdays at 01:00 (JST)", Genres: []string{"Action", "Sci-Fi"}, Studios: []string{"Sunrise"},
		},
		Characters: []Character{{
			MalID: 1, Name: "Spiegel, Spike", ImageURL: "https://img/c1.jpg", Role: "Main",
			VoiceActor: "Yamadera, Kouichi", VoiceLanguage: "Japanese",
		}},
		Staff: []StaffMember{{
			MalID: 40, Name: "Watanabe, Shinichirou", ImageURL: "https://img/p40.jpg",
			Positions: []string{"Director", "Script"},
		}},
	}
}

func TestCompound_SequentialOrderAndPacing(t *testing.T) {
	up := newFakeUpstream(t)
	scriptAnimeOne(up)
	c, clock := newTestClient(t, up, nil)

	rec, err := c.compound.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(rec, expectedAnimeOne()) {
		t.Errorf("got %+v\nwant %+v", rec, expectedAnimeOne())
	}

	wantOrder := []string{"/anime/1/full", "/anime/1/characters", "/anime/1/staff"}
	if got := up.requests(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("order = %v, want %v", got, wantOrder)
	}
	wantSleeps := []time.Duration{400 * time.Millisecond, 400 * time.Millisecond}
	if got := clock.Sleeps(); !reflect.DeepEqual(got, wantSleeps) {
		t.Errorf("sleeps = %v, want %v", got, wantSleeps)
	}
}

func TestCompound_ParallelAssemblesSameRecord(t *testing.T) {
	up := newFakeUpstream(t)
	scriptAnimeOne(up)
	c, clock := newTestClient(t, up, func(cfg *Config) { cfg.CompositeStrategy = StrategyParallel })

	rec, err := c.compound.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(rec, expectedAnimeOne()) {
		t.Errorf("got %+v\nwant %+v", rec, expectedAnimeOne())
	}
	if len(clock.Sleeps()) != 0 {
		t.Errorf("parallel strategy should not pace, got %v", clock.Sleeps())
	}
}

func TestCompound_StaffFailureIsIncompleteAndNotCached(t *testing.T) {
	for _, strategy := range []CompositeStrategy{StrategySequential, StrategyParallel} {
		t.Run(string(strategy), func(t *testing.T) {
			up := newFakeUpstream(t)
			scriptAnimeOne(up)
			up.on("/anime/1/staff", serverErr)
			c, _ := newTestClient(t, up, func(cfg *Config) { cfg.CompositeStrategy = strategy })
			ctx := context.Background()

			_, err := c.compound.Fetch(ctx, 1)

			var ire *IncompleteResourceError
			if !errors.As(err, &ire) {
				t.Fatalf("err = %v, want *IncompleteResourceError", err)
			}
			if ire.Part != PartStaff || ire.ID != 1 {
				t.Errorf("part=%q id=%d, want staff/1", ire.Part, ire.ID)
			}
			if !errors.Is(err, ErrIncompleteResource) || !errors.Is(err, ErrTransport) {
				t.Errorf("sentinel matching is wrong for %v", err)
			}
			if _, ok := c.loader.Peek(ctx, "anime_1"); ok {
				t.Error("a failed composite must not be cached")
			}
			if got := up.count("/anime/1/staff"); got != 3 {
				t.Errorf("staff attempts = %d, want 3", got)
			}
		})
	}
}

func TestCompound_RetryAfterFailureReusesCachedParts(t *testing.T) {
	up := newFakeUpstream(t)
	scriptAnimeOne(up)
	up.on("/anime/1/staff", serverErr, serverErr, serverErr, ok(staffJSON))
	c, _ := newTestClient(t, up, nil)
	ctx := context.Background()

	if _, err := c.compound.Fetch(ctx, 1); err == nil {
		t.Fatal("first fetch should fail")
	}
	rec, err := c.compound.Fetch(ctx, 1)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !reflect.DeepEqual(rec, expectedAnimeOne()) {
		t.Errorf("unexpected record %+v", rec)
	}
	if up.count("/anime/1/full") != 1 || up.count("/anime/1/characters") != 1 {
		t.Errorf("cached parts were refetched: full=%d characters=%d",
			up.count("/anime/1/full"), up.count("/anime/1/characters"))
	}
	if _, ok := c.loader.Peek(ctx, "anime_1"); !ok {
		t.Error("complete record should be cached")
	}
}

func TestCompound_MissingDetails(t *testing.T) {
	up := newFakeUpstream(t)
	scriptAnimeOne(up)
	up.on("/anime/1/full", ok(`{"data":null}`))
	c, _ := newTestClient(t, up, nil)

	_, err := c.compound.Fetch(context.Background(), 1)

	var ire *IncompleteResourceError
	if !errors.As(err, &ire) || ire.Part != PartDetails {
		t.Fatalf("err = %v, want incomplete details", err)
	}
	if !errors.Is(err, ErrMissingDetails) {
		t.Errorf("err = %v, want ErrMissingDetails in chain", err)
	}
	if up.count("/anime/1/characters") != 0 {
		t.Error("sequential strategy must stop at the first failed part")
	}
}

func TestCompound_EmptyPartsAreComplete(t *testing.T) {
	up := newFakeUpstream(t)
	up.on("/anime/1/full", ok(animeDetailsJSON()))
	up.on("/anime/1/characters", emptyList)
	up.on("/anime/1/staff", emptyList)
	c, _ := newTestClient(t, up, nil)

	rec, err := c.compound.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rec.Characters == nil || rec.Staff == nil {
		t.Error("empty parts must be empty slices")
	}
	if len(rec.Characters) != 0 || len(rec.Staff) != 0 {
		t.Errorf("unexpected parts %+v", rec)
	}
}
