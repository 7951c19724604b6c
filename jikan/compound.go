package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/animedata/cache"
	"github.com/jonwraymond/animedata/resilience"
)

// Composite parts and their cache key kinds.
const (
	PartDetails    = "details"
	PartCharacters = "characters"
	PartStaff      = "staff"

	kindAnime           = "anime"
	kindAnimeDetails    = "animeDetails"
	kindAnimeCharacters = "animeCharacters"
	kindAnimeStaff      = "animeStaff"
)

// CompoundFetcher assembles a CompositeRecord from the details, characters
// and staff endpoints.
//
// Every part is cached on its own and the assembled record is cached as a
// unit under anime_<id>. A hit on the unit key skips all three parts. If
// any part fails the result is an *IncompleteResourceError and nothing is
// stored under the unit key.
type CompoundFetcher struct {
	fetcher  *Fetcher
	loader   *cache.Loader
	keyer    cache.Keyer
	baseURL  string
	strategy CompositeStrategy
	sleep    resilience.Sleeper
	delay    time.Duration
}

// NewCompoundFetcher creates a compound fetcher.
func NewCompoundFetcher(fetcher *Fetcher, loader *cache.Loader, keyer cache.Keyer, baseURL string,
	strategy CompositeStrategy, sleep resilience.Sleeper, interCallDelay time.Duration) *CompoundFetcher {
	if strategy == "" {
		strategy = StrategySequential
	}
	return &CompoundFetcher{
		fetcher:  fetcher,
		loader:   loader,
		keyer:    keyer,
		baseURL:  baseURL,
		strategy: strategy,
		sleep:    sleep,
		delay:    interCallDelay,
	}
}

// Key returns the unit cache key for id.
func (f *CompoundFetcher) Key(id int) string {
	return f.keyer.Key(kindAnime, strconv.Itoa(id))
}

// Fetch returns the complete record for id.
func (f *CompoundFetcher) Fetch(ctx context.Context, id int) (CompositeRecord, error) {
	data, err := f.loader.Load(ctx, f.Key(id), func(ctx context.Context) ([]byte, error) {
		rec, err := f.assemble(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rec)
	})
	if err != nil {
		return CompositeRecord{}, err
	}

	var rec CompositeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return CompositeRecord{}, fmt.Errorf("jikan: decode cached anime %d: %w", id, err)
	}
	if rec.Characters == nil {
		rec.Characters = []Character{}
	}
	if rec.Staff == nil {
		rec.Staff = []StaffMember{}
	}
	return rec, nil
}

func (f *CompoundFetcher) assemble(ctx context.Context, id int) (CompositeRecord, error) {
	if f.strategy == StrategyParallel {
		return f.assembleParallel(ctx, id)
	}
	return f.assembleSequential(ctx, id)
}

// assembleSequential fetches details, characters and staff strictly in
// that order. The pacer only delays upstream calls, so cached parts cost
// nothing.
func (f *CompoundFetcher) assembleSequential(ctx context.Context, id int) (CompositeRecord, error) {
	p := newPacer(f.sleep, f.delay)

	details, err := f.details(ctx, id, p)
	if err != nil {
		return CompositeRecord{}, f.incomplete(ctx, id, PartDetails, err)
	}
	characters, err := loadPart(ctx, f, id, PartCharacters, p, NormalizeCharacter)
	if err != nil {
		return CompositeRecord{}, f.incomplete(ctx, id, PartCharacters, err)
	}
	staff, err := loadPart(ctx, f, id, PartStaff, p, NormalizeStaffMember)
	if err != nil {
		return CompositeRecord{}, f.incomplete(ctx, id, PartStaff, err)
	}

	return CompositeRecord{Details: details, Characters: characters, Staff: staff}, nil
}

// assembleParallel fetches all parts at once. The first failure cancels
// the remaining parts.
func (f *CompoundFetcher) assembleParallel(ctx context.Context, id int) (CompositeRecord, error) {
	var rec CompositeRecord
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		details, err := f.details(gctx, id, nil)
		if err != nil {
			return f.incomplete(ctx, id, PartDetails, err)
		}
		rec.Details = details
		return nil
	})
	g.Go(func() error {
		characters, err := loadPart(gctx, f, id, PartCharacters, nil, NormalizeCharacter)
		if err != nil {
			return f.incomplete(ctx, id, PartCharacters, err)
		}
		rec.Characters = characters
		return nil
	})
	g.Go(func() error {
		staff, err := loadPart(gctx, f, id, PartStaff, nil, NormalizeStaffMember)
		if err != nil {
			return f.incomplete(ctx, id, PartStaff, err)
		}
		rec.Staff = staff
		return nil
	})

	if err := g.Wait(); err != nil {
		return CompositeRecord{}, err
	}
	return rec, nil
}

func (f *CompoundFetcher) details(ctx context.Context, id int, p *pacer) (Anime, error) {
	list, err := loadPart(ctx, f, id, PartDetails, p, NormalizeAnime)
	if err != nil {
		return Anime{}, err
	}
	if len(list) == 0 {
		return Anime{}, ErrMissingDetails
	}
	return list[0], nil
}

// incomplete wraps a part failure. Cancellation of the caller's context is
// returned unwrapped.
func (f *CompoundFetcher) incomplete(ctx context.Context, id int, part string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &IncompleteResourceError{ID: id, Part: part, Cause: err}
}

func (f *CompoundFetcher) partURL(id int, part string) string {
	suffix := part
	if part == PartDetails {
		suffix = "full"
	}
	return fmt.Sprintf("%s/anime/%d/%s", f.baseURL, id, suffix)
}

var partKinds = map[string]string{
	PartDetails:    kindAnimeDetails,
	PartCharacters: kindAnimeCharacters,
	PartStaff:      kindAnimeStaff,
}

// loadPart reads one part through the cache, fetching and normalizing it
// on a miss. A nil pacer means no inter-call delay.
func loadPart[T any](ctx context.Context, f *CompoundFetcher, id int, part string, p *pacer,
	normalize func(json.RawMessage) (T, error)) ([]T, error) {
	key := f.keyer.Key(partKinds[part], strconv.Itoa(id))

	data, err := f.loader.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
		if p != nil {
			if err := p.wait(ctx); err != nil {
				return nil, err
			}
		}
		res, err := f.fetcher.Fetch(ctx, f.partURL(id, part))
		if err != nil {
			return nil, err
		}
		return json.Marshal(normalizeAll(res.Items, normalize))
	})
	if err != nil {
		return nil, err
	}

	out := []T{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("jikan: decode cached %s: %w", key, err)
	}
	return out, nil
}

// normalizeAll applies normalize to every item, dropping items that do not
// decode. The result is never nil.
func normalizeAll[T any](items []json.RawMessage, normalize func(json.RawMessage) (T, error)) []T {
	out := make([]T, 0, len(items))
	for _, raw := range items {
		v, err := normalize(raw)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
