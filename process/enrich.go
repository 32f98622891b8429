package process

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giwty/steam-library-manager/db"
	"github.com/giwty/steam-library-manager/hltb"
	"go.uber.org/zap"
)

const (
	// EnrichBatchSize bounds the number of in-flight lookups.
	EnrichBatchSize = 50
	// enrichBatchDelay throttles the aggregate request rate between batches.
	enrichBatchDelay = 1000 * time.Millisecond
)

// Enricher drives concurrent-but-bounded beat time lookups across a library
// and merges the results into the shared cache store.
type Enricher struct {
	client    hltb.Searcher
	store     *db.CacheStore
	batchSize int
	delay     time.Duration
}

func NewEnricher(client hltb.Searcher, store *db.CacheStore) *Enricher {
	return &Enricher{
		client:    client,
		store:     store,
		batchSize: EnrichBatchSize,
		delay:     enrichBatchDelay,
	}
}

// enrichRun tracks shared progress state for one pass. The store and the
// fetched counter are touched from every lookup goroutine in a batch, so
// both go through the mutex.
type enrichRun struct {
	mu      sync.Mutex
	fetched int
	total   int
}

func (r *enrichRun) increment() {
	r.mu.Lock()
	r.fetched++
	r.mu.Unlock()
}

func (r *enrichRun) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetched
}

// EnrichAll looks up beat times for every record, batch by batch. Lookups
// within a batch run concurrently and settle independently: one failure
// never aborts its siblings. Progress is reported after each batch, and the
// beat time cache is persisted wholesale at the end. A cancelled context
// stops the run between batches; in-flight lookups are not aborted.
func (e *Enricher) EnrichAll(ctx context.Context, games []*db.GameRecord, progress db.ProgressUpdater) {
	run := &enrichRun{total: len(games)}

	for start := 0; start < len(games); start += e.batchSize {
		if ctx.Err() != nil {
			zap.S().Infof("enrichment stopped after %v of %v lookups - %v", run.count(), run.total, ctx.Err())
			break
		}

		end := start + e.batchSize
		if end > len(games) {
			end = len(games)
		}

		var wg sync.WaitGroup
		for _, game := range games[start:end] {
			game := game
			wg.Add(1)
			go func() {
				defer wg.Done()
				e.fetchBeatTimes(ctx, game, run)
			}()
		}
		wg.Wait()

		if progress != nil {
			progress.UpdateProgress(run.count(), run.total, "fetching beat times")
		}

		if end < len(games) {
			time.Sleep(e.delay)
		}
	}

	e.store.SaveBeatTimes()
}

// fetchBeatTimes resolves one record: cache hit, lookup by raw title,
// one retry with the normalized title on an empty result set, then match
// selection. The cache is keyed by the original title; the normalized title
// is only a search aid.
func (e *Enricher) fetchBeatTimes(ctx context.Context, game *db.GameRecord, run *enrichRun) {
	if game.BeatTimesLoading || game.BeatTimes != nil {
		return
	}

	key := game.Key()
	run.mu.Lock()
	cached, ok := e.store.BeatTimes[key]
	run.mu.Unlock()
	if ok {
		game.BeatTimes = cached.Clone()
		run.increment()
		return
	}

	game.BeatTimesLoading = true
	defer func() {
		game.BeatTimesLoading = false
		run.increment()
	}()

	searchTitle := game.Title
	candidates, err := e.client.Search(ctx, searchTitle)
	if err != nil {
		game.BeatTimesError = err.Error()
		return
	}

	if len(candidates) == 0 {
		normalized := NormalizeTitle(game.Title)
		if normalized != game.Title {
			zap.S().Debugf("no results for [%v], retrying with [%v]", game.Title, normalized)
			candidates, err = e.client.Search(ctx, normalized)
			if err != nil {
				game.BeatTimesError = err.Error()
				return
			}
			searchTitle = normalized
		}
	}

	match := SelectBestMatch(candidates, searchTitle)
	if match == nil {
		game.BeatTimes = nil
		return
	}

	times := match.Times
	game.BeatTimes = &times
	run.mu.Lock()
	e.store.SetBeatTimes(key, &times)
	run.mu.Unlock()
}

// RetryOne re-runs the lookup for a single record, clearing its previous
// terminal state first.
func (e *Enricher) RetryOne(ctx context.Context, game *db.GameRecord) {
	game.BeatTimes = nil
	game.BeatTimesError = ""
	run := &enrichRun{total: 1}
	e.fetchBeatTimes(ctx, game, run)
}

// RetryAllErrors re-runs the batched lookup over just the records that ended
// in an error state and returns that subset.
func (e *Enricher) RetryAllErrors(ctx context.Context, games []*db.GameRecord, progress db.ProgressUpdater) []*db.GameRecord {
	var errored []*db.GameRecord
	for _, game := range games {
		if game.BeatTimesError != "" {
			game.BeatTimes = nil
			game.BeatTimesError = ""
			errored = append(errored, game)
		}
	}
	if len(errored) == 0 {
		return nil
	}
	e.EnrichAll(ctx, errored, progress)
	return errored
}

// RenameAndRetry re-queries a record under a user-supplied title. On success
// the result is cached under both the original and the new key, and override
// entries that already exist for either key are updated too.
func (e *Enricher) RenameAndRetry(ctx context.Context, game *db.GameRecord, newTitle string) error {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" || newTitle == game.Title {
		return nil
	}

	game.BeatTimes = nil
	game.BeatTimesError = ""
	game.BeatTimesLoading = true
	defer func() {
		game.BeatTimesLoading = false
	}()

	candidates, err := e.client.Search(ctx, newTitle)
	if err != nil {
		game.BeatTimesError = err.Error()
		return err
	}

	match := SelectBestMatch(candidates, newTitle)
	if match == nil {
		game.BeatTimesError = fmt.Sprintf("no results found for %q", newTitle)
		return nil
	}

	times := match.Times
	game.BeatTimes = &times

	originalKey := game.Key()
	newKey := strings.ToLower(newTitle)
	e.store.SetBeatTimes(originalKey, &times)
	e.store.SetBeatTimes(newKey, &times)
	if _, ok := e.store.Overrides[originalKey]; ok {
		e.store.SetOverride(originalKey, &times)
	}
	if _, ok := e.store.Overrides[newKey]; ok {
		e.store.SetOverride(newKey, &times)
	}
	return nil
}
