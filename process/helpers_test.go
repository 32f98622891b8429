package process

import (
	"context"
	"sync"
	"testing"

	"github.com/giwty/steam-library-manager/db"
	"github.com/giwty/steam-library-manager/hltb"
)

func newTestStore(t *testing.T) *db.CacheStore {
	t.Helper()
	pdb, err := db.NewPersistentDB(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(pdb.Close)
	return db.NewCacheStore(pdb)
}

func newTestEnricher(client hltb.Searcher, store *db.CacheStore) *Enricher {
	e := NewEnricher(client, store)
	e.delay = 0
	return e
}

func hoursPtr(v float64) *float64 {
	return &v
}

func mainHours(v float64) *db.CompletionTimes {
	return &db.CompletionTimes{Main: hoursPtr(v)}
}

// fakeSearcher serves canned results per title and records every query.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]hltb.Candidate
	errs    map[string]error
}

func (f *fakeSearcher) Search(ctx context.Context, title string) ([]hltb.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, title)
	f.mu.Unlock()
	if err, ok := f.errs[title]; ok {
		return nil, err
	}
	return f.results[title], nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSearcher) calledWith() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeLister serves a fixed library listing.
type fakeLister struct {
	entries []db.LibraryEntry
	err     error
}

func (f *fakeLister) GetOwnedGames(ctx context.Context, steamId, apiKey string) ([]db.LibraryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func libraryEntries(titles ...string) []db.LibraryEntry {
	entries := make([]db.LibraryEntry, 0, len(titles))
	for i, title := range titles {
		entries = append(entries, db.LibraryEntry{Title: title, AppID: int64(i + 1)})
	}
	return entries
}

func recordFor(title string) *db.GameRecord {
	return &db.GameRecord{LibraryEntry: db.LibraryEntry{Title: title}}
}

func singleResult(title string, main float64) []hltb.Candidate {
	return []hltb.Candidate{{Title: title, Times: db.CompletionTimes{Main: hoursPtr(main)}}}
}
