package process

import (
	"regexp"
	"sort"
	"strings"

	"github.com/giwty/steam-library-manager/db"
	"go.uber.org/zap"
)

// SearchResultCap limits how many candidates a search returns for display.
// Add operations re-resolve by key, so the cap never makes an add go stale.
const SearchResultCap = 10

var separatorRegex = regexp.MustCompile(`[;:-]`)

// Curator promotes entries from the merged caches into the collection and
// applies the bulk removal policies.
type Curator struct {
	store *db.CacheStore
}

func NewCurator(store *db.CacheStore) *Curator {
	return &Curator{store: store}
}

// CollectionCandidate is one addable search hit. Key is the stable handle
// for a subsequent add; display data rides along.
type CollectionCandidate struct {
	Key       string
	Title     string
	Playtime  int
	BeatTimes *db.CompletionTimes
}

// Search finds uncollected beat time cache entries whose key contains the
// query, case-insensitively, in cache iteration order, capped for display.
func (c *Curator) Search(query string) []CollectionCandidate {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	keys := make([]string, 0, len(c.store.BeatTimes))
	for key := range c.store.BeatTimes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var results []CollectionCandidate
	for _, key := range keys {
		if !strings.Contains(key, query) {
			continue
		}
		if _, collected := c.store.Collection[key]; collected {
			continue
		}
		candidate := CollectionCandidate{Key: key, BeatTimes: c.store.BeatTimes[key]}
		if entry, ok := c.store.Library[key]; ok {
			candidate.Title = entry.Title
			candidate.Playtime = entry.Playtime
		} else {
			candidate.Title = CapitalizeKey(key)
		}
		results = append(results, candidate)
		if len(results) == SearchResultCap {
			break
		}
	}
	return results
}

// AddToCollection copies library and beat time data for a key into the
// collection. A key without library data still gets added, under a readable
// capitalization of the key.
func (c *Curator) AddToCollection(key string) {
	entry := db.CollectionEntry{BeatTimes: c.store.BeatTimes[key].Clone()}
	if libEntry, ok := c.store.Library[key]; ok {
		entry.Title = libEntry.Title
		entry.Playtime = libEntry.Playtime
		entry.AppID = libEntry.AppID
		entry.IconRef = libEntry.IconRef
	} else {
		entry.Title = CapitalizeKey(key)
	}
	c.store.Collection[key] = entry
	c.store.SaveCollection()
}

func (c *Curator) RemoveFromCollection(key string) {
	delete(c.store.Collection, key)
	c.store.SaveCollection()
}

func (c *Curator) ClearCollection() {
	c.store.Collection = map[string]db.CollectionEntry{}
	c.store.SaveCollection()
}

// RemovePlayed drops every collection entry with recorded playtime and
// returns how many were removed. Only collection membership is touched.
func (c *Curator) RemovePlayed() int {
	removed := 0
	for key, entry := range c.store.Collection {
		if entry.Playtime > 0 {
			delete(c.store.Collection, key)
			removed++
		}
	}
	if removed > 0 {
		c.store.SaveCollection()
	}
	return removed
}

// RemoveByKeyword scans the library and beat time caches for titles
// containing any keyword as a whole word (after collapsing `;`, `:` and `-`
// to spaces) and fully removes every match from all mappings. Returns the
// removed keys.
func (c *Curator) RemoveByKeyword(keywords []string) []string {
	var patterns []*regexp.Regexp
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(keyword)+`\b`))
	}
	if len(patterns) == 0 {
		return nil
	}

	matched := map[string]struct{}{}
	for key, entry := range c.store.Library {
		if matchesAny(entry.Title, patterns) {
			matched[key] = struct{}{}
		}
	}
	for key := range c.store.BeatTimes {
		if _, ok := matched[key]; ok {
			continue
		}
		if matchesAny(key, patterns) {
			matched[key] = struct{}{}
		}
	}

	removed := make([]string, 0, len(matched))
	for key := range matched {
		removed = append(removed, key)
	}
	sort.Strings(removed)

	for _, key := range removed {
		if err := c.store.RemoveKeyEverywhere(key).Err(); err != nil {
			zap.S().Warnf("keyword removal of [%v] was incomplete - %v", key, err)
		}
	}
	return removed
}

func matchesAny(title string, patterns []*regexp.Regexp) bool {
	cleaned := separatorRegex.ReplaceAllString(strings.ToLower(title), " ")
	for _, pattern := range patterns {
		if pattern.MatchString(cleaned) {
			return true
		}
	}
	return false
}

// CapitalizeKey turns a lowercase cache key back into a readable title.
func CapitalizeKey(key string) string {
	words := strings.Split(key, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
	return strings.Join(words, " ")
}
