package db

import (
	"errors"

	"go.uber.org/zap"
)

const (
	LIBRARY_TABLENAME    = "library-cache"
	BEAT_TIMES_TABLENAME = "beat-time-cache"
	OVERRIDES_TABLENAME  = "override-cache"
	COLLECTION_TABLENAME = "collection"
	SNAPSHOT_TABLENAME   = "original-beat-times"

	snapshotTakenKey = "snapshot_taken"
)

// ErrNoSnapshot is returned when a reset is requested before the original
// snapshot was ever captured.
var ErrNoSnapshot = errors.New("no original beat times snapshot exists")

// CacheStore holds the four persisted mappings plus the one-shot original
// snapshot. All mappings are keyed by normalized (lowercase) title. Loading
// any single mapping is best effort: a corrupted table falls back to an
// empty mapping and never fails construction.
type CacheStore struct {
	Library    map[string]LibraryEntry
	BeatTimes  map[string]*CompletionTimes
	Overrides  map[string]*CompletionTimes
	Collection map[string]CollectionEntry

	snapshot    map[string]*CompletionTimes
	hasSnapshot bool
	pdb         *PersistentDB
}

func NewCacheStore(pdb *PersistentDB) *CacheStore {
	cs := &CacheStore{pdb: pdb}
	cs.Library = loadLibraryTable(pdb, LIBRARY_TABLENAME)
	cs.BeatTimes = loadTimesTable(pdb, BEAT_TIMES_TABLENAME)
	cs.Overrides = loadTimesTable(pdb, OVERRIDES_TABLENAME)
	cs.Collection = loadCollectionTable(pdb, COLLECTION_TABLENAME)
	cs.snapshot = loadTimesTable(pdb, SNAPSHOT_TABLENAME)

	taken := ""
	if err := pdb.GetEntry(DB_INTERNAL_TABLENAME, snapshotTakenKey, &taken); err != nil {
		zap.S().Warnf("failed to read snapshot marker - %v", err)
	}
	cs.hasSnapshot = taken == "true"

	// The override cache starts life as a copy of the beat time cache and
	// only diverges through explicit edits.
	if len(cs.Overrides) == 0 && len(cs.BeatTimes) > 0 {
		cs.Overrides = cloneTimesMap(cs.BeatTimes)
		cs.SaveOverrides()
	}

	return cs
}

func loadLibraryTable(pdb *PersistentDB, tableName string) map[string]LibraryEntry {
	result := map[string]LibraryEntry{}
	entries, err := pdb.GetAllEntries(tableName)
	if err != nil {
		zap.S().Warnf("failed to load table [%v], falling back to empty - %v", tableName, err)
		return map[string]LibraryEntry{}
	}
	for key, data := range entries {
		entry := LibraryEntry{}
		if err := DecodeEntry(data, &entry); err != nil {
			zap.S().Warnf("corrupted entry in table [%v], falling back to empty - %v", tableName, err)
			return map[string]LibraryEntry{}
		}
		result[key] = entry
	}
	return result
}

func loadTimesTable(pdb *PersistentDB, tableName string) map[string]*CompletionTimes {
	result := map[string]*CompletionTimes{}
	entries, err := pdb.GetAllEntries(tableName)
	if err != nil {
		zap.S().Warnf("failed to load table [%v], falling back to empty - %v", tableName, err)
		return map[string]*CompletionTimes{}
	}
	for key, data := range entries {
		times := CompletionTimes{}
		if err := DecodeEntry(data, &times); err != nil {
			zap.S().Warnf("corrupted entry in table [%v], falling back to empty - %v", tableName, err)
			return map[string]*CompletionTimes{}
		}
		result[key] = &times
	}
	return result
}

func loadCollectionTable(pdb *PersistentDB, tableName string) map[string]CollectionEntry {
	result := map[string]CollectionEntry{}
	entries, err := pdb.GetAllEntries(tableName)
	if err != nil {
		zap.S().Warnf("failed to load table [%v], falling back to empty - %v", tableName, err)
		return map[string]CollectionEntry{}
	}
	for key, data := range entries {
		entry := CollectionEntry{}
		if err := DecodeEntry(data, &entry); err != nil {
			zap.S().Warnf("corrupted entry in table [%v], falling back to empty - %v", tableName, err)
			return map[string]CollectionEntry{}
		}
		result[key] = entry
	}
	return result
}

func cloneTimesMap(src map[string]*CompletionTimes) map[string]*CompletionTimes {
	dst := make(map[string]*CompletionTimes, len(src))
	for key, times := range src {
		dst[key] = times.Clone()
	}
	return dst
}

// Save to the backing store (ignore errors, log them)
func (cs *CacheStore) SaveLibrary()   { cs.persistTable(LIBRARY_TABLENAME, libraryValues(cs.Library)) }
func (cs *CacheStore) SaveBeatTimes() { cs.persistTable(BEAT_TIMES_TABLENAME, timesValues(cs.BeatTimes)) }
func (cs *CacheStore) SaveOverrides() { cs.persistTable(OVERRIDES_TABLENAME, timesValues(cs.Overrides)) }
func (cs *CacheStore) SaveCollection() {
	cs.persistTable(COLLECTION_TABLENAME, collectionValues(cs.Collection))
}

func (cs *CacheStore) persistTable(tableName string, entries map[string]interface{}) {
	if err := cs.pdb.ReplaceTable(tableName, entries); err != nil {
		zap.S().Warnf("failed to save table [%v] - %v", tableName, err)
	}
}

func libraryValues(m map[string]LibraryEntry) map[string]interface{} {
	values := make(map[string]interface{}, len(m))
	for k, v := range m {
		values[k] = v
	}
	return values
}

func timesValues(m map[string]*CompletionTimes) map[string]interface{} {
	values := make(map[string]interface{}, len(m))
	for k, v := range m {
		values[k] = v
	}
	return values
}

func collectionValues(m map[string]CollectionEntry) map[string]interface{} {
	values := make(map[string]interface{}, len(m))
	for k, v := range m {
		values[k] = v
	}
	return values
}

// SetBeatTimes records a lookup result in memory and in the backing store.
func (cs *CacheStore) SetBeatTimes(key string, times *CompletionTimes) {
	cs.BeatTimes[key] = times.Clone()
	if err := cs.pdb.AddEntry(BEAT_TIMES_TABLENAME, key, cs.BeatTimes[key]); err != nil {
		zap.S().Warnf("failed to save beat times for [%v] - %v", key, err)
	}
}

// SetOverride records a user edit in memory and in the backing store.
func (cs *CacheStore) SetOverride(key string, times *CompletionTimes) {
	cs.Overrides[key] = times.Clone()
	if err := cs.pdb.AddEntry(OVERRIDES_TABLENAME, key, cs.Overrides[key]); err != nil {
		zap.S().Warnf("failed to save override for [%v] - %v", key, err)
	}
}

// RemovalResult reports the per-mapping outcome of RemoveKeyEverywhere.
type RemovalResult struct {
	Library    error
	BeatTimes  error
	Overrides  error
	Collection error
}

// Err joins all per-mapping failures, nil when every write succeeded.
func (r RemovalResult) Err() error {
	return errors.Join(r.Library, r.BeatTimes, r.Overrides, r.Collection)
}

// RemoveKeyEverywhere deletes a key from all four mappings, in memory and in
// the backing store. All four removals are attempted regardless of
// individual failures.
func (cs *CacheStore) RemoveKeyEverywhere(key string) RemovalResult {
	delete(cs.Library, key)
	delete(cs.BeatTimes, key)
	delete(cs.Overrides, key)
	delete(cs.Collection, key)

	result := RemovalResult{
		Library:    cs.pdb.DeleteEntry(LIBRARY_TABLENAME, key),
		BeatTimes:  cs.pdb.DeleteEntry(BEAT_TIMES_TABLENAME, key),
		Overrides:  cs.pdb.DeleteEntry(OVERRIDES_TABLENAME, key),
		Collection: cs.pdb.DeleteEntry(COLLECTION_TABLENAME, key),
	}
	if err := result.Err(); err != nil {
		zap.S().Warnf("failed to fully remove [%v] - %v", key, err)
	}
	return result
}

// ClearBeatTimes drops the lookup result for a key from the beat time and
// override caches and blanks the beat times of a matching collection entry,
// leaving library data and collection membership alone.
func (cs *CacheStore) ClearBeatTimes(key string) error {
	delete(cs.BeatTimes, key)
	delete(cs.Overrides, key)

	errs := []error{
		cs.pdb.DeleteEntry(BEAT_TIMES_TABLENAME, key),
		cs.pdb.DeleteEntry(OVERRIDES_TABLENAME, key),
	}
	if entry, ok := cs.Collection[key]; ok {
		entry.BeatTimes = nil
		cs.Collection[key] = entry
		errs = append(errs, cs.pdb.AddEntry(COLLECTION_TABLENAME, key, entry))
	}
	err := errors.Join(errs...)
	if err != nil {
		zap.S().Warnf("failed to clear beat times for [%v] - %v", key, err)
	}
	return err
}

func (cs *CacheStore) HasSnapshot() bool {
	return cs.hasSnapshot
}

// SnapshotOriginalOnce captures the beat time cache the first time it is
// called; later calls are no-ops.
func (cs *CacheStore) SnapshotOriginalOnce() {
	if cs.hasSnapshot {
		return
	}
	cs.snapshot = cloneTimesMap(cs.BeatTimes)
	cs.hasSnapshot = true
	cs.persistTable(SNAPSHOT_TABLENAME, timesValues(cs.snapshot))
	if err := cs.pdb.AddEntry(DB_INTERNAL_TABLENAME, snapshotTakenKey, "true"); err != nil {
		zap.S().Warnf("failed to save snapshot marker - %v", err)
	}
}

// ResetToSnapshot restores the beat time and override caches to the original
// snapshot and re-synchronizes the beat times of every collection entry
// (entries absent from the snapshot get theirs cleared).
func (cs *CacheStore) ResetToSnapshot() error {
	if !cs.hasSnapshot {
		return ErrNoSnapshot
	}

	cs.BeatTimes = cloneTimesMap(cs.snapshot)
	cs.Overrides = cloneTimesMap(cs.snapshot)

	for key, entry := range cs.Collection {
		entry.BeatTimes = cs.snapshot[key].Clone()
		cs.Collection[key] = entry
	}

	cs.SaveBeatTimes()
	cs.SaveOverrides()
	cs.SaveCollection()
	return nil
}

// ReplaceAll swaps every mapping at once, the import path. Each table is
// persisted wholesale.
func (cs *CacheStore) ReplaceAll(library map[string]LibraryEntry, beatTimes, overrides map[string]*CompletionTimes, collection map[string]CollectionEntry) {
	cs.Library = library
	cs.BeatTimes = beatTimes
	cs.Overrides = overrides
	cs.Collection = collection

	cs.SaveLibrary()
	cs.SaveBeatTimes()
	cs.SaveOverrides()
	cs.SaveCollection()
}

// ReplaceLibrary swaps the library cache wholesale, the fetch path.
func (cs *CacheStore) ReplaceLibrary(entries []LibraryEntry) {
	library := make(map[string]LibraryEntry, len(entries))
	for _, entry := range entries {
		library[entry.Key()] = entry
	}
	cs.Library = library
	cs.SaveLibrary()
}
