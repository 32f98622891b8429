package process

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/giwty/steam-library-manager/db"
)

const ExportVersion = "1.0"

// ExportDocument is the portable form of the full cache state.
type ExportDocument struct {
	LibraryCache  map[string]db.LibraryEntry     `json:"libraryCache"`
	BeatTimeCache map[string]*db.CompletionTimes `json:"beatTimeCache"`
	OverrideCache map[string]*db.CompletionTimes `json:"overrideCache,omitempty"`
	Collection    map[string]db.CollectionEntry  `json:"collection,omitempty"`
	ExportDate    string                         `json:"exportDate"`
	Version       string                         `json:"version"`
}

// BuildExportDocument snapshots the store into a document.
func BuildExportDocument(store *db.CacheStore) *ExportDocument {
	return &ExportDocument{
		LibraryCache:  store.Library,
		BeatTimeCache: store.BeatTimes,
		OverrideCache: store.Overrides,
		Collection:    store.Collection,
		ExportDate:    time.Now().UTC().Format(time.RFC3339),
		Version:       ExportVersion,
	}
}

// WriteExport writes the full cache state as an indented JSON document.
func WriteExport(store *db.CacheStore, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildExportDocument(store))
}

// ReadExportDocument parses and validates an exported document. Validation
// failures happen before any state is touched.
func ReadExportDocument(r io.Reader) (*ExportDocument, error) {
	doc := ExportDocument{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid data file: %w", err)
	}
	if doc.LibraryCache == nil || doc.BeatTimeCache == nil {
		return nil, errors.New("invalid data file format, missing required cache data")
	}
	return &doc, nil
}

// ApplyImport replaces every mapping with the document's content. A missing
// override cache defaults to a deep copy of the beat time cache, a missing
// collection to empty.
func ApplyImport(store *db.CacheStore, doc *ExportDocument) error {
	if doc == nil || doc.LibraryCache == nil || doc.BeatTimeCache == nil {
		return errors.New("invalid data file format, missing required cache data")
	}

	overrides := doc.OverrideCache
	if overrides == nil {
		overrides = make(map[string]*db.CompletionTimes, len(doc.BeatTimeCache))
		for key, times := range doc.BeatTimeCache {
			overrides[key] = times.Clone()
		}
	}
	collection := doc.Collection
	if collection == nil {
		collection = map[string]db.CollectionEntry{}
	}

	store.ReplaceAll(doc.LibraryCache, doc.BeatTimeCache, overrides, collection)
	return nil
}

var csvHeader = []string{"Game Name", "Main Story", "Main + Extras", "Completionist", "All Styles", "Steam Playtime"}

// WriteCSV writes the successful records only, one row per game.
func WriteCSV(records []*db.GameRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, record := range records {
		if record.BeatTimes == nil || record.BeatTimesError != "" {
			continue
		}
		times := record.BeatTimes
		row := []string{
			record.Title,
			formatHours(times.Main),
			formatHours(times.MainExtra),
			formatHours(times.Completionist),
			formatHours(times.AllStyles),
			fmt.Sprintf("%dh", record.Playtime),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatHours(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
