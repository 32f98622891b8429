package process

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/giwty/steam-library-manager/db"
	"go.uber.org/zap"
)

// Step is one stage of the data-acquisition / review / curation workflow.
type Step int

const (
	StepAcquireSource Step = iota + 1
	StepReview
	StepCurate
)

func (s Step) String() string {
	switch s {
	case StepAcquireSource:
		return "acquire-source"
	case StepReview:
		return "review"
	case StepCurate:
		return "curate"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Category filters the review listing down to one outcome class.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryErrors  Category = "errors"
	CategoryNoData  Category = "nodata"
)

// LibraryLister is the library listing capability the workflow consumes.
type LibraryLister interface {
	GetOwnedGames(ctx context.Context, steamId, apiKey string) ([]db.LibraryEntry, error)
}

// Workflow sequences the user through acquisition, review and curation,
// gating transitions on cache completeness. It is an explicit context object:
// every operation goes through it, there are no ambient globals.
type Workflow struct {
	store    *db.CacheStore
	enricher *Enricher

	step        Step
	detail      Category
	complete    bool
	libraryOnly bool
}

func NewWorkflow(store *db.CacheStore, enricher *Enricher) *Workflow {
	w := &Workflow{store: store, enricher: enricher, step: StepAcquireSource}
	w.refreshCompleteness()
	return w
}

func (w *Workflow) Step() Step             { return w.step }
func (w *Workflow) DetailFilter() Category { return w.detail }
func (w *Workflow) Complete() bool         { return w.complete }
func (w *Workflow) Store() *db.CacheStore  { return w.store }
func (w *Workflow) Enricher() *Enricher    { return w.enricher }

// Completeness holds iff the library cache is populated and some form of
// beat time data exists, or acquisition explicitly skipped enrichment.
func (w *Workflow) refreshCompleteness() {
	w.complete = len(w.store.Library) > 0 &&
		(len(w.store.BeatTimes) > 0 || len(w.store.Overrides) > 0 || w.libraryOnly)
}

// AcquireFromSource fetches the library listing, replaces the library cache
// wholesale and, unless enrichment is skipped, runs the batched enrichment
// over the fresh records. Acquisition completeness moves the workflow to
// Review.
func (w *Workflow) AcquireFromSource(ctx context.Context, lister LibraryLister, steamId, apiKey string, enrich bool, progress db.ProgressUpdater) ([]*db.GameRecord, error) {
	entries, err := lister.GetOwnedGames(ctx, steamId, apiKey)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("no games found, make sure the profile is public and the api key is correct")
	}

	w.store.ReplaceLibrary(entries)
	w.libraryOnly = !enrich

	records := w.Records()
	if enrich {
		w.enricher.EnrichAll(ctx, records, progress)
	}
	w.completeAcquisition()
	return records, nil
}

// ImportData loads a previously exported document, replacing all mappings.
func (w *Workflow) ImportData(doc *ExportDocument) error {
	if err := ApplyImport(w.store, doc); err != nil {
		return err
	}
	w.libraryOnly = false
	w.completeAcquisition()
	return nil
}

// ForceLoad enters Review with whatever cache currently exists, setting the
// completeness flag unconditionally.
func (w *Workflow) ForceLoad() error {
	if len(w.store.Library) == 0 && len(w.store.BeatTimes) == 0 {
		return errors.New("no cached data found, fetch games first or import a data file")
	}
	w.complete = true
	w.step = StepReview
	w.detail = ""
	return nil
}

func (w *Workflow) completeAcquisition() {
	w.complete = true
	w.store.SnapshotOriginalOnce()
	w.step = StepReview
	w.detail = ""
	zap.S().Infof("data acquisition complete, moving to review")
}

// GoToReview moves to Review when complete; otherwise redirects back to
// AcquireSource. Returns the step actually entered.
func (w *Workflow) GoToReview() Step {
	if !w.complete {
		w.step = StepAcquireSource
		return w.step
	}
	w.step = StepReview
	w.detail = ""
	return w.step
}

// GoToCurate moves to Curate when complete; otherwise redirects back to
// AcquireSource. Returns the step actually entered.
func (w *Workflow) GoToCurate() Step {
	if !w.complete {
		w.step = StepAcquireSource
		return w.step
	}
	w.step = StepCurate
	w.detail = ""
	return w.step
}

// EnterReviewDetail narrows the Review listing to one category.
func (w *Workflow) EnterReviewDetail(category Category) error {
	if w.step != StepReview {
		return fmt.Errorf("cannot view a category from %v", w.step)
	}
	switch category {
	case CategorySuccess, CategoryErrors, CategoryNoData:
	default:
		return fmt.Errorf("unknown category %q", string(category))
	}
	w.detail = category
	return nil
}

// ExitReviewDetail clears the category filter.
func (w *Workflow) ExitReviewDetail() {
	w.detail = ""
}

// Records builds the runtime view of the library merged with the beat time
// cache, in stable key order.
func (w *Workflow) Records() []*db.GameRecord {
	keys := make([]string, 0, len(w.store.Library))
	for key := range w.store.Library {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]*db.GameRecord, 0, len(keys))
	for _, key := range keys {
		records = append(records, &db.GameRecord{
			LibraryEntry: w.store.Library[key],
			BeatTimes:    w.store.BeatTimes[key].Clone(),
		})
	}
	return records
}

// FilterByCategory applies the active review detail filter, if any.
func (w *Workflow) FilterByCategory(records []*db.GameRecord) []*db.GameRecord {
	if w.detail == "" {
		return records
	}
	success, failed, noData := Categorize(records)
	switch w.detail {
	case CategorySuccess:
		return success
	case CategoryErrors:
		return failed
	}
	return noData
}

// RemoveCategory fully removes every record in one review category from all
// cache mappings and returns the removed keys.
func (w *Workflow) RemoveCategory(records []*db.GameRecord, category Category) []string {
	success, failed, noData := Categorize(records)
	var subset []*db.GameRecord
	switch category {
	case CategorySuccess:
		subset = success
	case CategoryErrors:
		subset = failed
	case CategoryNoData:
		subset = noData
	}

	removed := make([]string, 0, len(subset))
	for _, record := range subset {
		key := record.Key()
		if err := w.store.RemoveKeyEverywhere(key).Err(); err != nil {
			zap.S().Warnf("removal of [%v] was incomplete - %v", key, err)
		}
		removed = append(removed, key)
	}
	w.refreshCompleteness()
	return removed
}

// Categorize splits records into the three review outcome classes.
func Categorize(records []*db.GameRecord) (success, failed, noData []*db.GameRecord) {
	for _, record := range records {
		switch {
		case record.BeatTimesError != "":
			failed = append(failed, record)
		case record.BeatTimes != nil:
			success = append(success, record)
		default:
			noData = append(noData, record)
		}
	}
	return success, failed, noData
}

// SortField selects the review sort column.
type SortField string

const (
	SortByName          SortField = "name"
	SortByPlaytime      SortField = "playtime"
	SortByMain          SortField = "main"
	SortByMainExtra     SortField = "mainExtra"
	SortByCompletionist SortField = "completionist"
	SortByAllStyles     SortField = "allStyles"
)

// SortRecords orders records in place by the requested field. Unknown fields
// leave the order untouched.
func SortRecords(records []*db.GameRecord, field SortField, desc bool) {
	less := func(i, j int) bool { return false }
	switch field {
	case SortByName:
		less = func(i, j int) bool {
			return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
		}
	case SortByPlaytime:
		less = func(i, j int) bool { return records[i].Playtime < records[j].Playtime }
	case SortByMain, SortByMainExtra, SortByCompletionist, SortByAllStyles:
		less = func(i, j int) bool {
			return timeField(records[i].BeatTimes, field) < timeField(records[j].BeatTimes, field)
		}
	default:
		return
	}
	if desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(records, less)
}

func timeField(times *db.CompletionTimes, field SortField) float64 {
	if times == nil {
		return 0
	}
	var v *float64
	switch field {
	case SortByMain:
		v = times.Main
	case SortByMainExtra:
		v = times.MainExtra
	case SortByCompletionist:
		v = times.Completionist
	case SortByAllStyles:
		v = times.AllStyles
	}
	if v == nil {
		return 0
	}
	return *v
}
