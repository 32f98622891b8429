package process

import (
	"context"
	"errors"
	"testing"

	"github.com/giwty/steam-library-manager/db"
	"github.com/giwty/steam-library-manager/hltb"
)

func newTestWorkflow(t *testing.T, searcher hltb.Searcher) (*Workflow, *db.CacheStore) {
	t.Helper()
	store := newTestStore(t)
	return NewWorkflow(store, newTestEnricher(searcher, store)), store
}

func TestWorkflowStartsAtAcquireSource(t *testing.T) {
	workflow, _ := newTestWorkflow(t, &fakeSearcher{})
	if workflow.Step() != StepAcquireSource {
		t.Fatalf("expected initial step %v, got %v", StepAcquireSource, workflow.Step())
	}
	if workflow.Complete() {
		t.Fatalf("an empty store must not count as complete")
	}
}

func TestGoToReviewRedirectsWhenIncomplete(t *testing.T) {
	workflow, _ := newTestWorkflow(t, &fakeSearcher{})
	if step := workflow.GoToReview(); step != StepAcquireSource {
		t.Fatalf("expected redirect to %v, got %v", StepAcquireSource, step)
	}
	if step := workflow.GoToCurate(); step != StepAcquireSource {
		t.Fatalf("expected redirect to %v, got %v", StepAcquireSource, step)
	}
}

func TestAcquireFromSourceEnrichesAndMovesToReview(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]hltb.Candidate{
			"Celeste": singleResult("Celeste", 8),
		},
	}
	workflow, store := newTestWorkflow(t, searcher)
	lister := &fakeLister{entries: libraryEntries("Celeste", "Obscure Title")}

	records, err := workflow.AcquireFromSource(context.Background(), lister, "76561198000000000", "key", true, nil)
	if err != nil {
		t.Fatalf("acquisition failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if workflow.Step() != StepReview || !workflow.Complete() {
		t.Fatalf("expected a complete workflow in review, got step %v complete %v", workflow.Step(), workflow.Complete())
	}

	success, failed, noData := Categorize(records)
	if len(success) != 1 || len(failed) != 0 || len(noData) != 1 {
		t.Fatalf("expected 1 success / 0 errors / 1 nodata, got %d/%d/%d", len(success), len(failed), len(noData))
	}
	if !store.HasSnapshot() {
		t.Fatalf("first acquisition should capture the original snapshot")
	}
}

func TestAcquireFromSourceLibraryOnly(t *testing.T) {
	searcher := &fakeSearcher{}
	workflow, _ := newTestWorkflow(t, searcher)
	lister := &fakeLister{entries: libraryEntries("Celeste")}

	if _, err := workflow.AcquireFromSource(context.Background(), lister, "76561198000000000", "key", false, nil); err != nil {
		t.Fatalf("acquisition failed: %v", err)
	}
	if searcher.callCount() != 0 {
		t.Fatalf("library-only acquisition must not trigger lookups")
	}
	if workflow.Step() != StepReview || !workflow.Complete() {
		t.Fatalf("library-only acquisition still completes, got step %v complete %v", workflow.Step(), workflow.Complete())
	}
}

func TestAcquireFromSourceEmptyLibrary(t *testing.T) {
	workflow, _ := newTestWorkflow(t, &fakeSearcher{})
	lister := &fakeLister{}
	if _, err := workflow.AcquireFromSource(context.Background(), lister, "76561198000000000", "key", true, nil); err == nil {
		t.Fatalf("expected an error for an empty library")
	}
	if workflow.Complete() {
		t.Fatalf("a failed acquisition must not mark the workflow complete")
	}
}

func TestAcquireFromSourceListerError(t *testing.T) {
	workflow, _ := newTestWorkflow(t, &fakeSearcher{})
	lister := &fakeLister{err: errors.New("got a non 200 response - 403 Forbidden")}
	if _, err := workflow.AcquireFromSource(context.Background(), lister, "76561198000000000", "key", true, nil); err == nil {
		t.Fatalf("expected the lister error to surface")
	}
}

func TestImportDataCompletesWorkflow(t *testing.T) {
	workflow, store := newTestWorkflow(t, &fakeSearcher{})
	doc := &ExportDocument{
		LibraryCache: map[string]db.LibraryEntry{
			"celeste":       {Title: "Celeste"},
			"hollow knight": {Title: "Hollow Knight"},
		},
		BeatTimeCache: map[string]*db.CompletionTimes{
			"celeste": mainHours(8),
		},
	}
	if err := workflow.ImportData(doc); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if workflow.Step() != StepReview || !workflow.Complete() {
		t.Fatalf("expected a complete workflow in review, got step %v complete %v", workflow.Step(), workflow.Complete())
	}

	success, failed, noData := Categorize(workflow.Records())
	if len(success) != 1 || len(failed) != 0 || len(noData) != 1 {
		t.Fatalf("expected 1 success / 0 errors / 1 nodata, got %d/%d/%d", len(success), len(failed), len(noData))
	}
	if len(store.Overrides) != 1 {
		t.Fatalf("import without overrides should seed them from beat times, got %d", len(store.Overrides))
	}
}

func TestForceLoad(t *testing.T) {
	workflow, store := newTestWorkflow(t, &fakeSearcher{})
	if err := workflow.ForceLoad(); err == nil {
		t.Fatalf("force load needs some cached data")
	}

	store.SetBeatTimes("celeste", mainHours(8))
	if err := workflow.ForceLoad(); err != nil {
		t.Fatalf("force load failed: %v", err)
	}
	if workflow.Step() != StepReview || !workflow.Complete() {
		t.Fatalf("force load should enter review, got step %v complete %v", workflow.Step(), workflow.Complete())
	}
}

func TestReviewDetailFilter(t *testing.T) {
	workflow, store := newTestWorkflow(t, &fakeSearcher{})

	if err := workflow.EnterReviewDetail(CategorySuccess); err == nil {
		t.Fatalf("review detail must not be reachable from %v", workflow.Step())
	}

	store.SetBeatTimes("celeste", mainHours(8))
	if err := workflow.ForceLoad(); err != nil {
		t.Fatalf("force load failed: %v", err)
	}

	if err := workflow.EnterReviewDetail(Category("nonsense")); err == nil {
		t.Fatalf("expected an error for an unknown category")
	}
	if err := workflow.EnterReviewDetail(CategoryErrors); err != nil {
		t.Fatalf("failed to enter review detail: %v", err)
	}
	if workflow.DetailFilter() != CategoryErrors {
		t.Fatalf("expected active filter %v, got %v", CategoryErrors, workflow.DetailFilter())
	}

	records := []*db.GameRecord{
		{LibraryEntry: db.LibraryEntry{Title: "Celeste"}, BeatTimes: mainHours(8)},
		{LibraryEntry: db.LibraryEntry{Title: "Broken"}, BeatTimesError: "boom"},
		{LibraryEntry: db.LibraryEntry{Title: "Obscure"}},
	}
	filtered := workflow.FilterByCategory(records)
	if len(filtered) != 1 || filtered[0].Title != "Broken" {
		t.Fatalf("expected only the failed record, got %d", len(filtered))
	}

	workflow.ExitReviewDetail()
	if got := workflow.FilterByCategory(records); len(got) != len(records) {
		t.Fatalf("clearing the filter should return all records, got %d", len(got))
	}
}

func TestRecordsStableOrderAndCopies(t *testing.T) {
	workflow, store := newTestWorkflow(t, &fakeSearcher{})
	store.ReplaceLibrary(libraryEntries("Banjo", "Celeste", "Axiom Verge"))
	store.SetBeatTimes("celeste", mainHours(8))

	records := workflow.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Title != "Axiom Verge" || records[1].Title != "Banjo" || records[2].Title != "Celeste" {
		t.Fatalf("expected stable key order, got %v %v %v", records[0].Title, records[1].Title, records[2].Title)
	}
	if records[2].BeatTimes == store.BeatTimes["celeste"] {
		t.Fatalf("records must hold copies of cached beat times")
	}
}

func TestRemoveCategory(t *testing.T) {
	workflow, store := newTestWorkflow(t, &fakeSearcher{})
	store.ReplaceLibrary(libraryEntries("Celeste", "Broken", "Obscure"))
	store.SetBeatTimes("celeste", mainHours(8))

	records := []*db.GameRecord{
		{LibraryEntry: db.LibraryEntry{Title: "Celeste"}, BeatTimes: mainHours(8)},
		{LibraryEntry: db.LibraryEntry{Title: "Broken"}, BeatTimesError: "boom"},
		{LibraryEntry: db.LibraryEntry{Title: "Obscure"}},
	}

	removed := workflow.RemoveCategory(records, CategoryNoData)
	if len(removed) != 1 || removed[0] != "obscure" {
		t.Fatalf("expected only the no-data record removed, got %v", removed)
	}
	removed = workflow.RemoveCategory(records, CategoryErrors)
	if len(removed) != 1 || removed[0] != "broken" {
		t.Fatalf("expected only the failed record removed, got %v", removed)
	}

	if len(store.Library) != 1 {
		t.Fatalf("expected only the successful game left in the library, got %v", store.Library)
	}
	if _, ok := store.Library["celeste"]; !ok {
		t.Fatalf("successful game must survive category removals")
	}
}

func TestSortRecords(t *testing.T) {
	records := []*db.GameRecord{
		{LibraryEntry: db.LibraryEntry{Title: "Banjo", Playtime: 3}, BeatTimes: mainHours(30)},
		{LibraryEntry: db.LibraryEntry{Title: "axiom", Playtime: 10}},
		{LibraryEntry: db.LibraryEntry{Title: "Celeste", Playtime: 5}, BeatTimes: mainHours(8)},
	}

	SortRecords(records, SortByName, false)
	if records[0].Title != "axiom" || records[2].Title != "Celeste" {
		t.Fatalf("name sort is case-insensitive, got %v %v %v", records[0].Title, records[1].Title, records[2].Title)
	}

	SortRecords(records, SortByPlaytime, true)
	if records[0].Playtime != 10 {
		t.Fatalf("expected descending playtime sort, got %d first", records[0].Playtime)
	}

	// missing beat times sort as zero
	SortRecords(records, SortByMain, false)
	if records[0].Title != "axiom" || records[2].Title != "Banjo" {
		t.Fatalf("expected main story sort with missing times first, got %v %v %v", records[0].Title, records[1].Title, records[2].Title)
	}
}
