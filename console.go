package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/giwty/steam-library-manager/db"
	"github.com/giwty/steam-library-manager/hltb"
	"github.com/giwty/steam-library-manager/process"
	"github.com/giwty/steam-library-manager/settings"
	"github.com/giwty/steam-library-manager/steam"
	"github.com/jedib0t/go-pretty/table"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	fetchFlag        = flag.Bool("fetch", false, "fetch the Steam library and look up beat times")
	libraryOnlyFlag  = flag.Bool("library-only", false, "fetch the Steam library without beat time lookups")
	importFlag       = flag.String("import", "", "path of a previously exported data file to import")
	forceLoadFlag    = flag.Bool("force-load", false, "load whatever cached data exists into review, even if incomplete")
	steamIdFlag      = flag.String("steamid", "", "Steam ID or profile URL (overrides settings and steam.creds)")
	apiKeyFlag       = flag.String("key", "", "Steam API key (overrides steam.creds)")
	retryErrorsFlag  = flag.Bool("retry-errors", false, "retry every failed beat time lookup")
	renameFlag       = flag.String("rename", "", "retry one game under a new name, format 'Old Name=New Name'")
	categoryFlag     = flag.String("category", "", "list one review category (success|errors|nodata)")
	removeGameFlag   = flag.String("remove-game", "", "remove a game from every cache, by name")
	removeCatFlag    = flag.String("remove-category", "", "fully remove every game in a review category (errors|nodata)")
	clearTimesFlag   = flag.String("clear-times", "", "clear the cached beat times of a game, by name")
	keywordsFlag     = flag.String("remove-keywords", "", "comma separated keywords, fully removes matching games (e.g. beta,demo,test)")
	resetFlag        = flag.Bool("reset", false, "reset beat times to the original snapshot")
	searchFlag       = flag.String("search", "", "search addable games for the collection")
	addFlag          = flag.String("add", "", "add a game to the collection, by name")
	removeFlag       = flag.String("remove", "", "remove a game from the collection, by name")
	removePlayedFlag = flag.Bool("remove-played", false, "remove played games from the collection")
	exportFlag       = flag.String("export", "", "path to write a full data export to")
	csvFlag          = flag.String("csv", "", "path to write successful entries to as CSV")
	progressBar      *progressbar.ProgressBar
)

type Console struct {
	baseFolder  string
	sugarLogger *zap.SugaredLogger
}

func CreateConsole(baseFolder string, sugarLogger *zap.SugaredLogger) *Console {
	return &Console{baseFolder: baseFolder, sugarLogger: sugarLogger}
}

func (c *Console) Start() {
	flag.Parse()

	settingsObj := settings.ReadSettings(c.baseFolder)

	if settingsObj.CheckForUpdates {
		if newUpdate, _ := settings.CheckForUpdate(); newUpdate {
			fmt.Printf("\n=== New version available, download from Github ===\n")
		}
	}

	pdb, err := db.NewPersistentDB(settingsObj.BaseFolder())
	if err != nil {
		fmt.Printf("failed to open local cache db :%v\n", err)
		return
	}
	defer pdb.Close()

	store := db.NewCacheStore(pdb)

	hltbClient, err := hltb.New(settingsObj.ApiUrl)
	if err != nil {
		fmt.Printf("failed to create beat time client :%v\n", err)
		return
	}
	steamClient, err := steam.New(settingsObj.ApiUrl)
	if err != nil {
		fmt.Printf("failed to create steam client :%v\n", err)
		return
	}

	enricher := process.NewEnricher(hltbClient, store)
	workflow := process.NewWorkflow(store, enricher)
	curator := process.NewCurator(store)
	ctx := context.Background()

	//1. data acquisition
	var records []*db.GameRecord
	if *importFlag != "" {
		if !c.runImport(workflow) {
			return
		}
	} else if *fetchFlag || *libraryOnlyFlag {
		records = c.runFetch(ctx, workflow, steamClient, settingsObj)
		if records == nil {
			return
		}
	} else if *forceLoadFlag || settingsObj.FetchMode == settings.FETCH_MODE_LOAD_EXISTING {
		if err := workflow.ForceLoad(); err != nil {
			fmt.Printf("\n%v\n", err)
			return
		}
	} else if workflow.GoToReview() != process.StepReview {
		fmt.Printf("\nNo complete data set was found, run with -fetch or -import first\n")
		return
	}
	if records == nil {
		records = workflow.Records()
	}

	//2. review operations
	if *retryErrorsFlag {
		fmt.Printf("\nRetrying failed lookups\n")
		progressBar = progressbar.New(len(records))
		retried := enricher.RetryAllErrors(ctx, records, c)
		progressBar.Finish()
		fmt.Printf("\nRetried %d failed lookups\n", len(retried))
	}

	if *removeCatFlag != "" {
		removed := workflow.RemoveCategory(records, process.Category(*removeCatFlag))
		fmt.Printf("\nRemoved %d games in category [%v]\n", len(removed), *removeCatFlag)
		records = workflow.Records()
	}

	if *renameFlag != "" {
		c.runRename(ctx, enricher, records)
	}

	if *removeGameFlag != "" {
		key := strings.ToLower(*removeGameFlag)
		if err := store.RemoveKeyEverywhere(key).Err(); err != nil {
			fmt.Printf("\nRemoval of [%v] was incomplete :%v\n", key, err)
		} else {
			fmt.Printf("\nRemoved [%v] from all caches\n", key)
		}
		records = workflow.Records()
	}

	if *clearTimesFlag != "" {
		key := strings.ToLower(*clearTimesFlag)
		if err := store.ClearBeatTimes(key); err != nil {
			fmt.Printf("\nClearing beat times for [%v] was incomplete :%v\n", key, err)
		} else {
			fmt.Printf("\nCleared beat times for [%v]\n", key)
		}
		records = workflow.Records()
	}

	if *keywordsFlag != "" {
		removed := curator.RemoveByKeyword(strings.Split(*keywordsFlag, ","))
		fmt.Printf("\nRemoved %d games matching keywords: %v\n", len(removed), strings.Join(removed, ", "))
		records = workflow.Records()
	}

	if *resetFlag {
		if err := store.ResetToSnapshot(); err != nil {
			if errors.Is(err, db.ErrNoSnapshot) {
				fmt.Printf("\nNo original snapshot exists yet, nothing to reset\n")
			} else {
				fmt.Printf("\nReset failed :%v\n", err)
			}
		} else {
			fmt.Printf("\nBeat times were reset to the original snapshot\n")
			records = workflow.Records()
		}
	}

	process.SortRecords(records, process.SortField(settingsObj.SortBy), settingsObj.SortDesc)
	c.showOverview(records)

	if *categoryFlag != "" {
		if err := workflow.EnterReviewDetail(process.Category(*categoryFlag)); err != nil {
			fmt.Printf("\n%v\n", err)
		} else {
			c.showRecords(workflow.FilterByCategory(records), settingsObj.HidePlayedGames)
			workflow.ExitReviewDetail()
		}
	}

	//3. collection management
	if *searchFlag != "" || *addFlag != "" || *removeFlag != "" || *removePlayedFlag {
		if workflow.GoToCurate() != process.StepCurate {
			fmt.Printf("\nManaging the collection requires a complete data set\n")
			return
		}
		if *searchFlag != "" {
			c.showSearchResults(curator.Search(*searchFlag))
		}
		if *addFlag != "" {
			key := strings.ToLower(*addFlag)
			curator.AddToCollection(key)
			fmt.Printf("\nAdded [%v] to the collection\n", key)
		}
		if *removeFlag != "" {
			key := strings.ToLower(*removeFlag)
			curator.RemoveFromCollection(key)
			fmt.Printf("\nRemoved [%v] from the collection\n", key)
		}
		if *removePlayedFlag {
			removed := curator.RemovePlayed()
			fmt.Printf("\nRemoved %d played games from the collection\n", removed)
		}
		c.showCollection(store)
	}

	//4. exports
	if *exportFlag != "" {
		c.runExport(store, *exportFlag)
	}
	if *csvFlag != "" {
		c.runCsvExport(records, *csvFlag)
	}

	fmt.Printf("Completed\n")
}

func (c *Console) runImport(workflow *process.Workflow) bool {
	file, err := os.Open(*importFlag)
	if err != nil {
		fmt.Printf("failed to open import file :%v\n", err)
		return false
	}
	defer file.Close()

	doc, err := process.ReadExportDocument(file)
	if err != nil {
		fmt.Printf("import failed :%v\n", err)
		return false
	}
	if err := workflow.ImportData(doc); err != nil {
		fmt.Printf("import failed :%v\n", err)
		return false
	}
	fmt.Printf("Imported data file [%v]\n", *importFlag)
	return true
}

func (c *Console) runFetch(ctx context.Context, workflow *process.Workflow, steamClient *steam.Client, settingsObj *settings.AppSettings) []*db.GameRecord {
	steamId, apiKey := c.resolveCredentials(settingsObj)
	if steamId == "" || apiKey == "" {
		fmt.Printf("\nMissing Steam ID / API key, pass -steamid/-key or create a %v file\n", settings.CREDS_FILENAME)
		return nil
	}

	enrich := !*libraryOnlyFlag && settingsObj.FetchMode != settings.FETCH_MODE_GAMES_ONLY
	fmt.Printf("Fetching Steam library for [%v]\n", steamId)
	if enrich {
		fmt.Printf("Fetching beat times, this can take a while\n")
	}
	progressBar = progressbar.New(1)

	records, err := workflow.AcquireFromSource(ctx, steamClient, steamId, apiKey, enrich, c)
	if err != nil {
		fmt.Printf("\nfailed to fetch the Steam library\n %v\n", err)
		return nil
	}
	progressBar.Finish()
	fmt.Printf("\nLoaded %d games\n", len(records))
	return records
}

func (c *Console) runRename(ctx context.Context, enricher *process.Enricher, records []*db.GameRecord) {
	parts := strings.SplitN(*renameFlag, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		fmt.Printf("\nInvalid rename, expected 'Old Name=New Name'\n")
		return
	}
	oldName := strings.TrimSpace(parts[0])
	newName := strings.TrimSpace(parts[1])

	for _, record := range records {
		if strings.EqualFold(record.Title, oldName) {
			if err := enricher.RenameAndRetry(ctx, record, newName); err != nil {
				fmt.Printf("\nRename lookup failed :%v\n", err)
			} else if record.BeatTimes != nil {
				fmt.Printf("\nUpdated beat times for [%v] using [%v]\n", oldName, newName)
			} else {
				fmt.Printf("\n%v\n", record.BeatTimesError)
			}
			return
		}
	}
	fmt.Printf("\nNo game named [%v] was found\n", oldName)
}

func (c *Console) resolveCredentials(settingsObj *settings.AppSettings) (string, string) {
	steamId := *steamIdFlag
	if steamId == "" {
		steamId = settingsObj.SteamId
	}
	apiKey := *apiKeyFlag

	settings.InitSteamCreds(settingsObj.BaseFolder())
	creds, _ := settings.SteamCreds()
	if creds != nil {
		if apiKey == "" {
			apiKey = creds.GetCred("api_key")
		}
		if steamId == "" {
			steamId = creds.GetCred("steam_id")
		}
	}

	if steamId != "" {
		resolved, err := steam.ExtractSteamId(steamId)
		if err != nil {
			fmt.Printf("\n%v\n", err)
			return "", apiKey
		}
		steamId = resolved
	}
	return steamId, apiKey
}

func (c *Console) showOverview(records []*db.GameRecord) {
	success, failed, noData := process.Categorize(records)
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleColoredBright)
	t.AppendHeader(table.Row{"Category", "Count"})
	t.AppendRow(table.Row{"Beat times found", len(success)})
	t.AppendRow(table.Row{"Errors", len(failed)})
	t.AppendRow(table.Row{"No data", len(noData)})
	t.AppendFooter(table.Row{"Total", len(records)})
	t.Render()

	if len(records) > 0 {
		rate := float64(len(success)) / float64(len(records)) * 100
		fmt.Printf("Success rate: %.1f%%\n", rate)
	}
}

func (c *Console) showRecords(records []*db.GameRecord, hidePlayed bool) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleColoredBright)
	t.AppendHeader(table.Row{"#", "Title", "Playtime", "Main", "Main+Extras", "Completionist", "All Styles", "Status"})
	i := 0
	for _, record := range records {
		if hidePlayed && record.Playtime > 0 {
			continue
		}
		status := "ok"
		if record.BeatTimesError != "" {
			status = record.BeatTimesError
		} else if record.BeatTimes == nil {
			status = "no data"
		}
		t.AppendRow(table.Row{
			i, record.Title, fmt.Sprintf("%dh", record.Playtime),
			hoursCell(record.BeatTimes, process.SortByMain),
			hoursCell(record.BeatTimes, process.SortByMainExtra),
			hoursCell(record.BeatTimes, process.SortByCompletionist),
			hoursCell(record.BeatTimes, process.SortByAllStyles),
			status,
		})
		i++
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", i})
	t.Render()
}

func (c *Console) showSearchResults(results []process.CollectionCandidate) {
	if len(results) == 0 {
		fmt.Printf("\nNo matching games found\n")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleColoredBright)
	t.AppendHeader(table.Row{"#", "Name", "Key", "Playtime", "Main"})
	for i, result := range results {
		t.AppendRow(table.Row{i, result.Title, result.Key, fmt.Sprintf("%dh", result.Playtime), hoursCell(result.BeatTimes, process.SortByMain)})
	}
	t.Render()
}

func (c *Console) showCollection(store *db.CacheStore) {
	fmt.Printf("\nCollection (%d games):\n\n", len(store.Collection))
	if len(store.Collection) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleColoredBright)
	t.AppendHeader(table.Row{"#", "Name", "Playtime", "Main"})
	i := 0
	for _, entry := range store.Collection {
		t.AppendRow(table.Row{i, entry.Title, fmt.Sprintf("%dh", entry.Playtime), hoursCell(entry.BeatTimes, process.SortByMain)})
		i++
	}
	t.Render()
}

func (c *Console) runExport(store *db.CacheStore, path string) {
	file, err := os.Create(path)
	if err != nil {
		fmt.Printf("failed to create export file :%v\n", err)
		return
	}
	defer file.Close()
	if err := process.WriteExport(store, file); err != nil {
		fmt.Printf("export failed :%v\n", err)
		return
	}
	fmt.Printf("Exported data to [%v]\n", path)
}

func (c *Console) runCsvExport(records []*db.GameRecord, path string) {
	file, err := os.Create(path)
	if err != nil {
		fmt.Printf("failed to create csv file :%v\n", err)
		return
	}
	defer file.Close()
	if err := process.WriteCSV(records, file); err != nil {
		fmt.Printf("csv export failed :%v\n", err)
		return
	}
	fmt.Printf("Exported csv to [%v]\n", path)
}

func hoursCell(times *db.CompletionTimes, field process.SortField) string {
	if times == nil {
		return "-"
	}
	var v *float64
	switch field {
	case process.SortByMain:
		v = times.Main
	case process.SortByMainExtra:
		v = times.MainExtra
	case process.SortByCompletionist:
		v = times.Completionist
	case process.SortByAllStyles:
		v = times.AllStyles
	}
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *v)
}

func (c *Console) UpdateProgress(curr int, total int, message string) {
	if progressBar == nil {
		return
	}
	progressBar.ChangeMax(total)
	progressBar.Set(curr)
}
