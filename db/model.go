package db

import "strings"

// CompletionTimes holds the estimated hours for each completion milestone.
// A nil field means the milestone is unknown for this title.
type CompletionTimes struct {
	Main          *float64 `json:"main,omitempty"`
	MainExtra     *float64 `json:"mainExtra,omitempty"`
	Completionist *float64 `json:"completionist,omitempty"`
	AllStyles     *float64 `json:"allStyles,omitempty"`
}

// Clone returns a deep copy, nil in gives nil out.
func (t *CompletionTimes) Clone() *CompletionTimes {
	if t == nil {
		return nil
	}
	c := CompletionTimes{}
	if t.Main != nil {
		v := *t.Main
		c.Main = &v
	}
	if t.MainExtra != nil {
		v := *t.MainExtra
		c.MainExtra = &v
	}
	if t.Completionist != nil {
		v := *t.Completionist
		c.Completionist = &v
	}
	if t.AllStyles != nil {
		v := *t.AllStyles
		c.AllStyles = &v
	}
	return &c
}

// LibraryEntry is one owned game as reported by the library provider.
// Playtime is whole hours (the provider reports minutes).
type LibraryEntry struct {
	Title    string `json:"name"`
	Playtime int    `json:"playtime_forever"`
	AppID    int64  `json:"appid"`
	IconRef  string `json:"img_icon_url,omitempty"`
}

// Key returns the normalized cache key for this entry.
func (e LibraryEntry) Key() string {
	return strings.ToLower(e.Title)
}

// CollectionEntry is a curated game, library data plus its beat times.
type CollectionEntry struct {
	Title     string           `json:"name"`
	Playtime  int              `json:"playtime_forever"`
	AppID     int64            `json:"appid"`
	IconRef   string           `json:"img_icon_url,omitempty"`
	BeatTimes *CompletionTimes `json:"beatTimes"`
}

// GameRecord is the runtime state of one library entry during enrichment.
// At steady state at most one of BeatTimes and BeatTimesError is set;
// BeatTimesLoading is true only while a lookup is in flight.
type GameRecord struct {
	LibraryEntry
	BeatTimes        *CompletionTimes
	BeatTimesLoading bool
	BeatTimesError   string
}
