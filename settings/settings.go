package settings

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	SETTINGS_DIR      = "steam-library-manager"
	SETTINGS_FILENAME = "settings.json"
	SLM_VERSION       = "1.0.0"
	API_BASE_URL      = "https://api.berkankutuk.dk/api/hltb"
)

// Fetch modes for the acquisition step
const (
	FETCH_MODE_GAMES_BEATTIMES = "games-beattimes"
	FETCH_MODE_GAMES_ONLY      = "games-only"
	FETCH_MODE_LOAD_EXISTING   = "load-existing"
)

// Setting of the application
type AppSettings struct {
	// Extra internal settings
	// `json:"-"` to ignore when marshalling
	baseFolder string `json:"-"`
	Homedir    string `string:"-"`
	// Unmarshalled from the JSON file
	Debug           bool   `json:"debug"`
	ApiUrl          string `json:"api_url"`
	SteamId         string `json:"steam_id"`
	FetchMode       string `json:"fetch_mode"`
	CheckForUpdates bool   `json:"check_for_updates"`
	SortBy          string `json:"sort_by"`
	SortDesc        bool   `json:"sort_desc"`
	HidePlayedGames bool   `json:"hide_played_games"`
}

// Constructor for settings
func ReadSettings(workingFolder string) *AppSettings {
	a := AppSettings{}
	a.setBase(workingFolder)
	a.switchToHomedir()
	a.read()

	return &a
}

// Set the base folder
func (a *AppSettings) setBase(base string) {
	a.baseFolder = base
}

// Switch the settings base folder inside the homedir
func (a *AppSettings) switchToHomedir() {
	var homedirErr error
	a.Homedir, homedirErr = os.UserHomeDir()

	if homedirErr == nil {
		basedir := a.GetHomedirPath()

		// Create a folder if it does not exist
		if mkDirErr := os.MkdirAll(basedir, os.ModePerm); mkDirErr == nil {
			// Change the base
			a.setBase(basedir)
		}
	}
}

// Get the homedir settings path
func (a *AppSettings) GetHomedirPath() string {
	return filepath.Join(a.Homedir, SETTINGS_DIR)
}

// Get the base folder the settings live in
func (a *AppSettings) BaseFolder() string {
	return a.baseFolder
}

// Get the settings file path
func (a *AppSettings) getPath() string {
	return filepath.Join(a.baseFolder, SETTINGS_FILENAME)
}

// Read the file
func (a *AppSettings) read() {
	// Reading the file
	buf, bufErr := ioutil.ReadFile(a.getPath())

	// If error fill with defaults
	if bufErr != nil {
		zap.S().Warnf("Missing or corrupted config file, creating a new one.")
		a.defaults()
		a.Save()
	} else {
		// Otherwise unmarshal it
		if jsonErr := a.Load(buf); jsonErr != nil {
			zap.S().Warnf("Missing or corrupted config file, creating a new one.")
			a.defaults()
			a.Save()
		}
	}
}

// Fill the structure with default values
func (a *AppSettings) defaults() {
	a.Debug = false
	a.ApiUrl = API_BASE_URL
	a.FetchMode = FETCH_MODE_GAMES_BEATTIMES
	a.CheckForUpdates = true
	a.SortBy = "name"
	a.SortDesc = false
	a.HidePlayedGames = false
}

// Save to file (ignore errors)
func (a *AppSettings) Save() {
	// Marshal the struct into JSON bytes
	jsonBytes, jsonErr := json.MarshalIndent(a, "", "  ")
	if jsonErr == nil {
		// Write the file
		ioutil.WriteFile(a.getPath(), jsonBytes, 0644)
	}
}

// Return setting as JSON
func (a *AppSettings) ToJSON() string {
	// Marshal the struct into JSON bytes
	jsonBytes, jsonErr := json.MarshalIndent(a, "", "  ")
	if jsonErr != nil {
		return ""
	}

	return string(jsonBytes)
}

// Load a JSON payload
func (a *AppSettings) Load(payload []byte) error {
	jsonErr := json.Unmarshal(payload, a)
	if jsonErr != nil {
		return jsonErr
	}

	return nil
}
