package settings

import (
	"errors"
	"path/filepath"

	"github.com/magiconair/properties"
)

const CREDS_FILENAME = "steam.creds"

var (
	credsInstance *steamCreds
)

type steamCreds struct {
	creds map[string]string
}

func (c *steamCreds) GetCred(name string) string {
	return c.creds[name]
}

func SteamCreds() (*steamCreds, error) {
	return credsInstance, nil
}

// InitSteamCreds loads the Steam API credentials (api_key, steam_id) from a
// properties file next to the settings, falling back to the homedir.
func InitSteamCreds(baseFolder string) (*steamCreds, error) {

	// init from a file
	p, err := properties.LoadFile(filepath.Join(baseFolder, CREDS_FILENAME), properties.UTF8)
	if err != nil {
		p, err = properties.LoadFile("${HOME}/."+SETTINGS_DIR+"/"+CREDS_FILENAME, properties.UTF8)
	}
	if err != nil {
		return nil, errors.New("couldn't find " + CREDS_FILENAME)
	}
	credsInstance = &steamCreds{creds: map[string]string{}}
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		credsInstance.creds[key] = value
	}

	return credsInstance, nil
}
