package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitSteamCredsAndAccessor(t *testing.T) {
	dir := t.TempDir()
	content := "api_key=abc123\nsteam_id=76561198000000000\n"
	if err := os.WriteFile(filepath.Join(dir, CREDS_FILENAME), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write creds file: %v", err)
	}

	if _, err := InitSteamCreds(dir); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	creds, err := SteamCreds()
	if err != nil || creds == nil {
		t.Fatalf("accessor did not return the loaded credentials: %v", err)
	}
	if creds.GetCred("api_key") != "abc123" {
		t.Fatalf("unexpected api_key %q", creds.GetCred("api_key"))
	}
	if creds.GetCred("steam_id") != "76561198000000000" {
		t.Fatalf("unexpected steam_id %q", creds.GetCred("steam_id"))
	}
}

func TestInitSteamCredsMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := InitSteamCreds(t.TempDir()); err == nil {
		t.Fatalf("expected an error when no creds file exists")
	}
}
