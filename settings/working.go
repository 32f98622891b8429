package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetWorkingFolder resolves the executable path and the folder the app keeps
// its files in (the executable's own dir, stepping out of a MacOS bundle).
func GetWorkingFolder() (string, string, error) {
	exePath, exeErr := os.Executable()
	if exeErr != nil {
		return "", "", exeErr
	}

	workingFolder := filepath.Dir(exePath)

	if runtime.GOOS == "darwin" && strings.Contains(workingFolder, ".app") {
		appIndex := strings.Index(workingFolder, ".app")
		sepIndex := strings.LastIndex(workingFolder[:appIndex], string(os.PathSeparator))
		workingFolder = workingFolder[:sepIndex]
	}

	return exePath, workingFolder, nil
}
