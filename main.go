package main

import (
	"fmt"

	"github.com/giwty/steam-library-manager/logger"
	"github.com/giwty/steam-library-manager/settings"
)

func main() {
	_, workingFolder, err := settings.GetWorkingFolder()
	if err != nil {
		fmt.Println("failed to get working directory, please ensure executable is executed with sufficient permissions")
		return
	}

	appSettings := settings.ReadSettings(workingFolder)
	sugarLogger := logger.GetSugar(appSettings.BaseFolder(), appSettings.Debug)
	defer logger.Defer()

	sugarLogger.Infof("[SLM version:%v]", settings.SLM_VERSION)

	CreateConsole(workingFolder, sugarLogger).Start()
}
