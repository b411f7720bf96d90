package main

import (
	"os"

	"github.com/JonMunkholm/SurveyIntake/cmd/sheetcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
