package config

import "os"

type Environment struct {
	IsDevelopment bool
	LogMode       string
}

var Env Environment

func init() {
	logMode := os.Getenv("LOG_MODE")

	// If no log mode is set, we're in development
	isDev := logMode == "" || logMode == "dev"
	if isDev {
		logMode = "dev"
	}

	Env = Environment{
		IsDevelopment: isDev,
		LogMode:       logMode,
	}
}
