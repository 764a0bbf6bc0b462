package config

import "time"

// GlobalFlags contains common flags used across commands
type GlobalFlags struct {
	// Output format ("table" or "json")
	Format string

	// Command-specific configurations
	Update UpdateConfig
}

// UpdateConfig holds update command specific configurations
type UpdateConfig struct {
	ScriptPath  string
	URL         string
	URL64       string
	Algorithm   string
	DownloadDir string
	PackageID   string
	ConfigPath  string
	Attempts    int
	RetryDelay  time.Duration
	DryRun      bool
}

// Global is the shared instance of GlobalFlags
var Global = GlobalFlags{}
