package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/memopad"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary. Pointer fields and
// string durations distinguish absent keys from zero values so a
// partial file merges cleanly over Default().
type rawConfig struct {
	Save        rawSaveConfig        `json:"save"`
	Recognition rawRecognitionConfig `json:"recognition"`
	Import      rawImportConfig      `json:"import"`
	UI          rawUIConfig          `json:"ui"`
}

type rawSaveConfig struct {
	Path          string `json:"path"`
	AutosaveDelay string `json:"autosaveDelay"`
	HistoryLimit  *int   `json:"historyLimit"`
}

type rawRecognitionConfig struct {
	Enabled     *bool    `json:"enabled"`
	Command     string   `json:"command"`
	CommandArgs []string `json:"commandArgs"`
	Endpoint    string   `json:"endpoint"`
	APIKey      string   `json:"apiKey"`
	Threshold   *float64 `json:"threshold"`
}

type rawImportConfig struct {
	DropDir string `json:"dropDir"`
	Settle  string `json:"settle"`
}

type rawUIConfig struct {
	ListWidth   *int  `json:"listWidth"`
	WrapContent *bool `json:"wrapContent"`
	ShowFooter  *bool `json:"showFooter"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/memopad/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil // Return defaults on error
		}
		path = filepath.Join(home, configDir, configFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	mergeConfig(cfg, &raw)

	cfg.Save.Path = ExpandPath(cfg.Save.Path)
	cfg.Import.DropDir = ExpandPath(cfg.Import.DropDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Save
	if raw.Save.Path != "" {
		cfg.Save.Path = raw.Save.Path
	}
	if raw.Save.AutosaveDelay != "" {
		if d, err := time.ParseDuration(raw.Save.AutosaveDelay); err == nil {
			cfg.Save.AutosaveDelay = d
		}
	}
	if raw.Save.HistoryLimit != nil {
		cfg.Save.HistoryLimit = *raw.Save.HistoryLimit
	}

	// Recognition
	if raw.Recognition.Enabled != nil {
		cfg.Recognition.Enabled = *raw.Recognition.Enabled
	}
	if raw.Recognition.Command != "" {
		cfg.Recognition.Command = raw.Recognition.Command
	}
	if len(raw.Recognition.CommandArgs) > 0 {
		cfg.Recognition.CommandArgs = raw.Recognition.CommandArgs
	}
	if raw.Recognition.Endpoint != "" {
		cfg.Recognition.Endpoint = raw.Recognition.Endpoint
	}
	if raw.Recognition.APIKey != "" {
		cfg.Recognition.APIKey = raw.Recognition.APIKey
	}
	if raw.Recognition.Threshold != nil {
		cfg.Recognition.Threshold = *raw.Recognition.Threshold
	}

	// Import
	if raw.Import.DropDir != "" {
		cfg.Import.DropDir = raw.Import.DropDir
	}
	if raw.Import.Settle != "" {
		if d, err := time.ParseDuration(raw.Import.Settle); err == nil {
			cfg.Import.Settle = d
		}
	}

	// UI
	if raw.UI.ListWidth != nil {
		cfg.UI.ListWidth = *raw.UI.ListWidth
	}
	if raw.UI.WrapContent != nil {
		cfg.UI.WrapContent = *raw.UI.WrapContent
	}
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}
