package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Save        saveSaveConfig        `json:"save"`
	Recognition saveRecognitionConfig `json:"recognition"`
	Import      saveImportConfig      `json:"import"`
	UI          saveUIConfig          `json:"ui"`
}

type saveSaveConfig struct {
	Path          string `json:"path,omitempty"`
	AutosaveDelay string `json:"autosaveDelay,omitempty"`
	HistoryLimit  *int   `json:"historyLimit,omitempty"`
}

type saveRecognitionConfig struct {
	Enabled     *bool    `json:"enabled,omitempty"`
	Command     string   `json:"command,omitempty"`
	CommandArgs []string `json:"commandArgs,omitempty"`
	Endpoint    string   `json:"endpoint,omitempty"`
	APIKey      string   `json:"apiKey,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
}

type saveImportConfig struct {
	DropDir string `json:"dropDir,omitempty"`
	Settle  string `json:"settle,omitempty"`
}

type saveUIConfig struct {
	ListWidth   *int  `json:"listWidth,omitempty"`
	WrapContent *bool `json:"wrapContent,omitempty"`
	ShowFooter  *bool `json:"showFooter,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Save: saveSaveConfig{
			Path:          cfg.Save.Path,
			AutosaveDelay: cfg.Save.AutosaveDelay.String(),
			HistoryLimit:  &cfg.Save.HistoryLimit,
		},
		Recognition: saveRecognitionConfig{
			Enabled:     &cfg.Recognition.Enabled,
			Command:     cfg.Recognition.Command,
			CommandArgs: cfg.Recognition.CommandArgs,
			Endpoint:    cfg.Recognition.Endpoint,
			APIKey:      cfg.Recognition.APIKey,
			Threshold:   &cfg.Recognition.Threshold,
		},
		Import: saveImportConfig{
			DropDir: cfg.Import.DropDir,
			Settle:  cfg.Import.Settle.String(),
		},
		UI: saveUIConfig{
			ListWidth:   &cfg.UI.ListWidth,
			WrapContent: &cfg.UI.WrapContent,
			ShowFooter:  &cfg.UI.ShowFooter,
		},
	}
}

// Save writes the config to ~/.config/memopad/config.json
func Save(cfg *Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	sc := toSaveConfig(cfg)
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
