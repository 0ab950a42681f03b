package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Save        SaveConfig        `json:"save"`
	Recognition RecognitionConfig `json:"recognition"`
	Import      ImportConfig      `json:"import"`
	UI          UIConfig          `json:"ui"`
}

// SaveConfig configures persistence.
type SaveConfig struct {
	Path          string        `json:"path"`          // data directory holding memos.db; "" = default location
	AutosaveDelay time.Duration `json:"autosaveDelay"` // debounce between last edit and write
	HistoryLimit  int           `json:"historyLimit"`  // undo depth cap; 0 = unlimited
}

// RecognitionConfig configures handwriting recognition backends.
type RecognitionConfig struct {
	Enabled     bool     `json:"enabled"`
	Command     string   `json:"command"` // external recognizer binary, resolved against PATH
	CommandArgs []string `json:"commandArgs,omitempty"`
	Endpoint    string   `json:"endpoint"` // hosted recognition endpoint; "" disables the HTTP backend
	APIKey      string   `json:"apiKey,omitempty"`
	Threshold   float64  `json:"threshold"` // minimum confidence for applying a result
}

// ImportConfig configures the drop-directory importer.
type ImportConfig struct {
	DropDir string        `json:"dropDir"` // "" disables the watcher
	Settle  time.Duration `json:"settle"`  // quiet period before a dropped file is read
}

// UIConfig configures terminal host appearance.
type UIConfig struct {
	ListWidth   int  `json:"listWidth"`
	WrapContent bool `json:"wrapContent"`
	ShowFooter  bool `json:"showFooter"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Save: SaveConfig{
			AutosaveDelay: 500 * time.Millisecond,
		},
		Recognition: RecognitionConfig{
			Enabled:   true,
			Threshold: 0.75,
		},
		Import: ImportConfig{
			Settle: 500 * time.Millisecond,
		},
		UI: UIConfig{
			ListWidth:   32,
			WrapContent: true,
			ShowFooter:  true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Save.AutosaveDelay <= 0 {
		c.Save.AutosaveDelay = 500 * time.Millisecond
	}
	if c.Save.HistoryLimit < 0 {
		c.Save.HistoryLimit = 0
	}
	if c.Recognition.Threshold <= 0 || c.Recognition.Threshold > 1 {
		c.Recognition.Threshold = 0.75
	}
	if c.Import.Settle <= 0 {
		c.Import.Settle = 500 * time.Millisecond
	}
	if c.UI.ListWidth < 16 {
		c.UI.ListWidth = 32
	}
	return nil
}
