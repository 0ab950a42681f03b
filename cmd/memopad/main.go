package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/memopad/internal/config"
	"github.com/marcus/memopad/internal/fileopen"
	"github.com/marcus/memopad/internal/recognize"
	"github.com/marcus/memopad/internal/store"
	"github.com/marcus/memopad/internal/tui"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	dbPath       = flag.String("db", "", "path to the memo database")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("memopad version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Open the record store
	path := store.DefaultDBPath(cfg.Save.Path)
	if *dbPath != "" {
		path = *dbPath
	}
	st, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open memo store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	// Build the recognition chain and probe backends once
	var backends []recognize.Backend
	if cfg.Recognition.Enabled {
		backends = append(backends,
			recognize.NewCommandBackend(cfg.Recognition.Command, cfg.Recognition.CommandArgs...),
			recognize.NewHTTPBackend(cfg.Recognition.Endpoint, cfg.Recognition.APIKey),
		)
	}
	chain := recognize.NewChain(logger, cfg.Recognition.Threshold, backends...)
	chain.Probe()

	model := tui.New(cfg, st, chain, logger)

	// File-open surfaces: launch arguments and the drop directory
	importer := fileopen.NewImporter(st, model.Registry(), logger)
	if imported := importer.ImportArgs(flag.Args()); len(imported) > 0 {
		logger.Info("imported files from arguments", "count", len(imported))
	}
	if cfg.Import.DropDir != "" {
		watcher, err := fileopen.NewWatcher(cfg.Import.DropDir, cfg.Import.Settle, func(p string) error {
			_, err := importer.ImportFile(p)
			return err
		}, logger)
		if err != nil {
			logger.Warn("drop directory watcher disabled", "dir", cfg.Import.DropDir, "err", err)
		} else {
			defer watcher.Close()
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision != "" {
		ver := "devel+" + revision
		if len(ver) > 20 {
			ver = ver[:20]
		}
		if dirty {
			ver += "+dirty"
		}
		return ver
	}

	return "devel"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: memopad [options] [file.txt|file.md ...]\n\n")
		fmt.Fprintf(os.Stderr, "A sticky-note scratchpad with autosave and handwriting capture.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
