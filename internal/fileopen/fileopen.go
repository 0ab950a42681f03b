// Package fileopen turns text files into memos: launch arguments from
// a file association, and a watched drop directory for files copied in
// while the app runs.
package fileopen

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/memopad/internal/session"
	"github.com/marcus/memopad/internal/store"
)

// ErrUnsupported is returned for file types the importer does not read.
var ErrUnsupported = errors.New("fileopen: unsupported file type")

// Store is the slice of the record store the importer needs.
type Store interface {
	CreateMemo(f store.MemoFields) (*store.Memo, error)
}

// WindowOpener opens a window on a memo, normally the session registry.
type WindowOpener interface {
	CreateWindow(memoID int64) (session.Window, error)
}

// Importer creates memos from files and opens windows on them.
type Importer struct {
	store  Store
	opener WindowOpener
	logger *slog.Logger
}

// NewImporter wires an importer to the store and the window opener.
func NewImporter(st Store, opener WindowOpener, logger *slog.Logger) *Importer {
	return &Importer{store: st, opener: opener, logger: logger}
}

// Eligible reports whether a path has an importable extension.
func Eligible(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// ImportFile reads a text file into a new memo and opens a window on
// it. The memo's title is the file name without its extension.
func (i *Importer) ImportFile(path string) (*store.Memo, error) {
	if !Eligible(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	memo, err := i.store.CreateMemo(store.MemoFields{
		Title:   store.Ptr(title),
		Content: store.Ptr(string(data)),
	})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	if i.opener != nil {
		if _, err := i.opener.CreateWindow(memo.ID); err != nil {
			return memo, fmt.Errorf("open window for import: %w", err)
		}
	}
	return memo, nil
}

// ImportArgs imports any eligible file paths among launch arguments,
// for the open-with file association path. Ineligible or unreadable
// arguments are logged and skipped so one bad path does not block the
// rest of startup.
func (i *Importer) ImportArgs(args []string) []*store.Memo {
	var imported []*store.Memo
	for _, arg := range args {
		if !Eligible(arg) {
			continue
		}
		memo, err := i.ImportFile(arg)
		if err != nil {
			if i.logger != nil {
				i.logger.Warn("fileopen: skipping argument", "path", arg, "error", err)
			}
			continue
		}
		imported = append(imported, memo)
	}
	return imported
}
