package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects which payload of a memo is authoritative for display.
type Mode string

const (
	ModeText   Mode = "text"
	ModeCanvas Mode = "canvas"
)

// Valid reports whether m is a known mode value.
func (m Mode) Valid() bool {
	return m == ModeText || m == ModeCanvas
}

// Memo is the persisted unit of content a window displays and edits.
// Content holds recognized/transcribed text even in canvas mode, so
// both payloads may be non-empty at once.
type Memo struct {
	ID          int64
	Title       string
	Content     string
	CanvasData  string
	Mode        Mode
	FolderID    *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	WindowState string // JSON geometry blob; empty means default placement
}

// MemoFields is a partial field set for CreateMemo and UpdateMemo.
// Nil pointers mean "leave alone" (update) or "store default" (create).
type MemoFields struct {
	Title       *string
	Content     *string
	CanvasData  *string
	Mode        *Mode
	FolderID    *int64
	WindowState *string
}

// Ptr is a convenience for building MemoFields literals.
func Ptr[T any](v T) *T { return &v }

const memoColumns = "id, title, content, canvas_data, mode, folder_id, created_at, updated_at, window_state"

// CreateMemo inserts a new memo. Omitted fields take the store's
// defaults: empty content, text mode, NULL for the rest.
func (s *Store) CreateMemo(f MemoFields) (*Memo, error) {
	content := ""
	if f.Content != nil {
		content = *f.Content
	}
	mode := ModeText
	if f.Mode != nil {
		if !f.Mode.Valid() {
			return nil, writeErr("create memo", fmt.Errorf("invalid mode %q", *f.Mode))
		}
		mode = *f.Mode
	}

	now := formatTime(s.now())
	res, err := s.db.Exec(`
		INSERT INTO memos (title, content, canvas_data, mode, folder_id, created_at, updated_at, window_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, nullableStr(f.Title), content, nullableStr(f.CanvasData), string(mode),
		nullableInt(f.FolderID), now, now, nullableStr(f.WindowState))
	if err != nil {
		return nil, writeErr("insert memo", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, writeErr("insert memo", err)
	}
	return s.GetMemo(id)
}

// GetMemo retrieves a memo by id. Returns ErrNotFound when absent.
func (s *Store) GetMemo(id int64) (*Memo, error) {
	row := s.db.QueryRow(`SELECT `+memoColumns+` FROM memos WHERE id = ?`, id)
	memo, err := scanMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, readErr("query memo", err)
	}
	return memo, nil
}

// UpdateMemo applies a partial update. updated_at is always refreshed,
// even when fields is empty (a flush with no dirty fields still bumps it).
func (s *Store) UpdateMemo(id int64, f MemoFields) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(s.now())}

	if f.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *f.Title)
	}
	if f.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *f.Content)
	}
	if f.CanvasData != nil {
		sets = append(sets, "canvas_data = ?")
		args = append(args, *f.CanvasData)
	}
	if f.Mode != nil {
		if !f.Mode.Valid() {
			return writeErr("update memo", fmt.Errorf("invalid mode %q", *f.Mode))
		}
		sets = append(sets, "mode = ?")
		args = append(args, string(*f.Mode))
	}
	if f.FolderID != nil {
		sets = append(sets, "folder_id = ?")
		args = append(args, *f.FolderID)
	}
	if f.WindowState != nil {
		sets = append(sets, "window_state = ?")
		args = append(args, *f.WindowState)
	}

	args = append(args, id)
	res, err := s.db.Exec(`UPDATE memos SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return writeErr("update memo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return writeErr("update memo", err)
	}
	if n == 0 {
		return fmt.Errorf("memo %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteMemo removes a memo and its tag links. Deletion is terminal.
func (s *Store) DeleteMemo(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return writeErr("delete memo", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM memo_tags WHERE memo_id = ?`, id); err != nil {
		return writeErr("delete memo tags", err)
	}
	if _, err := tx.Exec(`DELETE FROM memos WHERE id = ?`, id); err != nil {
		return writeErr("delete memo", err)
	}
	if err := tx.Commit(); err != nil {
		return writeErr("delete memo", err)
	}
	return nil
}

// ListMemos returns all memos ordered by updated_at descending.
func (s *Store) ListMemos() ([]Memo, error) {
	return s.queryMemos(`SELECT `+memoColumns+` FROM memos ORDER BY updated_at DESC`)
}

// SearchMemos returns memos whose title or content contains query,
// case-insensitively, ordered by updated_at descending.
func (s *Store) SearchMemos(query string) ([]Memo, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.queryMemos(`
		SELECT `+memoColumns+` FROM memos
		WHERE (title IS NOT NULL AND lower(title) LIKE ?) OR lower(content) LIKE ?
		ORDER BY updated_at DESC
	`, pattern, pattern)
}

// MemosInFolder returns memos assigned to folderID (nil = unfiled),
// ordered by updated_at descending.
func (s *Store) MemosInFolder(folderID *int64) ([]Memo, error) {
	if folderID == nil {
		return s.queryMemos(`SELECT ` + memoColumns + ` FROM memos WHERE folder_id IS NULL ORDER BY updated_at DESC`)
	}
	return s.queryMemos(`SELECT `+memoColumns+` FROM memos WHERE folder_id = ? ORDER BY updated_at DESC`, *folderID)
}

// MoveMemoToFolder reassigns a memo's folder. A nil folderID unfiles it.
func (s *Store) MoveMemoToFolder(memoID int64, folderID *int64) error {
	res, err := s.db.Exec(`UPDATE memos SET folder_id = ? WHERE id = ?`, nullableInt(folderID), memoID)
	if err != nil {
		return writeErr("move memo", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memo %d: %w", memoID, ErrNotFound)
	}
	return nil
}

func (s *Store) queryMemos(query string, args ...any) ([]Memo, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, readErr("query memos", err)
	}
	defer rows.Close()

	var memos []Memo
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, readErr("scan memo", err)
		}
		memos = append(memos, *memo)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("query memos", err)
	}
	return memos, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemo(row rowScanner) (*Memo, error) {
	var memo Memo
	var title, content, canvasData, windowState sql.NullString
	var mode string
	var folderID sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&memo.ID, &title, &content, &canvasData, &mode,
		&folderID, &createdAt, &updatedAt, &windowState)
	if err != nil {
		return nil, err
	}

	memo.Title = title.String
	memo.Content = content.String
	memo.CanvasData = canvasData.String
	memo.Mode = Mode(mode)
	if folderID.Valid {
		id := folderID.Int64
		memo.FolderID = &id
	}
	memo.CreatedAt = parseTime(createdAt)
	memo.UpdatedAt = parseTime(updatedAt)
	memo.WindowState = windowState.String
	return &memo, nil
}

func nullableStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
