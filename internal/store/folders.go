package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Folder is a named, optionally nested memo grouping.
type Folder struct {
	ID        int64
	Name      string
	ParentID  *int64
	CreatedAt time.Time
}

// CreateFolder inserts a folder. Names are not required to be unique.
func (s *Store) CreateFolder(name string, parentID *int64) (*Folder, error) {
	now := formatTime(s.now())
	res, err := s.db.Exec(`INSERT INTO folders (name, parent_id, created_at) VALUES (?, ?, ?)`,
		name, nullableInt(parentID), now)
	if err != nil {
		return nil, writeErr("insert folder", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, writeErr("insert folder", err)
	}
	return s.GetFolder(id)
}

// GetFolder retrieves a folder by id.
func (s *Store) GetFolder(id int64) (*Folder, error) {
	var f Folder
	var parentID sql.NullInt64
	var createdAt string

	err := s.db.QueryRow(`SELECT id, name, parent_id, created_at FROM folders WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &parentID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, readErr("query folder", err)
	}
	if parentID.Valid {
		p := parentID.Int64
		f.ParentID = &p
	}
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

// ListFolders returns all folders ordered by name.
func (s *Store) ListFolders() ([]Folder, error) {
	rows, err := s.db.Query(`SELECT id, name, parent_id, created_at FROM folders ORDER BY name`)
	if err != nil {
		return nil, readErr("query folders", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		var f Folder
		var parentID sql.NullInt64
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Name, &parentID, &createdAt); err != nil {
			return nil, readErr("scan folder", err)
		}
		if parentID.Valid {
			p := parentID.Int64
			f.ParentID = &p
		}
		f.CreatedAt = parseTime(createdAt)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// DeleteFolder removes a folder. Member memos are unfiled (folder_id
// cleared) and child folders are re-parented to the root, never deleted.
func (s *Store) DeleteFolder(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return writeErr("delete folder", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE memos SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
		return writeErr("unfile memos", err)
	}
	if _, err := tx.Exec(`UPDATE folders SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return writeErr("reparent folders", err)
	}
	res, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return writeErr("delete folder", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
