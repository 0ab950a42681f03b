package store

import "time"

// Tag is a flat label attachable to any number of memos.
type Tag struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// TagMemo attaches a tag (created on first use) to a memo.
func (s *Store) TagMemo(memoID int64, name string) (*Tag, error) {
	now := formatTime(s.now())
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO tags (name, created_at) VALUES (?, ?)`, name, now); err != nil {
		return nil, writeErr("insert tag", err)
	}

	var tag Tag
	var createdAt string
	err := s.db.QueryRow(`SELECT id, name, created_at FROM tags WHERE name = ?`, name).
		Scan(&tag.ID, &tag.Name, &createdAt)
	if err != nil {
		return nil, readErr("query tag", err)
	}
	tag.CreatedAt = parseTime(createdAt)

	if _, err := s.db.Exec(`INSERT OR IGNORE INTO memo_tags (memo_id, tag_id) VALUES (?, ?)`, memoID, tag.ID); err != nil {
		return nil, writeErr("link tag", err)
	}
	return &tag, nil
}

// UntagMemo detaches a tag from a memo. Unused tag rows are kept.
func (s *Store) UntagMemo(memoID, tagID int64) error {
	if _, err := s.db.Exec(`DELETE FROM memo_tags WHERE memo_id = ? AND tag_id = ?`, memoID, tagID); err != nil {
		return writeErr("unlink tag", err)
	}
	return nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags() ([]Tag, error) {
	return s.queryTags(`SELECT id, name, created_at FROM tags ORDER BY name`)
}

// MemoTags returns the tags attached to a memo, ordered by name.
func (s *Store) MemoTags(memoID int64) ([]Tag, error) {
	return s.queryTags(`
		SELECT t.id, t.name, t.created_at FROM tags t
		JOIN memo_tags mt ON mt.tag_id = t.id
		WHERE mt.memo_id = ?
		ORDER BY t.name
	`, memoID)
}

func (s *Store) queryTags(query string, args ...any) ([]Tag, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, readErr("query tags", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var createdAt string
		if err := rows.Scan(&tag.ID, &tag.Name, &createdAt); err != nil {
			return nil, readErr("scan tag", err)
		}
		tag.CreatedAt = parseTime(createdAt)
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
