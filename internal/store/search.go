package store

import (
	"context"
	"database/sql"
	"strings"
)

// lineBatchSize bounds the number of bound parameters per FTS insert.
const lineBatchSize = 500

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// IndexedLine is one log line destined for the full-text index.
type IndexedLine struct {
	Content string
	Date    string
}

// IndexLines inserts decoded log lines into the full-text index in batches.
// Lines are tagged with the file fingerprint so a forced re-scan can drop
// them together with the rest of the file's contribution.
func (s *Store) IndexLines(ctx context.Context, charID int64, fingerprint string, lines []IndexedLine) error {
	return indexLinesOn(ctx, s.db, charID, fingerprint, lines)
}

func indexLinesOn(ctx context.Context, e execer, charID int64, fingerprint string, lines []IndexedLine) error {
	for start := 0; start < len(lines); start += lineBatchSize {
		end := start + lineBatchSize
		if end > len(lines) {
			end = len(lines)
		}
		chunk := lines[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO log_lines (content, character_id, line_date, fingerprint) VALUES `)
		args := make([]any, 0, len(chunk)*4)
		for i, line := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, line.Content, charID, line.Date, fingerprint)
		}
		if _, err := e.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// SearchHit is one full-text match with its surrounding context highlighted.
type SearchHit struct {
	CharacterID int64
	Date        string
	Snippet     string
}

// Search runs an FTS5 match over indexed log lines. A charID of 0 searches
// across all characters.
func (s *Store) Search(ctx context.Context, query string, charID int64, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT character_id, line_date,
		snippet(log_lines, 0, '[', ']', '…', 12)
		FROM log_lines WHERE log_lines MATCH ?`
	args := []any{query}
	if charID != 0 {
		q += ` AND character_id = ?`
		args = append(args, charID)
	}
	q += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.CharacterID, &h.Date, &h.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountIndexedLines reports how many lines are indexed for a character, or
// for everyone when charID is 0.
func (s *Store) CountIndexedLines(ctx context.Context, charID int64) (int64, error) {
	var n int64
	var err error
	if charID == 0 {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_lines`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM log_lines WHERE character_id = ?`, charID).Scan(&n)
	}
	return n, err
}
