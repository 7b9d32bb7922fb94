package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ErrSourceNotFound is returned when a source id does not exist.
var ErrSourceNotFound = errors.New("source not found")

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
// Sources are identified by url, title and author.
func CreateOrGetSource(db DBExecutor, s Source) (int64, error) {
	sourceType := strings.TrimSpace(s.SourceType)
	if sourceType == "" {
		return 0, fmt.Errorf("sourceType must be non-empty")
	}
	lang := s.Language
	if lang == "" {
		lang = "en"
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := db.QueryRow(
			`SELECT id FROM sources WHERE IFNULL(url, '') = ? AND IFNULL(title, '') = ? AND IFNULL(author, '') = ?`,
			s.URL, s.Title, s.Author,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		res, err := db.Exec(
			`INSERT INTO sources (source_type, title, author, website, url, language, meta) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sourceType, s.Title, s.Author, s.Website, s.URL, lang, s.Meta,
		)
		if err != nil {
			// If another concurrent transaction inserted the same source, retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}
		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

const sourceColumns = `id, source_type, IFNULL(title, ''), IFNULL(author, ''), IFNULL(website, ''), IFNULL(url, ''),
	language, IFNULL(meta, ''), added_at, last_processed_sentence`

func scanSource(row interface{ Scan(...any) error }) (Source, error) {
	var s Source
	err := row.Scan(&s.ID, &s.SourceType, &s.Title, &s.Author, &s.Website, &s.URL,
		&s.Language, &s.Meta, &s.AddedAt, &s.LastProcessedSentence)
	return s, err
}

// GetSource returns the source with the given id.
func GetSource(db DBExecutor, id int64) (Source, error) {
	s, err := scanSource(db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Source{}, fmt.Errorf("%w: %d", ErrSourceNotFound, id)
	}
	return s, err
}

// ListSources returns every source, oldest first.
func ListSources(db DBExecutor) ([]Source, error) {
	rows, err := db.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertEntry stores one entry and returns its id.
func InsertEntry(db DBExecutor, e Entry) (int64, error) {
	if e.SourceID <= 0 {
		return 0, fmt.Errorf("sourceID must be positive")
	}
	if e.Start > e.End {
		return 0, fmt.Errorf("entry %q: start %d after end %d", e.Body, e.Start, e.End)
	}
	res, err := db.Exec(`INSERT INTO entries (source_id, sentence_index, dim, body, span_start, span_end, latent, value, projected)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SourceID, e.SentenceIndex, e.Dim, e.Body, e.Start, e.End, e.Latent, e.Value, e.Projected)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	return res.LastInsertId()
}

// ListEntries returns the entries of a source in document order, optionally
// restricted to dims.
func ListEntries(db DBExecutor, sourceID int64, dims []string) ([]Entry, error) {
	query := `SELECT id, source_id, sentence_index, dim, body, span_start, span_end, latent, value, projected
	FROM entries WHERE source_id = ?`
	args := []interface{}{sourceID}
	if len(dims) > 0 {
		query += ` AND dim IN (?` + strings.Repeat(", ?", len(dims)-1) + `)`
		for _, d := range dims {
			args = append(args, d)
		}
	}
	query += ` ORDER BY span_start, span_end, id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SourceID, &e.SentenceIndex, &e.Dim, &e.Body, &e.Start, &e.End, &e.Latent, &e.Value, &e.Projected); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSourceProgress returns the last processed sentence index for a source.
func GetSourceProgress(db DBExecutor, sourceID int64) (int, error) {
	var index int
	err := db.QueryRow("SELECT last_processed_sentence FROM sources WHERE id = ?", sourceID).Scan(&index)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateSourceProgress updates the last processed sentence index.
func UpdateSourceProgress(db DBExecutor, sourceID int64, index int) error {
	_, err := db.Exec("UPDATE sources SET last_processed_sentence = ? WHERE id = ?", index, sourceID)
	return err
}
