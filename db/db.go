// Package db persists link records in PostgreSQL.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq" // also registers the PostgreSQL driver

	"github.com/linkbox/analyzer/models"
)

// DB wraps the database connection and provides data access methods
type DB struct {
	conn *sql.DB
}

// Config contains database configuration
type Config struct {
	DSN string // PostgreSQL connection string
}

// DefaultConfig returns a configuration suitable for local development
func DefaultConfig() Config {
	return Config{
		DSN: "host=localhost port=5432 user=linkbox password=linkbox_dev_pass dbname=linkbox sslmode=disable",
	}
}

// New creates a new database connection
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

const linkColumns = "id, url, title, description, summary, tags, folder, image, content_key, added_at, is_read, read_count"

// SaveLink inserts a link record, replacing the derived metadata if the
// URL was already saved. Read state survives a re-analysis.
func (db *DB) SaveLink(link *models.LinkRecord) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			summary = excluded.summary,
			tags = excluded.tags,
			folder = excluded.folder,
			image = excluded.image,
			content_key = excluded.content_key
	`

	_, err := db.conn.Exec(
		query,
		link.ID,
		link.URL,
		link.Title,
		link.Description,
		link.Summary,
		pq.Array(link.Tags),
		link.Folder,
		link.Image,
		link.ContentKey,
		link.AddedAt,
		link.IsRead,
		link.ReadCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}

	return nil
}

// scanLink reads one row into a LinkRecord
func scanLink(row interface{ Scan(...any) error }) (*models.LinkRecord, error) {
	var link models.LinkRecord
	var tags pq.StringArray

	err := row.Scan(
		&link.ID,
		&link.URL,
		&link.Title,
		&link.Description,
		&link.Summary,
		&tags,
		&link.Folder,
		&link.Image,
		&link.ContentKey,
		&link.AddedAt,
		&link.IsRead,
		&link.ReadCount,
	)
	if err != nil {
		return nil, err
	}

	link.Tags = []string(tags)
	return &link, nil
}

// GetByID retrieves a link record by ID
func (db *DB) GetByID(id string) (*models.LinkRecord, error) {
	row := db.conn.QueryRow("SELECT "+linkColumns+" FROM links WHERE id = $1", id)

	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	return link, nil
}

// GetByURL retrieves a link record by URL
func (db *DB) GetByURL(url string) (*models.LinkRecord, error) {
	row := db.conn.QueryRow("SELECT "+linkColumns+" FROM links WHERE url = $1", url)

	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	return link, nil
}

// ListAll returns every link record, newest first. The archive query
// engine filters in memory over this ordering.
func (db *DB) ListAll() ([]models.LinkRecord, error) {
	rows, err := db.conn.Query("SELECT " + linkColumns + " FROM links ORDER BY added_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []models.LinkRecord
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return links, nil
}

// DeleteByID deletes a link record by ID
func (db *DB) DeleteByID(id string) error {
	result, err := db.conn.Exec("DELETE FROM links WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no link found with id: %s", id)
	}

	return nil
}

// MarkRead flags a record as read and bumps its read count. This is the
// external read-tracking boundary: the pipeline itself never touches
// read state.
func (db *DB) MarkRead(id string) error {
	result, err := db.conn.Exec(
		"UPDATE links SET is_read = TRUE, read_count = read_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark link read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no link found with id: %s", id)
	}

	return nil
}

// Count returns the total number of stored links
func (db *DB) Count() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM links").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// URLExists checks if a URL has already been saved
func (db *DB) URLExists(url string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS(SELECT 1 FROM links WHERE url = $1)", url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check URL existence: %w", err)
	}
	return exists, nil
}

// Folders returns the distinct folders in use, sorted. The category
// set is extensible: whatever the classifier assigned is a valid
// folder.
func (db *DB) Folders() ([]string, error) {
	rows, err := db.conn.Query("SELECT DISTINCT folder FROM links ORDER BY folder")
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return folders, nil
}

// Tags returns the distinct tags in use, sorted
func (db *DB) Tags() ([]string, error) {
	rows, err := db.conn.Query("SELECT DISTINCT unnest(tags) AS tag FROM links ORDER BY tag")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tags, nil
}
