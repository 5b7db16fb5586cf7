package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/quill/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.BlobStore = (*Store)(nil)

const dbFileName = "blobs.db"

// Store is a BlobStore backed by a local SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.quill/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quill", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL lets the watcher and a foreground command share the file.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every .up.sql file newer than the recorded schema version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_blobs.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Put creates or replaces a blob. A replaced blob keeps its identifier.
func (s *Store) Put(
	ctx context.Context, folder driven.Folder, name string, data []byte, mimeType string,
) (string, error) {
	if name == "" {
		return "", fmt.Errorf("blob name is empty: %w", domain.ErrInvalidInput)
	}
	if data == nil {
		data = []byte{}
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO blobs (id, folder, name, mime_type, content, size, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (folder, name) DO UPDATE SET
			mime_type = excluded.mime_type,
			content = excluded.content,
			size = excluded.size,
			modified_at = excluded.modified_at
		RETURNING id
	`, uuid.NewString(), string(folder), name, mimeType, data, len(data), s.now().UnixNano()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("writing blob %s/%s: %w", folder, name, err)
	}
	return id, nil
}

// Get returns the content of the named blob.
func (s *Store) Get(ctx context.Context, folder driven.Folder, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM blobs WHERE folder = ? AND name = ?",
		string(folder), name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob %s/%s: %w", folder, name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s/%s: %w", folder, name, err)
	}
	return data, nil
}

// Stat returns blob metadata without loading the content.
func (s *Store) Stat(ctx context.Context, folder driven.Folder, name string) (*domain.BlobInfo, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, size, mime_type, modified_at FROM blobs WHERE folder = ? AND name = ?",
		string(folder), name,
	)
	info, err := scanBlobInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob %s/%s: %w", folder, name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s/%s: %w", folder, name, err)
	}
	return info, nil
}

// List returns the blobs of a folder whose names start with prefix, sorted by name.
func (s *Store) List(ctx context.Context, folder driven.Folder, prefix string) ([]domain.BlobInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, size, mime_type, modified_at FROM blobs
		WHERE folder = ? AND instr(name, ?) = 1
		ORDER BY name
	`, string(folder), prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder, err)
	}
	defer rows.Close()

	var out []domain.BlobInfo
	for rows.Next() {
		info, err := scanBlobInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", folder, err)
		}
		out = append(out, *info)
	}
	return out, rows.Err()
}

// Delete removes the named blob.
func (s *Store) Delete(ctx context.Context, folder driven.Folder, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE folder = ? AND name = ?", string(folder), name)
	if err != nil {
		return fmt.Errorf("deleting blob %s/%s: %w", folder, name, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlobInfo(row scanner) (*domain.BlobInfo, error) {
	var (
		info     domain.BlobInfo
		modified int64
	)
	if err := row.Scan(&info.ID, &info.Name, &info.Size, &info.MimeType, &modified); err != nil {
		return nil, err
	}
	info.ModifiedAt = time.Unix(0, modified).UTC()
	return &info, nil
}
