package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/floorscan/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "floorscan.db"

// ErrDatabaseNotFound is returned by Open when the database must already
// exist and does not.
var ErrDatabaseNotFound = errors.New("database not found")

// processedAtFormat sorts lexicographically in time order.
const processedAtFormat = "2006-01-02 15:04:05.000000"

// ExtractionDB provides SQLite-based storage for extraction runs.
type ExtractionDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ExtractionDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an ExtractionDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// Otherwise a missing database returns ErrDatabaseNotFound.
func Open(dbDir string, opts Options) (*ExtractionDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	edb := &ExtractionDB{
		db:     db,
		dbPath: dbPath,
	}

	// Another process may hold the write lock; wait for it instead of
	// failing with SQLITE_BUSY.
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := edb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return edb, nil
}

// Close closes the database connection.
func (edb *ExtractionDB) Close() error {
	return edb.db.Close()
}

// Path returns the database file path.
func (edb *ExtractionDB) Path() string {
	return edb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (edb *ExtractionDB) createTables() error {
	schema := `
	-- One row per extraction run
	CREATE TABLE IF NOT EXISTS extractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		source_hash TEXT,
		method TEXT,
		processed_at TEXT NOT NULL,
		total_pages INTEGER DEFAULT 0,
		dimension_count INTEGER DEFAULT 0,
		code_count INTEGER DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_extractions_source ON extractions(source_file);
	CREATE INDEX IF NOT EXISTS idx_extractions_processed ON extractions(processed_at);
	CREATE INDEX IF NOT EXISTS idx_extractions_hash ON extractions(source_hash);

	-- Codes found per page of a run
	CREATE TABLE IF NOT EXISTS codes (
		extraction_id INTEGER NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
		page INTEGER NOT NULL,
		code TEXT NOT NULL,
		PRIMARY KEY (extraction_id, page, code)
	);

	CREATE INDEX IF NOT EXISTS idx_codes_code ON codes(code);
	`

	_, err := edb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a report and its codes and returns the new run ID.
func (edb *ExtractionDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := model.NewSummary(report)
	processedAt := report.Metadata.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	tx, err := edb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT INTO extractions (source_file, source_hash, method, processed_at,
		total_pages, dimension_count, code_count, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Metadata.SourceFile,
		report.Metadata.SourceHash,
		report.Metadata.Method,
		processedAt.UTC().Format(processedAtFormat),
		summary.TotalPages,
		summary.DimensionCount,
		summary.CodeCount,
		report.ErrorMessage(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}

	if report.Document != nil {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO codes (extraction_id, page, code) VALUES (?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare code insert: %w", err)
		}
		defer stmt.Close()

		for _, page := range report.Pages {
			for _, c := range page.Codes.Sorted() {
				if _, err := stmt.ExecContext(ctx, id, page.Page, c); err != nil {
					return 0, fmt.Errorf("failed to save code %s: %w", c, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report: %w", err)
	}
	return id, nil
}

// GetLatestReport retrieves the most recent report for a source file name.
// It returns nil, nil when the file has no history.
func (edb *ExtractionDB) GetLatestReport(ctx context.Context, sourceFile string) (*model.Report, error) {
	query := `
	SELECT report_json, error FROM extractions
	WHERE source_file = ?
	ORDER BY processed_at DESC, id DESC
	LIMIT 1
	`

	return edb.queryReport(ctx, query, sourceFile)
}

// GetReportByID retrieves a report by its database ID.
// It returns nil, nil when no such run exists.
func (edb *ExtractionDB) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json, error FROM extractions
	WHERE id = ?
	`

	return edb.queryReport(ctx, query, id)
}

func (edb *ExtractionDB) queryReport(ctx context.Context, query string, args ...any) (*model.Report, error) {
	var reportJSON string
	var errText sql.NullString

	err := edb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return decodeReport(reportJSON, errText.String)
}

// decodeReport restores a stored report. The error text is kept in its own
// column since the report JSON does not carry it.
func decodeReport(reportJSON, errText string) (*model.Report, error) {
	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if errText != "" {
		report.Error = errors.New(errText)
	}
	return &report, nil
}

// GetHistory retrieves up to limit reports for a source file, newest first.
// A non-positive limit returns every report.
func (edb *ExtractionDB) GetHistory(ctx context.Context, sourceFile string, limit int) ([]*model.Report, error) {
	query := `
	SELECT report_json, error FROM extractions
	WHERE source_file = ?
	ORDER BY processed_at DESC, id DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := edb.db.QueryContext(ctx, query, sourceFile, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var reportJSON string
		var errText sql.NullString
		if err := rows.Scan(&reportJSON, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		report, err := decodeReport(reportJSON, errText.String)
		if err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// SourceEntry describes one processed file.
type SourceEntry struct {
	// SourceFile is the base name of the processed file.
	SourceFile string

	// Runs is the number of stored extraction runs.
	Runs int

	// LastProcessed is when the latest run finished.
	LastProcessed time.Time
}

// ListSources returns processed files, most recently processed first.
// A non-positive limit returns every file.
func (edb *ExtractionDB) ListSources(ctx context.Context, limit int) ([]SourceEntry, error) {
	query := `
	SELECT source_file, COUNT(*), MAX(processed_at) AS last
	FROM extractions
	GROUP BY source_file
	ORDER BY last DESC, source_file
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := edb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var entries []SourceEntry
	for rows.Next() {
		var e SourceEntry
		var last string
		if err := rows.Scan(&e.SourceFile, &e.Runs, &last); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		e.LastProcessed = parseTimestamp(last)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ExtractionMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type ExtractionMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// SourceFile is the base name of the processed file.
	SourceFile string

	// SourceHash is the SHA3-256 of the file when the run was made.
	SourceHash string

	// Method is the token grouping method used.
	Method string

	// ProcessedAt is when the run finished.
	ProcessedAt time.Time

	// TotalPages, DimensionCount and CodeCount are the run's totals.
	TotalPages     int
	DimensionCount int
	CodeCount      int

	// Error is the recorded failure, empty on success.
	Error string
}

// GetHistoryWithMetadata retrieves run metadata for a source file, newest
// first. An empty sourceFile lists runs of every file.
func (edb *ExtractionDB) GetHistoryWithMetadata(ctx context.Context, sourceFile string) ([]ExtractionMetadata, error) {
	query := `
	SELECT id, source_file, source_hash, method, processed_at,
		total_pages, dimension_count, code_count, error
	FROM extractions
	`
	args := make([]any, 0, 1)
	if sourceFile != "" {
		query += " WHERE source_file = ?"
		args = append(args, sourceFile)
	}
	query += " ORDER BY processed_at DESC, id DESC"

	rows, err := edb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []ExtractionMetadata
	for rows.Next() {
		var meta ExtractionMetadata
		var hash, method, errText sql.NullString
		var processedAt string

		if err := rows.Scan(
			&meta.ID,
			&meta.SourceFile,
			&hash,
			&method,
			&processedAt,
			&meta.TotalPages,
			&meta.DimensionCount,
			&meta.CodeCount,
			&errText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.SourceHash = hash.String
		meta.Method = method.String
		meta.Error = errText.String
		meta.ProcessedAt = parseTimestamp(processedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// CodeHit is one page of a run on which a code was found.
type CodeHit struct {
	ExtractionID int64
	SourceFile   string
	ProcessedAt  time.Time
	Page         int
}

// FindByCode returns the pages of stored runs that contain code, newest run
// first. The code is matched case-insensitively.
func (edb *ExtractionDB) FindByCode(ctx context.Context, code string) ([]CodeHit, error) {
	query := `
	SELECT e.id, e.source_file, e.processed_at, c.page
	FROM codes c
	JOIN extractions e ON e.id = c.extraction_id
	WHERE c.code = ?
	ORDER BY e.processed_at DESC, e.id DESC, c.page
	`

	rows, err := edb.db.QueryContext(ctx, query, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("failed to find code: %w", err)
	}
	defer rows.Close()

	var hits []CodeHit
	for rows.Next() {
		var hit CodeHit
		var processedAt string
		if err := rows.Scan(&hit.ExtractionID, &hit.SourceFile, &processedAt, &hit.Page); err != nil {
			return nil, fmt.Errorf("failed to scan code hit: %w", err)
		}
		hit.ProcessedAt = parseTimestamp(processedAt)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format, fractions accepted
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
