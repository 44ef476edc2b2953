package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"chart-feed/src/logger"
	"chart-feed/src/models"

	"github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresRecorder struct {
	Config *models.MStorageConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

// NewPostgresRecorder archives into a schema named after the application.
func NewPostgresRecorder(appName string, cfg *models.MStorageConfig, log *logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{
		Config: cfg,
		Schema: SchemaName(appName),
		Logger: log,
		Now:    time.Now,
	}
}

// SchemaName lowercases name and replaces anything but [a-z0-9_] with '_'.
func SchemaName(name string) string {
	s := unsafeSchemaChars.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "chart_feed"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) Initialize() error {
	db, err := sql.Open("postgres", d.Config.DBConnectionString)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(d.Schema))); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresRecorder initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) table() string {
	return pq.QuoteIdentifier(d.Schema) + `."samples"`
}

func (d *PostgresRecorder) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			session TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			kind TEXT NOT NULL,
			open DOUBLE PRECISION,
			close DOUBLE PRECISION,
			recorded_at BIGINT NOT NULL
		);
	`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create samples: %w", err)
	}

	query = fmt.Sprintf(`CREATE INDEX IF NOT EXISTS samples_session_ts ON %s (session, timestamp)`, d.table())
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to index samples: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// SaveSamples streams the batch with COPY.
func (d *PostgresRecorder) SaveSamples(session string, samples []models.MSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyInSchema(d.Schema, "samples",
		"session", "timestamp", "value", "kind", "open", "close", "recorded_at"))
	if err != nil {
		return err
	}

	recordedAt := d.Now().UnixMilli()
	for _, s := range samples {
		open, closeV := markerColumns(s)
		if _, err := stmt.Exec(session, s.Timestamp, s.Value, string(s.Kind), open, closeV, recordedAt); err != nil {
			stmt.Close()
			return err
		}
	}

	// flush the COPY buffer
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) CleanupOldData() error {
	cutoff := d.Now().UTC().AddDate(0, 0, -d.Config.RetentionDays).UnixMilli()

	res, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE recorded_at < $1`, d.table()), cutoff)
	if err != nil {
		d.Logger.Error("Cleanup samples error: %v", err)
		return err
	}

	n, _ := res.RowsAffected()
	d.Logger.Info("Cleanup completed: %d samples older than %d days removed", n, d.Config.RetentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
