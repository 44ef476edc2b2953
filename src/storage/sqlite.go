package storage

import (
	"database/sql"
	"fmt"
	"time"

	"chart-feed/src/logger"
	"chart-feed/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteRecorder struct {
	Config *models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLiteRecorder(cfg *models.MStorageConfig, log *logger.Logger) *SQLiteRecorder {
	return &SQLiteRecorder{
		Config: cfg,
		Logger: log,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.DBPath)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)
	d.DB = db

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS samples (
			session TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			value REAL NOT NULL,
			kind TEXT NOT NULL,
			open REAL,
			close REAL,
			recorded_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create samples: %w", err)
	}

	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_samples_session_ts ON samples (session, timestamp)`); err != nil {
		return fmt.Errorf("failed to index samples: %w", err)
	}
	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_samples_recorded_at ON samples (recorded_at)`); err != nil {
		return fmt.Errorf("failed to index samples: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) SaveSamples(session string, samples []models.MSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO samples (session, timestamp, value, kind, open, close, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	recordedAt := d.Now().UnixMilli()
	for _, s := range samples {
		open, closeV := markerColumns(s)
		if _, err := stmt.Exec(session, s.Timestamp, s.Value, string(s.Kind), open, closeV, recordedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

// CountSamples returns how many rows are archived for session.
func (d *SQLiteRecorder) CountSamples(session string) (int, error) {
	var n int
	err := d.DB.QueryRow(`SELECT COUNT(*) FROM samples WHERE session = ?`, session).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------

// CleanupOldData removes rows recorded more than RetentionDays ago.
func (d *SQLiteRecorder) CleanupOldData() error {
	cutoff := d.Now().UTC().AddDate(0, 0, -d.Config.RetentionDays).UnixMilli()

	res, err := d.DB.Exec("DELETE FROM samples WHERE recorded_at < ?", cutoff)
	if err != nil {
		d.Logger.Error("Cleanup samples error: %v", err)
		return err
	}

	n, _ := res.RowsAffected()
	d.Logger.Info("Cleanup completed: %d samples older than %d days removed", n, d.Config.RetentionDays)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// markerColumns maps a sample onto nullable open/close columns.
func markerColumns(s models.MSample) (sql.NullFloat64, sql.NullFloat64) {
	open, closeV, ok := s.OpenClose()
	if !ok {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: open, Valid: true}, sql.NullFloat64{Float64: closeV, Valid: true}
}
