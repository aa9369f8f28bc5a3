package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"axles_ingest/models"
)

// SQLiteStore is the local operational database: run history, logs and
// per-source stats. Marketplace data lives in Postgres.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS import_runs (
		id INTEGER PRIMARY KEY,
		source TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		rows_found INTEGER,
		imported INTEGER,
		skipped INTEGER,
		errors_count INTEGER
	);

	CREATE TABLE IF NOT EXISTS import_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		source TEXT
	);

	CREATE TABLE IF NOT EXISTS source_stats (
		source TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_run_status TEXT,
		total_imported INTEGER,
		total_skipped INTEGER,
		success_rate REAL,
		avg_run_duration_sec INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON import_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON import_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_source ON import_runs(source, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ImportRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO import_runs (source, started_at, status, rows_found, imported, skipped, errors_count)
		VALUES (?, ?, ?, 0, 0, 0, 0)`,
		run.Source, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ImportRun) error {
	_, err := s.db.Exec(`
		UPDATE import_runs SET finished_at = ?, status = ?, rows_found = ?,
			imported = ?, skipped = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.RowsFound, run.Imported, run.Skipped, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, source string) error {
	_, err := s.db.Exec(`
		INSERT INTO import_logs (run_id, timestamp, level, message, source)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, source)
	return err
}

func (s *SQLiteStore) UpdateSourceStats(source string) error {
	_, err := s.db.Exec(`
		INSERT INTO source_stats (source, last_run_at, last_run_status, total_imported,
			total_skipped, success_rate, avg_run_duration_sec)
		SELECT
			?,
			COALESCE(
				(SELECT started_at FROM import_runs WHERE source = ? AND status = 'completed' ORDER BY started_at DESC LIMIT 1),
				(SELECT started_at FROM import_runs WHERE source = ? ORDER BY started_at DESC LIMIT 1)
			),
			(SELECT status FROM import_runs WHERE source = ? ORDER BY started_at DESC LIMIT 1),
			(SELECT COALESCE(SUM(imported), 0) FROM import_runs WHERE source = ?),
			(SELECT COALESCE(SUM(skipped), 0) FROM import_runs WHERE source = ?),
			(SELECT CAST(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS REAL) /
				NULLIF(COUNT(*), 0) FROM import_runs WHERE source = ?),
			(SELECT AVG(CAST((julianday(finished_at) - julianday(started_at)) * 86400 AS INTEGER))
				FROM import_runs WHERE source = ? AND finished_at IS NOT NULL)
		ON CONFLICT(source) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_run_status = excluded.last_run_status,
			total_imported = excluded.total_imported,
			total_skipped = excluded.total_skipped,
			success_rate = excluded.success_rate,
			avg_run_duration_sec = excluded.avg_run_duration_sec`,
		source, source, source, source, source, source, source, source)
	return err
}

func (s *SQLiteStore) GetLastRunTime(source string) (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRow(`
		SELECT started_at FROM import_runs WHERE source = ? ORDER BY started_at DESC LIMIT 1`,
		source).Scan(&t)
	if err == sql.ErrNoRows || !t.Valid {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return t.Time, nil
}

func (s *SQLiteStore) GetSourceStats(source string) (*models.SourceStats, error) {
	row := s.db.QueryRow(`
		SELECT source, last_run_at, last_run_status, total_imported, total_skipped,
			success_rate, avg_run_duration_sec
		FROM source_stats WHERE source = ?`, source)

	var stats models.SourceStats
	var lastRunAt sql.NullTime
	var status sql.NullString
	var successRate sql.NullFloat64
	var avgDuration sql.NullInt64
	err := row.Scan(&stats.Source, &lastRunAt, &status, &stats.TotalImported,
		&stats.TotalSkipped, &successRate, &avgDuration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastRunAt.Valid {
		stats.LastRunAt = &lastRunAt.Time
	}
	stats.LastRunStatus = status.String
	stats.SuccessRate = successRate.Float64
	stats.AvgRunDurationSec = int(avgDuration.Int64)
	return &stats, nil
}
