package storage

import (
	"database/sql"
	"time"

	"tia/internal/errors"
	"tia/internal/history"
)

// DB implements history.Backend.
var _ history.Backend = (*DB)(nil)

// AppendRuns writes one recorded batch of run results.
func (db *DB) AppendRuns(batchId string, runs []history.RunResult) error {
	if len(runs) == 0 {
		return nil
	}
	err := db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO test_runs (batch_id, test_id, recorded_at, passed, duration_ms, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, run := range runs {
			passed := 0
			if run.Passed {
				passed = 1
			}
			ts := run.Timestamp.UTC().Format(time.RFC3339Nano)
			if _, err := stmt.Exec(batchId, run.TestId, ts, passed, run.Duration, run.Error); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to append test runs", err)
	}
	return nil
}

// LoadRuns returns all persisted runs grouped by test id, insertion
// order preserved per test.
func (db *DB) LoadRuns() (map[string][]history.RunResult, error) {
	rows, err := db.Query(`
		SELECT test_id, recorded_at, passed, duration_ms, error
		FROM test_runs
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to load test runs", err)
	}
	defer rows.Close()

	out := make(map[string][]history.RunResult)
	for rows.Next() {
		var (
			run    history.RunResult
			ts     string
			passed int
		)
		if err := rows.Scan(&run.TestId, &ts, &passed, &run.Duration, &run.Error); err != nil {
			return nil, errors.Wrap(errors.StorageFailure, "failed to scan test run", err)
		}
		run.Passed = passed == 1
		if t, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			run.Timestamp = t
		}
		out[run.TestId] = append(out[run.TestId], run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to read test runs", err)
	}
	return out, nil
}

// UpsertQuarantine records or updates a quarantine entry.
func (db *DB) UpsertQuarantine(testId, reason string) error {
	_, err := db.Exec(`
		INSERT INTO quarantine (test_id, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(test_id) DO UPDATE SET reason = excluded.reason
	`, testId, reason, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to save quarantine entry", err)
	}
	return nil
}

// DeleteQuarantine removes a quarantine entry. Deleting a test that is
// not quarantined is not an error.
func (db *DB) DeleteQuarantine(testId string) error {
	_, err := db.Exec("DELETE FROM quarantine WHERE test_id = ?", testId)
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to delete quarantine entry", err)
	}
	return nil
}

// LoadQuarantine returns all quarantine entries keyed by test id.
func (db *DB) LoadQuarantine() (map[string]string, error) {
	rows, err := db.Query("SELECT test_id, reason FROM quarantine")
	if err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to load quarantine", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, reason string
		if err := rows.Scan(&id, &reason); err != nil {
			return nil, errors.Wrap(errors.StorageFailure, "failed to scan quarantine entry", err)
		}
		out[id] = reason
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.StorageFailure, "failed to read quarantine", err)
	}
	return out, nil
}
