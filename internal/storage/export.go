package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"tia/internal/errors"
	"tia/internal/history"
)

// archive is the on-disk export shape: everything the database holds,
// in one zstd-compressed JSON document.
type archive struct {
	Version    int                            `json:"version"`
	Runs       map[string][]history.RunResult `json:"runs"`
	Quarantine map[string]string              `json:"quarantine"`
}

const archiveVersion = 1

// Export writes the full run history and quarantine registry to path
// as zstd-compressed JSON. The file can be imported into another
// repository's database with Import.
func (db *DB) Export(path string) error {
	runs, err := db.LoadRuns()
	if err != nil {
		return err
	}
	quarantine, err := db.LoadQuarantine()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to create export file", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrap(errors.InternalError, "failed to create compressor", err)
	}

	enc := json.NewEncoder(zw)
	if err := enc.Encode(archive{
		Version:    archiveVersion,
		Runs:       runs,
		Quarantine: quarantine,
	}); err != nil {
		zw.Close()
		return errors.Wrap(errors.StorageFailure, "failed to encode export", err)
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(errors.StorageFailure, "failed to finish export", err)
	}
	return nil
}

// Import merges an exported archive into the database. Runs are
// appended under their original test ids; quarantine entries are
// upserted. Returns the number of runs imported.
func (db *DB) Import(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(errors.StorageFailure, "failed to open import file", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(errors.InvalidArgument, "import file is not a tia archive", err)
	}
	defer zr.Close()

	var arc archive
	if err := json.NewDecoder(zr).Decode(&arc); err != nil {
		if err == io.EOF {
			return 0, errors.New(errors.InvalidArgument, "import file is empty")
		}
		return 0, errors.Wrap(errors.InvalidArgument, "failed to decode import file", err)
	}
	if arc.Version != archiveVersion {
		return 0, errors.Newf(errors.InvalidArgument, "unsupported archive version %d", arc.Version)
	}

	imported := 0
	for _, runs := range arc.Runs {
		if err := db.AppendRuns("import", runs); err != nil {
			return imported, err
		}
		imported += len(runs)
	}
	for testId, reason := range arc.Quarantine {
		if err := db.UpsertQuarantine(testId, reason); err != nil {
			return imported, err
		}
	}
	return imported, nil
}
