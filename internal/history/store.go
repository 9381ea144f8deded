// Package history retains a bounded rolling window of test run
// outcomes per test identity, plus the quarantine registry. These are
// the engine's only shared mutable structures; access is sharded by
// test id and readers always work on snapshot copies.
package history

import (
	"hash/fnv"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"tia/internal/logging"
)

// RunResult is one recorded execution outcome for a test. Append-only;
// the store alone appends and trims.
type RunResult struct {
	TestId    string    `json:"testId"`
	Timestamp time.Time `json:"timestamp"`
	Passed    bool      `json:"passed"`
	// Duration in milliseconds.
	Duration int64  `json:"durationMs"`
	Error    string `json:"error,omitempty"`
}

// Backend persists runs and quarantine entries across restarts. The
// in-memory store works without one; the engine injects the SQLite
// implementation from internal/storage.
type Backend interface {
	AppendRuns(batchId string, runs []RunResult) error
	LoadRuns() (map[string][]RunResult, error)
	UpsertQuarantine(testId, reason string) error
	DeleteQuarantine(testId string) error
	LoadQuarantine() (map[string]string, error)
}

const shardCount = 16

type shard struct {
	mu   sync.Mutex
	runs map[string]*ring
}

// Store is the run-history store and quarantine registry.
type Store struct {
	capacity int
	shards   [shardCount]*shard

	qmu        sync.RWMutex
	quarantine map[string]string // testId -> reason

	backend Backend
	logger  *logging.Logger
}

// NewStore creates a Store with the given per-test ring capacity.
// When a backend is supplied, existing runs and quarantine entries are
// hydrated from it; hydration failures degrade to an empty store.
func NewStore(capacity int, backend Backend, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	s := &Store{
		capacity:   capacity,
		quarantine: make(map[string]string),
		backend:    backend,
		logger:     logger,
	}
	for i := range s.shards {
		s.shards[i] = &shard{runs: make(map[string]*ring)}
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	if s.backend == nil {
		return
	}
	runs, err := s.backend.LoadRuns()
	if err != nil {
		s.logger.Warn("failed to load run history, starting empty", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		for id, rs := range runs {
			sh := s.shardFor(id)
			r := newRing(s.capacity)
			for _, run := range rs {
				r.append(run)
			}
			sh.runs[id] = r
		}
	}

	q, err := s.backend.LoadQuarantine()
	if err != nil {
		s.logger.Warn("failed to load quarantine registry", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	for id, reason := range q {
		s.quarantine[id] = reason
	}
}

func (s *Store) shardFor(testId string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(testId))
	return s.shards[h.Sum32()%shardCount]
}

// Record appends one result per supplied outcome, trimming each
// per-test history to the ring capacity. Returns the batch id.
func (s *Store) Record(results []RunResult) string {
	batchId := uuid.NewString()

	for _, run := range results {
		if run.TestId == "" {
			continue
		}
		if run.Timestamp.IsZero() {
			run.Timestamp = time.Now().UTC()
		}
		sh := s.shardFor(run.TestId)
		sh.mu.Lock()
		r, ok := sh.runs[run.TestId]
		if !ok {
			r = newRing(s.capacity)
			sh.runs[run.TestId] = r
		}
		r.append(run)
		sh.mu.Unlock()
	}

	if s.backend != nil {
		if err := s.backend.AppendRuns(batchId, results); err != nil {
			s.logger.Warn("failed to persist run batch", map[string]interface{}{
				"batchId": batchId, "error": err.Error(),
			})
		}
	}

	s.logger.Debug("recorded test runs", map[string]interface{}{
		"batchId": batchId, "count": len(results),
	})
	return batchId
}

// History returns snapshot copies of run histories within the trailing
// window. An empty testId returns every tracked test; a test with no
// qualifying runs is omitted. Entries come back oldest-first.
func (s *Store) History(testId string, days int) map[string][]RunResult {
	cutoff := time.Time{}
	if days > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -days)
	}

	out := make(map[string][]RunResult)
	collect := func(sh *shard) {
		sh.mu.Lock()
		defer sh.mu.Unlock()
		for id, r := range sh.runs {
			if testId != "" && id != testId {
				continue
			}
			runs := filterSince(r.snapshot(), cutoff)
			if len(runs) > 0 {
				out[id] = runs
			}
		}
	}

	if testId != "" {
		collect(s.shardFor(testId))
		return out
	}
	for _, sh := range s.shards {
		collect(sh)
	}
	return out
}

func filterSince(runs []RunResult, cutoff time.Time) []RunResult {
	if cutoff.IsZero() {
		return runs
	}
	out := runs[:0:0]
	for _, run := range runs {
		if !run.Timestamp.Before(cutoff) {
			out = append(out, run)
		}
	}
	return out
}

// Quarantine inserts a test identity into the registry. Idempotent;
// re-quarantining updates the reason and nothing else. History is
// never touched.
func (s *Store) Quarantine(testId, reason string) {
	s.qmu.Lock()
	s.quarantine[testId] = reason
	s.qmu.Unlock()

	if s.backend != nil {
		if err := s.backend.UpsertQuarantine(testId, reason); err != nil {
			s.logger.Warn("failed to persist quarantine entry", map[string]interface{}{
				"testId": testId, "error": err.Error(),
			})
		}
	}
}

// Unquarantine removes a test identity from the registry. Removing an
// absent id is a no-op.
func (s *Store) Unquarantine(testId string) {
	s.qmu.Lock()
	delete(s.quarantine, testId)
	s.qmu.Unlock()

	if s.backend != nil {
		if err := s.backend.DeleteQuarantine(testId); err != nil {
			s.logger.Warn("failed to remove quarantine entry", map[string]interface{}{
				"testId": testId, "error": err.Error(),
			})
		}
	}
}

// IsQuarantined reports whether the id is currently quarantined.
func (s *Store) IsQuarantined(testId string) bool {
	s.qmu.RLock()
	defer s.qmu.RUnlock()
	_, ok := s.quarantine[testId]
	return ok
}

// QuarantinedIds returns a snapshot of quarantined test ids.
func (s *Store) QuarantinedIds() map[string]bool {
	s.qmu.RLock()
	defer s.qmu.RUnlock()
	out := make(map[string]bool, len(s.quarantine))
	for id := range s.quarantine {
		out[id] = true
	}
	return out
}

// quarantineFile is the shape of .tia/quarantine.toml.
type quarantineFile struct {
	Quarantine []quarantineEntry `toml:"quarantine"`
}

type quarantineEntry struct {
	TestId string `toml:"testId"`
	Reason string `toml:"reason"`
}

// LoadDeclarations merges quarantine entries declared in a TOML file
// into the registry. A missing file is fine; a malformed one is an
// error so typos do not silently un-quarantine tests.
func (s *Store) LoadDeclarations(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var decl quarantineFile
	if err := toml.Unmarshal(data, &decl); err != nil {
		return err
	}

	for _, e := range decl.Quarantine {
		if e.TestId == "" {
			continue
		}
		s.Quarantine(e.TestId, e.Reason)
	}
	s.logger.Debug("loaded quarantine declarations", map[string]interface{}{
		"path": path, "entries": len(decl.Quarantine),
	})
	return nil
}
