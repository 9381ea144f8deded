// Package discover enumerates test files and classifies the test cases
// inside them. Discovery operates on a snapshot of the tree at call
// time; nothing is cached between scans.
package discover

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tia/internal/config"
	"tia/internal/framework"
	"tia/internal/logging"
	"tia/internal/paths"
)

// Discoverer walks a repository tree and finds test files.
type Discoverer struct {
	root   string
	cfg    *config.Config
	logger *logging.Logger
}

// New creates a Discoverer for the repository at root.
func New(root string, cfg *config.Config, logger *logging.Logger) *Discoverer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Discoverer{root: root, cfg: cfg, logger: logger}
}

// Options narrows a discovery scan.
type Options struct {
	// Framework overrides autodetection when non-empty.
	Framework framework.Framework
	// Include keeps only paths containing at least one of these
	// substrings, when supplied.
	Include []string
	// Exclude always removes paths containing any of these substrings.
	Exclude []string
}

// Discover walks the tree and returns every test file for the active
// framework, sorted by path. Unreadable files are counted as zero
// cases rather than failing the scan.
func (d *Discoverer) Discover(ctx context.Context, opts Options) ([]TestFile, error) {
	fw := opts.Framework
	if fw == "" {
		fw = framework.Detect(d.root)
	}

	candidates, capped := d.walk(ctx, fw, opts)
	if capped {
		d.logger.Warn("file walk hit enumeration cap", map[string]interface{}{
			"maxFiles": d.cfg.Discovery.MaxFiles,
		})
	}

	files := d.countCases(candidates, fw)

	// Deterministic fold: order never depends on read completion.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	d.logger.Debug("discovery complete", map[string]interface{}{
		"framework": string(fw),
		"testFiles": len(files),
	})
	return files, nil
}

// walk enumerates candidate test files, honoring the ignore list, the
// include/exclude filters and the hard file cap.
func (d *Discoverer) walk(ctx context.Context, fw framework.Framework, opts Options) ([]string, bool) {
	ignore := make(map[string]bool, len(d.cfg.Discovery.Ignore))
	for _, dir := range d.cfg.Discovery.Ignore {
		ignore[dir] = true
	}

	var candidates []string
	enumerated := 0
	capped := false

	_ = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// A broken entry never aborts the scan.
			return nil
		}
		if ctx.Err() != nil {
			return filepath.SkipAll
		}
		if entry.IsDir() {
			if ignore[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		enumerated++
		if enumerated > d.cfg.Discovery.MaxFiles {
			capped = true
			return filepath.SkipAll
		}

		rel := paths.Canonicalize(path, d.root)
		if !IsTestFile(rel, fw) {
			return nil
		}
		if !passesFilters(rel, opts.Include, opts.Exclude) {
			return nil
		}
		candidates = append(candidates, rel)
		return nil
	})

	return candidates, capped
}

// passesFilters applies include/exclude as substring predicates on the
// relative path. Exclude always removes; include must match when set.
func passesFilters(relPath string, include, exclude []string) bool {
	for _, sub := range exclude {
		if sub != "" && strings.Contains(relPath, sub) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, sub := range include {
		if sub != "" && strings.Contains(relPath, sub) {
			return true
		}
	}
	return false
}

// countCases reads candidate files across a bounded worker pool and
// counts the cases in each. Reads are independent, so fan-out is safe;
// the caller sorts the folded result.
func (d *Discoverer) countCases(candidates []string, fw framework.Framework) []TestFile {
	workers := d.cfg.Discovery.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(candidates) && len(candidates) > 0 {
		workers = len(candidates)
	}

	jobs := make(chan string)
	results := make([]TestFile, 0, len(candidates))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				count := 0
				content, err := d.readCapped(rel)
				if err != nil {
					d.logger.Debug("skipping unreadable test file", map[string]interface{}{
						"file": rel, "error": err.Error(),
					})
				} else {
					count = len(scanCases(content, rel, fw))
				}
				mu.Lock()
				results = append(results, TestFile{
					Path:      rel,
					Framework: string(fw),
					TestCount: count,
				})
				mu.Unlock()
			}
		}()
	}

	for _, rel := range candidates {
		jobs <- rel
	}
	close(jobs)
	wg.Wait()

	return results
}

// AnalyzeFile returns the individual test cases declared in one file.
// A missing or unreadable file yields an empty list, not an error.
func (d *Discoverer) AnalyzeFile(relPath string, fw framework.Framework) []TestCase {
	if fw == "" {
		fw = framework.Detect(d.root)
	}
	rel := paths.Canonicalize(relPath, d.root)

	content, err := d.readCapped(rel)
	if err != nil {
		d.logger.Debug("analyze: unreadable file", map[string]interface{}{
			"file": rel, "error": err.Error(),
		})
		return nil
	}
	return scanCases(content, rel, fw)
}

// readCapped reads a repo file, refusing anything above the configured
// size limit so one giant blob cannot stall a scan.
func (d *Discoverer) readCapped(relPath string) (string, error) {
	full := filepath.Join(d.root, filepath.FromSlash(relPath))
	info, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if max := d.cfg.Discovery.MaxFileSizeBytes; max > 0 && info.Size() > int64(max) {
		return "", &fileTooLargeError{path: relPath, size: info.Size()}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type fileTooLargeError struct {
	path string
	size int64
}

func (e *fileTooLargeError) Error() string {
	return "file too large to scan: " + e.path
}

// scanCases runs line-level pattern matching over file content and
// returns every recognized test case with type, tags and a stable id.
func scanCases(content, relPath string, fw framework.Framework) []TestCase {
	lines := strings.Split(content, "\n")
	var cases []TestCase

	appendCase := func(name string, lineIdx int) {
		cases = append(cases, TestCase{
			Id:     CaseId(relPath, lineIdx+1, name),
			Name:   name,
			File:   relPath,
			Line:   lineIdx + 1,
			Type:   ClassifyType(relPath, name),
			Tags:   extractTags(lines, lineIdx),
			Status: StatusUnknown,
		})
	}

	if fw == framework.JUnit {
		for i := 0; i < len(lines); i++ {
			if !junitAnnotationPattern.MatchString(lines[i]) {
				continue
			}
			// The annotated method signature follows within a few lines.
			for j := i + 1; j < len(lines) && j <= i+3; j++ {
				if m := junitMethodPattern.FindStringSubmatch(lines[j]); m != nil {
					appendCase(m[1], j)
					i = j
					break
				}
			}
		}
		return cases
	}

	for i, line := range lines {
		if name, ok := matchCase(line, fw); ok {
			appendCase(name, i)
		}
	}
	return cases
}
