// Package store persists postings per keyword and merges new batches into
// what earlier runs saved.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"remote-job-scraper/internal/models"
)

var (
	// ErrEmptyKeyword is returned when a keyword is blank after trimming.
	ErrEmptyKeyword = errors.New("keyword is empty")
	// ErrKeywordCollision is returned when the keyword's directory already
	// holds postings saved under a different keyword.
	ErrKeywordCollision = errors.New("keyword directory belongs to another keyword")
)

// LogTimeLayout is the timestamp layout used in the change log.
const LogTimeLayout = "2006-01-02 15:04:05"

const (
	jsonSuffix = "_jobs.json"
	csvSuffix  = "_jobs.csv"
	logSuffix  = "_update_log.txt"
)

// MergeResult summarizes one Merge call.
type MergeResult struct {
	Submitted int `json:"submitted"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unkeyed   int `json:"unkeyed"`
	Total     int `json:"total"`
}

type Store struct {
	mu     sync.Mutex
	root   string
	now    func() time.Time
	write  func(path string, fill func(f *os.File) error) error
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Store {
	return NewWithClock(root, logger, time.Now)
}

// NewWithClock is New with an injectable clock for last_updated stamps.
func NewWithClock(root string, logger *slog.Logger, now func() time.Time) *Store {
	return &Store{
		root:   root,
		now:    now,
		write:  writeAtomic,
		logger: logger.With("component", "store"),
	}
}

func (s *Store) Root() string {
	return s.root
}

// Merge loads the stored postings for keyword, overwrites entries whose URL
// matches an incoming posting, appends the rest and writes both snapshots
// back. Postings without a URL are always appended. An empty batch leaves
// the store untouched.
func (s *Store) Merge(keyword string, jobs []models.JobPosting) (MergeResult, error) {
	dir, err := DirName(keyword)
	if err != nil {
		return MergeResult{}, err
	}
	result := MergeResult{Submitted: len(jobs)}
	if len(jobs) == 0 {
		return result, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := filepath.Join(s.root, dir)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return result, fmt.Errorf("create keyword dir: %w", err)
	}

	snap := s.load(base, dir)
	existing := snap.jobs
	if other := foreignKeyword(existing, keyword); other != "" {
		return result, fmt.Errorf("%w: %q is stored in %q", ErrKeywordCollision, other, dir)
	}

	now := s.now()
	for _, path := range snap.damaged {
		aside, err := preserve(path, now)
		if err != nil {
			return result, fmt.Errorf("preserve damaged snapshot: %w", err)
		}
		if aside != "" {
			s.logger.Warn("kept a copy of the damaged snapshot", "path", aside)
		}
	}

	incoming := make([]models.JobPosting, len(jobs))
	for i, job := range jobs {
		job.LastUpdated = now
		incoming[i] = job
	}

	merged, counts := mergeByURL(existing, incoming)
	result.Inserted = counts.Inserted
	result.Updated = counts.Updated
	result.Unkeyed = counts.Unkeyed
	result.Total = len(merged)

	if err := s.write(filepath.Join(base, dir+csvSuffix), func(f *os.File) error {
		return writeCSV(f, merged)
	}); err != nil {
		return result, fmt.Errorf("write csv snapshot: %w", err)
	}
	if err := s.write(filepath.Join(base, dir+jsonSuffix), func(f *os.File) error {
		return writeJSON(f, merged)
	}); err != nil {
		return result, fmt.Errorf("write json snapshot: %w", err)
	}

	if err := s.appendLog(filepath.Join(base, dir+logSuffix), now, len(jobs)); err != nil {
		return result, fmt.Errorf("append update log: %w", err)
	}

	s.logger.Info("merged postings", "keyword", keyword,
		"submitted", result.Submitted, "inserted", result.Inserted,
		"updated", result.Updated, "unkeyed", result.Unkeyed, "total", result.Total)
	return result, nil
}

// Load returns the stored postings for keyword. A keyword with no snapshot
// yields an empty slice.
func (s *Store) Load(keyword string) ([]models.JobPosting, error) {
	dir, err := DirName(keyword)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(filepath.Join(s.root, dir), dir).jobs, nil
}

// Keywords lists the keyword directories that hold a snapshot, sorted.
func (s *Store) Keywords() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read store root: %w", err)
	}

	keywords := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if fileExists(filepath.Join(s.root, name, name+jsonSuffix)) || fileExists(filepath.Join(s.root, name, name+csvSuffix)) {
			keywords = append(keywords, name)
		}
	}
	slices.Sort(keywords)
	return keywords, nil
}

// snapshot is what load found on disk. damaged lists snapshot files that
// were unreadable or had rows skipped; Merge keeps a copy of each before
// overwriting it.
type snapshot struct {
	jobs    []models.JobPosting
	damaged []string
}

// load prefers the JSON snapshot and falls back to the CSV twin. Unreadable
// history is logged and treated as empty.
func (s *Store) load(base, dir string) snapshot {
	var snap snapshot

	jsonPath := filepath.Join(base, dir+jsonSuffix)
	jobs, skipped, err := readJSON(jsonPath)
	if err == nil {
		if skipped > 0 {
			s.logger.Warn("skipped unreadable json entries", "path", jsonPath, "skipped", skipped)
			snap.damaged = append(snap.damaged, jsonPath)
		}
		snap.jobs = jobs
		return snap
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("json snapshot unreadable, trying csv", "path", jsonPath, "err", err)
		snap.damaged = append(snap.damaged, jsonPath)
	}

	csvPath := filepath.Join(base, dir+csvSuffix)
	jobs, skipped, err = readCSV(csvPath)
	if err == nil {
		if skipped > 0 {
			s.logger.Warn("skipped unreadable csv rows", "path", csvPath, "skipped", skipped)
			snap.damaged = append(snap.damaged, csvPath)
		}
		snap.jobs = jobs
		return snap
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("csv snapshot unreadable, starting from empty", "path", csvPath, "err", err)
		snap.damaged = append(snap.damaged, csvPath)
	}
	snap.jobs = []models.JobPosting{}
	return snap
}

// preserve copies a damaged snapshot to <name>.corrupt-<stamp> next to it.
func preserve(path string, at time.Time) (string, error) {
	if !fileExists(path) {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	aside := path + ".corrupt-" + at.Format("20060102T150405")
	return aside, os.WriteFile(aside, data, 0o644)
}

func (s *Store) appendLog(path string, at time.Time, submitted int) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "Update performed at %s: Found %d new jobs\n", at.Format(LogTimeLayout), submitted)
	return errors.Join(err, f.Close())
}

type mergeCounts struct {
	Inserted, Updated, Unkeyed int
}

// mergeByURL keeps the order of existing, overwrites in place on URL match
// and appends everything else.
func mergeByURL(existing, incoming []models.JobPosting) ([]models.JobPosting, mergeCounts) {
	merged := make([]models.JobPosting, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	put := func(job models.JobPosting) (inserted bool) {
		if job.URL == "" {
			merged = append(merged, job)
			return true
		}
		if i, ok := index[job.URL]; ok {
			merged[i] = job
			return false
		}
		index[job.URL] = len(merged)
		merged = append(merged, job)
		return true
	}

	for _, job := range existing {
		put(job)
	}

	var counts mergeCounts
	for _, job := range incoming {
		switch {
		case job.URL == "":
			put(job)
			counts.Unkeyed++
		case put(job):
			counts.Inserted++
		default:
			counts.Updated++
		}
	}
	return merged, counts
}

// DirName maps a keyword to the directory and file prefix used on disk.
// Path separators and characters most filesystems reject become '_'.
func DirName(keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", ErrEmptyKeyword
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, keyword)
	if safe == "." || safe == ".." {
		safe = strings.Repeat("_", len(safe))
	}
	return safe, nil
}

// foreignKeyword returns the first stored keyword that differs from keyword
// other than by case.
func foreignKeyword(jobs []models.JobPosting, keyword string) string {
	keyword = strings.TrimSpace(keyword)
	for _, job := range jobs {
		k := strings.TrimSpace(job.Keyword)
		if k != "" && !strings.EqualFold(k, keyword) {
			return k
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
