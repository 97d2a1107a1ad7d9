package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"remote-job-scraper/internal/models"
)

// csvColumns is the header of the tabular snapshot. It matches the JSON
// field names.
var csvColumns = []string{
	"title", "company", "location", "source", "url",
	"date_posted", "keyword", "is_company_direct", "last_updated",
}

var errNoHeader = errors.New("csv snapshot has no header")

// jsonRecord reads last_updated as text so snapshots stamped with
// LogTimeLayout load as well as RFC 3339 ones.
type jsonRecord struct {
	models.JobPosting
	LastUpdated string `json:"last_updated"`
}

// readJSON returns the postings it could decode and how many entries it
// skipped. An error means the file as a whole is unreadable.
func readJSON(path string) ([]models.JobPosting, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	jobs := make([]models.JobPosting, 0, len(entries))
	skipped := 0
	for _, raw := range entries {
		var rec jsonRecord
		if string(raw) == "null" {
			skipped++
			continue
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			continue
		}
		job := rec.JobPosting
		if rec.LastUpdated != "" {
			ts, err := parseTimestamp(rec.LastUpdated)
			if err != nil {
				skipped++
				continue
			}
			job.LastUpdated = ts
		}
		jobs = append(jobs, job)
	}
	return jobs, skipped, nil
}

func writeJSON(w io.Writer, jobs []models.JobPosting) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}

// readCSV matches columns by header name, so reordered or extra columns
// are tolerated. Missing columns stay at their zero value. Rows that fail
// to parse are skipped and counted.
func readCSV(path string) ([]models.JobPosting, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(path), errNoHeader)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimPrefix(name, "\ufeff")] = i
	}
	if _, ok := col["url"]; !ok {
		return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(path), errNoHeader)
	}

	jobs := []models.JobPosting{}
	skipped := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		job, err := parseRow(col, rec)
		if err != nil {
			skipped++
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, skipped, nil
}

func parseRow(col map[string]int, rec []string) (models.JobPosting, error) {
	get := func(name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	job := models.JobPosting{
		Title:      get("title"),
		Company:    get("company"),
		Location:   get("location"),
		Source:     get("source"),
		URL:        get("url"),
		DatePosted: get("date_posted"),
		Keyword:    get("keyword"),
	}
	if v := get("is_company_direct"); v != "" {
		direct, err := strconv.ParseBool(v)
		if err != nil {
			return job, fmt.Errorf("is_company_direct: %w", err)
		}
		job.IsCompanyDirect = direct
	}
	if v := get("last_updated"); v != "" {
		ts, err := parseTimestamp(v)
		if err != nil {
			return job, fmt.Errorf("last_updated: %w", err)
		}
		job.LastUpdated = ts
	}
	return job, nil
}

// parseTimestamp accepts RFC 3339 and the local LogTimeLayout stamps found
// in older snapshots.
func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts, nil
	}
	return time.ParseInLocation(LogTimeLayout, v, time.Local)
}

func writeCSV(w io.Writer, jobs []models.JobPosting) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, job := range jobs {
		err := cw.Write([]string{
			job.Title,
			job.Company,
			job.Location,
			job.Source,
			job.URL,
			job.DatePosted,
			job.Keyword,
			strconv.FormatBool(job.IsCompanyDirect),
			job.LastUpdated.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeAtomic writes to a temp file in the target directory and renames it
// over path, so readers see either the old or the new snapshot.
func writeAtomic(path string, write func(f *os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
