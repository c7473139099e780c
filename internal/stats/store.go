// Package stats keeps a rolling history of refresh summaries as JSON Lines.
package stats

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/spiffcs/prwatch/internal/heuristics"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
)

// maxRecords is the maximum number of records retained in the store.
const maxRecords = 1000

// Record captures aggregate counts from a single completed refresh.
type Record struct {
	Timestamp      time.Time `json:"ts"`
	Attention      int       `json:"attention"`
	Open           int       `json:"open"`
	ReviewRequests int       `json:"reviewRequests"`
	Notifications  int       `json:"notifications"`
	Issues         int       `json:"issues"`
	Merged         int       `json:"merged"`
	Closed         int       `json:"closed"`
	Muted          int       `json:"muted"`
	CISuccess      int       `json:"ciSuccess"`
	CIFailure      int       `json:"ciFailure"`
	CIPending      int       `json:"ciPending"`
	MedianAgeHours float64   `json:"medianAgeH"`
}

// FromSnapshot summarizes snap. The median age covers open PRs with a
// known creation time.
func FromSnapshot(snap model.Snapshot) Record {
	sum := snap.Summary()
	r := Record{
		Timestamp:      snap.LastUpdated,
		Attention:      sum.Attention,
		Open:           sum.Open,
		ReviewRequests: sum.ReviewRequests,
		Notifications:  sum.Notifications,
		Issues:         sum.Issues,
		Merged:         sum.Merged,
		Closed:         sum.Closed,
		Muted:          sum.Muted,
	}

	var ages []float64
	for _, pr := range snap.OpenPRs {
		switch heuristics.CIStatusFrom(pr.StatusChecks) {
		case model.CISuccess:
			r.CISuccess++
		case model.CIFailure:
			r.CIFailure++
		case model.CIPending:
			r.CIPending++
		}
		if pr.CreatedAt != nil {
			ages = append(ages, snap.LastUpdated.Sub(*pr.CreatedAt).Hours())
		}
	}
	r.MedianAgeHours = median(ages)
	return r
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	slices.Sort(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

// Store manages persistence of records as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns history.jsonl under the user cache directory.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "prwatch", "history.jsonl"), nil
}

// NewStore creates a store at the default path.
func NewStore() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open creates a store at path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// Append adds a record and prunes to the last maxRecords entries.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read stats, starting fresh", "error", err)
		records = nil
	}

	records = append(records, rec)

	// Prune to last maxRecords
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n records (or fewer if not enough exist).
func (s *Store) Recent(n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}

	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

// readAll reads all records from disk.
func (s *Store) readAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// writeAll writes all records to disk atomically.
func (s *Store) writeAll(records []Record) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.path)
}
