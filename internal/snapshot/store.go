// Package snapshot archives raw provider payloads on disk, one immutable
// JSON file per symbol and trading date.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrNotFound indicates no snapshot exists for the requested key.
var ErrNotFound = errors.New("snapshot not found")

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Store writes and reads dated snapshot files under a single directory.
// Files are named {SYMBOL}_{YYYY-MM-DD}.json. The directory is created
// lazily on first write.
type Store struct {
	dir string
}

// NewStore constructs a Store rooted at dir.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("snapshot: directory cannot be empty")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the snapshot root directory.
func (s *Store) Dir() string { return s.dir }

// Key returns the canonical snapshot key for a symbol and date.
func Key(symbol, date string) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(strings.TrimSpace(symbol)), date)
}

func (s *Store) path(symbol, date string) string {
	return filepath.Join(s.dir, Key(symbol, date)+".json")
}

func validate(symbol, date string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return fmt.Errorf("snapshot: symbol cannot be empty")
	}
	if strings.ContainsAny(symbol, `/\`) {
		return fmt.Errorf("snapshot: invalid symbol %q", symbol)
	}
	if !dateRe.MatchString(date) {
		return fmt.Errorf("snapshot: invalid date %q, want YYYY-MM-DD", date)
	}
	return nil
}

// Has reports whether a snapshot exists for symbol on date.
func (s *Store) Has(symbol, date string) (bool, error) {
	if err := validate(symbol, date); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(symbol, date))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("snapshot: stat %s: %w", Key(symbol, date), err)
}

// Write persists raw bytes for symbol on date. When a snapshot already
// exists and overwrite is false the call is a no-op and returns false.
// Writes go through a temp file and rename so readers never observe a
// partial snapshot.
func (s *Store) Write(symbol, date string, raw []byte, overwrite bool) (bool, error) {
	if err := validate(symbol, date); err != nil {
		return false, err
	}

	target := s.path(symbol, date)
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return false, nil
		} else if !os.IsNotExist(err) {
			return false, fmt.Errorf("snapshot: stat %s: %w", Key(symbol, date), err)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("snapshot: create directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+Key(symbol, date)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return false, fmt.Errorf("snapshot: write %s: %w", Key(symbol, date), err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("snapshot: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return false, fmt.Errorf("snapshot: rename into place %s: %w", Key(symbol, date), err)
	}
	return true, nil
}

// Read returns the raw snapshot bytes for symbol on date. Returns an error
// wrapping ErrNotFound when no snapshot exists.
func (s *Store) Read(symbol, date string) ([]byte, error) {
	if err := validate(symbol, date); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(symbol, date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", Key(symbol, date), ErrNotFound)
		}
		return nil, fmt.Errorf("snapshot: read %s: %w", Key(symbol, date), err)
	}
	return raw, nil
}

// Latest returns the most recent snapshot for symbol, selected by the date
// embedded in the filename rather than file modification time. Returns an
// error wrapping ErrNotFound when the symbol has no snapshots.
func (s *Store) Latest(symbol string) (string, []byte, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", nil, fmt.Errorf("snapshot: symbol cannot be empty")
	}

	dates, err := s.Dates(symbol)
	if err != nil {
		return "", nil, err
	}
	if len(dates) == 0 {
		return "", nil, fmt.Errorf("snapshot latest %s: %w", symbol, ErrNotFound)
	}

	latest := dates[len(dates)-1]
	raw, err := s.Read(symbol, latest)
	if err != nil {
		return "", nil, err
	}
	return latest, raw, nil
}

// Dates lists the snapshot dates stored for symbol in ascending order.
// Calendar dates in YYYY-MM-DD form sort chronologically as strings.
func (s *Store) Dates(symbol string) ([]string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	prefix := symbol + "_"

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: list %s: %w", s.dir, err)
	}

	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		if !dateRe.MatchString(date) {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
