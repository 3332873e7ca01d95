package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// lockWait bounds how long Save waits for a concurrent writer to finish
// before giving up.
const lockWait = 5 * time.Second

// Reports are stored as individual JSON files under one directory. Writers
// take a directory-wide flock so two concurrent analyses never interleave a
// write; each file is written to a temp name and renamed into place so a
// crash can never leave a half-written report behind.

// Save writes r to dir and returns the final file path.
func Save(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create reports dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	l := flock.New(filepath.Join(dir, ".reports.lock"))
	locked, err := l.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("cannot acquire reports lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("timed out waiting for reports lock %s", l.Path())
	}
	defer func() { _ = l.Unlock() }()

	name := "report-" + r.CreatedAt.Format("20060102T150405Z") + ".json"
	final := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(final); os.IsNotExist(err) {
			break
		}
		final = filepath.Join(dir, fmt.Sprintf("report-%s-%d.json", r.CreatedAt.Format("20060102T150405Z"), i))
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cannot marshal report: %w", err)
	}

	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write report %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = removeFile(tmp)
		return "", fmt.Errorf("cannot finalize report %s: %w", final, err)
	}
	return final, nil
}

// LoadFile reads one stored report.
func LoadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid report JSON %s: %w", path, err)
	}
	return &r, nil
}

// List returns the stored report file names in dir, newest last.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read reports dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "report-") && strings.HasSuffix(name, ".json") {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes a stored report by file name.
func Delete(dir, name string) error {
	if filepath.Base(name) != name {
		return fmt.Errorf("invalid report name: %q", name)
	}
	return removeFile(filepath.Join(dir, name))
}
