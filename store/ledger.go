// Package store persists daily drop usage, linked wallets and processed
// raffle windows.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileLedger keeps usage as a flat {day: {sender: count}} JSON document,
// read and rewritten wholesale on every update.
type FileLedger struct {
	path string
	mu   sync.Mutex
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

type usageDoc map[string]map[string]int

func (l *FileLedger) load() (usageDoc, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return usageDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read usage ledger: %w", err)
	}
	doc := usageDoc{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt usage ledger %s: %w", l.path, err)
	}
	return doc, nil
}

// save writes to a temp file and renames it over the ledger.
func (l *FileLedger) save(doc usageDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".usage-*.json")
	if err != nil {
		return fmt.Errorf("failed to write usage ledger: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write usage ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}

func (l *FileLedger) Used(_ context.Context, day, sender string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return 0, err
	}
	return doc[day][sender], nil
}

func (l *FileLedger) Increment(_ context.Context, day, sender string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return 0, err
	}
	if doc[day] == nil {
		doc[day] = make(map[string]int)
	}
	doc[day][sender]++
	if err := l.save(doc); err != nil {
		return 0, err
	}
	return doc[day][sender], nil
}

// Day returns every sender's count for day.
func (l *FileLedger) Day(_ context.Context, day string) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(doc[day]))
	for sender, n := range doc[day] {
		out[sender] = n
	}
	return out, nil
}
