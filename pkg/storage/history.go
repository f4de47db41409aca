package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// HistoryEntry records the outcome of one assist interaction. Note text and
// generated text are not stored.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`
	Model      string    `json:"model,omitempty"`
	Source     string    `json:"source,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// HistoryStore appends HistoryEntry values to a JSON Lines file.
// It satisfies ai.InteractionRecorder.
type HistoryStore struct {
	mu       sync.Mutex
	path     string
	basePath string
}

// NewHistoryStore creates a store under the workspace's .notewise directory.
// The directory is created on first write.
func NewHistoryStore(w *Workspace) (*HistoryStore, error) {
	path, err := w.ResolvePath(HistoryFile)
	if err != nil {
		return nil, err
	}
	return &HistoryStore{path: path, basePath: filepath.Dir(path)}, nil
}

func (s *HistoryStore) Append(entry *HistoryEntry) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := os.MkdirAll(s.basePath, 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close history file: %w", cerr)
		}
	}()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write history entry: %w", err)
	}
	return nil
}

// RecordInteraction appends a summary of one dispatched interaction.
func (s *HistoryStore) RecordInteraction(rec ai.InteractionRecord) error {
	entry := &HistoryEntry{
		Operation:  string(rec.Operation),
		Model:      rec.Provider,
		Source:     string(rec.Source),
		DurationMs: rec.Duration.Milliseconds(),
	}
	if rec.Kind != 0 {
		entry.ErrorKind = rec.Kind.String()
	}
	return s.Append(entry)
}

// Load returns every entry in file order. A missing file yields no entries.
func (s *HistoryStore) Load() ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("parse history line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return entries, nil
}
