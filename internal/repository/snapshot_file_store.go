package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tradyxa/internal/domain/models"
	domrepo "tradyxa/internal/domain/repository"
)

// FileSnapshotStore persists ticker snapshots as JSON files under a data
// directory. Writes go through a temp file plus rename so readers never see a
// partially written snapshot.
type FileSnapshotStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (s *FileSnapshotStore) path(ticker string) string {
	return filepath.Join(s.dir, ticker+".json")
}

// Save writes the snapshot plus standalone ladder files so downstream
// consumers can poll slippage without parsing the full snapshot.
func (s *FileSnapshotStore) Save(_ context.Context, snap *models.TickerSnapshot) error {
	if snap == nil || snap.Ticker == "" {
		return fmt.Errorf("snapshot without ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeJSON(snap.Ticker+".json", snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := s.writeJSON(snap.Ticker+"_slippage.json", snap.Slippage); err != nil {
		return fmt.Errorf("write slippage ladder: %w", err)
	}
	if err := s.writeJSON(snap.Ticker+"_monte_slippage.json", snap.MonteCarlo); err != nil {
		return fmt.Errorf("write monte carlo ladder: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *FileSnapshotStore) Load(_ context.Context, ticker string) (*models.TickerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.path(ticker))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", ticker, err)
	}
	var snap models.TickerSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", ticker, err)
	}
	return &snap, nil
}

func (s *FileSnapshotStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		name = strings.TrimSuffix(name, ".json")
		if strings.HasSuffix(name, "_slippage") {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

var _ domrepo.SnapshotStore = (*FileSnapshotStore)(nil)
