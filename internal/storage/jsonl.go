package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coinSage/internal/model"
)

// JsonlStore appends prediction records to a JSONL file.
type JsonlStore struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStore(path string) *JsonlStore {
	return &JsonlStore{path: path}
}

// PutPrediction appends one record as a JSON line.
func (s *JsonlStore) PutPrediction(_ context.Context, record model.PredictionRecord) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal prediction record: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write prediction record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}

	return nil
}
