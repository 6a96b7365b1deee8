package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coinSage/internal/model"
)

func TestJsonlStoreAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "predictions.jsonl")
	store := NewJsonlStore(path)

	records := []model.PredictionRecord{
		{
			Identifier:     "bitcoin",
			ChannelID:      "123",
			Price:          60000,
			Classification: model.Viable,
			Text:           "up only",
			CreatedAt:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		},
		{
			Identifier:     "deadcoin",
			ChannelID:      "123",
			Classification: model.Suspicious,
			Text:           "avoid",
			CreatedAt:      time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC),
		},
	}
	for _, record := range records {
		if err := store.PutPrediction(context.Background(), record); err != nil {
			t.Fatalf("put prediction: %v", err)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer file.Close()

	var got []model.PredictionRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.PredictionRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan archive: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("archive rows = %d, want 2", len(got))
	}
	if got[0].Identifier != "bitcoin" || got[0].Price != 60000 {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].Classification != model.Suspicious {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
}
