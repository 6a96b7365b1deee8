package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coinSage/internal/market"
	"coinSage/internal/model"
	"coinSage/internal/narrate"
	"coinSage/internal/resolve"
)

type fakeResolver struct {
	id  string
	err error
}

func (f fakeResolver) Resolve(_ context.Context, _ string) (string, error) {
	return f.id, f.err
}

type fakeSnapshots struct {
	snapshot model.MarketSnapshot
	err      error
}

func (f fakeSnapshots) Snapshot(_ context.Context, _ string) (model.MarketSnapshot, error) {
	return f.snapshot, f.err
}

type fakeNarrator struct {
	text string
	err  error
}

func (f fakeNarrator) Generate(_ context.Context, _ model.MarketSnapshot, _ string) (string, error) {
	return f.text, f.err
}

type fakeMessenger struct {
	channelID string
	content   string
	err       error
	sends     int
}

func (f *fakeMessenger) Send(channelID, content string) error {
	f.sends++
	f.channelID = channelID
	f.content = content
	return f.err
}

type fakeStore struct {
	records []model.PredictionRecord
	err     error
}

func (f *fakeStore) PutPrediction(_ context.Context, record model.PredictionRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func viableSnapshot() model.MarketSnapshot {
	return model.MarketSnapshot{
		Price:          60000,
		Volume:         30e9,
		Classification: model.Viable,
	}
}

func TestPipelineDelivers(t *testing.T) {
	messenger := &fakeMessenger{}
	store := &fakeStore{}
	pipeline := NewPipeline(
		fakeResolver{id: "bitcoin"},
		fakeSnapshots{snapshot: viableSnapshot()},
		fakeNarrator{text: "up only"},
		messenger,
		store,
		nil,
	)

	id, err := pipeline.Run(context.Background(), "btc", "chan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "bitcoin" {
		t.Fatalf("id = %q, want bitcoin", id)
	}
	if messenger.channelID != "chan-1" {
		t.Fatalf("delivered to %q, want chan-1", messenger.channelID)
	}
	// prefix uses the upper-cased user token: /predict btc posts "BTC ..."
	if !strings.HasPrefix(messenger.content, "**BTC Price Prediction**\n") {
		t.Fatalf("content = %q, want prediction prefix", messenger.content)
	}
	if !strings.HasSuffix(messenger.content, "up only") {
		t.Fatalf("content = %q, want outlook text", messenger.content)
	}

	if len(store.records) != 1 {
		t.Fatalf("archive rows = %d, want 1", len(store.records))
	}
	if store.records[0].Identifier != "bitcoin" || store.records[0].Price != 60000 {
		t.Fatalf("unexpected archive record: %+v", store.records[0])
	}
}

func TestPipelineResolveFailure(t *testing.T) {
	messenger := &fakeMessenger{}
	pipeline := NewPipeline(
		fakeResolver{err: resolve.ErrNotFound},
		fakeSnapshots{},
		fakeNarrator{},
		messenger,
		nil,
		nil,
	)

	id, err := pipeline.Run(context.Background(), "nope", "chan-1")
	if !errors.Is(err, resolve.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if id != "" {
		t.Fatalf("id should be empty on resolve failure, got %q", id)
	}
	if messenger.sends != 0 {
		t.Fatalf("nothing should be delivered on resolve failure")
	}
}

func TestPipelineFetchFailure(t *testing.T) {
	messenger := &fakeMessenger{}
	pipeline := NewPipeline(
		fakeResolver{id: "bitcoin"},
		fakeSnapshots{err: market.ErrFetchFailed},
		fakeNarrator{},
		messenger,
		nil,
		nil,
	)

	id, err := pipeline.Run(context.Background(), "btc", "chan-1")
	if !errors.Is(err, market.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if id != "bitcoin" {
		t.Fatalf("resolved id should still be reported, got %q", id)
	}
	if messenger.sends != 0 {
		t.Fatalf("nothing should be delivered on fetch failure")
	}
}

func TestPipelineGenerateConfigMissing(t *testing.T) {
	pipeline := NewPipeline(
		fakeResolver{id: "bitcoin"},
		fakeSnapshots{snapshot: viableSnapshot()},
		fakeNarrator{err: narrate.ErrConfigMissing},
		&fakeMessenger{},
		nil,
		nil,
	)

	if _, err := pipeline.Run(context.Background(), "btc", "chan-1"); !errors.Is(err, narrate.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestPipelineDeliveryFailure(t *testing.T) {
	store := &fakeStore{}
	pipeline := NewPipeline(
		fakeResolver{id: "bitcoin"},
		fakeSnapshots{snapshot: viableSnapshot()},
		fakeNarrator{text: "up only"},
		&fakeMessenger{err: errors.New("channel gone")},
		store,
		nil,
	)

	if _, err := pipeline.Run(context.Background(), "btc", "chan-1"); err == nil {
		t.Fatalf("expected delivery error")
	}
	if len(store.records) != 0 {
		t.Fatalf("undelivered prediction must not be archived")
	}
}

func TestPipelineArchiveFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	pipeline := NewPipeline(
		fakeResolver{id: "bitcoin"},
		fakeSnapshots{snapshot: viableSnapshot()},
		fakeNarrator{text: "up only"},
		&fakeMessenger{},
		store,
		nil,
	)

	if _, err := pipeline.Run(context.Background(), "btc", "chan-1"); err != nil {
		t.Fatalf("archive failure must not fail the pipeline: %v", err)
	}
}

func TestCommandFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"not found", resolve.ErrNotFound, "Could not resolve coin: **btc**"},
		{"fetch failed", market.ErrFetchFailed, "Failed to fetch market data for **bitcoin**."},
		{"config missing", narrate.ErrConfigMissing, "Prediction service is not configured."},
		{"unknown", errors.New("boom"), "Internal error handling command."},
	}

	for _, tc := range cases {
		wrapped := errors.Join(errors.New("stage"), tc.err)
		if got := commandFailureMessage("btc", "bitcoin", wrapped); got != tc.want {
			t.Fatalf("%s: message = %q, want %q", tc.name, got, tc.want)
		}
	}
}
