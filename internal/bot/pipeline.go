package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"coinSage/internal/model"
	"coinSage/internal/storage"
)

// Resolver maps a user token to a canonical coin id.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// SnapshotSource fetches a classified market snapshot for a resolved id.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id string) (model.MarketSnapshot, error)
}

// Narrator turns a snapshot into user-facing outlook text.
type Narrator interface {
	Generate(ctx context.Context, snapshot model.MarketSnapshot, id string) (string, error)
}

// Messenger posts text to a channel.
type Messenger interface {
	Send(channelID, content string) error
}

// Pipeline runs one Resolve → Fetch → Generate → Deliver pass. Both the
// command path and the scheduled path share it; there is no retry loop.
type Pipeline struct {
	resolver  Resolver
	snapshots SnapshotSource
	narrator  Narrator
	messenger Messenger
	archive   storage.Store
	logger    *zap.Logger
}

// NewPipeline wires the pipeline stages. archive may be nil to disable the
// prediction archive.
func NewPipeline(resolver Resolver, snapshots SnapshotSource, narrator Narrator, messenger Messenger, archive storage.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		resolver:  resolver,
		snapshots: snapshots,
		narrator:  narrator,
		messenger: messenger,
		archive:   archive,
		logger:    logger,
	}
}

// Run executes one pass for token and delivers the result to channelID. It
// returns the resolved id (empty when resolution itself failed) so callers
// can build stage-specific failure messages.
func (p *Pipeline) Run(ctx context.Context, token, channelID string) (string, error) {
	id, err := p.resolver.Resolve(ctx, token)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", token, err)
	}

	snapshot, err := p.snapshots.Snapshot(ctx, id)
	if err != nil {
		return id, fmt.Errorf("fetch %s: %w", id, err)
	}

	text, err := p.narrator.Generate(ctx, snapshot, id)
	if err != nil {
		return id, fmt.Errorf("generate %s: %w", id, err)
	}

	content := fmt.Sprintf("**%s Price Prediction**\n%s", strings.ToUpper(token), text)
	if err := p.messenger.Send(channelID, content); err != nil {
		return id, fmt.Errorf("deliver %s: %w", id, err)
	}

	p.logger.Info("prediction delivered",
		zap.String("coin", id),
		zap.String("channel", channelID),
		zap.String("classification", string(snapshot.Classification)),
	)

	p.archivePrediction(ctx, id, channelID, snapshot, text)
	return id, nil
}

// archivePrediction records the delivered outlook. Archive failures are
// logged, never surfaced; the user already has their message.
func (p *Pipeline) archivePrediction(ctx context.Context, id, channelID string, snapshot model.MarketSnapshot, text string) {
	if p.archive == nil {
		return
	}
	record := model.PredictionRecord{
		Identifier:     id,
		ChannelID:      channelID,
		Price:          snapshot.Price,
		Classification: snapshot.Classification,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.archive.PutPrediction(ctx, record); err != nil {
		p.logger.Warn("prediction archive write failed", zap.String("coin", id), zap.Error(err))
	}
}
