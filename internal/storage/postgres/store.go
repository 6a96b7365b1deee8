package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"coinSage/internal/model"
)

// Store provides Postgres persistence for delivered predictions.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutPrediction inserts one delivered prediction row.
func (s *Store) PutPrediction(ctx context.Context, record model.PredictionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO predictions (
			identifier, channel_id, price, classification, text, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		record.Identifier,
		record.ChannelID,
		record.Price,
		string(record.Classification),
		record.Text,
		record.CreatedAt,
	)
	return err
}
