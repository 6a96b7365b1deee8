package model

import "time"

// PredictionRecord describes one delivered outlook, as written to the
// prediction archive.
type PredictionRecord struct {
	Identifier     string         `json:"identifier"`
	ChannelID      string         `json:"channel_id"`
	Price          float64        `json:"price"`
	Classification Classification `json:"classification"`
	Text           string         `json:"text"`
	CreatedAt      time.Time      `json:"created_at"`
}
