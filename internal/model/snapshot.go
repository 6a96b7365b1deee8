package model

// Classification labels an asset after the liquidity screen.
type Classification string

const (
	Viable     Classification = "viable"
	Suspicious Classification = "suspicious"
)

// DefaultMinVolume is the default 24h quote-volume floor below which a coin
// is treated as dead or suspicious.
const DefaultMinVolume = 1000

// PricePoint is one point of the daily close history.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// MarketSnapshot holds current market metrics plus a 7-day daily history
// for one coin. Snapshots are built per request and never persisted.
type MarketSnapshot struct {
	Price          float64        `json:"price"`
	Change24hPct   float64        `json:"change_24h_pct"`
	Volume         float64        `json:"volume"`
	High24h        float64        `json:"high_24h"`
	Low24h         float64        `json:"low_24h"`
	History        []PricePoint   `json:"history"`
	Classification Classification `json:"classification"`
}

// Classify screens an asset: Suspicious when it has no positive price or its
// 24h volume falls below minVolume, Viable otherwise.
func Classify(price, volume, minVolume float64) Classification {
	if price <= 0 || volume < minVolume {
		return Suspicious
	}
	return Viable
}
