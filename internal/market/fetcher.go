package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"coinSage/internal/model"
)

// ErrFetchFailed marks market data as unavailable or malformed. Partial
// snapshots are never returned.
var ErrFetchFailed = errors.New("market data fetch failed")

// historyDays is the trailing window of the daily close series.
const historyDays = 7

// Fetcher assembles classified market snapshots from the CoinGecko API.
type Fetcher struct {
	client    *Client
	minVolume float64
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher. minVolume is the 24h quote-volume floor of
// the liquidity screen.
func NewFetcher(client *Client, minVolume float64, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, minVolume: minVolume, logger: logger}
}

// Snapshot fetches current metrics and the 7-day daily history for id and
// applies the liquidity screen. Any transport or missing-field error
// collapses to ErrFetchFailed.
func (f *Fetcher) Snapshot(ctx context.Context, id string) (model.MarketSnapshot, error) {
	detail, err := f.client.coinDetail(ctx, id)
	if err != nil {
		f.logger.Warn("coin detail fetch failed", zap.String("coin", id), zap.Error(err))
		return model.MarketSnapshot{}, fmt.Errorf("%w: %s", ErrFetchFailed, id)
	}

	md := detail.MarketData
	if md == nil {
		f.logger.Warn("coin detail missing market data", zap.String("coin", id))
		return model.MarketSnapshot{}, fmt.Errorf("%w: %s", ErrFetchFailed, id)
	}

	currency := f.client.vsCurrency
	price, okPrice := md.CurrentPrice[currency]
	volume, okVolume := md.TotalVolume[currency]
	high, okHigh := md.High24h[currency]
	low, okLow := md.Low24h[currency]
	if !okPrice || !okVolume || !okHigh || !okLow {
		f.logger.Warn("coin detail missing quote currency fields",
			zap.String("coin", id), zap.String("vs_currency", currency))
		return model.MarketSnapshot{}, fmt.Errorf("%w: %s", ErrFetchFailed, id)
	}

	chart, err := f.client.marketChart(ctx, id, historyDays)
	if err != nil {
		f.logger.Warn("market chart fetch failed", zap.String("coin", id), zap.Error(err))
		return model.MarketSnapshot{}, fmt.Errorf("%w: %s", ErrFetchFailed, id)
	}

	history := make([]model.PricePoint, 0, len(chart.Prices))
	for _, point := range chart.Prices {
		// Epoch millis to the UTC calendar day. Intraday points on the same
		// day are kept as the upstream series provides them.
		day := time.UnixMilli(int64(point[0])).UTC().Format("2006-01-02")
		history = append(history, model.PricePoint{Date: day, Close: point[1]})
	}

	return model.MarketSnapshot{
		Price:          price,
		Change24hPct:   md.PriceChangePct24h,
		Volume:         volume,
		High24h:        high,
		Low24h:         low,
		History:        history,
		Classification: model.Classify(price, volume, f.minVolume),
	}, nil
}
