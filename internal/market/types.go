package market

// coinDetailResponse is the subset of /coins/{id} the fetcher reads. The
// per-currency maps are keyed by quote currency.
type coinDetailResponse struct {
	MarketData *coinDetailMarketData `json:"market_data"`
}

type coinDetailMarketData struct {
	CurrentPrice      map[string]float64 `json:"current_price"`
	PriceChangePct24h float64            `json:"price_change_percentage_24h"`
	TotalVolume       map[string]float64 `json:"total_volume"`
	High24h           map[string]float64 `json:"high_24h"`
	Low24h            map[string]float64 `json:"low_24h"`
}

// marketChartResponse carries [epoch_ms, price] pairs from
// /coins/{id}/market_chart.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}
