package model

// CoinCatalogEntry is one row of the CoinGecko coin catalog.
type CoinCatalogEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CoinMarket is one row of the batched /coins/markets listing. MarketCap is
// a pointer because CoinGecko returns null for coins without cap data.
type CoinMarket struct {
	ID        string   `json:"id"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	MarketCap *float64 `json:"market_cap"`
}
