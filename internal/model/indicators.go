package model

// IndicatorSnapshot holds the indicator readings of one bar.
// A reading is only meaningful when the matching Ready flag is set.
type IndicatorSnapshot struct {
	Close     float64 `json:"close"`
	SMA       float64 `json:"sma"`
	RSI       float64 `json:"rsi"`
	MACD      float64 `json:"macd"`
	SMAReady  bool    `json:"sma_ready"`
	RSIReady  bool    `json:"rsi_ready"`
	MACDReady bool    `json:"macd_ready"`
}

// FactorScore represents a single weighted factor's scoring result.
type FactorScore struct {
	Name     string  `json:"name"`
	RawScore float64 `json:"raw_score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}
