package models

// BucketStats is the win/loss breakdown for one grouping bucket
// (a trade type or a direction).
type BucketStats struct {
	Key     string  `json:"key"`
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
	AvgRR   float64 `json:"avg_rr"`
}

// Stats aggregates win/loss performance over the whole journal.
type Stats struct {
	Total       int           `json:"total"`
	Wins        int           `json:"wins"`
	Losses      int           `json:"losses"`
	WinRate     float64       `json:"win_rate"`
	AvgRR       float64       `json:"avg_rr"`
	AvgRiskPct  float64       `json:"avg_risk_pct"`
	ByType      []BucketStats `json:"by_type"`
	ByDirection []BucketStats `json:"by_direction"`
}
