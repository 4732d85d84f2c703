package models

import "time"

// Trade type values.
const (
	TradeCrypto = "crypto"
	TradeForex  = "forex"
	TradeIndex  = "index"
)

// Trade result values.
const (
	ResultTake = "take"
	ResultLoss = "loss"
)

// Trade direction values.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Chart image kinds. A trade can carry one screenshot per timeframe:
// long (ltf), medium (mtf), and short (stf).
const (
	ImageLTF = "ltf"
	ImageMTF = "mtf"
	ImageSTF = "stf"
)

// ValidTradeType reports whether t is a known trade type.
func ValidTradeType(t string) bool {
	return t == TradeCrypto || t == TradeForex || t == TradeIndex
}

// ValidResult reports whether r is a known trade result.
func ValidResult(r string) bool {
	return r == ResultTake || r == ResultLoss
}

// ValidDirection reports whether d is a known trade direction.
func ValidDirection(d string) bool {
	return d == DirectionLong || d == DirectionShort
}

// ValidImageKind reports whether k names a chart-image slot.
func ValidImageKind(k string) bool {
	return k == ImageLTF || k == ImageMTF || k == ImageSTF
}

// Trade is a single journaled trade.
type Trade struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Symbol          string    `json:"symbol"`
	Price           float64   `json:"price"`
	StopLoss        float64   `json:"stop_loss"`
	Volume          float64   `json:"volume"`
	Result          string    `json:"result"`
	Direction       string    `json:"direction"`
	Date            time.Time `json:"date"`
	RiskPercent     float64   `json:"risk_percent"`
	RiskRewardRatio float64   `json:"risk_reward_ratio"`
	StrategyID      string    `json:"strategy_id,omitempty"`
	Tags            []Tag     `json:"tags,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Tag labels trades for filtering.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Strategy is a named trading setup that trades can reference.
type Strategy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TradeImage is a chart screenshot stored alongside a trade.
type TradeImage struct {
	Kind        string `json:"kind"` // ltf, mtf, stf
	ContentType string `json:"content_type"`
	Name        string `json:"name"`
	Data        []byte `json:"-"`
}
