package models

// Candle is one kline row exactly as the upstream market API returns it:
// [open time, open, high, low, close, volume, close time, ...]. The
// fields are passed through verbatim; nothing here interprets them.
type Candle []any
