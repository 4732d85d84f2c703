package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vealko/tradescope/pkg/models"
)

const klinesURL = "https://api.binance.com/api/v3/klines"

const (
	defaultInterval = "1h"
	defaultLimit    = 500
	maxLimit        = 1000
)

// validIntervals is the Binance kline interval allow-list.
var validIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// NormalizeInterval coerces unknown intervals to the default rather
// than rejecting them; charts degrade to hourly instead of erroring.
func NormalizeInterval(interval string) string {
	if validIntervals[strings.TrimSpace(interval)] {
		return strings.TrimSpace(interval)
	}
	return defaultInterval
}

// NormalizeLimit parses and clamps the kline count to [1, 1000];
// anything unparseable falls back to the default of 500.
func NormalizeLimit(limit string) int {
	n, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil {
		return defaultLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// NormalizeSymbol upper-cases and trims a market symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// FetchCandles retrieves klines for a symbol. The caller is expected to
// have normalized the parameters; rows are passed through verbatim.
func FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	body, _, err := doGet(ctx, klinesURL+"?"+q.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}
	defer body.Close()

	var candles []models.Candle
	if err := json.NewDecoder(body).Decode(&candles); err != nil {
		return nil, fmt.Errorf("parse klines %s: %w", symbol, err)
	}
	return candles, nil
}
