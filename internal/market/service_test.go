package market

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vealko/tradescope/pkg/models"
)

const newsPage = `<body><article><a href="/news/1">Headline one</a><p>Body.</p></article></body>`

func TestGetNewsCachesWithinTTL(t *testing.T) {
	s := NewService(ServiceConfig{NewsTTL: time.Hour})

	calls := 0
	s.fetchNews = func(ctx context.Context) (string, error) {
		calls++
		return newsPage, nil
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		res := s.GetNews(ctx, false)
		if res.Error != "" {
			t.Fatalf("unexpected error: %s", res.Error)
		}
		if len(res.Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(res.Items))
		}
	}
	if calls != 1 {
		t.Errorf("upstream fetched %d times within TTL, want 1", calls)
	}
}

func TestGetNewsForceBypassesCache(t *testing.T) {
	s := NewService(ServiceConfig{NewsTTL: time.Hour})

	calls := 0
	s.fetchNews = func(ctx context.Context) (string, error) {
		calls++
		return newsPage, nil
	}

	ctx := context.Background()
	s.GetNews(ctx, false)
	s.GetNews(ctx, true)
	s.GetNews(ctx, true)
	if calls != 3 {
		t.Errorf("upstream fetched %d times, want 3 with force", calls)
	}
}

func TestGetNewsEmptyParseRetries(t *testing.T) {
	s := NewService(ServiceConfig{NewsTTL: time.Hour})

	calls := 0
	s.fetchNews = func(ctx context.Context) (string, error) {
		calls++
		return `<body><p>nothing here</p></body>`, nil
	}

	ctx := context.Background()
	res := s.GetNews(ctx, false)
	if res.Error != "could not parse forex news" {
		t.Fatalf("error = %q", res.Error)
	}

	// An empty payload must not become a sticky cache entry.
	s.GetNews(ctx, false)
	if calls != 2 {
		t.Errorf("upstream fetched %d times, want a retry per call", calls)
	}
}

func TestGetNewsServesStaleOnFailure(t *testing.T) {
	s := NewService(ServiceConfig{NewsTTL: 20 * time.Millisecond})

	calls := 0
	s.fetchNews = func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return newsPage, nil
		}
		return "", errors.New("connection refused")
	}

	ctx := context.Background()
	first := s.GetNews(ctx, false)
	if first.Error != "" || len(first.Items) != 1 {
		t.Fatalf("first fetch: %+v", first)
	}

	time.Sleep(30 * time.Millisecond)

	second := s.GetNews(ctx, false)
	if len(second.Items) != 1 {
		t.Fatalf("stale payload dropped: got %d items", len(second.Items))
	}
	if !strings.Contains(second.Error, "forex news unavailable") {
		t.Errorf("error = %q", second.Error)
	}

	// The failed refresh stamped the entry, so another call inside the
	// TTL window serves the stale data without hitting upstream again.
	third := s.GetNews(ctx, false)
	if calls != 2 {
		t.Errorf("upstream fetched %d times, want 2", calls)
	}
	if len(third.Items) != 1 || third.Error == "" {
		t.Errorf("third call: %+v", third)
	}
}

func TestGetCalendarPrefersJSON(t *testing.T) {
	s := NewService(ServiceConfig{})

	htmlCalls := 0
	s.fetchCalendarJSON = func(ctx context.Context) ([]map[string]any, error) {
		return []map[string]any{
			{"title": "CPI", "country": "US", "impact": float64(3), "date": "2024-03-01 08:30"},
		}, nil
	}
	s.fetchCalendarHTML = func(ctx context.Context) (string, error) {
		htmlCalls++
		return "", errors.New("should not be called")
	}

	res := s.GetCalendar(context.Background(), false)
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Groups) != 1 || res.Groups[0].Events[0].Impact != models.ImpactHigh {
		t.Fatalf("unexpected groups: %+v", res.Groups)
	}
	if htmlCalls != 0 {
		t.Errorf("HTML fallback hit %d times despite JSON success", htmlCalls)
	}
}

func TestGetCalendarFallsBackToHTML(t *testing.T) {
	s := NewService(ServiceConfig{})

	s.fetchCalendarJSON = func(ctx context.Context) ([]map[string]any, error) {
		return nil, errors.New("feed down")
	}
	s.fetchCalendarHTML = func(ctx context.Context) (string, error) {
		return `<table>
			<tr><th>Fri Mar 1</th></tr>
			<tr><td>08:30</td><td>USD</td><td>NFP</td><td>high</td></tr>
		</table>`, nil
	}

	res := s.GetCalendar(context.Background(), false)
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Groups) != 1 || res.Groups[0].Events[0].Event != "NFP" {
		t.Fatalf("unexpected groups: %+v", res.Groups)
	}
}

func TestGetCalendarBothSourcesDown(t *testing.T) {
	s := NewService(ServiceConfig{})

	s.fetchCalendarJSON = func(ctx context.Context) ([]map[string]any, error) {
		return nil, errors.New("feed down")
	}
	s.fetchCalendarHTML = func(ctx context.Context) (string, error) {
		return "", errors.New("blocked")
	}

	res := s.GetCalendar(context.Background(), false)
	if len(res.Groups) != 0 {
		t.Errorf("got groups from nowhere: %+v", res.Groups)
	}
	if !strings.Contains(res.Error, "economic calendar unavailable") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestGetCandlesNormalizesParams(t *testing.T) {
	s := NewService(ServiceConfig{})

	var gotSymbol, gotInterval string
	var gotLimit int
	s.fetchCandles = func(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
		gotSymbol, gotInterval, gotLimit = symbol, interval, limit
		return []models.Candle{{float64(1), "100", "110"}}, nil
	}

	candles, err := s.GetCandles(context.Background(), " btcusdt ", "7h", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if gotSymbol != "BTCUSDT" || gotInterval != "1h" || gotLimit != 500 {
		t.Errorf("upstream got (%q, %q, %d)", gotSymbol, gotInterval, gotLimit)
	}
}

func TestGetCandlesCachesPerKey(t *testing.T) {
	s := NewService(ServiceConfig{CandlesTTL: time.Hour})

	calls := map[string]int{}
	s.fetchCandles = func(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
		calls[symbol+":"+interval]++
		return []models.Candle{{float64(1)}}, nil
	}

	ctx := context.Background()
	s.GetCandles(ctx, "BTCUSDT", "1h", "500")
	s.GetCandles(ctx, "BTCUSDT", "1h", "500")
	s.GetCandles(ctx, "BTCUSDT", "4h", "500")

	if calls["BTCUSDT:1h"] != 1 {
		t.Errorf("1h fetched %d times, want 1", calls["BTCUSDT:1h"])
	}
	if calls["BTCUSDT:4h"] != 1 {
		t.Errorf("4h fetched %d times, want 1", calls["BTCUSDT:4h"])
	}
}

func TestGetCandlesErrorWithoutCache(t *testing.T) {
	s := NewService(ServiceConfig{})

	s.fetchCandles = func(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
		return nil, errors.New("451 unavailable for legal reasons")
	}

	if _, err := s.GetCandles(context.Background(), "BTCUSDT", "1h", "500"); err == nil {
		t.Fatal("expected an error with no cached fallback")
	}
}

func TestOnRefreshHook(t *testing.T) {
	s := NewService(ServiceConfig{})

	var kinds []string
	s.OnRefresh = func(kind string) { kinds = append(kinds, kind) }
	s.fetchNews = func(ctx context.Context) (string, error) { return newsPage, nil }

	s.GetNews(context.Background(), false)
	if len(kinds) != 1 || kinds[0] != "news" {
		t.Errorf("refresh hooks = %v", kinds)
	}
}
