package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vealko/tradescope/pkg/models"
)

// Default cache TTLs. News and calendar move slowly; candles are
// near-real-time chart data.
const (
	DefaultNewsTTL     = 600 * time.Second
	DefaultCalendarTTL = 600 * time.Second
	DefaultCandlesTTL  = 30 * time.Second
	DefaultNewsLimit   = 20
)

// NewsResult is the soft-fail envelope for scraped news.
type NewsResult struct {
	Items []models.NewsItem `json:"items"`
	Error string            `json:"error,omitempty"`
}

// CalendarResult is the soft-fail envelope for calendar groups.
type CalendarResult struct {
	Groups []models.CalendarGroup `json:"groups"`
	Error  string                 `json:"error,omitempty"`
}

// HeadlinesResult is the soft-fail envelope for RSS headlines.
type HeadlinesResult struct {
	Items []models.Headline `json:"items"`
	Error string            `json:"error,omitempty"`
}

// ServiceConfig tunes the aggregation service. Zero values take the
// package defaults.
type ServiceConfig struct {
	NewsTTL     time.Duration
	CalendarTTL time.Duration
	CandlesTTL  time.Duration
	NewsLimit   int
	Feeds       []FeedSource
}

// Service orchestrates fetch, parse, cache, and serialize for every
// external data kind. One instance is created at process start and
// handed to the HTTP layer; the caches are not global state.
type Service struct {
	cfg       ServiceConfig
	news      *News
	headlines *Headlines

	newsCache    *refreshCache[models.NewsItem]
	calCache     *refreshCache[models.CalendarGroup]
	candlesCache *refreshCache[models.Candle]
	group        singleflight.Group

	// Fetch indirection so tests can count and stub upstream calls.
	fetchNews         func(ctx context.Context) (string, error)
	fetchCalendarJSON func(ctx context.Context) ([]map[string]any, error)
	fetchCalendarHTML func(ctx context.Context) (string, error)
	fetchCandles      func(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)

	// OnRefresh, when set, is invoked with the data kind after each
	// successful upstream refresh.
	OnRefresh func(kind string)
}

// NewService creates the aggregation service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.NewsTTL <= 0 {
		cfg.NewsTTL = DefaultNewsTTL
	}
	if cfg.CalendarTTL <= 0 {
		cfg.CalendarTTL = DefaultCalendarTTL
	}
	if cfg.CandlesTTL <= 0 {
		cfg.CandlesTTL = DefaultCandlesTTL
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = DefaultNewsLimit
	}

	headlines := NewHeadlines()
	if len(cfg.Feeds) > 0 {
		headlines = NewHeadlinesWithSources(cfg.Feeds)
	}

	s := &Service{
		cfg:          cfg,
		news:         NewNews(),
		headlines:    headlines,
		newsCache:    newRefreshCache[models.NewsItem](),
		calCache:     newRefreshCache[models.CalendarGroup](),
		candlesCache: newRefreshCache[models.Candle](),
	}
	s.fetchNews = s.news.Fetch
	s.fetchCalendarJSON = FetchCalendarJSON
	s.fetchCalendarHTML = FetchCalendarHTML
	s.fetchCandles = FetchCandles
	return s
}

// GetNews returns the scraped ForexFactory news, served from cache
// within the TTL unless force is set. Failures come back as a message
// in the result, never as an error.
func (s *Service) GetNews(ctx context.Context, force bool) NewsResult {
	items, errMsg := s.newsCache.getOrRefresh(ctx, &s.group, "news", s.cfg.NewsTTL, force, true,
		func(ctx context.Context) ([]models.NewsItem, error) {
			page, err := s.fetchNews(ctx)
			if err != nil {
				return nil, fmt.Errorf("forex news unavailable: %w", err)
			}
			items := ParseNews(page, s.cfg.NewsLimit)
			if len(items) == 0 {
				return nil, errors.New("could not parse forex news")
			}
			s.notify("news")
			return items, nil
		})
	return NewsResult{Items: items, Error: errMsg}
}

// GetCalendar returns normalized economic-calendar groups. The JSON
// feed is preferred; the HTML page is scraped only when every JSON
// endpoint fails.
func (s *Service) GetCalendar(ctx context.Context, force bool) CalendarResult {
	groups, errMsg := s.calCache.getOrRefresh(ctx, &s.group, "calendar", s.cfg.CalendarTTL, force, true,
		func(ctx context.Context) ([]models.CalendarGroup, error) {
			raw, err := s.fetchCalendarJSON(ctx)
			if err == nil {
				groups := NormalizeCalendar(raw)
				if len(groups) == 0 {
					return nil, errors.New("could not parse economic calendar")
				}
				s.notify("calendar")
				return groups, nil
			}

			page, herr := s.fetchCalendarHTML(ctx)
			if herr != nil {
				return nil, fmt.Errorf("economic calendar unavailable: %w", herr)
			}
			groups := ParseCalendarHTML(page)
			if len(groups) == 0 {
				return nil, errors.New("could not parse economic calendar")
			}
			s.notify("calendar")
			return groups, nil
		})
	return CalendarResult{Groups: groups, Error: errMsg}
}

// GetCandles returns klines for a symbol. Invalid intervals and limits
// are silently normalized. The error carries no upstream detail; the
// HTTP layer maps it to a generic 502.
func (s *Service) GetCandles(ctx context.Context, symbol, interval, limit string) ([]models.Candle, error) {
	sym := NormalizeSymbol(symbol)
	iv := NormalizeInterval(interval)
	n := NormalizeLimit(limit)

	key := fmt.Sprintf("candles:%s:%s:%d", sym, iv, n)
	candles, errMsg := s.candlesCache.getOrRefresh(ctx, &s.group, key, s.cfg.CandlesTTL, false, false,
		func(ctx context.Context) ([]models.Candle, error) {
			candles, err := s.fetchCandles(ctx, sym, iv, n)
			if err != nil {
				return nil, err
			}
			s.notify("candles")
			return candles, nil
		})
	if errMsg != "" && len(candles) == 0 {
		return nil, errors.New(errMsg)
	}
	return candles, nil
}

// GetHeadlines returns RSS market headlines, newest first.
func (s *Service) GetHeadlines(ctx context.Context, limit int) HeadlinesResult {
	items, err := s.headlines.Get(ctx, limit)
	if err != nil {
		return HeadlinesResult{Error: "market headlines unavailable"}
	}
	return HeadlinesResult{Items: items}
}

func (s *Service) notify(kind string) {
	if s.OnRefresh != nil {
		s.OnRefresh(kind)
	}
}

// --- Refreshing TTL cache ---

// cacheEntry is one cached payload. fetchedAt is stamped on every
// refresh attempt, including failed ones, so a broken upstream is not
// hammered more than once per TTL window while a previous payload is
// being served.
type cacheEntry[E any] struct {
	fetchedAt time.Time
	payload   []E
	err       string
}

type refreshResult[E any] struct {
	payload []E
	errMsg  string
}

// refreshCache is a keyed cache whose entries are refreshed through a
// caller-supplied fetch function once they expire.
type refreshCache[E any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[E]
}

func newRefreshCache[E any]() *refreshCache[E] {
	return &refreshCache[E]{entries: make(map[string]cacheEntry[E])}
}

// valid returns the entry's payload if it is usable without a refetch:
// fetched within the TTL and, where required, non-empty. An empty
// payload never sticks as a valid cache even when its timestamp is
// fresh.
func (c *refreshCache[E]) valid(key string, ttl time.Duration, requireNonEmpty bool) ([]E, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.fetchedAt) >= ttl {
		return nil, "", false
	}
	if requireNonEmpty && len(e.payload) == 0 {
		return nil, "", false
	}
	return e.payload, e.err, true
}

// getOrRefresh implements the cache contract: serve a valid entry, or
// refresh through fetch. A failed refresh stamps the timestamp and
// keeps the previous payload, so callers see stale data plus an error
// message rather than nothing. Concurrent refreshes of one key are
// collapsed by the singleflight group.
func (c *refreshCache[E]) getOrRefresh(
	ctx context.Context,
	g *singleflight.Group,
	key string,
	ttl time.Duration,
	force, requireNonEmpty bool,
	fetch func(context.Context) ([]E, error),
) ([]E, string) {
	if !force {
		if payload, errMsg, ok := c.valid(key, ttl, requireNonEmpty); ok {
			return payload, errMsg
		}
	}

	v, _, _ := g.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// refreshed this key while we waited.
		if !force {
			if payload, errMsg, ok := c.valid(key, ttl, requireNonEmpty); ok {
				return refreshResult[E]{payload: payload, errMsg: errMsg}, nil
			}
		}

		payload, err := fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			prev := c.entries[key]
			e := cacheEntry[E]{fetchedAt: time.Now(), payload: prev.payload, err: err.Error()}
			c.entries[key] = e
			return refreshResult[E]{payload: e.payload, errMsg: e.err}, nil
		}
		c.entries[key] = cacheEntry[E]{fetchedAt: time.Now(), payload: payload}
		return refreshResult[E]{payload: payload}, nil
	})

	r := v.(refreshResult[E])
	return r.payload, r.errMsg
}
