package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/vealko/tradescope/internal/infra"
	"github.com/vealko/tradescope/pkg/models"
)

// FeedSource is one RSS market-headline feed.
type FeedSource struct {
	Name string
	URL  string
}

// DefaultFeedSources lists the forex news feeds polled for headlines.
var DefaultFeedSources = []FeedSource{
	{Name: "FXStreet", URL: "https://www.fxstreet.com/rss/news"},
	{Name: "Investing.com Forex", URL: "https://www.investing.com/rss/news_1.rss"},
	{Name: "DailyFX", URL: "https://www.dailyfx.com/feeds/market-news"},
}

// Headlines aggregates market headlines from RSS feeds. This runs next
// to the scraped ForexFactory news, not instead of it.
type Headlines struct {
	sources []FeedSource
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewHeadlines creates the RSS aggregator with the default sources.
func NewHeadlines() *Headlines {
	return NewHeadlinesWithSources(DefaultFeedSources)
}

// NewHeadlinesWithSources creates the aggregator with custom feeds.
func NewHeadlinesWithSources(sources []FeedSource) *Headlines {
	return &Headlines{
		sources: sources,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Get returns recent headlines across all feeds, newest first. Feeds
// that fail to fetch or parse are skipped; only all sources failing is
// an error.
func (h *Headlines) Get(ctx context.Context, limit int) ([]models.Headline, error) {
	cacheKey := fmt.Sprintf("headlines:%d", limit)
	if cached, ok := h.cache.Get(cacheKey); ok {
		return cached.([]models.Headline), nil
	}

	var all []models.Headline
	var lastErr error
	for _, src := range h.sources {
		items, err := h.fetchFeed(ctx, src)
		if err != nil {
			lastErr = err
			continue
		}
		all = append(all, items...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}

	sortHeadlinesByDate(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	h.cache.Set(cacheKey, all)
	return all, nil
}

// fetchFeed parses one RSS feed into headlines.
func (h *Headlines) fetchFeed(ctx context.Context, src FeedSource) ([]models.Headline, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := h.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	headlines := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		hl := models.Headline{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: stripHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			hl.PublishedAt = *item.PublishedParsed
		}
		headlines = append(headlines, hl)
	}
	return headlines, nil
}

// stripHTML removes markup from a feed description.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// sortHeadlinesByDate sorts newest first. Insertion sort; the slices
// are small and mostly sorted per source.
func sortHeadlinesByDate(headlines []models.Headline) {
	for i := 1; i < len(headlines); i++ {
		key := headlines[i]
		j := i - 1
		for j >= 0 && headlines[j].PublishedAt.Before(key.PublishedAt) {
			headlines[j+1] = headlines[j]
			j--
		}
		headlines[j+1] = key
	}
}
