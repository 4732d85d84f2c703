package market

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vealko/tradescope/internal/infra"
	"github.com/vealko/tradescope/pkg/models"
)

const (
	newsBaseURL = "https://www.forexfactory.com"
	newsURL     = newsBaseURL + "/news"
)

// News fetches the ForexFactory news page.
type News struct {
	limiter *infra.RateLimiter
}

// NewNews creates the news fetcher. The limiter is conservative;
// ForexFactory blocks aggressive scrapers.
func NewNews() *News {
	return &News{
		limiter: infra.NewRateLimiter(1, time.Second),
	}
}

// Fetch retrieves the raw news page HTML.
func (n *News) Fetch(ctx context.Context) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}
	page, err := fetchString(ctx, newsURL, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return "", fmt.Errorf("forexfactory news: %w", err)
	}
	return page, nil
}

// ParseNews extracts up to limit news items from the page HTML.
// Strategies are tried in order; the first one yielding at least one
// item wins. All strategies failing means the page layout changed —
// the caller reports that as a soft parse failure, not an error.
func ParseNews(pageHTML string, limit int) []models.NewsItem {
	for _, s := range newsStrategies {
		if items := s.parse(pageHTML, limit); len(items) > 0 {
			return items
		}
	}
	return nil
}

// newsStrategy is one way of pulling news items out of the page.
type newsStrategy interface {
	parse(pageHTML string, limit int) []models.NewsItem
}

var newsStrategies = []newsStrategy{
	articleStrategy{},
	newsLinkStrategy{},
	regexLinkStrategy{},
}

// articleStrategy reads semantic <article> blocks: first link as
// title/url, optional first <p> as summary, optional <time> as time.
type articleStrategy struct{}

func (articleStrategy) parse(pageHTML string, limit int) []models.NewsItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var items []models.NewsItem
	doc.Find("article").EachWithBreak(func(_ int, art *goquery.Selection) bool {
		link := art.Find("a[href]").First()
		href, _ := link.Attr("href")
		if href == "" {
			return true
		}

		title := coalesce(link.Text(), art.Text())
		if title == "" {
			return true
		}

		items = append(items, models.NewsItem{
			Title:   title,
			URL:     resolveNewsURL(href),
			Summary: strings.TrimSpace(art.Find("p").First().Text()),
			Time:    strings.TrimSpace(art.Find("time").First().Text()),
		})
		return len(items) < limit
	})
	return items
}

// newsLinkStrategy scans every link pointing into /news/, deduping on
// a prefix of title+url.
type newsLinkStrategy struct{}

func (newsLinkStrategy) parse(pageHTML string, limit int) []models.NewsItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var items []models.NewsItem
	doc.Find(`a[href*="/news/"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}

		url := resolveNewsURL(href)
		key := dedupeKey(title + url)
		if seen[key] {
			return true
		}
		seen[key] = true

		items = append(items, models.NewsItem{Title: title, URL: url})
		return len(items) < limit
	})
	return items
}

// regexLinkStrategy is the last resort: pull /news/ anchors straight
// out of the raw HTML and strip the inner tags.
type regexLinkStrategy struct{}

var (
	newsAnchorRe = regexp.MustCompile(`(?is)<a[^>]+href="(/news/[^"]*)"[^>]*>(.*?)</a>`)
	innerTagRe   = regexp.MustCompile(`(?s)<[^>]+>`)
)

func (regexLinkStrategy) parse(pageHTML string, limit int) []models.NewsItem {
	seen := make(map[string]bool)
	var items []models.NewsItem
	for _, m := range newsAnchorRe.FindAllStringSubmatch(pageHTML, -1) {
		title := strings.TrimSpace(html.UnescapeString(innerTagRe.ReplaceAllString(m[2], "")))
		if title == "" {
			continue
		}

		url := resolveNewsURL(m[1])
		key := dedupeKey(title + url)
		if seen[key] {
			continue
		}
		seen[key] = true

		items = append(items, models.NewsItem{Title: title, URL: url})
		if len(items) >= limit {
			break
		}
	}
	return items
}

// resolveNewsURL resolves a possibly relative href against the site base.
func resolveNewsURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return newsBaseURL + href
}

// dedupeKey truncates s to a fixed prefix so near-identical links
// collapse to one entry.
func dedupeKey(s string) string {
	const max = 300
	if len(s) > max {
		return s[:max]
	}
	return s
}
