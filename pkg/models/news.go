package models

import "time"

// NewsItem is a single news entry scraped from the ForexFactory news page.
// Items carry no identity beyond their content; order is document order.
type NewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
	Time    string `json:"time,omitempty"`
}

// Headline is a market headline pulled from an RSS feed.
type Headline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
