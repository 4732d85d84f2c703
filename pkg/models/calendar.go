package models

// Impact levels for economic calendar events.
const (
	ImpactLow    = "Low"
	ImpactMedium = "Medium"
	ImpactHigh   = "High"
)

// CalendarEvent is a single normalized economic-calendar entry.
// Time is "HH:MM" or "—" for all-day events.
type CalendarEvent struct {
	Time     string `json:"time"`
	Currency string `json:"currency"`
	Event    string `json:"event"`
	Impact   string `json:"impact"` // Low, Medium, High, or ""
	Actual   string `json:"actual"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
	URL      string `json:"url,omitempty"`
}

// CalendarGroup holds the events of one calendar day.
// Label is "YYYY-MM-DD", or "Unknown Date" when the source gave no
// recognizable date. Events are sorted by time ascending; entries with
// an unparseable time sort last.
type CalendarGroup struct {
	Label  string          `json:"label"`
	Events []CalendarEvent `json:"events"`
}
