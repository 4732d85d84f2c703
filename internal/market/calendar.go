package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vealko/tradescope/pkg/models"
)

// unknownDateLabel groups events whose date could not be recognized.
const unknownDateLabel = "Unknown Date"

// calendarJSONEndpoints are the CDN mirrors of the ForexFactory weekly
// calendar feed, tried in order.
var calendarJSONEndpoints = []string{
	"https://nfs.faireconomy.media/ff_calendar_thisweek.json",
	"https://cdn-nfs.faireconomy.media/ff_calendar_thisweek.json",
}

// FetchCalendarJSON retrieves raw calendar events from the first feed
// endpoint that answers with a JSON array. If every endpoint fails the
// last error is returned.
func FetchCalendarJSON(ctx context.Context) ([]map[string]any, error) {
	var lastErr error
	for _, url := range calendarJSONEndpoints {
		body, _, err := doGet(ctx, url, map[string]string{
			"Accept": "application/json",
		})
		if err != nil {
			lastErr = err
			continue
		}

		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read calendar feed: %w", err)
			continue
		}

		var events []map[string]any
		if err := json.Unmarshal(data, &events); err != nil {
			lastErr = fmt.Errorf("calendar feed %s is not a JSON array: %w", url, err)
			continue
		}
		return events, nil
	}
	return nil, lastErr
}

// NormalizeCalendar converts raw feed events into date-grouped, sorted
// calendar groups. The feed schema drifts between mirrors (title vs
// event, actual vs actualValue, numeric vs string impact), so every
// field is resolved over a candidate-key list. The function is pure:
// identical input yields identical output.
func NormalizeCalendar(raw []map[string]any) []models.CalendarGroup {
	grouped := make(map[string][]models.CalendarEvent)

	for _, ev := range raw {
		title := fieldString(ev, "title", "event")
		if title == "" {
			continue
		}

		dateKey, clock := eventDateTime(ev)

		e := models.CalendarEvent{
			Time:     clock,
			Currency: fieldString(ev, "country", "currency"),
			Event:    title,
			Impact:   normalizeImpact(ev["impact"]),
			Actual:   fieldString(ev, "actual", "actualValue"),
			Forecast: fieldString(ev, "forecast", "forecastValue"),
			Previous: fieldString(ev, "previous", "previousValue"),
			URL:      eventURL(ev),
		}
		grouped[dateKey] = append(grouped[dateKey], e)
	}

	groups := make([]models.CalendarGroup, 0, len(grouped))
	for label, events := range grouped {
		sortEventsByTime(events)
		groups = append(groups, models.CalendarGroup{Label: label, Events: events})
	}
	sortGroupsByDate(groups)
	return groups
}

// --- Field resolution helpers ---

// fieldString resolves the first present candidate key to its string
// form. Numeric values are coerced; missing keys yield "".
func fieldString(ev map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := ev[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}

// normalizeImpact maps heterogeneous impact encodings onto Low/Medium/High.
func normalizeImpact(v any) string {
	switch t := v.(type) {
	case float64:
		switch int(t) {
		case 1:
			return models.ImpactLow
		case 2:
			return models.ImpactMedium
		case 3:
			return models.ImpactHigh
		}
	case int:
		return normalizeImpact(float64(t))
	case string:
		s := strings.TrimSpace(t)
		lower := strings.ToLower(s)
		switch {
		case strings.Contains(lower, "high"):
			return models.ImpactHigh
		case strings.Contains(lower, "med"):
			return models.ImpactMedium
		case strings.Contains(lower, "low"):
			return models.ImpactLow
		case s != "":
			return strings.ToUpper(s[:1]) + s[1:]
		}
	}
	return ""
}

var (
	dateTimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2})`)
	bareDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// eventDateTime resolves the event's date key ("YYYY-MM-DD" or
// "Unknown Date") and its clock time ("HH:MM" or "—"). Numeric fields
// are UTC epoch seconds; strings are matched against the two known
// shapes.
func eventDateTime(ev map[string]any) (dateKey, clock string) {
	for _, k := range []string{"timestamp", "time", "date"} {
		v, ok := ev[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			at := time.Unix(int64(t), 0).UTC()
			return at.Format("2006-01-02"), at.Format("15:04")
		case string:
			s := strings.TrimSpace(t)
			if m := dateTimeRe.FindStringSubmatch(s); m != nil {
				return m[1], m[2]
			}
			if bareDateRe.MatchString(s) {
				return s, "—"
			}
		}
	}
	return unknownDateLabel, "—"
}

// eventURL builds the ForexFactory detail link when the feed carries an id.
func eventURL(ev map[string]any) string {
	id := fieldString(ev, "id")
	if id == "" {
		return ""
	}
	return "https://www.forexfactory.com/calendar?event=" + id
}

// --- Sorting ---

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// sortEventsByTime orders events by clock ascending; events whose time
// cannot be parsed sort after all parseable ones, keeping their
// relative order.
func sortEventsByTime(events []models.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, okI := parseClock(events[i].Time)
		tj, okJ := parseClock(events[j].Time)
		if okI != okJ {
			return okI
		}
		if !okI {
			return false
		}
		return ti < tj
	})
}

// sortGroupsByDate orders groups by (year, month, day) ascending with
// unrecognized labels last.
func sortGroupsByDate(groups []models.CalendarGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		di, errI := time.Parse("2006-01-02", groups[i].Label)
		dj, errJ := time.Parse("2006-01-02", groups[j].Label)
		okI, okJ := errI == nil, errJ == nil
		if okI != okJ {
			return okI
		}
		if !okI {
			return groups[i].Label < groups[j].Label
		}
		return di.Before(dj)
	})
}
