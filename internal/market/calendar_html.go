package market

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vealko/tradescope/pkg/models"
)

const calendarURL = "https://www.forexfactory.com/calendar"

// FetchCalendarHTML retrieves the calendar page. Fallback path only;
// the JSON feed is preferred.
func FetchCalendarHTML(ctx context.Context) (string, error) {
	page, err := fetchString(ctx, calendarURL, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return "", fmt.Errorf("forexfactory calendar: %w", err)
	}
	return page, nil
}

// ParseCalendarHTML extracts calendar groups from the page markup.
// Two strategies are tried in order: day-container elements with
// per-field selector candidates, then a generic table walk. The first
// strategy producing non-empty groups wins; nil means the layout could
// not be recognized.
func ParseCalendarHTML(pageHTML string) []models.CalendarGroup {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	if groups := parseDayContainers(doc); len(groups) > 0 {
		return groups
	}
	return parseCalendarTables(doc)
}

// Selector candidates, first match wins. The site has shuffled its
// class names more than once; each list covers the variants seen so far.
var (
	dayContainerSelectors = []string{
		"li.calendar__day",
		"div.calendar__day",
		"[data-day]",
	}
	dayLabelSelectors = []string{
		".calendar__date",
		".day__date",
		"h2",
		"th",
	}
	eventRowSelectors = []string{
		"tr.calendar__row",
		"li.calendar__event",
		".calendar__event",
	}
	fieldSelectors = map[string][]string{
		"time":     {"td.calendar__time", ".calendar__time", ".time"},
		"currency": {"td.calendar__currency", ".calendar__currency", ".currency"},
		"event":    {"td.calendar__event", ".calendar__event-title", ".event"},
		"impact":   {"td.calendar__impact", ".calendar__impact", ".impact"},
		"actual":   {"td.calendar__actual", ".calendar__actual", ".actual"},
		"forecast": {"td.calendar__forecast", ".calendar__forecast", ".forecast"},
		"previous": {"td.calendar__previous", ".calendar__previous", ".previous"},
	}
)

// parseDayContainers handles the styled calendar layout.
func parseDayContainers(doc *goquery.Document) []models.CalendarGroup {
	var containers *goquery.Selection
	for _, sel := range dayContainerSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			containers = s
			break
		}
	}
	if containers == nil {
		return nil
	}

	var groups []models.CalendarGroup
	containers.Each(func(_ int, day *goquery.Selection) {
		label := coalesce(firstText(day, dayLabelSelectors), unknownDateLabel)

		var events []models.CalendarEvent
		for _, rowSel := range eventRowSelectors {
			rows := day.Find(rowSel)
			if rows.Length() == 0 {
				continue
			}
			rows.Each(func(_ int, row *goquery.Selection) {
				e := models.CalendarEvent{
					Time:     firstText(row, fieldSelectors["time"]),
					Currency: firstText(row, fieldSelectors["currency"]),
					Event:    firstText(row, fieldSelectors["event"]),
					Impact:   rowImpact(row),
					Actual:   firstText(row, fieldSelectors["actual"]),
					Forecast: firstText(row, fieldSelectors["forecast"]),
					Previous: firstText(row, fieldSelectors["previous"]),
				}
				if e.Event != "" {
					events = append(events, e)
				}
			})
			break
		}

		if len(events) > 0 {
			groups = append(groups, models.CalendarGroup{Label: label, Events: events})
		}
	})
	return groups
}

// parseCalendarTables is the generic fallback: header-cell rows open a
// new day group, subsequent rows with at least four cells are events
// read by column position.
func parseCalendarTables(doc *goquery.Document) []models.CalendarGroup {
	var groups []models.CalendarGroup
	var current *models.CalendarGroup

	flush := func() {
		if current != nil && len(current.Events) > 0 {
			groups = append(groups, *current)
		}
		current = nil
	}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if th := row.Find("th"); th.Length() > 0 {
				flush()
				label := coalesce(strings.TrimSpace(th.First().Text()), unknownDateLabel)
				current = &models.CalendarGroup{Label: label}
				return
			}

			cells := row.Find("td")
			if cells.Length() < 4 || current == nil {
				return
			}

			cell := func(i int) string {
				if i >= cells.Length() {
					return ""
				}
				return strings.TrimSpace(cells.Eq(i).Text())
			}

			e := models.CalendarEvent{
				Time:     cell(0),
				Currency: cell(1),
				Event:    cell(2),
				Impact:   normalizeImpact(cell(3)),
				Actual:   cell(4),
				Forecast: cell(5),
				Previous: cell(6),
			}
			if e.Event != "" {
				current.Events = append(current.Events, e)
			}
		})
		flush()
	})
	return groups
}

var impactWordRe = regexp.MustCompile(`(?i)\b(high|medium|med|low)\b`)

// rowImpact derives severity from the impact cell: a severity word in
// its text or title attribute, else a count of icon elements.
func rowImpact(row *goquery.Selection) string {
	var cell *goquery.Selection
	for _, sel := range fieldSelectors["impact"] {
		if s := row.Find(sel); s.Length() > 0 {
			cell = s.First()
			break
		}
	}
	if cell == nil {
		return ""
	}

	title, _ := cell.Find("[title]").Attr("title")
	if m := impactWordRe.FindString(cell.Text() + " " + title); m != "" {
		return normalizeImpact(m)
	}

	switch cell.Find("span, i, img").Length() {
	case 1:
		return models.ImpactLow
	case 2:
		return models.ImpactMedium
	case 3:
		return models.ImpactHigh
	}
	return ""
}

// firstText returns the trimmed text of the first matching selector.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if m := s.Find(sel); m.Length() > 0 {
			return strings.TrimSpace(m.First().Text())
		}
	}
	return ""
}
