package liquipedia

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// parseEvents collects the tournament links on an EWC page: the overview
// page lists every event of the season, a game page lists that game's
// main event and qualifiers. Both use the tournament-name span template.
func parseEvents(doc *goquery.Document, base string) []records.Event {
	var out []records.Event
	seen := make(map[string]bool)

	doc.Find("span.tournament-name a").Each(func(_ int, a *goquery.Selection) {
		name := cleanText(a.Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true

		out = append(out, records.Event{
			Name: name,
			Link: absoluteURL(base, a.AttrOr("href", "")),
		})
	})

	return out
}
