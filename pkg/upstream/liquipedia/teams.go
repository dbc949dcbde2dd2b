package liquipedia

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// parseTeams extracts participating teams from an EWC game page. Rosters
// are rendered as teamcards; the same card template repeats across group
// stage and playoff sections, so names are deduplicated.
func parseTeams(doc *goquery.Document, base string) []records.Team {
	var out []records.Team
	seen := make(map[string]bool)

	doc.Find("div.teamcard").Each(func(_ int, card *goquery.Selection) {
		name := cleanText(card.Find("center a").First().Text())
		if name == "" {
			name = cleanText(card.Find(".teamcard-title a").First().Text())
		}
		if name == "" || seen[name] {
			return
		}
		seen[name] = true

		logo := ""
		if src, ok := card.Find("img").First().Attr("src"); ok {
			logo = absoluteURL(base, src)
		}

		out = append(out, records.Team{TeamName: name, LogoURL: logo})
	})

	return out
}
