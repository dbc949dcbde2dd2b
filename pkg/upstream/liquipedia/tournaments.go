package liquipedia

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// parseTournaments walks a game wiki's Main_Page tournament widget. Each
// status section is a heading span followed by a sibling list; sections
// can be missing entirely when nothing is scheduled.
func parseTournaments(doc *goquery.Document, base string) []records.Tournament {
	var out []records.Tournament

	for _, status := range records.Statuses() {
		doc.Find("span.tournaments-list-heading").Each(func(_ int, heading *goquery.Selection) {
			if strings.TrimSpace(heading.Text()) != string(status) {
				return
			}

			heading.Parent().Find("ul.tournaments-list-type-list li").Each(func(_ int, li *goquery.Selection) {
				nameTag := li.Find("span.tournament-name").First()
				name := cleanText(nameTag.Text())
				if name == "" {
					return
				}

				link := ""
				if href, ok := nameTag.Find("a").First().Attr("href"); ok {
					link = absoluteURL(base, href)
				}

				logo := ""
				if src, ok := li.Find("span.tournament-icon img").First().Attr("src"); ok {
					logo = absoluteURL(base, src)
				}

				out = append(out, records.Tournament{
					Name:    name,
					Link:    link,
					Status:  status,
					Dates:   cleanText(li.Find("small.tournaments-list-dates").First().Text()),
					Tier:    tournamentTier(li),
					LogoURL: logo,
				})
			})
		})
	}

	return out
}

// tournamentTier joins the badge chip ("Tier 1") with its qualifier text
// ("Qualifier") when both are present.
func tournamentTier(li *goquery.Selection) string {
	chip := cleanText(li.Find("div.tournament-badge__chip").First().Text())
	qual := cleanText(li.Find("div.tournament-badge__text").First().Text())
	switch {
	case chip != "" && qual != "":
		return chip + " " + qual
	case chip != "":
		return chip
	default:
		return qual
	}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
