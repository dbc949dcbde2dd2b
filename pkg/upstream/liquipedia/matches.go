package liquipedia

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// Toggle areas on the matches ticker: 1 holds upcoming matches, 2 holds
// recently completed ones. Area 3 and above are filter variants that
// repeat the same matches.
var matchAreas = map[string]bool{"1": true, "2": true}

// parseMatches extracts both upcoming and completed matches from a
// Liquipedia:Matches ticker or from an EWC game page's match section.
func parseMatches(doc *goquery.Document) []records.Match {
	var out []records.Match

	sections := doc.Find("div[data-toggle-area-content]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return matchAreas[s.AttrOr("data-toggle-area-content", "")]
	})

	// Some pages carry the matches without a toggle wrapper at all.
	if sections.Length() == 0 {
		sections = doc.Selection
	}

	sections.Find(".match").Each(func(_ int, m *goquery.Selection) {
		match := parseMatch(m)
		if match.Team1 == "" && match.Team2 == "" {
			return
		}
		out = append(out, match)
	})

	return out
}

func parseMatch(m *goquery.Selection) records.Match {
	team1 := cleanText(m.Find(".team-left .team-template-text a").First().Text())
	team2 := cleanText(m.Find(".team-right .team-template-text a").First().Text())

	// The versus block carries the score for finished matches and the
	// best-of format below it.
	var scoreParts []string
	complete := true
	m.Find(".versus-upper span").Each(func(_ int, s *goquery.Selection) {
		part := cleanText(s.Text())
		if part == "" {
			complete = false
			return
		}
		scoreParts = append(scoreParts, part)
	})
	// A single populated span is the "vs" placeholder, not a result.
	score := ""
	if complete && len(scoreParts) >= 2 {
		score = strings.Join(scoreParts, ":")
	}

	rawDate := cleanText(m.Find(".timer-object-date").First().Text())
	matchTime := cleanText(m.Find("div.match-details > div.match-bottom-bar > span > span").First().Text())
	if matchTime == "" {
		matchTime = rawDate
	}

	return records.Match{
		Team1:      team1,
		Team2:      team2,
		MatchTime:  matchTime,
		Score:      score,
		Format:     cleanText(m.Find(".versus-lower abbr").First().Text()),
		GroupLabel: cleanText(m.Find(".match-tournament .tournament-name a").First().Text()),
		RawDate:    rawDate,
	}
}
