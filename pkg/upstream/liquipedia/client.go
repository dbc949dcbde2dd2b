package liquipedia

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/liquifeed/internal/utils"
	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/upstream"
	"github.com/sw33tLie/liquifeed/pkg/whttp"
)

const (
	defaultBaseURL = "https://liquipedia.net"

	// The Esports World Cup has its own wiki; team rosters, per-game match
	// schedules and the event calendar all live there.
	ewcWiki         = "esportsworldcup"
	ewcOverviewPage = "Esports_World_Cup/2025"

	matchesPage     = "Liquipedia:Matches"
	tournamentsPage = "Main_Page"
)

// defaultGames maps a wiki slug to the game's page name on the EWC wiki.
// Only slugs present here are accepted; unknown games fail validation
// before any network I/O.
var defaultGames = map[string]string{
	"ageofempires":    "Age_of_Empires",
	"apexlegends":     "Apex_Legends",
	"counterstrike":   "Counter-Strike_2",
	"dota2":           "Dota_2",
	"freefire":        "Free_Fire",
	"leagueoflegends": "League_of_Legends",
	"mobilelegends":   "Mobile_Legends:_Bang_Bang",
	"overwatch":       "Overwatch_2",
	"pubg":            "PUBG",
	"pubgmobile":      "PUBG_Mobile",
	"rainbowsix":      "Rainbow_Six_Siege",
	"rocketleague":    "Rocket_League",
	"starcraft2":      "StarCraft_II",
	"streetfighter":   "Street_Fighter_6",
	"tekken":          "Tekken_8",
	"valorant":        "VALORANT",
	"worldoftanks":    "World_of_Tanks",
}

// Config controls the client. The zero value targets liquipedia.net with
// the package-default HTTP client and game registry.
type Config struct {
	BaseURL   string
	HTTP      *retryablehttp.Client
	UserAgent string // overrides the whttp default when set

	// ExtraGames extends (or overrides) the built-in registry,
	// slug -> EWC page name. An empty page name keeps the slug valid for
	// tournament/match fetches only.
	ExtraGames map[string]string
}

// Client fetches Liquipedia pages through the MediaWiki parse API and
// extracts records from the returned HTML fragments. It performs no
// caching of its own.
type Client struct {
	baseURL   string
	http      *retryablehttp.Client
	userAgent string
	games     map[string]string
}

// New builds a Client. Compile-time check below keeps it a valid
// upstream.Fetcher.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	games := make(map[string]string, len(defaultGames)+len(cfg.ExtraGames))
	for slug, page := range defaultGames {
		games[slug] = page
	}
	for slug, page := range cfg.ExtraGames {
		games[strings.ToLower(strings.TrimSpace(slug))] = page
	}

	return &Client{
		baseURL:   base,
		http:      cfg.HTTP,
		userAgent: cfg.UserAgent,
		games:     games,
	}
}

var _ upstream.Fetcher = (*Client)(nil)

// SupportedGames returns the accepted wiki slugs, sorted.
func (c *Client) SupportedGames() []string {
	out := make([]string, 0, len(c.games))
	for slug := range c.games {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func (c *Client) supported(game string) bool {
	_, ok := c.games[game]
	return ok
}

func errUnsupported(game string) error {
	return fmt.Errorf("%w: %q", upstream.ErrUnsupportedGame, game)
}

// Fetch performs one fetch-and-parse cycle for the given kind and game.
func (c *Client) Fetch(ctx context.Context, kind records.Kind, game string) (*records.Payload, error) {
	wiki, page, err := c.resolve(kind, game)
	if err != nil {
		return nil, err
	}

	frag, err := c.parsePage(ctx, wiki, page)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(frag))
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", upstream.ErrMalformedDocument, wiki, page, err)
	}

	p := &records.Payload{Kind: kind, Game: game, FetchedAt: time.Now().UTC()}
	switch kind {
	case records.KindTournaments:
		p.Tournaments = parseTournaments(doc, c.baseURL)
	case records.KindMatches, records.KindEWCMatches:
		p.Matches = parseMatches(doc)
	case records.KindTeams:
		p.Teams = parseTeams(doc, c.baseURL)
	case records.KindEvents:
		p.Events = parseEvents(doc, c.baseURL)
	default:
		return nil, fmt.Errorf("kind %q is not fetched from upstream", kind)
	}

	utils.Log.Debugf("liquipedia: parsed %d %s records from %s/%s", p.Len(), kind, wiki, page)
	return p, nil
}

// resolve validates the game slug and picks the wiki and page for a kind.
func (c *Client) resolve(kind records.Kind, game string) (wiki, page string, err error) {
	switch kind {
	case records.KindTournaments:
		if !c.supported(game) {
			return "", "", errUnsupported(game)
		}
		return game, tournamentsPage, nil
	case records.KindMatches:
		if !c.supported(game) {
			return "", "", errUnsupported(game)
		}
		return game, matchesPage, nil
	case records.KindEWCMatches, records.KindTeams:
		p, ok := c.games[game]
		if !ok || p == "" {
			return "", "", errUnsupported(game)
		}
		return ewcWiki, p, nil
	case records.KindEvents:
		if game == "" {
			return ewcWiki, ewcOverviewPage, nil
		}
		p, ok := c.games[game]
		if !ok || p == "" {
			return "", "", errUnsupported(game)
		}
		return ewcWiki, p, nil
	}
	return "", "", fmt.Errorf("kind %q is not fetched from upstream", kind)
}

// parsePage calls the wiki's api.php parse endpoint and unwraps the HTML
// fragment from the JSON envelope. Liquipedia's terms require api.php over
// raw page fetches, and the envelope tells failures apart cleanly.
func (c *Client) parsePage(ctx context.Context, wiki, page string) (string, error) {
	u := fmt.Sprintf("%s/%s/api.php?action=parse&format=json&formatversion=2&redirects=1&prop=text&page=%s",
		c.baseURL, wiki, url.QueryEscape(page))

	utils.Log.Debugf("liquipedia: GET %s", u)

	headers := []whttp.Header{{Name: "Accept", Value: "application/json"}}
	if c.userAgent != "" {
		headers = append(headers, whttp.Header{Name: "User-Agent", Value: c.userAgent})
	}

	res, err := whttp.Send(ctx, &whttp.Request{
		Method:  http.MethodGet,
		URL:     u,
		Headers: headers,
	}, c.http)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %v", upstream.ErrUpstreamUnavailable, wiki, page, err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s/%s returned HTTP %d", upstream.ErrUpstreamUnavailable, wiki, page, res.StatusCode)
	}

	if !gjson.Valid(res.Body) {
		// An HTML body here usually means a WAF or maintenance page; its
		// title is the most useful thing to report.
		return "", fmt.Errorf("%w: %s/%s did not return JSON (page title %q)", upstream.ErrMalformedDocument, wiki, page, res.Title)
	}

	if apiErr := gjson.Get(res.Body, "error.code"); apiErr.Exists() {
		return "", fmt.Errorf("%w: %s/%s: api error %q", upstream.ErrMalformedDocument, wiki, page, apiErr.String())
	}

	text := gjson.Get(res.Body, "parse.text")
	if !text.Exists() || strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("%w: %s/%s: no parse text in response", upstream.ErrMalformedDocument, wiki, page)
	}

	return text.String(), nil
}

// absoluteURL turns wiki-relative hrefs and srcs into absolute links.
func absoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	return base + ref
}
