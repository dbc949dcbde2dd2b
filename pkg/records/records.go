package records

import "time"

// Kind identifies one category of data the service fetches or stores.
type Kind string

const (
	KindTournaments Kind = "tournaments"
	KindMatches     Kind = "matches"
	KindEWCMatches  Kind = "ewc_matches"
	KindTeams       Kind = "teams"
	KindEvents      Kind = "events"
	KindNews        Kind = "news"
)

// Ephemeral reports whether the kind is cached with a short TTL and
// replaced wholesale on refresh.
func (k Kind) Ephemeral() bool {
	switch k {
	case KindTournaments, KindMatches, KindEWCMatches:
		return true
	}
	return false
}

// Durable reports whether the kind is persisted in the record store.
func (k Kind) Durable() bool {
	switch k {
	case KindTeams, KindEvents, KindNews:
		return true
	}
	return false
}

// Valid reports whether the kind is one the service knows about.
func (k Kind) Valid() bool {
	return k.Ephemeral() || k.Durable()
}

// TournamentStatus is the section a tournament is listed under upstream.
type TournamentStatus string

const (
	StatusOngoing   TournamentStatus = "Ongoing"
	StatusUpcoming  TournamentStatus = "Upcoming"
	StatusCompleted TournamentStatus = "Completed"
)

// Statuses lists the tournament sections in upstream display order.
func Statuses() []TournamentStatus {
	return []TournamentStatus{StatusUpcoming, StatusOngoing, StatusCompleted}
}

// Tournament is a single entry from a game's tournament listings.
type Tournament struct {
	Name    string           `json:"name"`
	Link    string           `json:"link,omitempty"`
	Status  TournamentStatus `json:"status"`
	Dates   string           `json:"dates"`
	Tier    string           `json:"tier,omitempty"`
	LogoURL string           `json:"logo,omitempty"`
}

// Match is a single scheduled or completed match. GroupLabel carries the
// tournament (or bracket) the upstream page grouped it under; RawDate is the
// unparsed timestamp text and is only interpreted by the partition package.
type Match struct {
	Team1      string `json:"team1"`
	Team2      string `json:"team2"`
	MatchTime  string `json:"match_time"`
	Score      string `json:"score,omitempty"`
	Format     string `json:"format,omitempty"`
	GroupLabel string `json:"group"`
	RawDate    string `json:"raw_date,omitempty"`
}

// Team is a durable reference record. TeamName is its identity key.
type Team struct {
	TeamName string `json:"team_name"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// Event is a durable reference record. Name is its identity key.
type Event struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// NewsItem is editorial content managed through the API, never fetched
// upstream. ID is a surrogate UUID assigned on creation.
type NewsItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Writer       string    `json:"writer"`
	ThumbnailRef string    `json:"thumbnail,omitempty"`
	NewsLink     string    `json:"news_link,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Payload is the result of one upstream fetch: exactly one of the variant
// slices is populated, named by Kind. Consumers switch on Kind and must
// treat an unknown kind as an error.
type Payload struct {
	Kind        Kind         `json:"kind"`
	Game        string       `json:"game"`
	FetchedAt   time.Time    `json:"fetched_at"`
	Tournaments []Tournament `json:"tournaments,omitempty"`
	Matches     []Match      `json:"matches,omitempty"`
	Teams       []Team       `json:"teams,omitempty"`
	Events      []Event      `json:"events,omitempty"`
	News        []NewsItem   `json:"news,omitempty"`
}

// Len returns the number of records carried by the payload's own variant.
func (p *Payload) Len() int {
	switch p.Kind {
	case KindTournaments:
		return len(p.Tournaments)
	case KindMatches, KindEWCMatches:
		return len(p.Matches)
	case KindTeams:
		return len(p.Teams)
	case KindEvents:
		return len(p.Events)
	case KindNews:
		return len(p.News)
	}
	return 0
}

// GroupTournamentsByStatus buckets tournaments under their listing section,
// preserving input order inside each bucket. Every status key is present
// even when empty, matching the upstream page sections.
func GroupTournamentsByStatus(ts []Tournament) map[TournamentStatus][]Tournament {
	out := make(map[TournamentStatus][]Tournament, 3)
	for _, s := range Statuses() {
		out[s] = []Tournament{}
	}
	for _, t := range ts {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}
