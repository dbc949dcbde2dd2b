package storage

import "time"

// TeamRow is a persisted team. Identity is (game, team_name): the same
// organization fields rosters in several games and each is its own row.
type TeamRow struct {
	Game      string    `json:"game"`
	TeamName  string    `json:"team_name"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventRow is a persisted event. Rows confirmed by the season overview
// fetch carry an empty game.
type EventRow struct {
	Game      string    `json:"game,omitempty"`
	Name      string    `json:"name"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertResult counts what a batch did.
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}
