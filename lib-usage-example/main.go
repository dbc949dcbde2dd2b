package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
	"github.com/sw33tLie/liquifeed/pkg/upstream/liquipedia"
)

func main() {
	// Usage: go run main.go -game dota2

	gameFlag := flag.String("game", "", "Game slug (example: dota2)")

	// Parse the command-line flags
	flag.Parse()

	if *gameFlag == "" {
		fmt.Println("Game is required. Please provide the game slug using -game flag.")
		return
	}

	// A nil Store limits the coordinator to ephemeral kinds, which is all
	// this example needs. Repeated Ephemeral calls within the TTL are
	// served from the snapshot cache without touching Liquipedia.
	coord, err := refresh.New(refresh.Config{
		Fetcher: liquipedia.New(liquipedia.Config{}),
	})
	if err != nil {
		log.Fatal(err)
	}

	payload, err := coord.Ephemeral(context.Background(), records.KindTournaments, *gameFlag, false)
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range payload.Tournaments {
		fmt.Println(t.Status, t.Name, t.Dates)
	}
}
