package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/liquifeed/pkg/partition"
	"github.com/sw33tLie/liquifeed/pkg/records"
)

// getMatchesCmd represents the `get matches` command.
var getMatchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Match ticker for a game",
	Long:  "Prints the match ticker for a game, grouped by tournament, by calendar day, or filtered to one date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		game, _ := cmd.Flags().GetString("game")
		if game == "" {
			return fmt.Errorf("please provide a game slug (-g flag)")
		}

		groupBy, _ := cmd.Flags().GetString("group-by")
		dateStr, _ := cmd.Flags().GetString("date")
		ewc, _ := cmd.Flags().GetBool("ewc")

		var filterDay time.Time
		switch groupBy {
		case "", "group", "day":
		case "date":
			if dateStr == "" {
				return fmt.Errorf("--date is required when --group-by is date")
			}
			day, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
			filterDay = day
		default:
			return fmt.Errorf("--group-by must be group, day or date")
		}

		kind := records.KindMatches
		if ewc {
			kind = records.KindEWCMatches
		}

		coord, db, err := newCoordinator(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		payload, err := coord.Ephemeral(cmd.Context(), kind, game, false)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		switch groupBy {
		case "day":
			days := partition.ByDay(payload.Matches)
			if asJSON {
				return printJSON(days)
			}
			for _, d := range days {
				fmt.Printf("== %s ==\n", d.Date)
				printMatchGroups(d.Groups)
			}
		case "date":
			groups := partition.ByDate(payload.Matches, filterDay)
			if asJSON {
				return printJSON(groups)
			}
			printMatchGroups(groups)
		default:
			groups := partition.ByGroup(payload.Matches)
			if asJSON {
				return printJSON(groups)
			}
			printMatchGroups(groups)
		}
		return nil
	},
}

func printMatchGroups(groups []partition.Group) {
	for _, g := range groups {
		fmt.Println(g.Label)
		for _, m := range g.Matches {
			line := fmt.Sprintf("  %s vs %s", m.Team1, m.Team2)
			if m.Score != "" {
				line = fmt.Sprintf("  %s %s %s", m.Team1, m.Score, m.Team2)
			}
			if m.MatchTime != "" {
				line += "  @ " + m.MatchTime
			}
			if m.Format != "" {
				line += " (" + m.Format + ")"
			}
			fmt.Println(line)
		}
	}
}

func init() {
	getCmd.AddCommand(getMatchesCmd)

	getMatchesCmd.Flags().String("group-by", "group", "Grouping: group, day, or date")
	getMatchesCmd.Flags().String("date", "", "Date filter for --group-by date (YYYY-MM-DD)")
	getMatchesCmd.Flags().Bool("ewc", false, "Fetch the game's Esports World Cup schedule instead")
}
