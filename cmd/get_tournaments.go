package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// getTournamentsCmd represents the `get tournaments` command.
var getTournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "Tournament listings for a game, grouped by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		game, _ := cmd.Flags().GetString("game")
		if game == "" {
			return fmt.Errorf("please provide a game slug (-g flag)")
		}

		coord, db, err := newCoordinator(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		payload, err := coord.Ephemeral(cmd.Context(), records.KindTournaments, game, false)
		if err != nil {
			return err
		}

		grouped := records.GroupTournamentsByStatus(payload.Tournaments)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(grouped)
		}

		for _, status := range records.Statuses() {
			for _, t := range grouped[status] {
				line := fmt.Sprintf("[%s] %s", status, t.Name)
				if t.Dates != "" {
					line += " (" + t.Dates + ")"
				}
				if t.Tier != "" {
					line += " - " + t.Tier
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

func init() {
	getCmd.AddCommand(getTournamentsCmd)
}
