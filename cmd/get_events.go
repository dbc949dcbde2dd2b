package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// getEventsCmd represents the `get events` command.
var getEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Esports World Cup event calendar",
	Long:  "Prints the season's event calendar. Without -g the whole overview is listed; with -g only that game's events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		game, _ := cmd.Flags().GetString("game")
		live, _ := cmd.Flags().GetBool("live")

		coord, db, err := newCoordinator(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := coord.Events(cmd.Context(), game, live)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(rows)
		}
		for _, r := range rows {
			line := r.Name
			if r.Link != "" {
				line += "  " + r.Link
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	getCmd.AddCommand(getEventsCmd)
	getEventsCmd.Flags().Bool("live", false, "Refresh from Liquipedia even when the table is populated")
}
