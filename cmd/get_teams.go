package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// getTeamsCmd represents the `get teams` command.
var getTeamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Teams attending a game's Esports World Cup appearance",
	RunE: func(cmd *cobra.Command, args []string) error {
		game, _ := cmd.Flags().GetString("game")
		if game == "" {
			return fmt.Errorf("please provide a game slug (-g flag)")
		}
		live, _ := cmd.Flags().GetBool("live")

		coord, db, err := newCoordinator(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := coord.Teams(cmd.Context(), game, live)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(rows)
		}
		for _, r := range rows {
			fmt.Println(r.TeamName)
		}
		return nil
	},
}

func init() {
	getCmd.AddCommand(getTeamsCmd)
	getTeamsCmd.Flags().Bool("live", false, "Refresh from Liquipedia even when the table is populated")
}
