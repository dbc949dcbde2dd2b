package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all stored teams, events and news",
	Long: `Clears every row from the teams, events and news tables, all-or-nothing.
With --uploads the uploads directory is emptied too. A running server's
snapshot cache is process-local; use the API reset endpoint to drop it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Print("This clears all teams, events and news. Continue? [y/N] ")
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := db.ResetAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Dropped %d teams, %d events, %d news items.\n", res.Teams, res.Events, res.News)

		if clearUploads, _ := cmd.Flags().GetBool("uploads"); clearUploads {
			dir := viper.GetString("uploads.dir")
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			for _, e := range entries {
				if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
					return err
				}
			}
			fmt.Printf("Cleared uploads directory %s.\n", dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config)")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().Bool("uploads", false, "Also empty the uploads directory")
}
