package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sw33tLie/liquifeed/pkg/records"
	"github.com/sw33tLie/liquifeed/pkg/storage"
)

// newsCmd represents the news command
var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Browse editorial news items",
}

// newsListCmd represents the `news list` command.
var newsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List news items, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		writer, _ := cmd.Flags().GetString("writer")
		search, _ := cmd.Flags().GetString("search")

		res, err := db.ListNews(cmd.Context(), storage.NewsFilter{
			Page:     page,
			PageSize: pageSize,
			Writer:   writer,
			Search:   search,
		})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(res)
		}

		if res.Total == 0 {
			fmt.Println("No news items in the database.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tWRITER\tUPDATED\t")
		for _, item := range res.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", item.ID, item.Title, item.Writer, item.UpdatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()

		fmt.Printf("\nPage %d, %d of %d items\n", res.Page, len(res.Items), res.Total)
		return nil
	},
}

// newsImportCmd represents the `news import` command.
var newsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Upsert news items from a JSON array",
	Long: `Reads a JSON array of news items and upserts them by id.
Items without an id are inserted with a fresh one; items whose id already
exists have their fields rewritten. Existing rows are never deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var items []records.NewsItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("invalid news file %s: %w", args[0], err)
		}

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := db.UpsertNews(cmd.Context(), items)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d items: %d inserted, %d updated\n", res.Inserted+res.Updated, res.Inserted, res.Updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.AddCommand(newsListCmd)
	newsCmd.AddCommand(newsImportCmd)

	newsCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default from config)")
	newsCmd.PersistentFlags().Bool("json", false, "Print indented JSON instead of text")

	newsListCmd.Flags().Int("page", 1, "Page number (1-indexed)")
	newsListCmd.Flags().Int("page-size", 10, "Items per page")
	newsListCmd.Flags().String("writer", "", "Only items by this writer (exact match)")
	newsListCmd.Flags().String("search", "", "Case-insensitive substring match over title and description")
}
