package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/liquifeed/internal/utils"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
	"github.com/sw33tLie/liquifeed/pkg/storage"
	"github.com/sw33tLie/liquifeed/pkg/upstream/liquipedia"
	"github.com/sw33tLie/liquifeed/pkg/whttp"
)

// getCmd represents the parent `get` command.
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch Liquipedia data and print it",
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.PersistentFlags().StringP("game", "g", "", "Game slug (example: dota2)")
	getCmd.PersistentFlags().Bool("json", false, "Print indented JSON instead of text")
	getCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default from config)")
}

// newFetchClient builds the Liquipedia client from config plus the global
// proxy flag.
func newFetchClient() (*liquipedia.Client, error) {
	proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
	httpClient, err := whttp.NewClient(30*time.Second, 3, proxy)
	if err != nil {
		return nil, err
	}

	return liquipedia.New(liquipedia.Config{
		BaseURL:    viper.GetString("liquipedia.base_url"),
		UserAgent:  viper.GetString("liquipedia.user_agent"),
		HTTP:       httpClient,
		ExtraGames: viper.GetStringMapString("liquipedia.games"),
	}), nil
}

// openStore opens the SQLite store named by the --dbpath flag, falling
// back to the configured db.path.
func openStore(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = viper.GetString("db.path")
	}
	return storage.Open(dbPath)
}

// newCoordinator wires a one-shot coordinator for CLI fetches. The caller
// closes the returned store.
func newCoordinator(cmd *cobra.Command) (*refresh.Coordinator, *storage.DB, error) {
	client, err := newFetchClient()
	if err != nil {
		return nil, nil, err
	}

	db, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	coord, err := refresh.New(refresh.Config{
		Fetcher: client,
		Store:   db,
		TTL:     time.Duration(viper.GetInt("cache.ttl")) * time.Minute,
		Log:     utils.Log,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return coord, db, nil
}

// printJSON renders v to stdout as indented JSON.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
