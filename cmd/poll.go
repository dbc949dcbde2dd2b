package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/liquifeed/internal/utils"
	"github.com/sw33tLie/liquifeed/pkg/polling"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
)

// pollCmd represents the poll command
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Refresh snapshots and durable tables for the configured games",
	Long: `Runs one refresh sweep over every (kind, game) key and exits, or keeps
sweeping on an interval. Ephemeral kinds are force-fetched; team and event
tables get a live merge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'liquifeed poll --help'", args[0])
		}

		games, _ := cmd.Flags().GetStringSlice("games")
		interval, _ := cmd.Flags().GetInt("interval")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		client, err := newFetchClient()
		if err != nil {
			return err
		}
		if len(games) == 0 {
			games = client.SupportedGames()
		}

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		coord, err := refresh.New(refresh.Config{
			Fetcher: client,
			Store:   db,
			TTL:     time.Duration(viper.GetInt("cache.ttl")) * time.Minute,
			Log:     utils.Log,
		})
		if err != nil {
			return err
		}

		cfg := polling.Config{
			Coordinator: coord,
			Games:       games,
			Concurrency: concurrency,
			Log:         utils.Log,
			OnKeyDone: func(k polling.Key, count int, err error) {
				if err != nil {
					fmt.Printf("FAIL  %s  %v\n", k, err)
					return
				}
				fmt.Printf("OK    %s  %d records\n", k, count)
			},
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if interval <= 0 {
			res, err := polling.Sweep(ctx, cfg)
			if err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d of %d keys failed", len(res.Errors), res.Refreshed+len(res.Errors))
			}
			return nil
		}

		err = polling.Run(ctx, cfg, time.Duration(interval)*time.Minute)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().StringSlice("games", nil, "Game slugs to refresh (default: all supported)")
	pollCmd.Flags().Int("interval", 0, "Minutes between sweeps (0 = sweep once and exit)")
	pollCmd.Flags().Int("concurrency", 3, "Concurrent refreshes per sweep")
	pollCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config)")
}
