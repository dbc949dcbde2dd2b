package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/liquifeed/internal/server"
	"github.com/sw33tLie/liquifeed/internal/utils"
	"github.com/sw33tLie/liquifeed/pkg/polling"
	"github.com/sw33tLie/liquifeed/pkg/refresh"
	"github.com/sw33tLie/liquifeed/pkg/snapcache"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the liquifeed API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		if listenAddr == "" {
			listenAddr = viper.GetString("listen")
		}
		pollInterval, _ := cmd.Flags().GetInt("poll-interval")
		if !cmd.Flags().Changed("poll-interval") {
			pollInterval = viper.GetInt("poll.interval")
		}

		client, err := newFetchClient()
		if err != nil {
			return err
		}

		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		cache := snapcache.New()
		coord, err := refresh.New(refresh.Config{
			Fetcher: client,
			Store:   db,
			Cache:   cache,
			TTL:     time.Duration(viper.GetInt("cache.ttl")) * time.Minute,
			Log:     utils.Log,
		})
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Coordinator: coord,
			Store:       db,
			Cache:       cache,
			Games:       client.SupportedGames(),
			Username:    viper.GetString("server.username"),
			Password:    viper.GetString("server.password"),
			UploadsDir:  viper.GetString("uploads.dir"),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if pollInterval > 0 {
			go func() {
				err := polling.Run(ctx, polling.Config{
					Coordinator: coord,
					Games:       client.SupportedGames(),
					Log:         utils.Log,
				}, time.Duration(pollInterval)*time.Minute)
				if err != nil && !errors.Is(err, context.Canceled) {
					utils.Log.Errorf("Background polling stopped: %v", err)
				}
			}()
		}

		return srv.Start(ctx, listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "HTTP listen address (default from config)")
	serveCmd.Flags().Int("poll-interval", 0, "Minutes between background refresh sweeps (0 to disable)")
	serveCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default from config)")
}
