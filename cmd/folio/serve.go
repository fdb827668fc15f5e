package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gloanda/folio"
)

var watch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `serve validates the configuration and site content, opens the databases
and serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		app := folio.New(cfg, folio.WithLogger(logger))
		if err := app.Setup(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watch {
			go func() {
				if err := app.WatchCollections(ctx); err != nil {
					logger.Error("collections watcher stopped", zap.Error(err))
				}
			}()
		}

		errCh := make(chan error, 1)
		go func() { errCh <- app.Start() }()

		select {
		case err := <-errCh:
			app.Close()
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		return app.Shutdown(context.Background())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&watch, "watch", false, "reload the collections file when it changes")
}
