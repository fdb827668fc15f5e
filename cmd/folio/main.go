// Command folio runs the portfolio site and its maintenance tasks.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gloanda/folio"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Personal portfolio and blog server",
	Long: `folio serves a portfolio and blog: a home page, experiences, projects,
certificates and a markdown blog edited from an admin dashboard.

Configuration is read from ./folio.yaml (or --config), overridden by FOLIO_*
environment variables. A .env file in the working directory is loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./folio.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "human-readable debug logging")
	rootCmd.AddCommand(serveCmd, checkCmd, importCmd, versionCmd)
}

// loadConfig resolves the configuration and builds the matching logger.
func loadConfig() (folio.SiteConfig, *zap.Logger, error) {
	cfg, err := folio.LoadConfig(cfgFile)
	if err != nil {
		return folio.SiteConfig{}, nil, err
	}
	if debug {
		cfg.Debug = true
	}
	logger, err := folio.NewLogger(cfg.Debug)
	if err != nil {
		return folio.SiteConfig{}, nil, err
	}
	return cfg, logger, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the folio version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
