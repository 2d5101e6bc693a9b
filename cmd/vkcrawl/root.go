package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg Config

	rootCmd = &cobra.Command{
		Use:           "vkcrawl",
		Short:         "Crawl the VK follower/subscription graph into a graph store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			if cmd.Flags().Changed("log-level") || cfg.Log.Level == "" {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") || cfg.Log.Format == "" {
				cfg.Log.Format = logFormat
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(crawlCmd, schemaCmd, serveCmd)
}
