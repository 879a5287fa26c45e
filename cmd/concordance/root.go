package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/config"
	"github.com/gcbaptista/go-concordance-engine/internal/logging"
)

const version = "1.0.0"

var (
	cfgFile     string
	dataDir     string
	logLevel    string
	development bool

	serverConfig config.ServerConfig
	logger       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "concordance",
	Short:         "concordance - pattern search over interlinear text corpora",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultServerConfig()
		if cfgFile != "" {
			loaded, err := config.LoadServerConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
		}

		flags := cmd.Flags()
		if flags.Changed("data-dir") {
			cfg.DataDir = dataDir
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("dev") {
			cfg.Development = development
		}
		serverConfig = cfg

		l, err := logging.New(cfg.LogLevel, cfg.Development)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Go Concordance Engine v%s\n", version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Server config file (.toml, .yaml or .json)")
	flags.StringVar(&dataDir, "data-dir", "", "Directory holding corpus data (default ./concordance_data)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVar(&development, "dev", false, "Human-readable development logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}
