package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/config"
)

var (
	cfg        = config.Default()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:          "claimaudit",
	Short:        "Health insurance claim auditor",
	Long:         "Audits hospital bills against insurance policies and reports the charges likely to be disputed.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return cfg.LoadFromFile(configPath)
		}
		return cfg.Validate()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("CLAIMAUDIT_DB_URL"), "Postgres connection string for the result archive (or set CLAIMAUDIT_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
}
