// Package cmd holds the wheels command line.
package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"wheels/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "wheels",
	Short:         "Carpool trips between home and campus",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml if present)")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("wheels: %v", err)
	}
}
