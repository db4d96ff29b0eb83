// praxisctl is the operator CLI for the competency training engine. It works
// directly against the configured store, so it can inspect and administer
// sessions whether or not praxisd is running.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praxislabs/praxis/internal/config"
	"github.com/praxislabs/praxis/internal/database"
)

const version = "0.1.0"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "praxisctl",
		Short: "praxisctl - administer competency training",
		Long: `praxisctl manages specialties and training sessions.
All output is structured JSON (pipe through jq for human-readable formatting).`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to configuration file")

	rootCmd.AddCommand(newSpecialtyCommand())
	rootCmd.AddCommand(newSessionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if path := os.Getenv("PRAXIS_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

// openStore loads the config and opens the configured database
func openStore() (*config.Config, *database.Database, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	var db *database.Database
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.DSN != "" {
			db, err = database.NewPostgres(cfg.Database.DSN)
		} else {
			db, err = database.NewFromEnv()
		}
	default:
		db, err = database.New(cfg.Database.Path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
