package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/config"
	"loadshape_toolkit/internal/database"
	"loadshape_toolkit/internal/ingest"
	"loadshape_toolkit/internal/timeseries"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "loadshape",
	Short: "Aggregate building energy timeseries and project electrification",
	Long: `loadshape reduces a year of NREL ResStock/ComStock timeseries aggregates to a
representative 24-hour day and projects how much non-electric end-use energy
turns into new electric demand under sigmoid adoption curves.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./loadshape.db)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "loadshape.db"
}

// loadConfig loads and validates the configuration file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", getConfigPath(), err)
	}
	return cfg, nil
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// loadTable parses an NREL timeseries CSV.
func loadTable(path string) (*timeseries.Table, error) {
	return ingest.LoadFile(ingest.NewNRELParser(), path)
}

// datasetName labels a CSV with the configured dataset, or with its file
// name when no dataset is configured.
func datasetName(cfg *config.Config, path string) string {
	if cfg.Dataset.Sector != "" {
		return cfg.Dataset.Label()
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
