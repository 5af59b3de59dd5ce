package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ibsurgeon/fts-udr-go/internal/logging"
	"github.com/ibsurgeon/fts-udr-go/internal/routines"
	"github.com/ibsurgeon/fts-udr-go/pkg/config"
)

var (
	// Version is set during build
	Version = "1.0.0"

	// Global flags
	databaseFlag string
	ftsDirFlag   string
	quiet        bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ftsudr",
	Short: "Full-text search engine for relational data",
	Long: `ftsudr maintains Lucene-style full-text indexes alongside database
tables: a metadata catalog, a change-log driven incremental indexer, and
search, highlighting, analysis and statistics routines.

Run "ftsudr serve" for the REST bridge, or use the index/search/analyzer
command groups directly against the catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseFlag, "database", "", "catalog database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&ftsDirFlag, "fts-dir", "", "index directory root (overrides fts.conf/fts.ini)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(escapeQueryCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(analyzerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the ambient configuration and initialises logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if quiet {
		level = "error"
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	return cfg, nil
}

// openService opens the catalog connection, resolves the FTS directory
// and wraps both in a routine service. The caller owns the returned
// cleanup function.
func openService() (*routines.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	catalogPath := cfg.Catalog.Path
	if databaseFlag != "" {
		catalogPath = databaseFlag
	}
	if err := cfg.EnsureConfigDir(); err != nil {
		return nil, nil, nil, err
	}

	// WAL lets the applier delete log rows while its cursor is open;
	// immediate transactions serialize concurrent appliers at BEGIN.
	db, err := sql.Open("sqlite3", "file:"+catalogPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening catalog database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	root := ftsDirFlag
	if root == "" {
		root, err = config.ResolveFTSDirectory(cfg.Catalog.DatabaseName)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}

	service := routines.NewService(db, root)
	if err := service.InitSchema(); err != nil {
		service.Close()
		db.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		service.Close()
		db.Close()
	}
	return service, cfg, cleanup, nil
}

// versionCmd reports the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ftsudr %s\n", Version)
	},
}
