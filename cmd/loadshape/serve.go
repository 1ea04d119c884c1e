package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/store"
	"loadshape_toolkit/internal/ws"
)

var (
	serveAddr        string
	serveInputDir    string
	serveFrontendDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve [csv]...",
	Short: "Serve projections over WebSocket",
	Long: `Loads NREL timeseries CSV files and answers projection requests on /ws.
Files are taken from the arguments and from every *.csv in --input-dir.
Runs requested with save set are stored in the database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, else :8080)")
	serveCmd.Flags().StringVar(&serveInputDir, "input-dir", "", "directory containing CSV data files")
	serveCmd.Flags().StringVar(&serveFrontendDir, "frontend-dir", "frontend/build", "directory containing frontend build")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	paths := append([]string(nil), args...)
	if serveInputDir != "" {
		found, err := csvFiles(serveInputDir)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files given")
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	hub := ws.NewHub()
	handler := ws.NewHandler(hub, store.New(), cfg, db)

	for _, path := range paths {
		log.Printf("Loading %s...", path)
		table, err := loadTable(path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if len(paths) == 1 {
			name = datasetName(cfg, path)
		}
		if err := handler.AddDataset(name, table); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		log.Printf("  Loaded %d rows as %q", table.Len(), name)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)

	if _, err := os.Stat(serveFrontendDir); err == nil {
		log.Printf("Serving frontend from %s", serveFrontendDir)
		mux.Handle("/", http.FileServer(http.Dir(serveFrontendDir)))
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.GetServerAddr()
	}
	log.Printf("Starting server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// csvFiles lists the *.csv files directly inside dir.
func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
