package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/colefleming/inkwell/internal/config"
	"github.com/colefleming/inkwell/internal/db"
	"github.com/colefleming/inkwell/internal/repo"
	"github.com/colefleming/inkwell/internal/scheduler"
)

func main() {

	// Load configuration; missing required values abort startup
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.LogFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	// Connect to database FIRST
	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Successfully connected to the database")

	if err := db.Run(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Background refresh of the content gauges
	stats := scheduler.RunStats(repo.NewPostRepo(database), repo.NewUserRepo(database))
	defer stats.Stop()

	r := newRouter(database, cfg)

	// Start server LAST
	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		log.Println("Starting HTTPS server on " + addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		log.Println("Starting server on " + addr)
		err = http.ListenAndServe(addr, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}
