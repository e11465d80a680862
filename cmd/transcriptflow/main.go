// File path: cmd/transcriptflow/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/transcriptflow/transcriptflow/internal/api"
	"github.com/transcriptflow/transcriptflow/internal/backup"
	"github.com/transcriptflow/transcriptflow/internal/common"
	"github.com/transcriptflow/transcriptflow/internal/config"
	"github.com/transcriptflow/transcriptflow/internal/extract"
	"github.com/transcriptflow/transcriptflow/internal/fireflies"
	"github.com/transcriptflow/transcriptflow/internal/llm"
	"github.com/transcriptflow/transcriptflow/internal/persist"
	"github.com/transcriptflow/transcriptflow/internal/store"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("transcriptflow: .env file not loaded", "error", err)
	} else {
		logger.Info("transcriptflow: environment loaded from .env")
	}

	configPath := flag.String("config", "transcriptflow.toml", "path to the TOML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "path to the state database (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("transcriptflow: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*addr); trimmed != "" {
		cfg.Server.Addr = trimmed
	}
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		cfg.Storage.DatabasePath = trimmed
	}

	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("transcriptflow: data directory unavailable", "dir", dir, "error", err)
			fmt.Println("storage error:", err)
			os.Exit(1)
		}
	}

	persistence, err := persist.Open(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("transcriptflow: state database open failed", "path", cfg.Storage.DatabasePath, "error", err)
		fmt.Println("storage error:", err)
		os.Exit(1)
	}
	defer persistence.Close()

	backups, err := backup.NewManager(persistence)
	if err != nil {
		logger.Error("transcriptflow: backup manager init failed", "error", err)
		fmt.Println("backup error:", err)
		os.Exit(1)
	}

	registry := store.NewRegistry(persistence, backups)

	provider := llm.NewProvider()
	logger.Info("transcriptflow: extraction provider selected", "provider", provider.Name())

	recorderEndpoint := strings.TrimSpace(cfg.Recorder.Endpoint)
	var recorder *fireflies.Client
	if recorderEndpoint != "" {
		recorder = fireflies.New(recorderEndpoint, strings.TrimSpace(os.Getenv("FIREFLIES_API_KEY")))
	} else {
		recorder = fireflies.NewFromEnv()
	}

	server, err := api.NewServer(registry, backups, extract.NewService(provider), recorder, api.Config{
		RecorderLimit: cfg.Recorder.DefaultLimit,
	})
	if err != nil {
		logger.Error("transcriptflow: server init failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("transcriptflow: listening", "addr", cfg.Server.Addr, "db", cfg.Storage.DatabasePath)
	if err := http.ListenAndServe(cfg.Server.Addr, server); err != nil {
		logger.Error("transcriptflow: server stopped", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}
}
