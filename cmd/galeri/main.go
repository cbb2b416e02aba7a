package main

import (
	"log/slog"
	"os"

	"github.com/aryapradana/galeri/internal/blob"
	"github.com/aryapradana/galeri/internal/config"
	"github.com/aryapradana/galeri/internal/crypt"
	"github.com/aryapradana/galeri/internal/logging"
	"github.com/aryapradana/galeri/internal/router"
	"github.com/aryapradana/galeri/internal/storage/sqlite"
)

func main() {
	bootstrapLogger := logging.New(slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close sqlite database", "error", err)
		}
	}()

	blobs, err := blob.NewStore(cfg.StorageRoot)
	if err != nil {
		logger.Error("failed to open blob store", "root", cfg.StorageRoot, "error", err)
		os.Exit(1)
	}

	ids, err := crypt.NewIDCodec(cfg.IDKey)
	if err != nil {
		logger.Error("failed to build id codec", "error", err)
		os.Exit(1)
	}

	logger.Info("starting server", "addr", cfg.Addr)

	r := router.New(cfg, logger, store, blobs, ids)

	if err := r.Run(cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
