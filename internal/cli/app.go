package cli

import (
	"fmt"

	"github.com/exam-archive/backend/internal/config"
	"github.com/exam-archive/backend/internal/groups"
	"github.com/exam-archive/backend/internal/logging"
	"github.com/exam-archive/backend/internal/storage"
	"github.com/exam-archive/backend/internal/upload"
)

// app is the assembled set of components shared by the commands
type app struct {
	configPath string
	cfg        *config.AppConfig
	log        *logging.Logger
	groups     *groups.Manager
	files      *upload.Manager
}

func loadApp(configPath string) (*app, error) {
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := storage.NewLocalStore(cfg.GetRootDir(), cfg.Storage.MetadataFile)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	index := storage.NewIndexStore(cfg.MetadataPath())

	// Both managers must serialize on the same per-group locks
	locks := &storage.KeyedMutex{}
	files := upload.NewManager(store, index, locks, log)

	return &app{
		configPath: configPath,
		cfg:        cfg,
		log:        log,
		groups:     groups.NewManager(store, index, files, locks, log),
		files:      files,
	}, nil
}
