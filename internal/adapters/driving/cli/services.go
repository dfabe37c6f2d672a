package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/importer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/importer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/importer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/importer/internal/config"
	"github.com/custodia-labs/importer/internal/core/ports/driven"
	"github.com/custodia-labs/importer/internal/core/ports/driving"
	"github.com/custodia-labs/importer/internal/core/services"
	"github.com/custodia-labs/importer/internal/handlers/registry"
	"github.com/custodia-labs/importer/internal/logger"
	"github.com/custodia-labs/importer/internal/parsers"
	"github.com/custodia-labs/importer/internal/spool"
)

// Services used by commands. They are built on first use by
// setupServices; tests assign them directly.
var (
	appConfig     *config.Config
	importService driving.Importer
	resultService driving.ResultService
	storeCloser   func() error
)

// resolveConfigPath returns --config, or the default config file when it
// exists, or "" to run on defaults.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	path, err := file.DefaultPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return path, nil
}

// loadConfig loads and caches the configuration.
func loadConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("Loaded config from %s", path)
	}
	appConfig = cfg
	return cfg, nil
}

// setupServices builds the import pipeline from configuration.
func setupServices() error {
	if importService != nil {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	handlers, err := registry.NewDefault()
	if err != nil {
		return err
	}
	preParse, err := handlers.BuildAll(cfg.PreParse, cfg.MaxReadSize)
	if err != nil {
		return fmt.Errorf("pre_parse: %w", err)
	}
	postParse, err := handlers.BuildAll(cfg.PostParse, cfg.MaxReadSize)
	if err != nil {
		return fmt.Errorf("post_parse: %w", err)
	}

	codec, err := spool.ParseCodec(cfg.Spool.Codec)
	if err != nil {
		return err
	}
	spools := spool.NewFactory(
		spool.WithThreshold(cfg.Spool.Threshold),
		spool.WithCodec(codec),
		spool.WithDir(cfg.Spool.Dir),
	)

	store, closer, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}

	svc := services.NewImportService(preParse, postParse, parsers.NewDefaultRegistry(),
		services.WithWorkers(cfg.Workers),
		services.WithRateLimit(cfg.RateLimit),
		services.WithSpools(spools),
		services.WithResultStore(store),
	)
	logger.Debug("Pipeline: %d pre-parse and %d post-parse handlers", len(preParse), len(postParse))

	importService = svc
	resultService = svc
	storeCloser = closer
	return nil
}

func openStore(cfg config.StorageConfig) (driven.ResultStore, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening result store: %w", err)
		}
		logger.Debug("Results stored in %s", store.Path())
		return store.ResultStore(), store.Close, nil
	default:
		return memory.NewResultStore(), nil, nil
	}
}

// closeServices releases the result store.
func closeServices() {
	if storeCloser == nil {
		return
	}
	if err := storeCloser(); err != nil {
		logger.Warn("closing result store: %v", err)
	}
	storeCloser = nil
}
