package main

import (
	"context"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/memeforanyone/bootstrap"
	"github.com/kbukum/memeforanyone/component"
	"github.com/kbukum/memeforanyone/config"
	"github.com/kbukum/memeforanyone/logger"
	"github.com/kbukum/memeforanyone/observability"
	"github.com/kbukum/memeforanyone/server"
	"github.com/kbukum/memeforanyone/storage"
	"github.com/kbukum/memeforanyone/version"
)

// smokePrefix is listed once at startup to show the storage backend answers.
const smokePrefix = "images/"

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := initLogger(cfg, false)
	logConfiguration(log, cfg)

	for _, name := range cfg.MissingActiveModels() {
		log.Warn("Active model is not in the model registry", logger.Fields("model", name))
	}

	app := bootstrap.NewApp(config.ServiceName, version.Version,
		bootstrap.WithLogger(log),
		bootstrap.WithSummaryOutput(c.App.Writer),
	)

	store := storage.NewComponent(cfg.Storage, log)
	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(config.ServiceName, app.Components.HealthAll)
	for _, r := range srv.Engine().Routes() {
		app.Summary.TrackRoute(r.Method, r.Path)
	}

	for _, comp := range []component.Component{
		observability.NewComponent(cfg.Observability),
		store,
		server.NewComponent(srv),
	} {
		if err := app.RegisterComponent(comp); err != nil {
			return err
		}
	}

	app.OnReady(func(ctx context.Context) error {
		smokeList(ctx, log, store.Storage())
		return nil
	})

	return app.Run(c.Context)
}

// logConfiguration logs the resolved configuration at startup.
func logConfiguration(log *logger.Logger, cfg *config.AppConfig) {
	names := make([]string, 0, len(cfg.Models))
	for name := range cfg.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	log.Info("Configuration loaded", map[string]interface{}{
		"server":            cfg.Server.Addr(),
		"storage":           cfg.Storage.String(),
		"qdrant":            cfg.Qdrant.URL,
		"qdrant_collection": cfg.Qdrant.CollectionName,
		"embedding_model":   cfg.AI.ActiveEmbeddingModel,
		"rerank_model":      cfg.AI.ActiveRerankModel,
		"models":            strings.Join(names, ","),
	})
}

// smokeList lists smokePrefix and logs what it finds. Failures are logged only.
func smokeList(ctx context.Context, log *logger.Logger, s *storage.Storage) {
	if s == nil {
		return
	}
	keys, err := s.List(ctx, smokePrefix)
	if err != nil {
		log.Warn("Storage smoke listing failed", logger.ErrorFields("list", err))
		return
	}
	preview := keys
	if len(preview) > 5 {
		preview = preview[:5]
	}
	log.Info("Storage smoke listing", map[string]interface{}{
		logger.FieldPath: smokePrefix,
		"count":          len(keys),
		"first":          strings.Join(preview, ","),
	})
}
