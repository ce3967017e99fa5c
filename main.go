package main

import (
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/api"
	"github.com/shlok2345788/dropout-front/internal/config"
	logger "github.com/shlok2345788/dropout-front/internal/logging"
	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/router"
	"github.com/shlok2345788/dropout-front/internal/schedule"
	"github.com/shlok2345788/dropout-front/internal/scores"
	"github.com/shlok2345788/dropout-front/internal/services"
	"github.com/shlok2345788/dropout-front/internal/store"
	"github.com/shlok2345788/dropout-front/internal/streak"
)

func main() {
	// Bootstrap logger until the configuration tells us where logs go.
	boot, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize bootstrap logger: " + err.Error())
	}

	cfg, err := config.Load(".", boot)
	if err != nil {
		boot.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(logger.Options{
		Directory:  cfg.Logging.Directory,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		boot.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	st, err := store.OpenSQLite(cfg.Store.Path, log)
	if err != nil {
		log.Fatal("Failed to open local store", zap.Error(err))
	}

	client, err := api.New(log, api.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create backend client", zap.Error(err))
	}

	forms, err := models.LoadFormSchemas(cfg.Forms.Path)
	if err != nil {
		log.Fatal("Failed to load form schemas", zap.Error(err))
	}

	tracker := streak.NewTracker(log, client, st, cfg.Streak.CacheTTL)
	book := scores.NewBook(log, st)
	planner := schedule.NewPlanner(log, st)

	scheduler := services.NewReminderScheduler(log, st)
	scheduler.Start()
	defer scheduler.Stop()

	r := router.Setup(log, cfg, forms, client, st, tracker, book, planner)

	addr := ":" + cfg.Server.Port
	log.Info("Server listening on http://localhost" + addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to run server", zap.Error(err))
	}
}
