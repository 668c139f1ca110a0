package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"possync/api"
	"possync/internal/admin"
	"possync/internal/catalog"
	"possync/internal/config"
	"possync/internal/persist"
	"possync/internal/report"
	"possync/internal/syncer"
)

func main() {
	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var adapter persist.Adapter = persist.NewMemory()
	if cfg.DatabaseDSN != "" {
		db, err := persist.OpenSQLite(cfg.DatabaseDSN)
		if err != nil {
			// Degraded but usable: everything lives in memory until restart.
			logger.Warn("durable backend unavailable, running memory-only", zap.Error(err))
		} else {
			adapter = db
			defer db.Close()
		}
	}

	loc := time.Local
	if cfg.ReportTZ != "" {
		l, err := time.LoadLocation(cfg.ReportTZ)
		if err != nil {
			logger.Warn("invalid REPORT_TZ, using local zone", zap.String("tz", cfg.ReportTZ))
		} else {
			loc = l
		}
	}

	syncService := syncer.NewService(adapter, logger)
	catalogService := catalog.NewService(adapter, logger, cfg.ChunkSize)
	reportService := report.NewService(syncService, loc, logger)
	adminService := admin.NewService(catalogService, adapter, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for name, warm := range map[string]func(context.Context) error{
		"sales":      syncService.Warm,
		"catalog":    catalogService.Warm,
		"promotions": adminService.Warm,
	} {
		if err := warm(ctx); err != nil {
			logger.Warn("warm cache rebuild failed", zap.String("collection", name), zap.Error(err))
		}
	}

	r := gin.Default()
	api.InitRoutes(r, api.Deps{
		Sync:    syncService,
		Catalog: catalogService,
		Reports: reportService,
		Admin:   adminService,
		Secret:  cfg.OwnerSecret,
		Logger:  logger,
	})

	logger.Info("coordinator listening", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
