package main

import (
	"context"
	"log"

	"github.com/TomTitou1406/IA-DEMO-sub000/internal/config"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/handler"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/httpserver"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/mq"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/outbox"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/repository"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/compiler"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/pool"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/progress"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/service/workflow"
	"github.com/TomTitou1406/IA-DEMO-sub000/internal/syncclient"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/db"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/logger"
	"github.com/TomTitou1406/IA-DEMO-sub000/pkg/redisclient"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl := logger.NewLogger()
	defer zl.Sync()

	dbConn, err := db.NewConnection(cfg.DB, zl)
	if err != nil {
		zl.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()

	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init producer: %v", err)
	}
	defer producer.Close()

	store := repository.NewStore(dbConn, zl)

	cache := progress.NewViewCache(rdb, cfg.ProgressTTL(), zl)
	progressService := progress.NewService(store, cache, zl)
	engine := workflow.NewEngine(store, zl)
	poolService := pool.NewService(store, zl)
	syncClient := syncclient.New(cfg.Sync.BaseURL)
	resourceCompiler := compiler.New(store, poolService, syncClient, zl)

	entityHandler := handler.NewEntityHandler(store, zl)
	workflowHandler := handler.NewWorkflowHandler(engine, progressService, zl)
	progressHandler := handler.NewProgressHandler(progressService, zl)
	resourceHandler := handler.NewResourceHandler(resourceCompiler, poolService, zl)

	// Outbox dispatcher drains committed events into the broker.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, producer, zl)
	go dispatcher.Start(ctx)

	eventHandler := handler.NewEventHandler(outboxRepo, zl)

	router := httpserver.NewRouter(entityHandler, workflowHandler, progressHandler, resourceHandler, eventHandler)
	if err := router.Run(cfg.Server.Port); err != nil {
		zl.Fatal("server start failed", zap.Error(err))
	}
}
