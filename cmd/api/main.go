package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"honeyhive/internal/config"
	"honeyhive/internal/db"
	"honeyhive/internal/docstore"
	"honeyhive/internal/httpserver"
	"honeyhive/internal/kv"
	"honeyhive/internal/localstorage"
	catalogsvc "honeyhive/internal/service/catalog"
	checkoutsvc "honeyhive/internal/service/checkout"
	customersvc "honeyhive/internal/service/customer"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	rdb, err := kv.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	defer rdb.Close()

	docs := docstore.NewPostgres(dbpool)
	local := localstorage.NewRedis(rdb, "device:")
	catalogService := catalogsvc.New(docs)
	customerService := customersvc.New(docs)
	checkoutService := checkoutsvc.New(docs)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, rdb, httpserver.Deps{
		CatalogSvc:  catalogService,
		CustomerSvc: customerService,
		CheckoutSvc: checkoutService,
		Docs:        docs,
		Local:       local,
		AdminToken:  cfg.AdminToken,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
