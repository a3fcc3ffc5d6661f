package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/johnniedom/FundBrave-sub002/chain"
	"github.com/johnniedom/FundBrave-sub002/config"
	"github.com/johnniedom/FundBrave-sub002/database"
	"github.com/johnniedom/FundBrave-sub002/indexer"
	"github.com/johnniedom/FundBrave-sub002/logger"
	"github.com/johnniedom/FundBrave-sub002/monitor"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	cfg, err := config.BuildConfig()
	if err != nil {
		fmt.Println("Config error: ", err)
		return
	}
	config.GlobalConfigCallback.Call(cfg)
	logger.Info("Running with %d chains and %d contracts configured", len(cfg.Chains), len(cfg.Contracts))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Only the persistence layer is allowed to kill the process; everything
	// downstream degrades per chain or per event.
	db, err := database.ConnectAndInitialize(&cfg.DB)
	if err != nil {
		logger.Fatal("Database connect and initialize error: %s", err)
	}

	registry := chain.NewRegistry(ctx, cfg.Chains)
	defer registry.Close()
	if len(registry.Included()) == 0 {
		logger.Warn("No chains available, only the monitor endpoint will run")
	}

	if cfg.Monitor.Address != "" {
		go monitor.NewServer(db, registry, cfg.Monitor.Address).Run(ctx)
	}

	runtime := indexer.NewRuntime(cfg, db, registry)
	go func() {
		<-ctx.Done()
		runtime.Stop()
	}()

	if err := runtime.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Indexer run error: %s", err)
	}

	logger.SyncFileLogger()
}
