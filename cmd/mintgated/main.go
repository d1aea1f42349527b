package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"mintgate/config"
	"mintgate/core"
	"mintgate/core/state"
	"mintgate/observability/logging"
	"mintgate/rpc"
	"mintgate/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("MINTGATE_ENV"))
	logger := logging.Setup("mintgated", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data dir", "err", err)
		os.Exit(1)
	}
	db, err := storage.NewBoltDB(filepath.Join(cfg.DataDir, "mintgate.db"))
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(state.NewManager(db), cfg.EventBacklog)

	genesis, err := cfg.Genesis.CoreGenesis()
	if err != nil {
		logger.Error("invalid genesis block", "err", err)
		os.Exit(1)
	}
	if err := node.ApplyGenesis(genesis); err != nil {
		logger.Error("failed to apply genesis", "err", err)
		os.Exit(1)
	}

	server := rpc.NewServer(node, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.RPCAddress)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("rpc server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}
}
