package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/partsynth/internal/app"
	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := app.NewLogger(os.Stdout, true, slog.LevelInfo)
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(shutdownCtx)
	}()

	opts := []server.Option{
		server.WithRequestTimeout(server.DefaultRequestTimeout),
		server.WithGenerationBudget(cfg.Pipeline.Concurrency, cfg.Pipeline.ItemTimeout),
	}
	if a.Usage != nil {
		opts = append(opts, server.WithUsage(a.Usage), server.WithHealthCheck(a.DB))
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.New(a.Generator, logger, opts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health for orchestrators
	grpcServer, healthServer := server.NewGRPCHealth()
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		if a.DB != nil {
			go server.WatchHealth(ctx, healthServer, a.DB, 15*time.Second, logger)
		}
		go func() {
			logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("partsynthd listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
}
