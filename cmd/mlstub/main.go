// Command mlstub отдаёт классификатор риска по gRPC (heartrisk.v1.Classifier).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Krimson/heart-risk/internal/app"
	"github.com/Krimson/heart-risk/internal/config"
	"github.com/Krimson/heart-risk/internal/grpcapi"
	"github.com/Krimson/heart-risk/internal/health"
	"github.com/Krimson/heart-risk/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("mlstub stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	classifier, closers, err := app.LoadClassifier(ctx, cfg, logger, false)
	defer closers.Close()
	if err != nil {
		logger.Warn("serving without model", slog.String("error", err.Error()))
	}

	grpcServer := grpc.NewServer()
	grpcapi.Register(grpcServer, grpcapi.NewClassifierServer(classifier, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	address := fmt.Sprintf(":%s", cfg.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	healthServer.SetServing(grpcapi.ServiceName, classifier != nil)
	logger.Info("classifier service listening",
		slog.String("addr", address),
		slog.Bool("model_loaded", classifier != nil))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- grpcServer.Serve(listener)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("gRPC server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	healthServer.SetServing(grpcapi.ServiceName, false)

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		logger.Warn("graceful shutdown timeout, forcing stop")
		grpcServer.Stop()
	}
	return nil
}
