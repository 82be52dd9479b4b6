package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/consumer/worker"
	infraPkg "github.com/cinevault/cinevault/infra"
	"github.com/cinevault/cinevault/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconcileConsumer := worker.NewReconcileConsumer(infra.RabbitMQ.Channel, infra, repo)
	if err := reconcileConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start reconcile consumer: %v", err)
		log.Fatalf("Failed to start reconcile consumer: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel() // Cancel context to stop consumers

	infra.Logger.InfoWithContextf(context.Background(), "Consumer exited properly")
	infra.Shutdown(context.Background())
}
