package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"realestate_backend/internal/config"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "sync-properties" {
		syncCmd := flag.NewFlagSet("sync-properties", flag.ExitOnError)
		batchSize := syncCmd.Int("batch-size", 100, "Number of properties per bulk request")
		_ = syncCmd.Parse(os.Args[2:])
		os.Exit(syncProperties(*batchSize))
	}

	startServer()
}

// syncProperties bulk indexes every property into Elasticsearch.
func syncProperties(batchSize int) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("FATAL: Failed to load configuration for sync: %v", err)
		return 1
	}

	syncer, cleanup, err := initializeSyncer(cfg)
	if err != nil {
		log.Printf("FATAL: Failed to initialize property sync: %v", err)
		return 1
	}
	defer cleanup()

	synced, err := syncer.SyncAll(context.Background(), batchSize)
	if err != nil {
		log.Printf("ERROR: Property synchronization failed after %d documents: %v", synced, err)
		return 1
	}
	log.Printf("INFO: Property synchronization completed, %d documents indexed.", synced)
	return 0
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)
	case err := <-errCh:
		if err != nil {
			log.Printf("ERROR: Server stopped unexpectedly: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}
