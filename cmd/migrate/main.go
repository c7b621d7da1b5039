package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"errdeck/internal/platform/config"
	"errdeck/internal/platform/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	mgr, ok := store.(storage.SchemaManager)
	if !ok {
		log.Fatalf("Storage driver %q cannot manage its own schema", cfg.Storage.Driver)
	}

	log.Printf("Applying schema for %s", store.Name())
	if err := mgr.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	fmt.Println("Migration completed successfully")
}
