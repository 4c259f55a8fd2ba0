package main

import (
	"context"
	"flag"
	"log"

	"ecommerce-payments/internal/config"
	"ecommerce-payments/internal/infra/db/postgres"
)

// This script prepares a clean, predictable database state for manual
// end-to-end testing: it creates the audit schema and empties it.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/2] Creating processor_responses table...")
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS processor_responses (
			id             TEXT PRIMARY KEY,
			processor      TEXT NOT NULL,
			transaction_id TEXT,
			basket_id      TEXT NOT NULL,
			order_number   TEXT NOT NULL,
			response       JSONB NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_processor_responses_basket
			ON processor_responses (basket_id);
		CREATE INDEX IF NOT EXISTS idx_processor_responses_transaction
			ON processor_responses (transaction_id);
	`)
	if err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}

	log.Println("[2/2] Wiping existing audit records...")
	if _, err := pool.Exec(ctx, `TRUNCATE processor_responses;`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}
