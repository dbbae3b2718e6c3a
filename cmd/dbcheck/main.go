// Command dbcheck verifies DATABASE_URL: it connects, ensures the schema
// and prints the server version and stored job count.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go-actuarylist-scraper/internal/config"
	"go-actuarylist-scraper/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireDatabase(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Attempting to connect to PostgreSQL...")
	repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to the database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Schema check failed: %v\n", err)
		os.Exit(1)
	}

	version, err := repo.Version(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	count, err := repo.CountJobs(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database version:", version)
	fmt.Printf("Jobs stored: %d\n", count)
}
