// The importer reads a query document and persists its network (stops, road
// distances, lines) into PostgreSQL, replacing whatever network was stored
// before. Stat requests in the document are ignored.
package main

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/citybus/citybus_core/internal/db"
	"github.com/citybus/citybus_core/internal/ingest"
)

func main() {
	path := getEnv("NETWORK_FILE", "network.json")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	log.Printf("Importing network from %s...", path)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open network file: %v", err)
	}
	defer f.Close()

	doc, err := ingest.Decode(f)
	if err != nil {
		log.Fatalf("Failed to decode network file: %v", err)
	}
	if len(doc.BaseRequests) == 0 {
		log.Fatalf("Document %s contains no base requests", path)
	}

	pool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := db.NewRepository(pool)

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	runID := uuid.New().String()
	if err := repo.SaveNetwork(ctx, doc.BaseRequests, runID); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import completed (run %s)", runID)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
