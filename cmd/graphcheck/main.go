// graphcheck loads a network, expands the routing graph and reports its
// shape: vertex and edge counts plus the per-line scalars. Run it after an
// import to sanity-check what the API will serve.
package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/citybus/citybus_core/internal/db"
	"github.com/citybus/citybus_core/internal/engine"
	"github.com/citybus/citybus_core/internal/ingest"
	"github.com/citybus/citybus_core/internal/models"
)

func main() {
	settings := settingsFromEnv()

	var eng *engine.Engine
	switch source := getEnv("NETWORK_SOURCE", "file"); source {
	case "file":
		path := getEnv("NETWORK_FILE", "network.json")
		if len(os.Args) > 1 {
			path = os.Args[1]
		}
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("Failed to open network file: %v", err)
		}
		doc, err := ingest.Decode(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to decode network file: %v", err)
		}
		eng = engine.New(doc.Settings(settings))
		if err := ingest.Apply(doc, eng); err != nil {
			log.Fatalf("Failed to apply network: %v", err)
		}
	case "db":
		pool, err := db.Connect()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		eng = engine.New(settings)
		if err := db.NewRepository(pool).LoadNetwork(context.Background(), eng); err != nil {
			log.Fatalf("Failed to load network: %v", err)
		}
	default:
		log.Fatalf("Unknown NETWORK_SOURCE %q (want file or db)", source)
	}

	cat := eng.Catalog()
	rg := eng.RouteGraph()

	log.Printf("Network: %d stops, %d lines", cat.StopCount(), cat.LineCount())
	log.Printf("Routing graph: %d vertices, %d edges", rg.Graph().VertexCount(), rg.Graph().EdgeCount())

	for _, name := range cat.LineNames() {
		info, err := eng.InfoForLine(name)
		if err != nil {
			log.Printf("Warning: line %q: %v", name, err)
			continue
		}
		log.Printf("  line %-12s stops=%-4d unique=%-4d length=%.0fm curvature=%.4f",
			name, info.StopCount, info.UniqueStopCount, info.RouteLength, info.Curvature)
	}
}

func settingsFromEnv() models.Settings {
	velocity, _ := strconv.ParseFloat(getEnv("BUS_VELOCITY_KMH", "40"), 64)
	wait, _ := strconv.ParseFloat(getEnv("BUS_WAIT_TIME_MIN", "6"), 64)
	return models.Settings{VelocityKMH: velocity, WaitTimeMin: wait}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
