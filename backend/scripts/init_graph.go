// Initializes the Neo4j schema constraints and optionally seeds demo users.
//
// Usage: go run backend/scripts/init_graph.go [-seed]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"kindred/backend/internal/graph"
	"kindred/backend/pkg/config"
	"kindred/backend/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", false, "seed demo users with characteristics")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	ctx := context.Background()
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema", zap.Error(err))
	}
	log.Info("Graph schema initialized")

	if !*seed {
		return
	}

	demo := []struct {
		userID, name, value string
	}{
		{"1", "city", "berlin"},
		{"1", "role", "engineer"},
		{"1", "hobbies", "climbing"},
		{"2", "city", "berlin"},
		{"2", "hobbies", "photography"},
		{"3", "city", "berlin"},
		{"3", "role", "engineer"},
	}
	for _, d := range demo {
		if err := repo.UpsertCharacteristic(ctx, d.userID, d.name, d.value); err != nil {
			log.Fatal("Failed to seed characteristic",
				zap.String("user_id", d.userID),
				zap.Error(err),
			)
		}
	}
	log.Info("Seeded demo characteristics", zap.Int("count", len(demo)))
}
