package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	kerrors "kindred/backend/pkg/errors"
	"kindred/backend/pkg/logger"
)

// Repository handles all Neo4j database operations for the characteristic graph
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema creates the uniqueness constraints the graph relies on:
// one User node per id, one Characteristic node per (name, value) pair.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
		"CREATE CONSTRAINT characteristic_name_value IF NOT EXISTS FOR (c:Characteristic) REQUIRE (c.name, c.value) IS UNIQUE",
	}

	for _, stmt := range constraints {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return kerrors.NewGraphQueryFailed("ensure schema", err)
		}
	}

	r.logger.Info("Graph schema constraints ensured")
	return nil
}

// NormalizeCharacteristic applies the canonical form for a characteristic
// pair: name is trimmed and lower-cased, value is trimmed.
func NormalizeCharacteristic(name, value string) (string, string) {
	return strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(value)
}

// UpsertCharacteristic merges the user node, the characteristic node for the
// normalized (name, value) pair, and the HAS edge between them. The whole
// write is a single Cypher statement so it either fully applies or not at
// all, and repeating it is a no-op.
func (r *Repository) UpsertCharacteristic(ctx context.Context, userID, name, value string) error {
	name, value = NormalizeCharacteristic(name, value)
	if name == "" || value == "" {
		return fmt.Errorf("characteristic name and value must be non-empty")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {id: $userID})
		MERGE (c:Characteristic {name: $name, value: $value})
		MERGE (u)-[:HAS]->(c)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
		"name":   name,
		"value":  value,
	})
	if err != nil {
		return kerrors.NewGraphQueryFailed("upsert characteristic", err)
	}

	r.logger.Debug("Characteristic merged",
		zap.String("user_id", userID),
		zap.String("name", name),
	)
	return nil
}

// GetCharacteristics returns the full characteristic set for a user. When
// the graph holds several values under the same name, the last record read
// wins; the map shape exposes one value per name.
func (r *Repository) GetCharacteristics(ctx context.Context, userID string) (map[string]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})-[:HAS]->(c:Characteristic)
		RETURN c.name as name, c.value as value
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, kerrors.NewGraphQueryFailed("get characteristics", err)
	}

	characteristics := make(map[string]string)
	for result.Next(ctx) {
		record := result.Record()
		name := getStringFromRecord(record, "name")
		if name == "" {
			continue
		}
		characteristics[name] = getStringFromRecord(record, "value")
	}
	if err := result.Err(); err != nil {
		return nil, kerrors.NewGraphQueryFailed("get characteristics", err)
	}

	return characteristics, nil
}
