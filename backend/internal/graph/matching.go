package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	kerrors "kindred/backend/pkg/errors"
)

// FindUsersByCharacteristics returns the ids of every user holding a HAS
// edge to each (name, value) pair in criteria. The match is conjunctive:
// all pairs must be present. An empty criteria set matches nobody.
func (r *Repository) FindUsersByCharacteristics(ctx context.Context, criteria map[string]string) ([]string, error) {
	if len(criteria) == 0 {
		return []string{}, nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	conditions := make([]string, 0, len(criteria))
	params := make(map[string]interface{}, 2*len(criteria))
	i := 0
	for name, value := range criteria {
		name, value = NormalizeCharacteristic(name, value)
		conditions = append(conditions, fmt.Sprintf("(u)-[:HAS]->(:Characteristic {name: $name%d, value: $value%d})", i, i))
		params[fmt.Sprintf("name%d", i)] = name
		params[fmt.Sprintf("value%d", i)] = value
		i++
	}

	query := "MATCH (u:User) WHERE "
	for j, cond := range conditions {
		if j > 0 {
			query += " AND "
		}
		query += cond
	}
	query += " RETURN u.id as id"

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, kerrors.NewGraphQueryFailed("find users by characteristics", err)
	}

	var userIDs []string
	for result.Next(ctx) {
		if id := getStringFromRecord(result.Record(), "id"); id != "" {
			userIDs = append(userIDs, id)
		}
	}
	if err := result.Err(); err != nil {
		return nil, kerrors.NewGraphQueryFailed("find users by characteristics", err)
	}

	return userIDs, nil
}
