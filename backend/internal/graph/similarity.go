package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	kerrors "kindred/backend/pkg/errors"
)

// DefaultSimilarityLimit bounds similarity results when callers pass no limit
const DefaultSimilarityLimit = 5

// FindSimilarUsers returns other users sharing at least one characteristic
// with the given user, ordered by descending count of shared (name, value)
// pairs. Equal counts are broken by ascending user id so the order is stable.
func (r *Repository) FindSimilarUsers(ctx context.Context, userID string, limit int) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	if limit < 1 {
		limit = DefaultSimilarityLimit
	}

	query := `
		MATCH (u1:User {id: $userID})-[:HAS]->(c:Characteristic)<-[:HAS]-(u2:User)
		WHERE u1 <> u2
		WITH u2, count(c) as shared
		RETURN u2.id as id
		ORDER BY shared DESC, u2.id ASC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
		"limit":  limit,
	})
	if err != nil {
		return nil, kerrors.NewGraphQueryFailed("find similar users", err)
	}

	var userIDs []string
	for result.Next(ctx) {
		if id := getStringFromRecord(result.Record(), "id"); id != "" {
			userIDs = append(userIDs, id)
		}
	}
	if err := result.Err(); err != nil {
		return nil, kerrors.NewGraphQueryFailed("find similar users", err)
	}

	return userIDs, nil
}
