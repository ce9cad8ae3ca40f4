package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// These tests require a running Neo4j instance at bolt://localhost:7687
// (user neo4j, password "password"). They are skipped under -short.

func createTestDriver() (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext("bolt://localhost:7687", neo4j.BasicAuth("neo4j", "password", ""))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return driver, nil
}

func testUserID(suffix string) string {
	return fmt.Sprintf("test-%s-%s", time.Now().Format("20060102150405"), suffix)
}

func cleanupUsers(ctx context.Context, driver neo4j.DriverWithContext, userIDs ...string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	for _, id := range userIDs {
		_, _ = session.Run(ctx, "MATCH (u:User {id: $id}) DETACH DELETE u", map[string]interface{}{"id": id})
	}
}

func TestRepository_UpsertCharacteristic_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	userID := testUserID("idem")
	defer cleanupUsers(ctx, driver, userID)

	// Write the same pair twice; the second write must be a no-op
	for i := 0; i < 2; i++ {
		if err := repo.UpsertCharacteristic(ctx, userID, "  Skills ", " rust "); err != nil {
			t.Fatalf("UpsertCharacteristic failed on attempt %d: %v", i+1, err)
		}
	}

	characteristics, err := repo.GetCharacteristics(ctx, userID)
	if err != nil {
		t.Fatalf("GetCharacteristics failed: %v", err)
	}
	if len(characteristics) != 1 {
		t.Errorf("Expected exactly 1 characteristic, got %d", len(characteristics))
	}
	if characteristics["skills"] != "rust" {
		t.Errorf("Expected normalized skills=rust, got %q", characteristics["skills"])
	}

	// Exactly one HAS edge must exist
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	result, err := session.Run(ctx,
		"MATCH (u:User {id: $id})-[e:HAS]->(c:Characteristic {name: 'skills', value: 'rust'}) RETURN count(e) as edges",
		map[string]interface{}{"id": userID})
	if err != nil {
		t.Fatalf("Edge count query failed: %v", err)
	}
	if result.Next(ctx) {
		if edges := getInt64FromRecord(result.Record(), "edges"); edges != 1 {
			t.Errorf("Expected exactly 1 HAS edge, got %d", edges)
		}
	} else {
		t.Error("Edge count query returned no record")
	}
}

func TestRepository_UpsertCharacteristic_RejectsEmpty(t *testing.T) {
	repo := &Repository{}
	ctx := context.Background()

	if err := repo.UpsertCharacteristic(ctx, "u1", "   ", "rust"); err == nil {
		t.Error("Expected error for empty name")
	}
	if err := repo.UpsertCharacteristic(ctx, "u1", "skills", "  "); err == nil {
		t.Error("Expected error for empty value")
	}
}

func TestRepository_FindUsersByCharacteristics_EmptyCriteria(t *testing.T) {
	repo := &Repository{}

	// Empty criteria means no match, not match-everyone; no query is issued
	ids, err := repo.FindUsersByCharacteristics(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("FindUsersByCharacteristics failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty result for empty criteria, got %v", ids)
	}
}

func TestRepository_FindUsersByCharacteristics_Conjunctive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	u1 := testUserID("match1")
	u2 := testUserID("match2")
	u3 := testUserID("match3")
	defer cleanupUsers(ctx, driver, u1, u2, u3)

	seed := []struct {
		user, name, value string
	}{
		{u1, "city", "berlin"},
		{u1, "role", "engineer"},
		{u2, "city", "berlin"},
		{u3, "city", "berlin"},
		{u3, "role", "engineer"},
	}
	for _, s := range seed {
		if err := repo.UpsertCharacteristic(ctx, s.user, s.name, s.value); err != nil {
			t.Fatalf("Seed write failed: %v", err)
		}
	}

	ids, err := repo.FindUsersByCharacteristics(ctx, map[string]string{"city": "berlin", "role": "engineer"})
	if err != nil {
		t.Fatalf("FindUsersByCharacteristics failed: %v", err)
	}

	found := make(map[string]bool, len(ids))
	for _, id := range ids {
		found[id] = true
	}
	if !found[u1] || !found[u3] {
		t.Errorf("Expected both %s and %s in results, got %v", u1, u3, ids)
	}
	if found[u2] {
		t.Errorf("User %s lacks the role characteristic and must not match", u2)
	}
}

func TestRepository_FindSimilarUsers_Ranking(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	u1 := testUserID("sim1")
	u2 := testUserID("sim2")
	u3 := testUserID("sim3")
	u4 := testUserID("sim4")
	defer cleanupUsers(ctx, driver, u1, u2, u3, u4)

	seed := []struct {
		user, name, value string
	}{
		{u1, "city", "berlin"},
		{u1, "role", "engineer"},
		{u1, "hobbies", "climbing"},
		// u2 shares one characteristic with u1
		{u2, "city", "berlin"},
		// u3 shares all three
		{u3, "city", "berlin"},
		{u3, "role", "engineer"},
		{u3, "hobbies", "climbing"},
		// u4 shares nothing
		{u4, "city", "lisbon"},
	}
	for _, s := range seed {
		if err := repo.UpsertCharacteristic(ctx, s.user, s.name, s.value); err != nil {
			t.Fatalf("Seed write failed: %v", err)
		}
	}

	ids, err := repo.FindSimilarUsers(ctx, u1, 5)
	if err != nil {
		t.Fatalf("FindSimilarUsers failed: %v", err)
	}

	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}

	if _, ok := pos[u1]; ok {
		t.Error("Query subject must never appear in its own similarity results")
	}
	if _, ok := pos[u4]; ok {
		t.Error("User with disjoint characteristics must not appear")
	}
	p3, ok3 := pos[u3]
	p2, ok2 := pos[u2]
	if !ok3 || !ok2 {
		t.Fatalf("Expected both %s and %s in results, got %v", u2, u3, ids)
	}
	if p3 >= p2 {
		t.Errorf("User sharing 3 characteristics must rank above one sharing 1: got order %v", ids)
	}
}
