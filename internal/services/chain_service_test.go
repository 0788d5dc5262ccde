package services

import (
	"fmt"
	"testing"
)

func TestResolveChainOrderAndLevels(t *testing.T) {
	db := setupTestDB(t, "chain_order")
	svc := NewChainService(db)

	root := createUser(t, db, "chain-root@test", nil, testStart)
	mid := createUser(t, db, "chain-mid@test", &root.ID, testStart)
	leaf := createUser(t, db, "chain-leaf@test", &mid.ID, testStart)

	chain, err := svc.ResolveChain(leaf.ID, 10)
	if err != nil {
		t.Fatalf("ResolveChain failed: %v", err)
	}

	if len(chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(chain))
	}
	if chain[0].UserID != mid.ID || chain[0].Level != 1 {
		t.Errorf("level 1: expected user %d, got %+v", mid.ID, chain[0])
	}
	if chain[1].UserID != root.ID || chain[1].Level != 2 {
		t.Errorf("level 2: expected user %d, got %+v", root.ID, chain[1])
	}
}

func TestResolveChainRootIsEmpty(t *testing.T) {
	db := setupTestDB(t, "chain_root")
	svc := NewChainService(db)

	root := createUser(t, db, "lone-root@test", nil, testStart)

	chain, err := svc.ResolveChain(root.ID, 10)
	if err != nil {
		t.Fatalf("ResolveChain failed: %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("expected empty chain, got %d links", len(chain))
	}
}

func TestResolveChainDepthBound(t *testing.T) {
	db := setupTestDB(t, "chain_depth")
	svc := NewChainService(db)

	var sponsorID *uint
	var bottomID uint
	for i := 0; i < 15; i++ {
		user := createUser(t, db, fmt.Sprintf("deep%d@test", i), sponsorID, testStart)
		sponsorID = &user.ID
		bottomID = user.ID
	}

	chain, err := svc.ResolveChain(bottomID, 10)
	if err != nil {
		t.Fatalf("ResolveChain failed: %v", err)
	}
	if len(chain) != 10 {
		t.Errorf("expected chain capped at 10, got %d", len(chain))
	}
	for i, link := range chain {
		if link.Level != i+1 {
			t.Errorf("link %d: expected level %d, got %d", i, i+1, link.Level)
		}
	}
}

func TestResolveChainMissingUser(t *testing.T) {
	db := setupTestDB(t, "chain_missing")
	svc := NewChainService(db)

	chain, err := svc.ResolveChain(9999, 10)
	if err != nil {
		t.Fatalf("missing user must not be an error, got %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("expected empty chain for missing user, got %d", len(chain))
	}
}

func TestDownlineBreadthFirst(t *testing.T) {
	db := setupTestDB(t, "chain_downline")
	svc := NewChainService(db)

	// root -> {a, b}; a -> {c}; c -> {d}
	root := createUser(t, db, "dl-root@test", nil, testStart)
	a := createUser(t, db, "dl-a@test", &root.ID, testStart)
	createUser(t, db, "dl-b@test", &root.ID, testStart)
	c := createUser(t, db, "dl-c@test", &a.ID, testStart)
	createUser(t, db, "dl-d@test", &c.ID, testStart)

	downline, err := svc.Downline(root.ID)
	if err != nil {
		t.Fatalf("Downline failed: %v", err)
	}
	if len(downline) != 4 {
		t.Errorf("expected downline of 4, got %d", len(downline))
	}

	// A deeper node sees only its own subtree
	leafDownline, err := svc.Downline(c.ID)
	if err != nil {
		t.Fatalf("Downline failed: %v", err)
	}
	if len(leafDownline) != 1 {
		t.Errorf("expected downline of 1 for c, got %d", len(leafDownline))
	}
}
