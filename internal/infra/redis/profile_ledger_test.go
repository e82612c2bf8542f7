package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestProfileLedgerAppliesDeltas(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := NewProfileLedger(client)
	ctx := context.Background()

	if err := ledger.ApplyDelta(ctx, "s1", 10, 4); err != nil {
		t.Fatalf("apply delta: %v", err)
	}
	if err := ledger.ApplyDelta(ctx, "s1", 5, 0); err != nil {
		t.Fatalf("apply delta: %v", err)
	}

	profile, err := ledger.Profile(ctx, "s1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.XP != 15 || profile.Coins != 4 {
		t.Fatalf("expected accumulated 15/4, got %+v", profile)
	}
}

func TestProfileLedgerZeroForUnknownStudent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := NewProfileLedger(client)

	profile, err := ledger.Profile(context.Background(), "s-unknown")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.XP != 0 || profile.Coins != 0 {
		t.Fatalf("expected zero balances, got %+v", profile)
	}
}
