package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"shobergarden/pkg/genome"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testEpoch} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *testClock) {
	t.Helper()
	clock := newTestClock()
	base := []ServiceOption{WithClock(clock), WithRandomSource(genome.NewSeeded(7))}
	return NewInMemoryService(nil, append(base, opts...)...), clock
}

// gardener opens a wallet and mints count pets for owner.
func gardener(t *testing.T, svc *Service, owner string, count int) []Pet {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.OpenWallet(ctx, owner); err != nil {
		t.Fatalf("open wallet %s: %v", owner, err)
	}
	pets := make([]Pet, 0, count)
	for i := 0; i < count; i++ {
		pet, err := svc.MintPet(ctx, owner, "Pet")
		if err != nil {
			t.Fatalf("mint for %s: %v", owner, err)
		}
		pets = append(pets, pet)
	}
	return pets
}

func mustWallet(t *testing.T, svc *Service, owner string) Wallet {
	t.Helper()
	w, err := svc.Wallet(owner)
	if err != nil {
		t.Fatalf("wallet %s: %v", owner, err)
	}
	return w
}
