package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shobergarden/pkg/breeding"
)

func TestBreedPetsCommitsEverything(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	pets := gardener(t, svc, "alice", 2)

	out, err := svc.BreedPets(ctx, "alice", pets[0].ID, pets[1].ID)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if out.Cost != breeding.Cost(0, 0) || out.Cost != 100 {
		t.Fatalf("unexpected cost %d", out.Cost)
	}
	child := out.Child
	if child.Generation != 1 || child.OwnerID != "alice" || child.Name != ChildName || child.IsActive {
		t.Fatalf("unexpected child %+v", child)
	}
	if child.DNA != out.Result.ChildDNA || *child.Parent1ID != pets[0].ID || *child.Parent2ID != pets[1].ID {
		t.Fatalf("child does not match result: %+v", child)
	}
	if w := mustWallet(t, svc, "alice"); w.Coins != 400 || w.TotalSpent != 100 {
		t.Fatalf("unexpected wallet %+v", w)
	}
	wantCooldown := clock.Now().Add(4 * time.Hour)
	for _, id := range []string{pets[0].ID, pets[1].ID} {
		parent, _ := svc.Store().GetPet(id)
		if parent.BreedingCooldownUntil == nil || !parent.BreedingCooldownUntil.Equal(wantCooldown) || parent.BreedingCount != 1 {
			t.Fatalf("parent %s not updated: %+v", id, parent)
		}
	}
	ledger := svc.Ledger("alice")
	last := ledger[len(ledger)-1]
	if last.Kind != LedgerBreedingCost || last.Amount != -100 || last.ReferenceID != child.ID {
		t.Fatalf("unexpected ledger entry %+v", last)
	}
	history := svc.OwnershipHistory(child.ID)
	if len(history) != 1 || history[0].TransferType != TransferBreed {
		t.Fatalf("unexpected child ownership %+v", history)
	}
}

func TestBreedPetsRejectsSecondImmediateBreed(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	pets := gardener(t, svc, "alice", 2)
	if _, err := svc.BreedPets(ctx, "alice", pets[0].ID, pets[1].ID); err != nil {
		t.Fatalf("breed: %v", err)
	}
	_, err := svc.BreedPets(ctx, "alice", pets[0].ID, pets[1].ID)
	var inelig IneligibleError
	if !errors.As(err, &inelig) {
		t.Fatalf("expected IneligibleError, got %v", err)
	}
	if inelig.PetID != pets[0].ID || inelig.Eligibility.Reason != breeding.ReasonCooldownActive {
		t.Fatalf("unexpected ineligibility %+v", inelig)
	}
	if w := mustWallet(t, svc, "alice"); w.Coins != 400 {
		t.Fatalf("rejected breed must not charge: %+v", w)
	}

	clock.Advance(4 * time.Hour)
	if _, err := svc.BreedPets(ctx, "alice", pets[0].ID, pets[1].ID); err != nil {
		t.Fatalf("breed after cooldown: %v", err)
	}
}

func TestBreedPetsValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, WithStarterCoins(50))
	alice := gardener(t, svc, "alice", 2)
	bob := gardener(t, svc, "bob", 1)

	if _, err := svc.BreedPets(ctx, "alice", alice[0].ID, alice[0].ID); !errors.Is(err, ErrSelfBreeding) {
		t.Fatalf("expected ErrSelfBreeding, got %v", err)
	}
	if _, err := svc.BreedPets(ctx, "alice", alice[0].ID, bob[0].ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.BreedPets(ctx, "alice", alice[0].ID, "missing"); !errors.As(err, new(ErrNotFound)) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err := svc.BreedPets(ctx, "alice", alice[0].ID, alice[1].ID)
	var funds InsufficientFundsError
	if !errors.As(err, &funds) || funds.Need != 100 || funds.Have != 50 {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(svc.PetsByOwner("alice")) != 2 {
		t.Fatalf("failed breed must not create a child")
	}
	parent, _ := svc.Store().GetPet(alice[0].ID)
	if parent.BreedingCooldownUntil != nil {
		t.Fatalf("failed breed must not start a cooldown")
	}
}

func TestBreedPetsConcurrentSucceedsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	pets := gardener(t, svc, "alice", 2)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BreedPets(context.Background(), "alice", pets[0].ID, pets[1].ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.As(err, new(IneligibleError)) {
				rejected++
			}
		}()
	}
	wg.Wait()
	if successes != 1 || rejected != attempts-1 {
		t.Fatalf("expected one success, got %d successes and %d rejections", successes, rejected)
	}
	if w := mustWallet(t, svc, "alice"); w.Coins != 400 {
		t.Fatalf("expected a single debit, wallet %+v", w)
	}
	if n := len(svc.PetsByOwner("alice")); n != 3 {
		t.Fatalf("expected a single child, owner has %d pets", n)
	}
}

func TestBreedPetsGenerationCost(t *testing.T) {
	svc, clock := newTestService(t, WithStarterCoins(1000))
	ctx := context.Background()
	pets := gardener(t, svc, "alice", 4)
	a, err := svc.BreedPets(ctx, "alice", pets[0].ID, pets[1].ID)
	if err != nil {
		t.Fatalf("breed a: %v", err)
	}
	b, err := svc.BreedPets(ctx, "alice", pets[2].ID, pets[3].ID)
	if err != nil {
		t.Fatalf("breed b: %v", err)
	}
	clock.Advance(time.Minute)
	out, err := svc.BreedPets(ctx, "alice", a.Child.ID, b.Child.ID)
	if err != nil {
		t.Fatalf("breed gen1: %v", err)
	}
	if out.Cost != 85 || out.Child.Generation != 2 {
		t.Fatalf("unexpected gen1 breed cost %d generation %d", out.Cost, out.Child.Generation)
	}
}
