package core

import (
	"context"
	"fmt"
	"shobergarden/pkg/breeding"
	"shobergarden/pkg/genome"
	"time"
)

// BreedingOutcome is a committed breed: the persisted child, the engine
// result it came from and what the breeder paid.
type BreedingOutcome struct {
	Child   Pet             `json:"child"`
	Result  breeding.Result `json:"result"`
	Cost    int             `json:"cost"`
	StudFee int             `json:"stud_fee,omitempty"`
}

// BreedPets breeds two of the owner's pets. Ownership, eligibility and funds
// are checked in the same transaction that debits the cost and stores the
// child, so two concurrent calls on one pair cannot both succeed.
func (s *Service) BreedPets(ctx context.Context, ownerID, pet1ID, pet2ID string) (BreedingOutcome, error) {
	if pet1ID == pet2ID {
		return BreedingOutcome{}, ErrSelfBreeding
	}
	var outcome BreedingOutcome
	meta := &opMeta{entity: EntityPet, ownerID: ownerID}
	_, err := s.run(ctx, "breed_pets", meta, func(tx Transaction) error {
		p1, err := ownedPet(tx, ownerID, pet1ID)
		if err != nil {
			return err
		}
		p2, err := ownedPet(tx, ownerID, pet2ID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := checkEligible(now, p1, p2); err != nil {
			return err
		}
		cost := breeding.Cost(p1.Generation, p2.Generation)
		child, result, err := s.breedInTx(tx, p1, p2, ownerID, TransferBreed)
		if err != nil {
			return err
		}
		if _, err := debit(tx, ownerID, cost, LedgerBreedingCost, child.ID, fmt.Sprintf("bred %s with %s", p1.Name, p2.Name)); err != nil {
			return err
		}
		meta.entityID = child.ID
		outcome = BreedingOutcome{Child: child, Result: result, Cost: cost}
		return nil
	})
	if err != nil {
		return BreedingOutcome{}, err
	}
	return outcome, nil
}

func checkEligible(now time.Time, pets ...Pet) error {
	for _, p := range pets {
		if elig := p.Eligibility(now); !elig.CanBreed {
			return IneligibleError{PetID: p.ID, Eligibility: elig}
		}
	}
	return nil
}

// breedInTx runs the engine on two parents, stores the child for childOwner
// and puts both parents on cooldown.
func (s *Service) breedInTx(tx Transaction, p1, p2 Pet, childOwner string, transfer TransferType) (Pet, breeding.Result, error) {
	result := s.engine.Breed(p1.DNA, p2.DNA, p1.Generation, p2.Generation)
	child, err := tx.CreatePet(Pet{
		OwnerID:     childOwner,
		Name:        ChildName,
		DNA:         result.ChildDNA,
		Generation:  result.ChildGeneration,
		Parent1ID:   &p1.ID,
		Parent2ID:   &p2.ID,
		RarityScore: genome.Decode(result.ChildDNA).RarityScore,
	})
	if err != nil {
		return Pet{}, breeding.Result{}, err
	}
	cooldowns := map[string]time.Time{p1.ID: result.CooldownEnd1, p2.ID: result.CooldownEnd2}
	for id, until := range cooldowns {
		if _, err := tx.UpdatePet(id, func(p *Pet) error {
			p.BreedingCooldownUntil = &until
			p.BreedingCount++
			return nil
		}); err != nil {
			return Pet{}, breeding.Result{}, err
		}
	}
	if _, err := tx.CreateOwnershipRecord(OwnershipRecord{PetID: child.ID, ToOwnerID: childOwner, TransferType: transfer}); err != nil {
		return Pet{}, breeding.Result{}, err
	}
	return child, result, nil
}
