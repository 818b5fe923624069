package core

import (
	"context"
	"fmt"
	"shobergarden/pkg/breeding"
)

// StudDirection selects which side of a stud request ListStudRequests returns.
type StudDirection string

// Directions.
const (
	StudIncoming StudDirection = "incoming"
	StudOutgoing StudDirection = "outgoing"
	StudAll      StudDirection = "all"
)

// RequestStud asks the owner of targetPetID to breed it with the requester's
// pet for a fee. A zero fee uses breeding.StudFee for the target.
func (s *Service) RequestStud(ctx context.Context, requesterID, requesterPetID, targetPetID string, fee int) (StudRequest, error) {
	if fee < 0 {
		return StudRequest{}, invalidf("stud fee must not be negative")
	}
	if requesterPetID == targetPetID {
		return StudRequest{}, ErrSelfBreeding
	}
	var created StudRequest
	meta := &opMeta{entity: EntityStudRequest, ownerID: requesterID}
	_, err := s.run(ctx, "request_stud", meta, func(tx Transaction) error {
		if _, err := ownedPet(tx, requesterID, requesterPetID); err != nil {
			return err
		}
		target, err := findPet(tx, targetPetID)
		if err != nil {
			return err
		}
		if target.OwnerID == requesterID {
			return invalidf("pet %s is yours; breed it directly", targetPetID)
		}
		if fee == 0 {
			fee = breeding.StudFee(target.RarityScore, target.Generation)
		}
		created, err = tx.CreateStudRequest(StudRequest{
			RequesterID:    requesterID,
			RequesterPetID: requesterPetID,
			TargetID:       target.OwnerID,
			TargetPetID:    targetPetID,
			StudFee:        fee,
			Status:         StudPending,
			ExpiresAt:      s.clock.Now().UTC().Add(s.studTTL),
		})
		meta.entityID = created.ID
		return err
	})
	return created, err
}

// AcceptStud performs the requested breed. The requester pays the breeding
// cost plus the stud fee, the fee is credited to the target owner and the
// child goes to the requester. An expired request is marked expired and
// ErrRequestClosed returned.
func (s *Service) AcceptStud(ctx context.Context, targetOwnerID, requestID string) (BreedingOutcome, error) {
	var (
		outcome BreedingOutcome
		expired bool
	)
	meta := &opMeta{entity: EntityStudRequest, entityID: requestID, ownerID: targetOwnerID}
	_, err := s.run(ctx, "accept_stud", meta, func(tx Transaction) error {
		req, ok := tx.FindStudRequest(requestID)
		if !ok {
			return ErrNotFound{Entity: EntityStudRequest, ID: requestID}
		}
		if req.TargetID != targetOwnerID {
			return ErrNotOwner
		}
		if req.Status != StudPending {
			return ErrRequestClosed
		}
		now := s.clock.Now()
		if !req.Open(now) {
			expired = true
			_, err := tx.UpdateStudRequest(requestID, func(r *StudRequest) error {
				r.Status = StudExpired
				return nil
			})
			return err
		}
		mine, err := ownedPet(tx, req.RequesterID, req.RequesterPetID)
		if err != nil {
			return err
		}
		stud, err := ownedPet(tx, req.TargetID, req.TargetPetID)
		if err != nil {
			return err
		}
		if err := checkEligible(now, mine, stud); err != nil {
			return err
		}
		cost := breeding.Cost(mine.Generation, stud.Generation)
		wallet, ok := tx.FindWallet(req.RequesterID)
		if !ok {
			return ErrNotFound{Entity: EntityWallet, ID: req.RequesterID}
		}
		if need := cost + req.StudFee; wallet.Coins < need {
			return InsufficientFundsError{Need: need, Have: wallet.Coins}
		}
		child, result, err := s.breedInTx(tx, mine, stud, req.RequesterID, TransferStud)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("stud %s with %s", mine.Name, stud.Name)
		if _, err := debit(tx, req.RequesterID, cost, LedgerBreedingCost, child.ID, desc); err != nil {
			return err
		}
		if req.StudFee > 0 {
			if _, err := debit(tx, req.RequesterID, req.StudFee, LedgerStudFeePaid, req.ID, desc); err != nil {
				return err
			}
			if _, err := credit(tx, req.TargetID, req.StudFee, LedgerStudFeeEarned, req.ID, desc, true); err != nil {
				return err
			}
		}
		if _, err := tx.UpdateStudRequest(requestID, func(r *StudRequest) error {
			r.Status = StudAccepted
			r.ChildID = &child.ID
			return nil
		}); err != nil {
			return err
		}
		outcome = BreedingOutcome{Child: child, Result: result, Cost: cost, StudFee: req.StudFee}
		return nil
	})
	if err != nil {
		return BreedingOutcome{}, err
	}
	if expired {
		return BreedingOutcome{}, ErrRequestClosed
	}
	return outcome, nil
}

// DeclineStud closes a pending request. Either party may decline.
func (s *Service) DeclineStud(ctx context.Context, ownerID, requestID string) (StudRequest, error) {
	var updated StudRequest
	meta := &opMeta{entity: EntityStudRequest, entityID: requestID, ownerID: ownerID}
	_, err := s.run(ctx, "decline_stud", meta, func(tx Transaction) error {
		req, ok := tx.FindStudRequest(requestID)
		if !ok {
			return ErrNotFound{Entity: EntityStudRequest, ID: requestID}
		}
		if req.TargetID != ownerID && req.RequesterID != ownerID {
			return ErrNotOwner
		}
		if req.Status != StudPending {
			return ErrRequestClosed
		}
		var err error
		updated, err = tx.UpdateStudRequest(requestID, func(r *StudRequest) error {
			r.Status = StudDeclined
			return nil
		})
		return err
	})
	return updated, err
}

// ListStudRequests returns the owner's requests in the given direction.
// Pending requests past their expiry are reported as expired.
func (s *Service) ListStudRequests(ownerID string, dir StudDirection) []StudRequest {
	now := s.clock.Now()
	var out []StudRequest
	for _, r := range s.store.ListStudRequests() {
		incoming := r.TargetID == ownerID
		outgoing := r.RequesterID == ownerID
		switch dir {
		case StudIncoming:
			if !incoming {
				continue
			}
		case StudOutgoing:
			if !outgoing {
				continue
			}
		default:
			if !incoming && !outgoing {
				continue
			}
		}
		if r.Status == StudPending && !r.Open(now) {
			r.Status = StudExpired
		}
		out = append(out, r)
	}
	return out
}
