package core

import (
	"errors"
	"fmt"
	"shobergarden/pkg/breeding"
)

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

var (
	// ErrSelfBreeding rejects breeding a pet with itself.
	ErrSelfBreeding = errors.New("cannot breed a pet with itself")
	// ErrNotOwner rejects acting on a pet or listing owned by someone else.
	ErrNotOwner = errors.New("caller does not own this pet")
	// ErrAlreadyListed rejects listing a pet twice.
	ErrAlreadyListed = errors.New("pet is already listed for sale")
	// ErrOnlyPet rejects selling an owner's only active pet.
	ErrOnlyPet = errors.New("cannot sell your only active pet")
	// ErrOwnListing rejects buying one's own listing.
	ErrOwnListing = errors.New("cannot buy your own listing")
	// ErrNoBlobStore is returned by exports when no blob store is configured.
	ErrNoBlobStore = errors.New("no blob store configured")
	// ErrRequestClosed is returned for stud requests that are no longer pending.
	ErrRequestClosed = errors.New("stud request is no longer open")
	// ErrAlreadyGenerated is returned when generating DNA for a pet that has it.
	ErrAlreadyGenerated = errors.New("pet dna already generated")
	// ErrInvalidInput wraps argument validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// IneligibleError reports a parent that cannot breed right now.
type IneligibleError struct {
	PetID       string
	Eligibility breeding.Eligibility
}

func (e IneligibleError) Error() string {
	return fmt.Sprintf("pet %s cannot breed: %s", e.PetID, e.Eligibility.Reason)
}

// InsufficientFundsError reports a wallet that cannot cover a debit.
type InsufficientFundsError struct {
	Need int
	Have int
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient coins: need %d, have %d", e.Need, e.Have)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
