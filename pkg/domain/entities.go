// Package domain defines the persistent entities of the garden economy and
// the rule evaluation primitives applied to every transaction.
package domain

import (
	"shobergarden/pkg/breeding"
	"shobergarden/pkg/genome"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPet identifies a pet record.
	EntityPet EntityType = "pet"
	// EntityWallet identifies a coin wallet.
	EntityWallet EntityType = "wallet"
	// EntityListing identifies a marketplace listing.
	EntityListing EntityType = "listing"
	// EntityLedgerEntry identifies a coin ledger entry.
	EntityLedgerEntry EntityType = "ledger_entry"
	// EntityOwnership identifies an ownership history record.
	EntityOwnership EntityType = "ownership"
	// EntityStudRequest identifies a stud service request.
	EntityStudRequest EntityType = "stud_request"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pet is a collectible creature. Its genome string is the only persisted
// genetic state; traits are decoded on demand.
type Pet struct {
	Base
	OwnerID               string     `json:"owner_id"`
	Name                  string     `json:"name"`
	DNA                   string     `json:"dna"`
	Generation            int        `json:"generation"`
	Parent1ID             *string    `json:"parent1_id,omitempty"`
	Parent2ID             *string    `json:"parent2_id,omitempty"`
	RarityScore           int        `json:"rarity_score"`
	IsActive              bool       `json:"is_active"`
	IsForSale             bool       `json:"is_for_sale"`
	SalePrice             *int       `json:"sale_price,omitempty"`
	BreedingCooldownUntil *time.Time `json:"breeding_cooldown_until,omitempty"`
	BreedingCount         int        `json:"breeding_count"`
}

// Eligibility reports whether the pet may breed at now.
func (p Pet) Eligibility(now time.Time) breeding.Eligibility {
	return breeding.CanBreed(p.BreedingCooldownUntil, p.IsForSale, now)
}

// Traits decodes the pet's genome.
func (p Pet) Traits() genome.Decoded {
	return genome.Decode(p.DNA)
}

// Wallet holds an owner's coin balance. Its ID is the owner ID.
type Wallet struct {
	Base
	Coins       int `json:"coins"`
	TotalEarned int `json:"total_earned"`
	TotalSpent  int `json:"total_spent"`
}

// Listing is an open marketplace offer for a pet.
type Listing struct {
	Base
	PetID     string     `json:"pet_id"`
	SellerID  string     `json:"seller_id"`
	Price     int        `json:"price"`
	ListedAt  time.Time  `json:"listed_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// LedgerKind classifies a coin movement.
type LedgerKind string

// Ledger kinds.
const (
	LedgerBreedingCost  LedgerKind = "breeding_cost"
	LedgerStudFeePaid   LedgerKind = "stud_fee_paid"
	LedgerStudFeeEarned LedgerKind = "stud_fee_earned"
	LedgerSale          LedgerKind = "sale"
	LedgerPurchase      LedgerKind = "purchase"
	LedgerGrant         LedgerKind = "grant"
)

// LedgerEntry records a signed change to an owner's balance.
type LedgerEntry struct {
	Base
	OwnerID     string     `json:"owner_id"`
	Amount      int        `json:"amount"`
	Kind        LedgerKind `json:"kind"`
	ReferenceID string     `json:"reference_id,omitempty"`
	Description string     `json:"description,omitempty"`
}

// TransferType describes how a pet reached its owner.
type TransferType string

// Transfer types.
const (
	TransferMint  TransferType = "mint"
	TransferBreed TransferType = "breed"
	TransferSale  TransferType = "sale"
	TransferStud  TransferType = "stud"
)

// OwnershipRecord is one entry in a pet's chain of custody.
type OwnershipRecord struct {
	Base
	PetID        string       `json:"pet_id"`
	FromOwnerID  *string      `json:"from_owner_id,omitempty"`
	ToOwnerID    string       `json:"to_owner_id"`
	TransferType TransferType `json:"transfer_type"`
	Price        *int         `json:"price,omitempty"`
}

// StudStatus enumerates stud request states.
type StudStatus string

// Stud request states.
const (
	StudPending  StudStatus = "pending"
	StudAccepted StudStatus = "accepted"
	StudDeclined StudStatus = "declined"
	StudExpired  StudStatus = "expired"
)

// StudRequest asks another owner to breed their pet with the requester's.
// The child goes to the requester.
type StudRequest struct {
	Base
	RequesterID    string     `json:"requester_id"`
	RequesterPetID string     `json:"requester_pet_id"`
	TargetID       string     `json:"target_id"`
	TargetPetID    string     `json:"target_pet_id"`
	StudFee        int        `json:"stud_fee"`
	Status         StudStatus `json:"status"`
	ExpiresAt      time.Time  `json:"expires_at"`
	ChildID        *string    `json:"child_id,omitempty"`
}

// Open reports whether the request is still pending and unexpired at now.
func (r StudRequest) Open(now time.Time) bool {
	return r.Status == StudPending && now.Before(r.ExpiresAt)
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rule " + v.Rule + ": " + v.Message
		}
	}
	return "transaction blocked by rules"
}
