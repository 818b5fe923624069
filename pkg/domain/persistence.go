package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreatePet(Pet) (Pet, error)
	UpdatePet(id string, mutator func(*Pet) error) (Pet, error)
	DeletePet(id string) error
	CreateWallet(Wallet) (Wallet, error)
	UpdateWallet(id string, mutator func(*Wallet) error) (Wallet, error)
	CreateListing(Listing) (Listing, error)
	DeleteListing(id string) error
	CreateLedgerEntry(LedgerEntry) (LedgerEntry, error)
	CreateOwnershipRecord(OwnershipRecord) (OwnershipRecord, error)
	CreateStudRequest(StudRequest) (StudRequest, error)
	UpdateStudRequest(id string, mutator func(*StudRequest) error) (StudRequest, error)
	FindPet(id string) (Pet, bool)
	FindWallet(id string) (Wallet, bool)
	FindListing(id string) (Listing, bool)
	FindListingByPet(petID string) (Listing, bool)
	FindStudRequest(id string) (StudRequest, bool)
	ListPetsByOwner(ownerID string) []Pet
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	RuleView
	ListLedgerEntries() []LedgerEntry
	ListOwnershipRecords() []OwnershipRecord
	ListStudRequests() []StudRequest
	FindStudRequest(id string) (StudRequest, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPet(id string) (Pet, bool)
	ListPets() []Pet
	GetWallet(id string) (Wallet, bool)
	ListListings() []Listing
	ListLedgerEntries() []LedgerEntry
	ListOwnershipRecords() []OwnershipRecord
	ListStudRequests() []StudRequest
	RulesEngine() *RulesEngine
}
