// Package memory provides an in-memory implementation of the garden
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"shobergarden/pkg/domain"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Pet aliases domain.Pet for in-memory persistence operations.
	Pet = domain.Pet
	// Wallet aliases domain.Wallet.
	Wallet = domain.Wallet
	// Listing aliases domain.Listing.
	Listing = domain.Listing
	// LedgerEntry aliases domain.LedgerEntry.
	LedgerEntry = domain.LedgerEntry
	// OwnershipRecord aliases domain.OwnershipRecord.
	OwnershipRecord = domain.OwnershipRecord
	// StudRequest aliases domain.StudRequest.
	StudRequest = domain.StudRequest
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	pets      map[string]Pet
	wallets   map[string]Wallet
	listings  map[string]Listing
	ledger    map[string]LedgerEntry
	ownership map[string]OwnershipRecord
	studs     map[string]StudRequest
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Pets         map[string]Pet             `json:"pets"`
	Wallets      map[string]Wallet          `json:"wallets"`
	Listings     map[string]Listing         `json:"listings"`
	Ledger       map[string]LedgerEntry     `json:"ledger"`
	Ownership    map[string]OwnershipRecord `json:"ownership"`
	StudRequests map[string]StudRequest     `json:"stud_requests"`
}

// Buckets names the snapshot sections durable backends persist, in order.
var Buckets = []string{"pets", "wallets", "listings", "ledger", "ownership", "stud_requests"}

// Bucket returns the section of the snapshot stored under name.
func (s *Snapshot) Bucket(name string) (any, bool) {
	switch name {
	case "pets":
		return &s.Pets, true
	case "wallets":
		return &s.Wallets, true
	case "listings":
		return &s.Listings, true
	case "ledger":
		return &s.Ledger, true
	case "ownership":
		return &s.Ownership, true
	case "stud_requests":
		return &s.StudRequests, true
	}
	return nil, false
}

func newMemoryState() memoryState {
	return memoryState{
		pets:      make(map[string]Pet),
		wallets:   make(map[string]Wallet),
		listings:  make(map[string]Listing),
		ledger:    make(map[string]LedgerEntry),
		ownership: make(map[string]OwnershipRecord),
		studs:     make(map[string]StudRequest),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Pets:         cloned.pets,
		Wallets:      cloned.wallets,
		Listings:     cloned.listings,
		Ledger:       cloned.ledger,
		Ownership:    cloned.ownership,
		StudRequests: cloned.studs,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := memoryState{
		pets:      s.Pets,
		wallets:   s.Wallets,
		listings:  s.Listings,
		ledger:    s.Ledger,
		ownership: s.Ownership,
		studs:     s.StudRequests,
	}
	return state.clone()
}

// reconcileListings drops listings whose pet is gone and realigns the
// for-sale flags of pets with the listing table.
func (s *memoryState) reconcileListings() {
	listed := make(map[string]Listing, len(s.listings))
	for id, l := range s.listings {
		if _, ok := s.pets[l.PetID]; !ok {
			delete(s.listings, id)
			continue
		}
		listed[l.PetID] = l
	}
	for id, p := range s.pets {
		l, ok := listed[id]
		p.IsForSale = ok
		p.SalePrice = nil
		if ok {
			price := l.Price
			p.SalePrice = &price
		}
		s.pets[id] = p
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.pets {
		cloned.pets[k] = clonePet(v)
	}
	for k, v := range s.wallets {
		cloned.wallets[k] = v
	}
	for k, v := range s.listings {
		cloned.listings[k] = cloneListing(v)
	}
	for k, v := range s.ledger {
		cloned.ledger[k] = v
	}
	for k, v := range s.ownership {
		cloned.ownership[k] = cloneOwnership(v)
	}
	for k, v := range s.studs {
		cloned.studs[k] = cloneStudRequest(v)
	}
	return cloned
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func clonePet(p Pet) Pet {
	cp := p
	cp.Parent1ID = cloneString(p.Parent1ID)
	cp.Parent2ID = cloneString(p.Parent2ID)
	cp.SalePrice = cloneInt(p.SalePrice)
	cp.BreedingCooldownUntil = cloneTime(p.BreedingCooldownUntil)
	return cp
}

func cloneListing(l Listing) Listing {
	cp := l
	cp.ExpiresAt = cloneTime(l.ExpiresAt)
	return cp
}

func cloneOwnership(o OwnershipRecord) OwnershipRecord {
	cp := o
	cp.FromOwnerID = cloneString(o.FromOwnerID)
	cp.Price = cloneInt(o.Price)
	return cp
}

func cloneStudRequest(r StudRequest) StudRequest {
	cp := r
	cp.ChildID = cloneString(r.ChildID)
	return cp
}

// sortedValues returns map values ordered by creation time, then ID.
func sortedValues[T any](m map[string]T, base func(T) domain.Base, clone func(T) T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, clone(v))
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := base(out[i]), base(out[j])
		if !bi.CreatedAt.Equal(bj.CreatedAt) {
			return bi.CreatedAt.Before(bj.CreatedAt)
		}
		return bi.ID < bj.ID
	})
	return out
}

func identity[T any](v T) T { return v }

func petBase(p Pet) domain.Base                   { return p.Base }
func walletBase(w Wallet) domain.Base             { return w.Base }
func listingBase(l Listing) domain.Base           { return l.Base }
func ledgerBase(e LedgerEntry) domain.Base        { return e.Base }
func ownershipBase(o OwnershipRecord) domain.Base { return o.Base }
func studBase(r StudRequest) domain.Base          { return r.Base }

// Store provides an in-memory transactional store for the garden domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := memoryStateFromSnapshot(snapshot)
	state.reconcileListings()
	s.state = state
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used to stamp records.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider; nil restores the UTC wall clock.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListPets() []Pet {
	return sortedValues(v.state.pets, petBase, clonePet)
}

func (v transactionView) ListWallets() []Wallet {
	return sortedValues(v.state.wallets, walletBase, identity[Wallet])
}

func (v transactionView) ListListings() []Listing {
	return sortedValues(v.state.listings, listingBase, cloneListing)
}

func (v transactionView) ListLedgerEntries() []LedgerEntry {
	return sortedValues(v.state.ledger, ledgerBase, identity[LedgerEntry])
}

func (v transactionView) ListOwnershipRecords() []OwnershipRecord {
	return sortedValues(v.state.ownership, ownershipBase, cloneOwnership)
}

func (v transactionView) ListStudRequests() []StudRequest {
	return sortedValues(v.state.studs, studBase, cloneStudRequest)
}

func (v transactionView) FindPet(id string) (Pet, bool) {
	p, ok := v.state.pets[id]
	if !ok {
		return Pet{}, false
	}
	return clonePet(p), true
}

func (v transactionView) FindWallet(id string) (Wallet, bool) {
	w, ok := v.state.wallets[id]
	return w, ok
}

func (v transactionView) FindListing(id string) (Listing, bool) {
	l, ok := v.state.listings[id]
	if !ok {
		return Listing{}, false
	}
	return cloneListing(l), true
}

func (v transactionView) FindStudRequest(id string) (StudRequest, bool) {
	r, ok := v.state.studs[id]
	if !ok {
		return StudRequest{}, false
	}
	return cloneStudRequest(r), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces committed state only when fn succeeds and no blocking
// rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindPet(id string) (Pet, bool) {
	return transactionView{state: &tx.state}.FindPet(id)
}

func (tx *transaction) FindWallet(id string) (Wallet, bool) {
	return transactionView{state: &tx.state}.FindWallet(id)
}

func (tx *transaction) FindListing(id string) (Listing, bool) {
	return transactionView{state: &tx.state}.FindListing(id)
}

func (tx *transaction) FindListingByPet(petID string) (Listing, bool) {
	for _, l := range tx.state.listings {
		if l.PetID == petID {
			return cloneListing(l), true
		}
	}
	return Listing{}, false
}

func (tx *transaction) FindStudRequest(id string) (StudRequest, bool) {
	return transactionView{state: &tx.state}.FindStudRequest(id)
}

func (tx *transaction) ListPetsByOwner(ownerID string) []Pet {
	view := transactionView{state: &tx.state}
	var out []Pet
	for _, p := range view.ListPets() {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out
}

func (tx *transaction) stamp(b *domain.Base) {
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
}

// CreatePet stores a new pet within the transaction.
func (tx *transaction) CreatePet(p Pet) (Pet, error) {
	tx.stamp(&p.Base)
	if _, exists := tx.state.pets[p.ID]; exists {
		return Pet{}, fmt.Errorf("pet %q already exists", p.ID)
	}
	if p.OwnerID == "" {
		return Pet{}, fmt.Errorf("pet %q requires an owner", p.ID)
	}
	tx.state.pets[p.ID] = clonePet(p)
	tx.recordChange(Change{Entity: domain.EntityPet, Action: domain.ActionCreate, After: clonePet(p)})
	return clonePet(p), nil
}

// UpdatePet mutates a pet using the provided mutator function.
func (tx *transaction) UpdatePet(id string, mutator func(*Pet) error) (Pet, error) {
	current, ok := tx.state.pets[id]
	if !ok {
		return Pet{}, fmt.Errorf("pet %q not found", id)
	}
	before := clonePet(current)
	if err := mutator(&current); err != nil {
		return Pet{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.pets[id] = clonePet(current)
	tx.recordChange(Change{Entity: domain.EntityPet, Action: domain.ActionUpdate, Before: before, After: clonePet(current)})
	return clonePet(current), nil
}

// DeletePet removes a pet that is not listed for sale.
func (tx *transaction) DeletePet(id string) error {
	current, ok := tx.state.pets[id]
	if !ok {
		return fmt.Errorf("pet %q not found", id)
	}
	if l, listed := tx.FindListingByPet(id); listed {
		return fmt.Errorf("pet %q still referenced by listing %q", id, l.ID)
	}
	delete(tx.state.pets, id)
	tx.recordChange(Change{Entity: domain.EntityPet, Action: domain.ActionDelete, Before: clonePet(current)})
	return nil
}

// CreateWallet opens a wallet; its ID must be the owner ID.
func (tx *transaction) CreateWallet(w Wallet) (Wallet, error) {
	if w.ID == "" {
		return Wallet{}, fmt.Errorf("wallet requires an owner id")
	}
	if _, exists := tx.state.wallets[w.ID]; exists {
		return Wallet{}, fmt.Errorf("wallet %q already exists", w.ID)
	}
	tx.stamp(&w.Base)
	tx.state.wallets[w.ID] = w
	tx.recordChange(Change{Entity: domain.EntityWallet, Action: domain.ActionCreate, After: w})
	return w, nil
}

// UpdateWallet mutates a wallet using the provided mutator function.
func (tx *transaction) UpdateWallet(id string, mutator func(*Wallet) error) (Wallet, error) {
	current, ok := tx.state.wallets[id]
	if !ok {
		return Wallet{}, fmt.Errorf("wallet %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Wallet{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.wallets[id] = current
	tx.recordChange(Change{Entity: domain.EntityWallet, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateListing opens a marketplace listing. A pet can carry one listing at a time.
func (tx *transaction) CreateListing(l Listing) (Listing, error) {
	tx.stamp(&l.Base)
	if _, exists := tx.state.listings[l.ID]; exists {
		return Listing{}, fmt.Errorf("listing %q already exists", l.ID)
	}
	if existing, listed := tx.FindListingByPet(l.PetID); listed {
		return Listing{}, fmt.Errorf("pet %q already listed as %q", l.PetID, existing.ID)
	}
	if l.ListedAt.IsZero() {
		l.ListedAt = tx.now
	}
	tx.state.listings[l.ID] = cloneListing(l)
	tx.recordChange(Change{Entity: domain.EntityListing, Action: domain.ActionCreate, After: cloneListing(l)})
	return cloneListing(l), nil
}

// DeleteListing removes a listing.
func (tx *transaction) DeleteListing(id string) error {
	current, ok := tx.state.listings[id]
	if !ok {
		return fmt.Errorf("listing %q not found", id)
	}
	delete(tx.state.listings, id)
	tx.recordChange(Change{Entity: domain.EntityListing, Action: domain.ActionDelete, Before: cloneListing(current)})
	return nil
}

// CreateLedgerEntry appends to the coin ledger. Entries are immutable.
func (tx *transaction) CreateLedgerEntry(e LedgerEntry) (LedgerEntry, error) {
	tx.stamp(&e.Base)
	if _, exists := tx.state.ledger[e.ID]; exists {
		return LedgerEntry{}, fmt.Errorf("ledger entry %q already exists", e.ID)
	}
	tx.state.ledger[e.ID] = e
	tx.recordChange(Change{Entity: domain.EntityLedgerEntry, Action: domain.ActionCreate, After: e})
	return e, nil
}

// CreateOwnershipRecord appends to a pet's chain of custody.
func (tx *transaction) CreateOwnershipRecord(o OwnershipRecord) (OwnershipRecord, error) {
	tx.stamp(&o.Base)
	if _, exists := tx.state.ownership[o.ID]; exists {
		return OwnershipRecord{}, fmt.Errorf("ownership record %q already exists", o.ID)
	}
	tx.state.ownership[o.ID] = cloneOwnership(o)
	tx.recordChange(Change{Entity: domain.EntityOwnership, Action: domain.ActionCreate, After: cloneOwnership(o)})
	return cloneOwnership(o), nil
}

// CreateStudRequest stores a new stud request.
func (tx *transaction) CreateStudRequest(r StudRequest) (StudRequest, error) {
	tx.stamp(&r.Base)
	if _, exists := tx.state.studs[r.ID]; exists {
		return StudRequest{}, fmt.Errorf("stud request %q already exists", r.ID)
	}
	tx.state.studs[r.ID] = cloneStudRequest(r)
	tx.recordChange(Change{Entity: domain.EntityStudRequest, Action: domain.ActionCreate, After: cloneStudRequest(r)})
	return cloneStudRequest(r), nil
}

// UpdateStudRequest mutates a stud request using the provided mutator function.
func (tx *transaction) UpdateStudRequest(id string, mutator func(*StudRequest) error) (StudRequest, error) {
	current, ok := tx.state.studs[id]
	if !ok {
		return StudRequest{}, fmt.Errorf("stud request %q not found", id)
	}
	before := cloneStudRequest(current)
	if err := mutator(&current); err != nil {
		return StudRequest{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.studs[id] = cloneStudRequest(current)
	tx.recordChange(Change{Entity: domain.EntityStudRequest, Action: domain.ActionUpdate, Before: before, After: cloneStudRequest(current)})
	return cloneStudRequest(current), nil
}

// Read helpers ---------------------------------------------------------------

// GetPet retrieves a pet by ID from committed state.
func (s *Store) GetPet(id string) (Pet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.FindPet(id)
}

// ListPets returns all pets from committed state, oldest first.
func (s *Store) ListPets() []Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListPets()
}

// GetWallet retrieves a wallet by owner ID.
func (s *Store) GetWallet(id string) (Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.FindWallet(id)
}

// ListListings returns all open listings, oldest first.
func (s *Store) ListListings() []Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListListings()
}

// ListLedgerEntries returns the full coin ledger, oldest first.
func (s *Store) ListLedgerEntries() []LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListLedgerEntries()
}

// ListOwnershipRecords returns every ownership record, oldest first.
func (s *Store) ListOwnershipRecords() []OwnershipRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListOwnershipRecords()
}

// ListStudRequests returns every stud request, oldest first.
func (s *Store) ListStudRequests() []StudRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListStudRequests()
}
