package core

import (
	"context"
	"errors"
	"shobergarden/internal/blob"
	"shobergarden/internal/infra/persistence/memory"
	"shobergarden/pkg/breeding"
	"shobergarden/pkg/genome"
	"strings"
	"time"
	"unicode/utf8"
)

// Defaults applied when no option overrides them.
const (
	DefaultStarterCoins   = 500
	DefaultStudRequestTTL = 48 * time.Hour
	MaxPetNameLength      = 20
	ChildName             = "Baby Shober"
)

// Service runs the garden economy: wallets, pets, breeding, the marketplace
// and stud requests. Every write runs inside one store transaction, so the
// checks an operation makes hold when it commits.
type Service struct {
	store        PersistentStore
	clock        Clock
	logger       Logger
	audit        AuditRecorder
	metrics      MetricsRecorder
	tracer       Tracer
	src          genome.Source
	engine       *breeding.Engine
	generator    *genome.Generator
	blobs        blob.Store
	starterCoins int
	studTTL      time.Duration
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:        store,
		clock:        ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:       discardLogger(),
		audit:        noopAudit{},
		metrics:      noopMetrics{},
		tracer:       noopTracer{},
		starterCoins: DefaultStarterCoins,
		studTTL:      DefaultStudRequestTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.src == nil {
		svc.src = genome.DefaultSource()
	}
	if svc.engine == nil {
		svc.engine = breeding.New(breeding.WithSource(svc.src), breeding.WithClock(svc.clock.Now))
	}
	svc.generator = genome.NewGenerator(svc.src)
	if clocked, ok := store.(interface{ SetNowFunc(func() time.Time) }); ok {
		clocked.SetNowFunc(func() time.Time { return svc.clock.Now().UTC() })
	}
	return svc
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine selects NewDefaultRulesEngine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// opMeta is filled in by an operation so its audit entry names the record it touched.
type opMeta struct {
	entity   EntityType
	entityID string
	ownerID  string
}

// observe wraps fn with tracing, metrics, audit and logging.
func (s *Service) observe(ctx context.Context, op string, meta *opMeta, fn func(context.Context) (Result, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	res, err := fn(ctx)
	elapsed := time.Since(start)

	for _, v := range res.Violations {
		if v.Severity != SeverityBlock {
			s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity),
				"entity", string(v.Entity), "entity_id", v.EntityID, "message", v.Message)
		}
	}
	entry := AuditEntry{
		Operation: op,
		Status:    AuditStatusSuccess,
		Entity:    meta.entity,
		EntityID:  meta.entityID,
		OwnerID:   meta.ownerID,
		Duration:  elapsed,
		At:        s.clock.Now(),
	}
	attrs := []any{"operation", op, "entity", string(meta.entity), "entity_id", meta.entityID, "owner_id", meta.ownerID}
	switch {
	case err == nil:
		s.logger.Info("operation committed", attrs...)
	case isRejection(err):
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Info("operation rejected", append(attrs, "error", err)...)
	default:
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Error("operation failed", append(attrs, "error", err)...)
	}
	s.audit.Record(ctx, entry)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	span.End(err)
	return res, err
}

// run executes fn in a store transaction under observe.
func (s *Service) run(ctx context.Context, op string, meta *opMeta, fn func(Transaction) error) (Result, error) {
	return s.observe(ctx, op, meta, func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, fn)
	})
}

// isRejection separates caller mistakes from infrastructure failures.
func isRejection(err error) bool {
	var (
		notFound  ErrNotFound
		inelig    IneligibleError
		funds     InsufficientFundsError
		violation RuleViolationError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &inelig), errors.As(err, &funds), errors.As(err, &violation):
		return true
	}
	for _, sentinel := range []error{ErrSelfBreeding, ErrNotOwner, ErrAlreadyListed, ErrOnlyPet, ErrOwnListing,
		ErrNoBlobStore, ErrRequestClosed, ErrAlreadyGenerated, ErrInvalidInput} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > MaxPetNameLength {
		return "", invalidf("name must be 1-%d characters", MaxPetNameLength)
	}
	return name, nil
}

func findPet(tx Transaction, id string) (Pet, error) {
	pet, ok := tx.FindPet(id)
	if !ok {
		return Pet{}, ErrNotFound{Entity: EntityPet, ID: id}
	}
	return pet, nil
}

func ownedPet(tx Transaction, ownerID, petID string) (Pet, error) {
	pet, err := findPet(tx, petID)
	if err != nil {
		return Pet{}, err
	}
	if pet.OwnerID != ownerID {
		return Pet{}, ErrNotOwner
	}
	return pet, nil
}

// Wallets -------------------------------------------------------------------

// OpenWallet returns the owner's wallet, creating it with the starter grant
// on first use.
func (s *Service) OpenWallet(ctx context.Context, ownerID string) (Wallet, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Wallet{}, invalidf("owner id required")
	}
	var wallet Wallet
	meta := &opMeta{entity: EntityWallet, entityID: ownerID, ownerID: ownerID}
	_, err := s.run(ctx, "open_wallet", meta, func(tx Transaction) error {
		if existing, ok := tx.FindWallet(ownerID); ok {
			wallet = existing
			return nil
		}
		created, err := tx.CreateWallet(Wallet{Base: Base{ID: ownerID}, Coins: s.starterCoins})
		if err != nil {
			return err
		}
		wallet = created
		if s.starterCoins == 0 {
			return nil
		}
		_, err = tx.CreateLedgerEntry(LedgerEntry{
			OwnerID:     ownerID,
			Amount:      s.starterCoins,
			Kind:        LedgerGrant,
			Description: "starter coins",
		})
		return err
	})
	return wallet, err
}

// Wallet returns the owner's wallet.
func (s *Service) Wallet(ownerID string) (Wallet, error) {
	w, ok := s.store.GetWallet(ownerID)
	if !ok {
		return Wallet{}, ErrNotFound{Entity: EntityWallet, ID: ownerID}
	}
	return w, nil
}

// Grant credits coins to an existing wallet.
func (s *Service) Grant(ctx context.Context, ownerID string, amount int, reason string) (Wallet, error) {
	if amount <= 0 {
		return Wallet{}, invalidf("grant amount must be positive")
	}
	var wallet Wallet
	meta := &opMeta{entity: EntityWallet, entityID: ownerID, ownerID: ownerID}
	_, err := s.run(ctx, "grant", meta, func(tx Transaction) error {
		if _, ok := tx.FindWallet(ownerID); !ok {
			return ErrNotFound{Entity: EntityWallet, ID: ownerID}
		}
		var err error
		wallet, err = credit(tx, ownerID, amount, LedgerGrant, "", reason, false)
		return err
	})
	return wallet, err
}

// debit removes amount from the owner's wallet and records it in the ledger.
func debit(tx Transaction, ownerID string, amount int, kind LedgerKind, ref, desc string) (Wallet, error) {
	w, ok := tx.FindWallet(ownerID)
	if !ok {
		return Wallet{}, ErrNotFound{Entity: EntityWallet, ID: ownerID}
	}
	if w.Coins < amount {
		return Wallet{}, InsufficientFundsError{Need: amount, Have: w.Coins}
	}
	updated, err := tx.UpdateWallet(ownerID, func(w *Wallet) error {
		w.Coins -= amount
		w.TotalSpent += amount
		return nil
	})
	if err != nil {
		return Wallet{}, err
	}
	_, err = tx.CreateLedgerEntry(LedgerEntry{OwnerID: ownerID, Amount: -amount, Kind: kind, ReferenceID: ref, Description: desc})
	return updated, err
}

// credit adds amount to the owner's wallet, opening an empty one if needed.
func credit(tx Transaction, ownerID string, amount int, kind LedgerKind, ref, desc string, earned bool) (Wallet, error) {
	if _, ok := tx.FindWallet(ownerID); !ok {
		if _, err := tx.CreateWallet(Wallet{Base: Base{ID: ownerID}}); err != nil {
			return Wallet{}, err
		}
	}
	updated, err := tx.UpdateWallet(ownerID, func(w *Wallet) error {
		w.Coins += amount
		if earned {
			w.TotalEarned += amount
		}
		return nil
	})
	if err != nil {
		return Wallet{}, err
	}
	_, err = tx.CreateLedgerEntry(LedgerEntry{OwnerID: ownerID, Amount: amount, Kind: kind, ReferenceID: ref, Description: desc})
	return updated, err
}

// Pets ----------------------------------------------------------------------

// PetView is a pet with its decoded traits and current breeding status.
type PetView struct {
	Pet              Pet                  `json:"pet"`
	Traits           genome.Decoded       `json:"traits"`
	Config           genome.Config        `json:"config"`
	Eligibility      breeding.Eligibility `json:"eligibility"`
	SuggestedStudFee int                  `json:"suggested_stud_fee"`
	CooldownLabel    string               `json:"cooldown_label,omitempty"`
}

// MintPet creates a generation 0 pet with a boosted random genome. It becomes
// the owner's active pet when they have none.
func (s *Service) MintPet(ctx context.Context, ownerID, name string) (Pet, error) {
	return s.createPet(ctx, "mint_pet", ownerID, name, func() string { return s.generator.Gen0DNA() })
}

// RegisterPlaceholderPet creates a generation 0 pet whose genome is generated later.
func (s *Service) RegisterPlaceholderPet(ctx context.Context, ownerID, name string) (Pet, error) {
	return s.createPet(ctx, "register_placeholder_pet", ownerID, name, func() string { return genome.Placeholder })
}

func (s *Service) createPet(ctx context.Context, op, ownerID, name string, dna func() string) (Pet, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Pet{}, invalidf("owner id required")
	}
	name, err := validateName(name)
	if err != nil {
		return Pet{}, err
	}
	var created Pet
	meta := &opMeta{entity: EntityPet, ownerID: ownerID}
	_, err = s.run(ctx, op, meta, func(tx Transaction) error {
		hasActive := false
		for _, p := range tx.ListPetsByOwner(ownerID) {
			hasActive = hasActive || p.IsActive
		}
		genes := dna()
		pet, err := tx.CreatePet(Pet{
			OwnerID:     ownerID,
			Name:        name,
			DNA:         genes,
			RarityScore: genome.Decode(genes).RarityScore,
			IsActive:    !hasActive,
		})
		if err != nil {
			return err
		}
		created = pet
		meta.entityID = pet.ID
		_, err = tx.CreateOwnershipRecord(OwnershipRecord{PetID: pet.ID, ToOwnerID: ownerID, TransferType: TransferMint})
		return err
	})
	return created, err
}

// GenerateDNA fills in the genome of a placeholder pet.
func (s *Service) GenerateDNA(ctx context.Context, petID string) (Pet, error) {
	var updated Pet
	meta := &opMeta{entity: EntityPet, entityID: petID}
	_, err := s.run(ctx, "generate_dna", meta, func(tx Transaction) error {
		pet, err := findPet(tx, petID)
		if err != nil {
			return err
		}
		meta.ownerID = pet.OwnerID
		if !genome.IsPlaceholder(pet.DNA) {
			return ErrAlreadyGenerated
		}
		dna := s.generator.RandomDNA()
		updated, err = tx.UpdatePet(petID, func(p *Pet) error {
			p.DNA = dna
			p.RarityScore = genome.Decode(dna).RarityScore
			return nil
		})
		return err
	})
	return updated, err
}

// DescribePet decodes a pet and reports whether it can breed now.
func (s *Service) DescribePet(petID string) (PetView, error) {
	pet, ok := s.store.GetPet(petID)
	if !ok {
		return PetView{}, ErrNotFound{Entity: EntityPet, ID: petID}
	}
	elig := pet.Eligibility(s.clock.Now())
	view := PetView{
		Pet:              pet,
		Traits:           pet.Traits(),
		Config:           genome.ToConfig(pet.DNA),
		Eligibility:      elig,
		SuggestedStudFee: breeding.StudFee(pet.RarityScore, pet.Generation),
	}
	if elig.CooldownRemaining > 0 {
		view.CooldownLabel = breeding.FormatCooldown(elig.CooldownRemaining)
	}
	return view, nil
}

// RenamePet changes a pet's name.
func (s *Service) RenamePet(ctx context.Context, ownerID, petID, name string) (Pet, error) {
	name, err := validateName(name)
	if err != nil {
		return Pet{}, err
	}
	var updated Pet
	meta := &opMeta{entity: EntityPet, entityID: petID, ownerID: ownerID}
	_, err = s.run(ctx, "rename_pet", meta, func(tx Transaction) error {
		if _, err := ownedPet(tx, ownerID, petID); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdatePet(petID, func(p *Pet) error {
			p.Name = name
			return nil
		})
		return err
	})
	return updated, err
}

// SetActivePet makes petID the owner's only active pet.
func (s *Service) SetActivePet(ctx context.Context, ownerID, petID string) (Pet, error) {
	var updated Pet
	meta := &opMeta{entity: EntityPet, entityID: petID, ownerID: ownerID}
	_, err := s.run(ctx, "set_active_pet", meta, func(tx Transaction) error {
		if _, err := ownedPet(tx, ownerID, petID); err != nil {
			return err
		}
		for _, p := range tx.ListPetsByOwner(ownerID) {
			if p.IsActive && p.ID != petID {
				if _, err := tx.UpdatePet(p.ID, func(p *Pet) error {
					p.IsActive = false
					return nil
				}); err != nil {
					return err
				}
			}
		}
		var err error
		updated, err = tx.UpdatePet(petID, func(p *Pet) error {
			p.IsActive = true
			return nil
		})
		return err
	})
	return updated, err
}

// Queries -------------------------------------------------------------------

// PetsByOwner lists an owner's pets, oldest first.
func (s *Service) PetsByOwner(ownerID string) []Pet {
	var out []Pet
	for _, p := range s.store.ListPets() {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out
}

// Ledger lists an owner's coin movements, oldest first.
func (s *Service) Ledger(ownerID string) []LedgerEntry {
	var out []LedgerEntry
	for _, e := range s.store.ListLedgerEntries() {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out
}

// OwnershipHistory lists a pet's chain of custody, oldest first.
func (s *Service) OwnershipHistory(petID string) []OwnershipRecord {
	var out []OwnershipRecord
	for _, o := range s.store.ListOwnershipRecords() {
		if o.PetID == petID {
			out = append(out, o)
		}
	}
	return out
}
