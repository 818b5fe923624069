package core

import (
	"context"
	"fmt"
	"shobergarden/pkg/domain"
	"shobergarden/pkg/genome"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(WalletBalanceRule())
	engine.Register(ListingIntegrityRule())
	engine.Register(GenomeFormatRule())
	return engine
}

// WalletBalanceRule blocks any transaction that leaves a wallet negative.
func WalletBalanceRule() domain.Rule { return walletBalanceRule{} }

type walletBalanceRule struct{}

func (walletBalanceRule) Name() string { return "wallet_balance" }

func (walletBalanceRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, w := range view.ListWallets() {
		if w.Coins < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "wallet_balance",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("wallet %s balance %d is negative", w.ID, w.Coins),
				Entity:   domain.EntityWallet,
				EntityID: w.ID,
			})
		}
	}
	return res, nil
}

// ListingIntegrityRule keeps listings and pet sale flags consistent.
func ListingIntegrityRule() domain.Rule { return listingIntegrityRule{} }

type listingIntegrityRule struct{}

func (listingIntegrityRule) Name() string { return "listing_integrity" }

func (listingIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	listed := make(map[string]struct{})
	for _, l := range view.ListListings() {
		listed[l.PetID] = struct{}{}
		pet, ok := view.FindPet(l.PetID)
		switch {
		case !ok:
			res.Violations = append(res.Violations, listingViolation(domain.EntityListing, l.ID, fmt.Sprintf("listing %s references missing pet %s", l.ID, l.PetID)))
		case pet.OwnerID != l.SellerID:
			res.Violations = append(res.Violations, listingViolation(domain.EntityListing, l.ID, fmt.Sprintf("listing %s seller %s does not own pet %s", l.ID, l.SellerID, l.PetID)))
		case !pet.IsForSale:
			res.Violations = append(res.Violations, listingViolation(domain.EntityListing, l.ID, fmt.Sprintf("listing %s pet %s is not flagged for sale", l.ID, l.PetID)))
		}
	}
	for _, p := range view.ListPets() {
		if _, ok := listed[p.ID]; p.IsForSale && !ok {
			res.Violations = append(res.Violations, listingViolation(domain.EntityPet, p.ID, fmt.Sprintf("pet %s is flagged for sale without a listing", p.ID)))
		}
	}
	return res, nil
}

func listingViolation(entity domain.EntityType, id, message string) domain.Violation {
	return domain.Violation{
		Rule:     "listing_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}

// GenomeFormatRule warns when a created or updated pet carries a malformed genome.
func GenomeFormatRule() domain.Rule { return genomeFormatRule{} }

type genomeFormatRule struct{}

func (genomeFormatRule) Name() string { return "genome_format" }

func (genomeFormatRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityPet || change.After == nil {
			continue
		}
		pet, ok := change.After.(domain.Pet)
		if !ok || genome.Valid(pet.DNA) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "genome_format",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("pet %s has malformed genome %q; traits decode to defaults", pet.ID, pet.DNA),
			Entity:   domain.EntityPet,
			EntityID: pet.ID,
		})
	}
	return res, nil
}
