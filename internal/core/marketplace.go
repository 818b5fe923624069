package core

import (
	"context"
	"fmt"
	"shobergarden/pkg/genome"
	"sort"
	"strings"
)

// Price bounds for listings.
const (
	MinListingPrice = 1
	MaxListingPrice = 1_000_000
)

// Browse paging limits.
const (
	DefaultBrowseLimit = 20
	MaxBrowseLimit     = 100
)

// Listing sort keys accepted by BrowseListings.
const (
	SortPriceAsc      = "price_asc"
	SortPriceDesc     = "price_desc"
	SortListedDesc    = "listed_desc"
	SortListedAsc     = "listed_asc"
	SortRarityDesc    = "rarity_desc"
	SortGenerationAsc = "generation_asc"
)

// rarityBands maps a tier filter onto a rarity score range.
var rarityBands = map[genome.Tier][2]int{
	genome.TierLegendary: {300, 999},
	genome.TierRare:      {150, 299},
	genome.TierUncommon:  {80, 149},
	genome.TierCommon:    {0, 79},
}

// ListingQuery filters and pages the marketplace. Zero values leave a filter off.
type ListingQuery struct {
	MinPrice      int
	MaxPrice      int
	Generation    *int
	Rarity        genome.Tier
	ExcludeSeller string
	Sort          string
	Limit         int
	Offset        int
}

// MarketListing is a listing joined with the pet it sells.
type MarketListing struct {
	Listing Listing     `json:"listing"`
	Pet     Pet         `json:"pet"`
	Rarity  genome.Tier `json:"rarity"`
}

// ListingPage is one page of BrowseListings results.
type ListingPage struct {
	Listings []MarketListing `json:"listings"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// ListForSale offers one of the owner's pets on the marketplace. A listed pet
// cannot breed until the listing is cancelled or sold.
func (s *Service) ListForSale(ctx context.Context, ownerID, petID string, price int) (Listing, error) {
	if price < MinListingPrice || price > MaxListingPrice {
		return Listing{}, invalidf("price must be between %d and %d", MinListingPrice, MaxListingPrice)
	}
	var created Listing
	meta := &opMeta{entity: EntityListing, ownerID: ownerID}
	_, err := s.run(ctx, "list_for_sale", meta, func(tx Transaction) error {
		pet, err := ownedPet(tx, ownerID, petID)
		if err != nil {
			return err
		}
		if _, listed := tx.FindListingByPet(petID); listed || pet.IsForSale {
			return ErrAlreadyListed
		}
		if pet.IsActive && len(tx.ListPetsByOwner(ownerID)) == 1 {
			return ErrOnlyPet
		}
		listing, err := tx.CreateListing(Listing{PetID: petID, SellerID: ownerID, Price: price})
		if err != nil {
			return err
		}
		if _, err := tx.UpdatePet(petID, func(p *Pet) error {
			p.IsForSale = true
			p.SalePrice = &price
			return nil
		}); err != nil {
			return err
		}
		created = listing
		meta.entityID = listing.ID
		return nil
	})
	return created, err
}

// CancelListing withdraws a listing and clears the pet's sale flag.
func (s *Service) CancelListing(ctx context.Context, ownerID, listingID string) error {
	meta := &opMeta{entity: EntityListing, entityID: listingID, ownerID: ownerID}
	_, err := s.run(ctx, "cancel_listing", meta, func(tx Transaction) error {
		listing, ok := tx.FindListing(listingID)
		if !ok {
			return ErrNotFound{Entity: EntityListing, ID: listingID}
		}
		if listing.SellerID != ownerID {
			return ErrNotOwner
		}
		if err := tx.DeleteListing(listingID); err != nil {
			return err
		}
		return clearSale(tx, listing.PetID, "")
	})
	return err
}

// BuyListing transfers a listed pet to the buyer and moves the price between
// wallets. The pet arrives inactive.
func (s *Service) BuyListing(ctx context.Context, buyerID, listingID string) (Pet, error) {
	var bought Pet
	meta := &opMeta{entity: EntityListing, entityID: listingID, ownerID: buyerID}
	_, err := s.run(ctx, "buy_listing", meta, func(tx Transaction) error {
		listing, ok := tx.FindListing(listingID)
		if !ok {
			return ErrNotFound{Entity: EntityListing, ID: listingID}
		}
		if listing.SellerID == buyerID {
			return ErrOwnListing
		}
		pet, err := findPet(tx, listing.PetID)
		if err != nil {
			return err
		}
		if _, err := debit(tx, buyerID, listing.Price, LedgerPurchase, pet.ID, fmt.Sprintf("bought %s", pet.Name)); err != nil {
			return err
		}
		if _, err := credit(tx, listing.SellerID, listing.Price, LedgerSale, pet.ID, fmt.Sprintf("sold %s", pet.Name), true); err != nil {
			return err
		}
		if err := tx.DeleteListing(listingID); err != nil {
			return err
		}
		if err := clearSale(tx, pet.ID, buyerID); err != nil {
			return err
		}
		price := listing.Price
		seller := listing.SellerID
		if _, err := tx.CreateOwnershipRecord(OwnershipRecord{
			PetID:        pet.ID,
			FromOwnerID:  &seller,
			ToOwnerID:    buyerID,
			TransferType: TransferSale,
			Price:        &price,
		}); err != nil {
			return err
		}
		bought, _ = tx.FindPet(pet.ID)
		return nil
	})
	return bought, err
}

// clearSale drops the sale flag; a non-empty newOwner also transfers the pet.
func clearSale(tx Transaction, petID, newOwner string) error {
	_, err := tx.UpdatePet(petID, func(p *Pet) error {
		p.IsForSale = false
		p.SalePrice = nil
		if newOwner != "" {
			p.OwnerID = newOwner
			p.IsActive = false
		}
		return nil
	})
	return err
}

// BrowseListings filters, sorts and pages open listings.
func (s *Service) BrowseListings(q ListingQuery) (ListingPage, error) {
	band, err := q.normalize()
	if err != nil {
		return ListingPage{}, err
	}
	var matched []MarketListing
	err = s.store.View(context.Background(), func(view TransactionView) error {
		for _, l := range view.ListListings() {
			pet, ok := view.FindPet(l.PetID)
			if !ok || !q.matches(l, pet, band) {
				continue
			}
			matched = append(matched, MarketListing{Listing: l, Pet: pet, Rarity: genome.OverallRarity(pet.RarityScore)})
		}
		return nil
	})
	if err != nil {
		return ListingPage{}, err
	}
	sort.SliceStable(matched, listingLess(matched, q.Sort))

	page := ListingPage{Listings: []MarketListing{}, Total: len(matched), Limit: q.Limit, Offset: q.Offset}
	if q.Offset < len(matched) {
		end := min(q.Offset+q.Limit, len(matched))
		page.Listings = matched[q.Offset:end]
	}
	return page, nil
}

func (q *ListingQuery) normalize() (*[2]int, error) {
	if q.Sort == "" {
		q.Sort = SortListedDesc
	}
	switch q.Sort {
	case SortPriceAsc, SortPriceDesc, SortListedDesc, SortListedAsc, SortRarityDesc, SortGenerationAsc:
	default:
		return nil, invalidf("unknown sort %q", q.Sort)
	}
	if q.Limit <= 0 {
		q.Limit = DefaultBrowseLimit
	}
	q.Limit = min(q.Limit, MaxBrowseLimit)
	q.Offset = max(q.Offset, 0)
	if q.MinPrice < 0 || q.MaxPrice < 0 || (q.MaxPrice > 0 && q.MinPrice > q.MaxPrice) {
		return nil, invalidf("invalid price range %d-%d", q.MinPrice, q.MaxPrice)
	}
	if q.Rarity == "" {
		return nil, nil
	}
	band, ok := rarityBands[genome.Tier(strings.ToLower(string(q.Rarity)))]
	if !ok {
		return nil, invalidf("unknown rarity %q", q.Rarity)
	}
	return &band, nil
}

func (q ListingQuery) matches(l Listing, pet Pet, band *[2]int) bool {
	switch {
	case q.MinPrice > 0 && l.Price < q.MinPrice:
		return false
	case q.MaxPrice > 0 && l.Price > q.MaxPrice:
		return false
	case q.Generation != nil && pet.Generation != *q.Generation:
		return false
	case band != nil && (pet.RarityScore < band[0] || pet.RarityScore > band[1]):
		return false
	case q.ExcludeSeller != "" && l.SellerID == q.ExcludeSeller:
		return false
	}
	return true
}

func listingLess(items []MarketListing, key string) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := items[i], items[j]
		switch key {
		case SortPriceAsc:
			if a.Listing.Price != b.Listing.Price {
				return a.Listing.Price < b.Listing.Price
			}
		case SortPriceDesc:
			if a.Listing.Price != b.Listing.Price {
				return a.Listing.Price > b.Listing.Price
			}
		case SortListedAsc:
			if !a.Listing.ListedAt.Equal(b.Listing.ListedAt) {
				return a.Listing.ListedAt.Before(b.Listing.ListedAt)
			}
		case SortRarityDesc:
			if a.Pet.RarityScore != b.Pet.RarityScore {
				return a.Pet.RarityScore > b.Pet.RarityScore
			}
		case SortGenerationAsc:
			if a.Pet.Generation != b.Pet.Generation {
				return a.Pet.Generation < b.Pet.Generation
			}
		}
		if !a.Listing.ListedAt.Equal(b.Listing.ListedAt) {
			return a.Listing.ListedAt.After(b.Listing.ListedAt)
		}
		return a.Listing.ID < b.Listing.ID
	}
}
