package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"shobergarden/internal/blob"
	"shobergarden/pkg/genome"
	"strconv"
	"time"
)

// PedigreeParent summarises one parent on a certificate.
type PedigreeParent struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	DNA        string         `json:"dna"`
	Generation int            `json:"generation"`
	Traits     genome.Decoded `json:"traits"`
}

// PedigreeCertificate is the document ExportPedigree stores.
type PedigreeCertificate struct {
	Pet       Pet               `json:"pet"`
	Traits    genome.Decoded    `json:"traits"`
	Config    genome.Config     `json:"config"`
	Parents   []PedigreeParent  `json:"parents"`
	Ownership []OwnershipRecord `json:"ownership"`
	IssuedAt  time.Time         `json:"issued_at"`
}

// PedigreeKey is the blob key a certificate issued at t is stored under.
func PedigreeKey(petID string, t time.Time) string {
	return fmt.Sprintf("pedigrees/%s/%d.json", petID, t.UnixNano())
}

// ExportPedigree writes a JSON certificate for the pet to the blob store.
func (s *Service) ExportPedigree(ctx context.Context, petID string) (blob.Info, error) {
	var info blob.Info
	meta := &opMeta{entity: EntityPet, entityID: petID}
	_, err := s.observe(ctx, "export_pedigree", meta, func(ctx context.Context) (Result, error) {
		if s.blobs == nil {
			return Result{}, ErrNoBlobStore
		}
		cert, err := s.pedigree(ctx, petID)
		if err != nil {
			return Result{}, err
		}
		meta.ownerID = cert.Pet.OwnerID
		raw, err := json.MarshalIndent(cert, "", "  ")
		if err != nil {
			return Result{}, fmt.Errorf("encode pedigree: %w", err)
		}
		info, err = s.blobs.Put(ctx, PedigreeKey(petID, cert.IssuedAt), bytes.NewReader(raw), blob.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"pet-id":     petID,
				"generation": strconv.Itoa(cert.Pet.Generation),
			},
		})
		if err != nil {
			return Result{}, fmt.Errorf("store pedigree: %w", err)
		}
		return Result{}, nil
	})
	return info, err
}

func (s *Service) pedigree(ctx context.Context, petID string) (PedigreeCertificate, error) {
	var cert PedigreeCertificate
	err := s.store.View(ctx, func(view TransactionView) error {
		pet, ok := view.FindPet(petID)
		if !ok {
			return ErrNotFound{Entity: EntityPet, ID: petID}
		}
		cert = PedigreeCertificate{
			Pet:       pet,
			Traits:    pet.Traits(),
			Config:    genome.ToConfig(pet.DNA),
			Parents:   []PedigreeParent{},
			Ownership: []OwnershipRecord{},
			IssuedAt:  s.clock.Now().UTC(),
		}
		for _, parentID := range []*string{pet.Parent1ID, pet.Parent2ID} {
			if parentID == nil {
				continue
			}
			if parent, ok := view.FindPet(*parentID); ok {
				cert.Parents = append(cert.Parents, PedigreeParent{
					ID:         parent.ID,
					Name:       parent.Name,
					DNA:        parent.DNA,
					Generation: parent.Generation,
					Traits:     parent.Traits(),
				})
			}
		}
		for _, rec := range view.ListOwnershipRecords() {
			if rec.PetID == petID {
				cert.Ownership = append(cert.Ownership, rec)
			}
		}
		return nil
	})
	return cert, err
}
