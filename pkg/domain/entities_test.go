package domain

import (
	"encoding/json"
	"shobergarden/pkg/breeding"
	"shobergarden/pkg/genome"
	"strings"
	"testing"
	"time"
)

func TestPetEligibility(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(30 * time.Minute)
	pet := Pet{BreedingCooldownUntil: &until}
	if got := pet.Eligibility(now); got.CanBreed || got.Reason != breeding.ReasonCooldownActive {
		t.Fatalf("expected cooldown rejection, got %+v", got)
	}
	pet.IsForSale = true
	if got := pet.Eligibility(now); got.Reason != breeding.ReasonListedForSale {
		t.Fatalf("expected for-sale rejection, got %+v", got)
	}
	if got := (Pet{}).Eligibility(now); !got.CanBreed {
		t.Fatalf("expected fresh pet to be eligible, got %+v", got)
	}
}

func TestPetTraitsPlaceholder(t *testing.T) {
	if got := (Pet{DNA: genome.Placeholder}).Traits(); got != genome.Default() {
		t.Fatalf("placeholder pet should decode to defaults, got %+v", got)
	}
}

func TestPetJSONOmitsUnsetOptionalFields(t *testing.T) {
	raw, err := json.Marshal(Pet{Base: Base{ID: "p1"}, Name: "Mochi", DNA: genome.Placeholder})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"parent1_id", "sale_price", "breeding_cooldown_until"} {
		if strings.Contains(string(raw), field) {
			t.Fatalf("expected %s to be omitted: %s", field, raw)
		}
	}
	var back Pet
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != "p1" || back.Name != "Mochi" {
		t.Fatalf("unexpected decoded pet %+v", back)
	}
}

func TestStudRequestOpen(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	req := StudRequest{Status: StudPending, ExpiresAt: now.Add(time.Hour)}
	if !req.Open(now) {
		t.Fatalf("expected pending request to be open")
	}
	if req.Open(now.Add(time.Hour)) {
		t.Fatalf("expected request to close at expiry")
	}
	req.Status = StudDeclined
	if req.Open(now) {
		t.Fatalf("declined request should not be open")
	}
}
