package breeding

import "time"

// Reasons reported by CanBreed.
const (
	ReasonListedForSale  = "listed for sale"
	ReasonCooldownActive = "cooldown active"
)

// Eligibility is the outcome of a breeding eligibility check.
type Eligibility struct {
	CanBreed          bool          `json:"can_breed"`
	Reason            string        `json:"reason,omitempty"`
	CooldownRemaining time.Duration `json:"cooldown_remaining,omitempty"`
}

// CanBreed decides whether a pet may breed at now. A pet listed for sale is
// ineligible regardless of its cooldown. The check has no side effects;
// callers must repeat it when committing a breed.
func CanBreed(cooldownUntil *time.Time, forSale bool, now time.Time) Eligibility {
	if forSale {
		return Eligibility{Reason: ReasonListedForSale}
	}
	if cooldownUntil != nil && cooldownUntil.After(now) {
		return Eligibility{Reason: ReasonCooldownActive, CooldownRemaining: cooldownUntil.Sub(now)}
	}
	return Eligibility{CanBreed: true}
}
