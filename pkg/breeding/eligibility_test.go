package breeding

import (
	"testing"
	"time"
)

func TestCanBreed(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Minute)

	if got := CanBreed(nil, false, now); !got.CanBreed || got.Reason != "" {
		t.Fatalf("expected eligible with no restrictions, got %+v", got)
	}
	if got := CanBreed(nil, true, now); got.CanBreed || got.Reason != ReasonListedForSale {
		t.Fatalf("expected for-sale rejection, got %+v", got)
	}
	if got := CanBreed(&future, true, now); got.Reason != ReasonListedForSale || got.CooldownRemaining != 0 {
		t.Fatalf("for-sale must be checked before cooldown, got %+v", got)
	}
	got := CanBreed(&future, false, now)
	if got.CanBreed || got.Reason != ReasonCooldownActive || got.CooldownRemaining != time.Hour {
		t.Fatalf("expected cooldown rejection with 1h remaining, got %+v", got)
	}
	if got := CanBreed(&past, false, now); !got.CanBreed {
		t.Fatalf("expected eligible after cooldown, got %+v", got)
	}
	if got := CanBreed(&now, false, now); !got.CanBreed {
		t.Fatalf("cooldown ending exactly now should not block, got %+v", got)
	}
}
