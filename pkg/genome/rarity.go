package genome

import (
	"math"
	"strings"
)

// Tier classifies how rare a trait or a whole genome is.
type Tier string

// Rarity tiers in ascending order of rarity.
const (
	TierCommon    Tier = "common"
	TierUncommon  Tier = "uncommon"
	TierRare      Tier = "rare"
	TierLegendary Tier = "legendary"
)

// TierInfo carries the sampling weight, score multiplier and display color of a tier.
type TierInfo struct {
	Name       Tier    `json:"name"`
	Weight     float64 `json:"weight"`
	Multiplier int     `json:"multiplier"`
	Color      string  `json:"color"`
}

var tiers = map[Tier]TierInfo{
	TierCommon:    {Name: TierCommon, Weight: 60, Multiplier: 1, Color: "#9e9e9e"},
	TierUncommon:  {Name: TierUncommon, Weight: 25, Multiplier: 2, Color: "#4caf50"},
	TierRare:      {Name: TierRare, Weight: 12, Multiplier: 5, Color: "#2196f3"},
	TierLegendary: {Name: TierLegendary, Weight: 3, Multiplier: 20, Color: "#ffd700"},
}

// Info returns the definition of t. Unknown tiers resolve to common.
func Info(t Tier) TierInfo {
	if info, ok := tiers[t]; ok {
		return info
	}
	return tiers[TierCommon]
}

// Tiers lists every tier from most to least common.
func Tiers() []TierInfo {
	return []TierInfo{tiers[TierCommon], tiers[TierUncommon], tiers[TierRare], tiers[TierLegendary]}
}

// Per-category weights applied to the tier multiplier when scoring a genome.
const (
	scoreWeightBaseColor = 30
	scoreWeightEyeStyle  = 20
	scoreWeightAccessory = 15
	scoreWeightMutation  = 35

	// MaxRarityScore caps the displayed score; the raw maximum is 2000.
	MaxRarityScore = 500
)

// Overall rarity thresholds, inclusive at the lower bound.
const (
	legendaryThreshold = 300
	rareThreshold      = 150
	uncommonThreshold  = 80
)

// TierSet is the tier of each scored trait category.
type TierSet struct {
	BaseColor Tier
	EyeStyle  Tier
	Accessory Tier
	Mutation  Tier
}

// CalculateRarityScore returns the weighted rarity score of a tier set in [0, MaxRarityScore].
func CalculateRarityScore(set TierSet) int {
	score := float64(Info(set.BaseColor).Multiplier*scoreWeightBaseColor +
		Info(set.EyeStyle).Multiplier*scoreWeightEyeStyle +
		Info(set.Accessory).Multiplier*scoreWeightAccessory +
		Info(set.Mutation).Multiplier*scoreWeightMutation)
	return min(int(math.Round(score)), MaxRarityScore)
}

// OverallRarity maps a rarity score onto a tier.
func OverallRarity(score int) Tier {
	switch {
	case score >= legendaryThreshold:
		return TierLegendary
	case score >= rareThreshold:
		return TierRare
	case score >= uncommonThreshold:
		return TierUncommon
	default:
		return TierCommon
	}
}

// RarityLabel returns the capitalised tier name for a score, e.g. "Rare".
func RarityLabel(score int) string {
	tier := string(OverallRarity(score))
	return strings.ToUpper(tier[:1]) + tier[1:]
}

// RarityColor returns the display color of the tier a score falls in.
func RarityColor(score int) string {
	return Info(OverallRarity(score)).Color
}
