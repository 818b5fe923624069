package genome

// Trait is one entry of a trait catalog. Hex and Belly are set for colors only.
type Trait struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rarity Tier   `json:"rarity"`
	Hex    string `json:"hex,omitempty"`
	Belly  string `json:"belly,omitempty"`
}

// Catalog order is part of the stored genome format: a gene byte maps to
// index byte%len(catalog). Append new entries; never reorder or remove.

var baseColors = []Trait{
	{ID: "classic_tan", Name: "Classic Tan", Hex: "#d4a574", Belly: "#f5e6d3", Rarity: TierCommon},
	{ID: "red_sesame", Name: "Red Sesame", Hex: "#c67c4e", Belly: "#e8d4c4", Rarity: TierCommon},
	{ID: "brown", Name: "Chocolate", Hex: "#8b5a2b", Belly: "#d4a574", Rarity: TierCommon},
	{ID: "cream", Name: "Cream", Hex: "#f5e6d3", Belly: "#ffffff", Rarity: TierUncommon},
	{ID: "black_tan", Name: "Black & Tan", Hex: "#1a1a1a", Belly: "#d4a574", Rarity: TierUncommon},
	{ID: "grey", Name: "Silver Grey", Hex: "#a0a0a0", Belly: "#d0d0d0", Rarity: TierUncommon},
	{ID: "pure_white", Name: "Pure White", Hex: "#ffffff", Belly: "#f5f5f5", Rarity: TierRare},
	{ID: "midnight", Name: "Midnight", Hex: "#1a1a2e", Belly: "#16213e", Rarity: TierRare},
	{ID: "galaxy", Name: "Galaxy", Hex: "#1a0533", Belly: "#4a0080", Rarity: TierLegendary},
	{ID: "golden", Name: "Golden", Hex: "#ffd700", Belly: "#fff4b3", Rarity: TierLegendary},
	{ID: "rose_gold", Name: "Rose Gold", Hex: "#e8b4b8", Belly: "#ffd5d5", Rarity: TierLegendary},
}

var eyeStyles = []Trait{
	{ID: "happy", Name: "Happy", Rarity: TierCommon},
	{ID: "sleepy", Name: "Sleepy", Rarity: TierCommon},
	{ID: "surprised", Name: "Surprised", Rarity: TierUncommon},
	{ID: "wink", Name: "Wink", Rarity: TierUncommon},
	{ID: "heart", Name: "Heart Eyes", Rarity: TierRare},
	{ID: "star", Name: "Star Eyes", Rarity: TierRare},
	{ID: "rainbow", Name: "Rainbow", Rarity: TierLegendary},
	{ID: "galaxy", Name: "Galaxy Eyes", Rarity: TierLegendary},
}

var accessories = []Trait{
	{ID: "none", Name: "None", Rarity: TierCommon},
	{ID: "collar", Name: "Collar", Rarity: TierCommon},
	{ID: "bandana", Name: "Bandana", Rarity: TierCommon},
	{ID: "bowtie", Name: "Bowtie", Rarity: TierUncommon},
	{ID: "glasses", Name: "Glasses", Rarity: TierUncommon},
	{ID: "hat", Name: "Party Hat", Rarity: TierRare},
	{ID: "flower", Name: "Flower", Rarity: TierRare},
	{ID: "headphones", Name: "Headphones", Rarity: TierRare},
	{ID: "crown", Name: "Crown", Rarity: TierLegendary},
	{ID: "halo", Name: "Halo", Rarity: TierLegendary},
	{ID: "wizard_hat", Name: "Wizard Hat", Rarity: TierLegendary},
}

// Accessory colors carry no rarity; they are drawn uniformly.
var accessoryColors = []string{
	"#e91e63", // pink
	"#9c27b0", // purple
	"#2196f3", // blue
	"#4caf50", // green
	"#ff9800", // orange
	"#f44336", // red
	"#795548", // brown
	"#333333", // black
	"#ffd700", // gold
	"#00bcd4", // cyan
}

// Index 0 is the "none" mutation.
var mutations = []Trait{
	{ID: "none", Name: "None", Rarity: TierCommon},
	{ID: "sparkle", Name: "Sparkle", Rarity: TierRare},
	{ID: "glow", Name: "Glow", Rarity: TierLegendary},
	{ID: "rainbow_shimmer", Name: "Rainbow Shimmer", Rarity: TierLegendary},
}

// DefaultBelly is used when a base color defines no belly shade.
const DefaultBelly = "#f5e6d3"

// BaseColors returns a copy of the base color catalog.
func BaseColors() []Trait { return append([]Trait(nil), baseColors...) }

// EyeStyles returns a copy of the eye style catalog.
func EyeStyles() []Trait { return append([]Trait(nil), eyeStyles...) }

// Accessories returns a copy of the accessory catalog.
func Accessories() []Trait { return append([]Trait(nil), accessories...) }

// AccessoryColors returns a copy of the accessory color palette.
func AccessoryColors() []string { return append([]string(nil), accessoryColors...) }

// Mutations returns a copy of the mutation catalog.
func Mutations() []Trait { return append([]Trait(nil), mutations...) }

// CatalogSizes reports the length of every catalog, in gene order.
type CatalogSizes struct {
	BaseColors      int `json:"base_colors"`
	EyeStyles       int `json:"eye_styles"`
	Accessories     int `json:"accessories"`
	AccessoryColors int `json:"accessory_colors"`
	Mutations       int `json:"mutations"`
}

// Sizes returns the current catalog lengths.
func Sizes() CatalogSizes {
	return CatalogSizes{
		BaseColors:      len(baseColors),
		EyeStyles:       len(eyeStyles),
		Accessories:     len(accessories),
		AccessoryColors: len(accessoryColors),
		Mutations:       len(mutations),
	}
}

func bellyOf(t Trait) string {
	if t.Belly == "" {
		return DefaultBelly
	}
	return t.Belly
}
