// Package genome implements the 96-bit pet genome: its binary layout, the
// trait catalogs genes resolve against, rarity scoring and weighted random
// generation. Everything here is pure and safe for concurrent use.
package genome

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// Genome layout: twelve big-endian bytes, one gene per byte.
const (
	SlotBaseColor      = 0
	SlotBellyColor     = 1 // mirrors SlotBaseColor at encode time
	SlotEyeStyle       = 2
	SlotAccessory      = 3
	SlotAccessoryColor = 4
	SlotPattern        = 5 // reserved, always zero
	SlotMutation       = 6
	// Slots 7-11 are reserved and always zero.

	Size   = 12
	Length = Size * 2
)

// Placeholder is the genome of a pet whose DNA has not been generated yet.
const Placeholder = "000000000000000000000000"

// ErrInvalidGenome is returned by Parse for strings that are not a genome.
var ErrInvalidGenome = errors.New("genome: invalid genome")

// Genome is the fixed-size byte form of a genome string.
type Genome [Size]byte

// String renders the genome as 24 lowercase hex characters.
func (g Genome) String() string {
	return hex.EncodeToString(g[:])
}

// Indices are the catalog positions an encoded genome carries.
type Indices struct {
	BaseColor      int `json:"base_color"`
	EyeStyle       int `json:"eye_style"`
	Accessory      int `json:"accessory"`
	AccessoryColor int `json:"accessory_color"`
	Mutation       int `json:"mutation"`
}

// Decoded is the trait view of a genome.
type Decoded struct {
	BaseColor      Trait  `json:"base_color"`
	BellyColor     string `json:"belly_color"`
	EyeStyle       Trait  `json:"eye_style"`
	Accessory      Trait  `json:"accessory"`
	AccessoryColor string `json:"accessory_color"`
	Mutation       Trait  `json:"mutation"`
	RarityScore    int    `json:"rarity_score"`
	OverallRarity  Tier   `json:"overall_rarity"`
}

// Config is the render configuration derived from a genome.
type Config struct {
	BaseColor      string `json:"base_color"`
	BellyColor     string `json:"belly_color"`
	EyeStyle       string `json:"eye_style"`
	Accessory      string `json:"accessory"`
	AccessoryColor string `json:"accessory_color"`
}

// placeholderScore is reported for genomes that have not been generated.
const placeholderScore = 50

// Build lays out indices into a Genome. Out-of-range indices are truncated
// to a byte; catalog wrapping happens on decode.
func Build(idx Indices) Genome {
	var g Genome
	g[SlotBaseColor] = byte(idx.BaseColor)
	g[SlotBellyColor] = byte(idx.BaseColor)
	g[SlotEyeStyle] = byte(idx.EyeStyle)
	g[SlotAccessory] = byte(idx.Accessory)
	g[SlotAccessoryColor] = byte(idx.AccessoryColor)
	g[SlotMutation] = byte(idx.Mutation)
	return g
}

// Encode returns the genome string for the given indices.
func Encode(idx Indices) string {
	return Build(idx).String()
}

// Parse strictly parses a genome string.
func Parse(s string) (Genome, error) {
	var g Genome
	if len(s) != Length {
		return g, fmt.Errorf("%w: length %d, want %d", ErrInvalidGenome, len(s), Length)
	}
	if _, err := hex.Decode(g[:], []byte(s)); err != nil {
		return g, fmt.Errorf("%w: %v", ErrInvalidGenome, err)
	}
	return g, nil
}

// Valid reports whether s is a well-formed genome string.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// IsPlaceholder reports whether s should decode to the default traits.
func IsPlaceholder(s string) bool {
	return len(s) != Length || s == Placeholder
}

// Gene reads the raw byte value of one slot straight from the string
// offsets. Malformed or missing genes read as zero.
func Gene(s string, slot int) int {
	if slot < 0 || slot >= Size || len(s) < (slot+1)*2 {
		return 0
	}
	v, err := strconv.ParseUint(s[slot*2:slot*2+2], 16, 8)
	if err != nil {
		return 0
	}
	return int(v)
}

// Resolve reduces the raw genes of s onto catalog indices.
func Resolve(s string) Indices {
	return Indices{
		BaseColor:      Gene(s, SlotBaseColor) % len(baseColors),
		EyeStyle:       Gene(s, SlotEyeStyle) % len(eyeStyles),
		Accessory:      Gene(s, SlotAccessory) % len(accessories),
		AccessoryColor: Gene(s, SlotAccessoryColor) % len(accessoryColors),
		Mutation:       Gene(s, SlotMutation) % len(mutations),
	}
}

// Default returns the traits of an ungenerated genome.
func Default() Decoded {
	base := baseColors[0]
	return Decoded{
		BaseColor:      base,
		BellyColor:     bellyOf(base),
		EyeStyle:       eyeStyles[0],
		Accessory:      accessories[0],
		AccessoryColor: accessoryColors[0],
		Mutation:       mutations[0],
		RarityScore:    placeholderScore,
		OverallRarity:  TierCommon,
	}
}

// Decode maps a genome string onto its traits. Empty, wrongly sized and
// placeholder genomes decode to Default; Decode never fails.
func Decode(s string) Decoded {
	if IsPlaceholder(s) {
		return Default()
	}
	idx := Resolve(s)
	base := baseColors[idx.BaseColor]
	eyes := eyeStyles[idx.EyeStyle]
	acc := accessories[idx.Accessory]
	mut := mutations[idx.Mutation]
	score := CalculateRarityScore(TierSet{
		BaseColor: base.Rarity,
		EyeStyle:  eyes.Rarity,
		Accessory: acc.Rarity,
		Mutation:  mut.Rarity,
	})
	return Decoded{
		BaseColor:      base,
		BellyColor:     bellyOf(base),
		EyeStyle:       eyes,
		Accessory:      acc,
		AccessoryColor: accessoryColors[idx.AccessoryColor],
		Mutation:       mut,
		RarityScore:    score,
		OverallRarity:  OverallRarity(score),
	}
}

// ToConfig returns the render configuration for a genome string.
func ToConfig(s string) Config {
	d := Decode(s)
	base := d.BaseColor.Hex
	if base == "" {
		base = baseColors[0].Hex
	}
	return Config{
		BaseColor:      base,
		BellyColor:     d.BellyColor,
		EyeStyle:       d.EyeStyle.ID,
		Accessory:      d.Accessory.ID,
		AccessoryColor: d.AccessoryColor,
	}
}
