package genome

import (
	"math/rand/v2"
)

// Source is the randomness the generator and breeding engine draw from.
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource returns a Source backed by the runtime's concurrency-safe generator.
func DefaultSource() Source { return globalSource{} }

// NewSeeded returns a deterministic Source. A *rand.Rand is not safe for
// concurrent use; give each goroutine its own.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Weighted pairs a sampling weight with the index returned when it is drawn.
type Weighted struct {
	Weight float64
	Index  int
}

// Pick performs a cumulative-weight draw: a uniform value in [0, total) is
// reduced by each weight in order until it reaches zero or below. A draw
// that selects nothing returns 0.
func Pick(src Source, items []Weighted) int {
	if len(items) == 0 {
		return 0
	}
	var total float64
	for _, it := range items {
		total += it.Weight
	}
	r := src.Float64() * total
	for _, it := range items {
		r -= it.Weight
		if r <= 0 {
			return it.Index
		}
	}
	return 0
}

// Gen0Boost multiplies the weight of every non-common entry when minting generation 0 genomes.
const Gen0Boost = 1.5

// RarityWeights builds the draw list for a catalog. boost scales
// non-common weights; common entries always keep their base weight.
func RarityWeights(catalog []Trait, boost float64) []Weighted {
	out := make([]Weighted, len(catalog))
	for i, t := range catalog {
		w := Info(t.Rarity).Weight
		if t.Rarity != TierCommon {
			w *= boost
		}
		out[i] = Weighted{Weight: w, Index: i}
	}
	return out
}

// SelectByRarity draws a catalog index weighted by tier.
func SelectByRarity(src Source, catalog []Trait) int {
	return Pick(src, RarityWeights(catalog, 1))
}
