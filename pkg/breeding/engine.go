// Package breeding combines two parent genomes into a child genome and
// computes the cooldown and coin economics that surround a breed.
package breeding

import (
	"time"

	"shobergarden/pkg/genome"
)

// Source records where a child's trait came from.
type Source string

// Provenance values.
const (
	FromParent1  Source = "parent1"
	FromParent2  Source = "parent2"
	FromMutation Source = "mutation"
)

// Inheritance is the per-trait provenance of a child genome.
type Inheritance struct {
	BaseColor      Source `json:"base_color_from"`
	EyeStyle       Source `json:"eye_style_from"`
	Accessory      Source `json:"accessory_from"`
	AccessoryColor Source `json:"accessory_color_from"`
	HasMutation    bool   `json:"has_mutation"`
}

// Result is everything a single breed produces. Persisting it is the caller's job.
type Result struct {
	ChildDNA        string      `json:"child_dna"`
	ChildGeneration int         `json:"child_generation"`
	CooldownEnd1    time.Time   `json:"cooldown_end_1"`
	CooldownEnd2    time.Time   `json:"cooldown_end_2"`
	Inherited       Inheritance `json:"inherited_traits"`
}

// Per-trait mutation rates for the generic mixer.
const (
	baseColorMutationRate = 0.03
	eyeStyleMutationRate  = 0.05
	accessoryMutationRate = 0.05
)

// Mutation gene rates.
const (
	mutationChanceBase   = 0.05
	mutationChanceEither = 0.15
	mutationChanceBoth   = 0.30
	directInheritChance  = 0.5
)

// Engine breeds genomes. It holds no mutable state of its own; concurrency
// safety follows from its Source.
type Engine struct {
	src genome.Source
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource injects the random source draws come from.
func WithSource(src genome.Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.src = src
		}
	}
}

// WithClock overrides the clock cooldown ends are computed from.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an engine using the default random source and wall clock
// unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{src: genome.DefaultSource(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Breed combines two parents with the default engine.
func Breed(parent1, parent2 string, gen1, gen2 int) Result {
	return defaultEngine.Breed(parent1, parent2, gen1, gen2)
}

// Breed combines two parent genomes of the given generations. Malformed
// parent genes read as zero; Breed never fails.
func (e *Engine) Breed(parent1, parent2 string, gen1, gen2 int) Result {
	p1 := genome.Resolve(parent1)
	p2 := genome.Resolve(parent2)

	child := genome.Indices{
		BaseColor:      e.mixGeneWithMutation(p1.BaseColor, p2.BaseColor, genome.BaseColors(), baseColorMutationRate),
		EyeStyle:       e.mixGeneWithMutation(p1.EyeStyle, p2.EyeStyle, genome.EyeStyles(), eyeStyleMutationRate),
		Accessory:      e.mixGeneWithMutation(p1.Accessory, p2.Accessory, genome.Accessories(), accessoryMutationRate),
		AccessoryColor: e.mixGene(p1.AccessoryColor, p2.AccessoryColor),
		Mutation:       e.childMutation(p1.Mutation, p2.Mutation),
	}

	now := e.now().UTC().Truncate(time.Millisecond)
	return Result{
		ChildDNA:        genome.Encode(child),
		ChildGeneration: max(gen1, gen2) + 1,
		CooldownEnd1:    now.Add(Cooldown(gen1)),
		CooldownEnd2:    now.Add(Cooldown(gen2)),
		Inherited: Inheritance{
			BaseColor:      provenance(child.BaseColor, p1.BaseColor, p2.BaseColor),
			EyeStyle:       provenance(child.EyeStyle, p1.EyeStyle, p2.EyeStyle),
			Accessory:      provenance(child.Accessory, p1.Accessory, p2.Accessory),
			AccessoryColor: provenance(child.AccessoryColor, p1.AccessoryColor, p2.AccessoryColor),
			HasMutation:    child.Mutation > 0,
		},
	}
}

// mixGene takes parent1's gene when the draw lands strictly above one half.
func (e *Engine) mixGene(g1, g2 int) int {
	if e.src.Float64() > 0.5 {
		return g1
	}
	return g2
}

func (e *Engine) mixGeneWithMutation(g1, g2 int, catalog []genome.Trait, rate float64) int {
	gene := e.mixGene(g1, g2)
	if e.src.Float64() < rate {
		gene = genome.Pick(e.src, genome.RarityWeights(catalog, 1))
	}
	return gene
}

func (e *Engine) childMutation(m1, m2 int) int {
	chance := mutationChanceBase
	if m1 > 0 || m2 > 0 {
		chance = mutationChanceEither
	}
	if m1 > 0 && m2 > 0 {
		chance = mutationChanceBoth
		if e.src.Float64() < directInheritChance {
			return e.mixGene(m1, m2)
		}
	}
	if e.src.Float64() >= chance {
		return 0
	}
	// "none" is never drawn; an empty draw falls back to it.
	return genome.Pick(e.src, genome.RarityWeights(genome.Mutations(), 1)[1:])
}

// provenance attributes a child gene to parent1 first, then parent2.
func provenance(child, g1, g2 int) Source {
	switch child {
	case g1:
		return FromParent1
	case g2:
		return FromParent2
	default:
		return FromMutation
	}
}
