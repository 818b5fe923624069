package genome

// Generator mints fresh genomes from a random source.
type Generator struct {
	src Source
}

// NewGenerator returns a generator drawing from src; nil selects DefaultSource.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = DefaultSource()
	}
	return &Generator{src: src}
}

// RandomDNA draws every weighted trait independently and the accessory color uniformly.
func (g *Generator) RandomDNA() string {
	return g.generate(1)
}

// Gen0DNA is RandomDNA with non-common weights boosted by Gen0Boost.
func (g *Generator) Gen0DNA() string {
	return g.generate(Gen0Boost)
}

func (g *Generator) generate(boost float64) string {
	return Encode(Indices{
		BaseColor:      Pick(g.src, RarityWeights(baseColors, boost)),
		EyeStyle:       Pick(g.src, RarityWeights(eyeStyles, boost)),
		Accessory:      Pick(g.src, RarityWeights(accessories, boost)),
		AccessoryColor: g.src.IntN(len(accessoryColors)),
		Mutation:       Pick(g.src, RarityWeights(mutations, boost)),
	})
}

var defaultGenerator = NewGenerator(nil)

// GenerateRandomDNA returns a random genome using the default source.
func GenerateRandomDNA() string { return defaultGenerator.RandomDNA() }

// GenerateGen0DNA returns a boosted generation 0 genome using the default source.
func GenerateGen0DNA() string { return defaultGenerator.Gen0DNA() }
