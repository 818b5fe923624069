package breeding

import "math"

const (
	baseCost        = 100
	costPerGen      = 15
	minimumCost     = 10
	minimumStudFee  = 10
	gen0StudPremium = 2
)

// Cost is the coin price of breeding two parents: 100 less 15 per average
// generation, never below 10.
func Cost(gen1, gen2 int) int {
	avg := float64(gen1+gen2) / 2
	return int(math.Round(math.Max(minimumCost, baseCost-avg*costPerGen)))
}

// StudFee suggests what an owner charges for a stud service. Generation 0
// studs command double.
func StudFee(rarityScore, generation int) int {
	fee := int(math.Round(float64(rarityScore) * 0.5))
	if generation == 0 {
		fee *= gen0StudPremium
	}
	return max(minimumStudFee, fee)
}
