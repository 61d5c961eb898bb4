package domain

import "math"

// EmissionsForActivity derives the emissions for a catalog entry from its
// stored rate: round(rate × factor × (1 − reduction/100)), clamped to a
// non-negative integer. Reductions above 100 percent are accepted as given
// and clamp the result to zero.
func EmissionsForActivity(activity ActivityType) uint64 {
	adjusted := float64(activity.Rate) * activity.EmissionsFactor * (1 - float64(activity.ReductionPct)/100)
	return clampRound(adjusted)
}

// EmissionsForQuantity derives emissions from a caller-supplied quantity and
// a fractional factor: round(quantity × factor).
func EmissionsForQuantity(quantity uint64, factor float64) uint64 {
	return clampRound(float64(quantity) * factor)
}

func clampRound(value float64) uint64 {
	if value <= 0 || math.IsNaN(value) {
		return 0
	}
	return uint64(math.Round(value))
}
