package solar

import (
	"math/rand/v2"

	timeutils "github.com/cepro/solarsim/time_utils"
)

// CloudModel selects how the daily cloud variation U is drawn.
type CloudModel string

const (
	// CloudModelUniform draws U uniformly from [0,1).
	CloudModelUniform CloudModel = "uniform"
	// CloudModelWeighted draws U from cloud cover buckets weighted by the season of the day.
	CloudModelWeighted CloudModel = "weighted"
)

// Season is a meteorological season.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// cloudBucket is a range of cloud cover, e.g. "partly cloudy" is 0.2 to 0.6.
type cloudBucket struct {
	lo, hi float64
}

var cloudBuckets = [4]cloudBucket{
	{0.0, 0.2}, // clear
	{0.2, 0.6}, // partly cloudy
	{0.6, 0.8}, // mostly cloudy
	{0.8, 0.9}, // overcast
}

// seasonWeights gives the relative likelihood of each cloud bucket, in the order of cloudBuckets.
var seasonWeights = map[Season][4]float64{
	Spring: {0.1, 0.3, 0.4, 0.2},
	Summer: {0.05, 0.15, 0.3, 0.5},
	Autumn: {0.2, 0.4, 0.3, 0.1},
	Winter: {0.3, 0.4, 0.2, 0.1},
}

// SeasonForDay returns the meteorological season of the given day of year.
func SeasonForDay(dayOfYear int, southernHemisphere bool) Season {
	if southernHemisphere {
		dayOfYear = (dayOfYear+182-1)%timeutils.DaysPerYear + 1
	}
	switch {
	case dayOfYear >= 60 && dayOfYear < 152:
		return Spring
	case dayOfYear >= 152 && dayOfYear < 244:
		return Summer
	case dayOfYear >= 244 && dayOfYear < 335:
		return Autumn
	default:
		return Winter
	}
}

// drawCloudCover returns the day's cloud variation U in [0,1) using the given generator.
func drawCloudCover(r *rand.Rand, model CloudModel, season Season) float64 {
	if model != CloudModelWeighted {
		return r.Float64()
	}

	weights := seasonWeights[season]
	total := 0.0
	for _, w := range weights {
		total += w
	}

	target := r.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target <= acc {
			bucket := cloudBuckets[i]
			return bucket.lo + r.Float64()*(bucket.hi-bucket.lo)
		}
	}
	return cloudBuckets[0].lo + r.Float64()*(cloudBuckets[0].hi-cloudBuckets[0].lo)
}
