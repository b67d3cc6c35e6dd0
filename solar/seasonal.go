package solar

import (
	"fmt"
	"math"

	"github.com/cepro/solarsim/cartesian"
	"github.com/cepro/solarsim/simerrors"
	timeutils "github.com/cepro/solarsim/time_utils"
)

const (
	northernWinterSolsticeDay = 355 // 21st December
	southernWinterSolsticeDay = 172 // 21st June
)

// SeasonalCurve maps a day of year to the expected cloud cover baseline for that time of year, in [0,1].
// 1 means the cloudiest time of year, so the seasonal factor is 1 - amplitude * At(day).
type SeasonalCurve interface {
	At(dayOfYear int) float64
}

// CosineSeasonalCurve is a raised cosine with a 365 day period, peaking at 1 on the winter solstice and
// falling to ~0 at the summer solstice.
type CosineSeasonalCurve struct {
	WinterSolsticeDay int
}

// DefaultSeasonalCurve returns the cosine curve for the given hemisphere.
func DefaultSeasonalCurve(southernHemisphere bool) CosineSeasonalCurve {
	if southernHemisphere {
		return CosineSeasonalCurve{WinterSolsticeDay: southernWinterSolsticeDay}
	}
	return CosineSeasonalCurve{WinterSolsticeDay: northernWinterSolsticeDay}
}

func (c CosineSeasonalCurve) At(dayOfYear int) float64 {
	phase := 2 * math.Pi * float64(dayOfYear-c.WinterSolsticeDay) / timeutils.DaysPerYear
	return (1 + math.Cos(phase)) / 2
}

// PiecewiseSeasonalCurve interpolates linearly between configured (day, cloud baseline) points, wrapping
// around the year end so that the last point joins back up with the first.
type PiecewiseSeasonalCurve struct {
	periodic cartesian.Curve
}

// NewPiecewiseSeasonalCurve validates the given curve and returns a periodic seasonal curve built from it.
// Points must lie within days 1..365 and their values within [0,1].
func NewPiecewiseSeasonalCurve(curve cartesian.Curve) (*PiecewiseSeasonalCurve, error) {
	if err := curve.Validate(); err != nil {
		return nil, simerrors.NewConfigurationError(component, "seasonalCurve", float64(len(curve.Points)), err.Error())
	}
	for i, point := range curve.Points {
		if point.X < 1 || point.X > timeutils.DaysPerYear {
			return nil, simerrors.NewConfigurationError(component, fmt.Sprintf("seasonalCurve.points[%d].x", i), point.X, "must be a day of year in 1..365")
		}
		if point.Y < 0 || point.Y > 1 {
			return nil, simerrors.NewConfigurationError(component, fmt.Sprintf("seasonalCurve.points[%d].y", i), point.Y, "must be within [0,1]")
		}
	}

	first := curve.Points[0]
	last := curve.Points[len(curve.Points)-1]
	points := make([]cartesian.Point, 0, len(curve.Points)+2)
	points = append(points, cartesian.Point{X: last.X - timeutils.DaysPerYear, Y: last.Y})
	points = append(points, curve.Points...)
	points = append(points, cartesian.Point{X: first.X + timeutils.DaysPerYear, Y: first.Y})

	return &PiecewiseSeasonalCurve{periodic: cartesian.Curve{Points: points}}, nil
}

func (c *PiecewiseSeasonalCurve) At(dayOfYear int) float64 {
	v := c.periodic.ValueAt(float64(dayOfYear))
	if math.IsNaN(v) {
		return 0
	}
	return v
}
