package cartesian

import (
	"errors"
	"fmt"
	"math"
)

// Point represents a cartesian X,Y point
type Point struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// Curve is a piecewise-linear curve through Points, which must be ordered by ascending X.
type Curve struct {
	Points []Point `json:"points" mapstructure:"points"`
}

// Validate returns an error if the curve has fewer than two points or its points are not in ascending X order.
func (c *Curve) Validate() error {
	if len(c.Points) < 2 {
		return errors.New("curve needs at least two points")
	}
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].X <= c.Points[i-1].X {
			return fmt.Errorf("curve points must be in strictly ascending x order (point %d)", i)
		}
	}
	return nil
}

// ValueAt returns the y-value of the curve at `x`.
// NaN is returned if `x` is not within the horizontal span of the curve.
func (c *Curve) ValueAt(x float64) float64 {
	for i := 0; i < len(c.Points)-1; i++ {
		p1 := c.Points[i]
		p2 := c.Points[i+1]

		if p1.X <= x && x <= p2.X {
			return linearInterpolation(p1, p2, x)
		}
	}
	return math.NaN()
}

// VerticalDistance returns the vertical (y-axis) distance from the given point to the Curve, a positive number indicating that the
// point is below the curve, and vice-versa. NaN is returned if the point is outside the horizontal span of the curve.
func (c *Curve) VerticalDistance(p Point) float64 {
	return c.ValueAt(p.X) - p.Y
}

// linearInterpolation returns the y-value at `x` given two points.
func linearInterpolation(p1, p2 Point, x float64) float64 {
	return p1.Y + (x-p1.X)*((p2.Y-p1.Y)/(p2.X-p1.X))
}
