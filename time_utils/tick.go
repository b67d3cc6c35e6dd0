package timeutils

import (
	"fmt"
	"math"
	"time"
)

const (
	// DaysPerYear is the period of the seasonal cycle used throughout the simulation.
	DaysPerYear = 365
	// MaxDayOfYear allows for the extra day of a leap year.
	MaxDayOfYear = 366
)

// Tick is one discrete simulated instant, as seen by the solar and inverter models.
type Tick struct {
	DayOfYear int     // 1..366
	Hour      float64 // fractional hour of day in [0, 24)
}

// TickFromTime converts a simulated wall-clock time into a Tick, using the time's own location for the
// day boundary. Minutes and seconds are kept as a fraction of the hour.
func TickFromTime(t time.Time) Tick {
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600 + float64(t.Nanosecond())/3.6e12
	return Tick{
		DayOfYear: t.YearDay(),
		Hour:      hour,
	}
}

// Normalized returns the tick with its day folded into 1..MaxDayOfYear and its hour into [0, 24).
func (t Tick) Normalized() Tick {
	day := t.DayOfYear
	if day < 1 || day > MaxDayOfYear {
		day = ((day-1)%DaysPerYear+DaysPerYear)%DaysPerYear + 1
	}
	hour := math.Mod(t.Hour, 24)
	if hour < 0 {
		hour += 24
	}
	return Tick{DayOfYear: day, Hour: hour}
}

// String formats the tick as "d<day> hh:mm".
func (t Tick) String() string {
	minutes := int(math.Round(t.Hour * 60))
	return fmt.Sprintf("d%03d %02d:%02d", t.DayOfYear, minutes/60, minutes%60)
}
