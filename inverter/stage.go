package inverter

import (
	"github.com/cepro/solarsim/simerrors"
	"github.com/cepro/solarsim/telemetry"
	timeutils "github.com/cepro/solarsim/time_utils"
)

const component = "inverter"

// Stage enforces the inverter's maximum AC output and reports curtailment.
// It holds no state apart from the fixed limit, so it is safe for concurrent use.
type Stage struct {
	clippingLimit float64
}

// New returns a Stage with the given rated maximum AC output, or a ConfigurationError if the limit is not positive.
func New(clippingLimit float64) (*Stage, error) {
	if !(clippingLimit > 0) {
		return nil, simerrors.NewConfigurationError(component, "clippingLimit", clippingLimit, "must be greater than zero")
	}
	return &Stage{clippingLimit: clippingLimit}, nil
}

// Apply clips the raw DC power to the AC limit. A CurtailmentEvent is returned only when the raw power exceeds the
// limit, otherwise the event is nil - there are no zero-amount events.
func (s *Stage) Apply(rawPower float64, tick timeutils.Tick) (float64, *telemetry.CurtailmentEvent) {
	if rawPower <= s.clippingLimit {
		return rawPower, nil
	}

	clipped := s.clippingLimit
	return clipped, &telemetry.CurtailmentEvent{
		Tick:            tick,
		RawPower:        rawPower,
		ClippedPower:    clipped,
		AmountCurtailed: rawPower - clipped,
	}
}

// ClippingLimit returns the configured maximum AC output.
func (s *Stage) ClippingLimit() float64 {
	return s.clippingLimit
}
