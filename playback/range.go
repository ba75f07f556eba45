package playback

import (
	"fmt"
	"math"
)

// Playback value bounds shared by tempo and pitch percent.
const (
	MinValue = 0.10
	MaxValue = 3.00
)

// Reset targets.
const (
	DefaultTempo       = 1.00
	DefaultPitch       = 1.00
	DefaultSkipSilence = false
)

// Clamp limits v to [MinValue, MaxValue]. NaN saturates at MinValue.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}

// StepSize is the increment applied by the tempo and pitch step buttons.
type StepSize float64

const (
	Step1Percent   StepSize = 0.01
	Step5Percent   StepSize = 0.05
	Step10Percent  StepSize = 0.10
	Step25Percent  StepSize = 0.25
	Step100Percent StepSize = 1.00

	DefaultStepSize = Step25Percent
)

// StepSizes lists the selectable step sizes in ascending order.
var StepSizes = [...]StepSize{
	Step1Percent,
	Step5Percent,
	Step10Percent,
	Step25Percent,
	Step100Percent,
}

// Valid reports whether s is one of StepSizes.
func (s StepSize) Valid() bool {
	for _, v := range StepSizes {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStepSize maps a float (e.g. decoded from JSON) onto the matching
// StepSize constant.
func ParseStepSize(v float64) (StepSize, error) {
	const eps = 1e-9
	for _, s := range StepSizes {
		if math.Abs(float64(s)-v) < eps {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidStepSize, v)
}
