package playback

import (
	"fmt"
	"math"
)

// Mapping converts between a playback value and a discrete slider position
// in [0, MaxProgress()].
type Mapping interface {
	ProgressOf(value float64) int
	ValueOf(progress int) float64
	MaxProgress() int
}

// Resolution is the number of slider positions of the tempo and pitch sliders.
const Resolution = 10_000

// quadraticLinearShare is the linear part of the curve on each side of the
// center. With 0.25 the slope at the extremes is 1.75x the average slope of
// that side, so one slider position never spans more than (max-min)/maxProgress.
const quadraticLinearShare = 0.25

// Quadratic maps values onto slider positions with a curve that is flattest
// at center and steepest at min and max. The center position splits the
// slider in proportion to (center-min) and (max-center).
type Quadratic struct {
	min    float64
	max    float64
	center float64

	maxProgress    int
	centerProgress int
}

// QuadraticSlider is the mapping used by the tempo and pitch percent sliders.
var QuadraticSlider = MustQuadratic(MinValue, MaxValue, DefaultTempo, Resolution)

// NewQuadratic returns a quadratic mapping over [min, max] centered on center.
func NewQuadratic(min, max, center float64, maxProgress int) (*Quadratic, error) {
	if maxProgress <= 1 {
		return nil, fmt.Errorf("%w: max progress must be > 1, got %d", ErrInvalidMapping, maxProgress)
	}
	if !(min < center && center < max) {
		return nil, fmt.Errorf("%w: need min < center < max, got %v/%v/%v", ErrInvalidMapping, min, center, max)
	}

	cp := int(math.Round(float64(maxProgress) * (center - min) / (max - min)))
	if cp < 1 {
		cp = 1
	}
	if cp > maxProgress-1 {
		cp = maxProgress - 1
	}

	return &Quadratic{
		min:            min,
		max:            max,
		center:         center,
		maxProgress:    maxProgress,
		centerProgress: cp,
	}, nil
}

// MustQuadratic is like NewQuadratic but panics on invalid bounds.
func MustQuadratic(min, max, center float64, maxProgress int) *Quadratic {
	q, err := NewQuadratic(min, max, center, maxProgress)
	if err != nil {
		panic(err)
	}
	return q
}

// MaxProgress returns the highest slider position.
func (q *Quadratic) MaxProgress() int { return q.maxProgress }

// CenterProgress returns the slider position of the center value.
func (q *Quadratic) CenterProgress() int { return q.centerProgress }

// ValueOf returns the value at a slider position. Positions outside
// [0, MaxProgress()] are clamped first.
func (q *Quadratic) ValueOf(progress int) float64 {
	if progress < 0 {
		progress = 0
	}
	if progress > q.maxProgress {
		progress = q.maxProgress
	}

	if progress >= q.centerProgress {
		x := float64(progress-q.centerProgress) / float64(q.maxProgress-q.centerProgress)
		return q.center + (q.max-q.center)*shape(x)
	}
	x := float64(q.centerProgress-progress) / float64(q.centerProgress)
	return q.center - (q.center-q.min)*shape(x)
}

// ProgressOf returns the nearest slider position of value. Values outside
// [min, max] are clamped first.
func (q *Quadratic) ProgressOf(value float64) int {
	if math.IsNaN(value) || value < q.min {
		value = q.min
	}
	if value > q.max {
		value = q.max
	}

	if value >= q.center {
		x := unshape((value - q.center) / (q.max - q.center))
		return q.centerProgress + int(math.Round(x*float64(q.maxProgress-q.centerProgress)))
	}
	x := unshape((q.center - value) / (q.center - q.min))
	return q.centerProgress - int(math.Round(x*float64(q.centerProgress)))
}

// shape maps x in [0,1] onto [0,1]; its slope grows with x.
func shape(x float64) float64 {
	const a = quadraticLinearShare
	return a*x + (1-a)*x*x
}

// unshape is the inverse of shape on [0,1].
func unshape(y float64) float64 {
	const a = quadraticLinearShare
	x := (-a + math.Sqrt(a*a+4*(1-a)*y)) / (2 * (1 - a))
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// SemitoneSlider maps pitch percent onto a 25-position slider centered on
// position 12 (no pitch shift).
type SemitoneSlider struct{}

// MaxProgress returns the highest slider position (24).
func (SemitoneSlider) MaxProgress() int { return MaxSemitones - MinSemitones }

// ProgressOf returns the slider position of the semitone nearest to percent.
func (SemitoneSlider) ProgressOf(percent float64) int {
	return PercentToSemitones(percent) - MinSemitones
}

// ValueOf returns the pitch percent at a slider position.
func (SemitoneSlider) ValueOf(progress int) float64 {
	return SemitonesToPercent(progress + MinSemitones)
}

var (
	_ Mapping = (*Quadratic)(nil)
	_ Mapping = SemitoneSlider{}
)
