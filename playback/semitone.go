package playback

import "math"

// Semitone offset domain.
const (
	MinSemitones = -12
	MaxSemitones = 12

	semitonesPerOctave = 12
)

// PercentToSemitones returns the semitone offset nearest to a pitch percent,
// clamped to [MinSemitones, MaxSemitones].
func PercentToSemitones(percent float64) int {
	if math.IsNaN(percent) || percent <= 0 {
		return MinSemitones
	}
	return clampSemitones(int(math.Round(semitonesPerOctave * math.Log2(percent))))
}

// SemitonesToPercent returns the pitch percent of a semitone offset.
// Offsets outside [MinSemitones, MaxSemitones] are clamped first.
func SemitonesToPercent(semitones int) float64 {
	return math.Pow(2, float64(clampSemitones(semitones))/semitonesPerOctave)
}

// QuantizePitch snaps a pitch percent to the nearest representable semitone.
func QuantizePitch(percent float64) float64 {
	return SemitonesToPercent(PercentToSemitones(percent))
}

func clampSemitones(n int) int {
	if n < MinSemitones {
		return MinSemitones
	}
	if n > MaxSemitones {
		return MaxSemitones
	}
	return n
}
