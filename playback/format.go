package playback

import (
	"fmt"
	"math"
	"strconv"
)

// FormatSpeed renders a tempo with at most two decimals, e.g. "1.25x", "1x".
func FormatSpeed(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "x"
}

// FormatPitch renders a pitch percent as a whole percentage, e.g. "125%".
func FormatPitch(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

// FormatSemitones renders the semitone offset of a pitch percent: "+3", "-2", "0".
func FormatSemitones(percent float64) string {
	n := PercentToSemitones(percent)
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// StepLabel renders a step button label such as "+25%" or "-5%".
func StepLabel(s StepSize, dir int) string {
	prefix := "+"
	if dir < 0 {
		prefix = "-"
	}
	return prefix + FormatPitch(float64(s))
}
