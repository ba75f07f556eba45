package playback

// StepTempo moves tempo one step size in the direction of dir's sign.
func (e *Engine) StepTempo(dir int) {
	e.SetTempo(e.state.Tempo + float64(sign(dir))*float64(e.state.StepSize))
}

// StepPitch moves pitch percent one step size in the direction of dir's sign.
func (e *Engine) StepPitch(dir int) {
	e.SetPitch(e.state.PitchPercent + float64(sign(dir))*float64(e.state.StepSize))
}

// StepSemitone moves pitch one semitone in the direction of dir's sign.
func (e *Engine) StepSemitone(dir int) {
	e.SetPitch(SemitonesToPercent(PercentToSemitones(e.state.PitchPercent) + sign(dir)))
}

func sign(dir int) int {
	switch {
	case dir > 0:
		return 1
	case dir < 0:
		return -1
	default:
		return 0
	}
}
