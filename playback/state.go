package playback

// Values is the triple reported to the player: what it should apply.
type Values struct {
	Tempo       float64 `json:"tempo"`
	Pitch       float64 `json:"pitch"`
	SkipSilence bool    `json:"skip_silence"`
}

// DefaultValues returns the values a Reset restores.
func DefaultValues() Values {
	return Values{
		Tempo:       DefaultTempo,
		Pitch:       DefaultPitch,
		SkipSilence: DefaultSkipSilence,
	}
}

// State is the mutable record of an open control session.
type State struct {
	Tempo        float64  `json:"tempo"`
	PitchPercent float64  `json:"pitch_percent"`
	StepSize     StepSize `json:"step_size"`
	SkipSilence  bool     `json:"skip_silence"`

	// Hook couples tempo and pitch: while set, both are always equal.
	Hook bool `json:"hook"`

	// SemitoneMode makes the semitone control authoritative for pitch and
	// restricts pitch to exact semitones.
	SemitoneMode bool `json:"semitone_mode"`
}

// Values returns the player-facing triple of s.
func (s State) Values() Values {
	return Values{
		Tempo:       s.Tempo,
		Pitch:       s.PitchPercent,
		SkipSilence: s.SkipSilence,
	}
}

// Semitones returns the semitone offset nearest to the current pitch.
func (s State) Semitones() int {
	return PercentToSemitones(s.PitchPercent)
}

// TempoProgress returns the tempo slider position.
func (s State) TempoProgress() int {
	return QuadraticSlider.ProgressOf(s.Tempo)
}

// PitchProgress returns the pitch percent slider position.
func (s State) PitchProgress() int {
	return QuadraticSlider.ProgressOf(s.PitchPercent)
}

// SemitoneProgress returns the semitone slider position.
func (s State) SemitoneProgress() int {
	return SemitoneSlider{}.ProgressOf(s.PitchPercent)
}

// normalized returns s with every invariant re-established, without any
// notification. Coupled values collapse to the lower of the two, as a
// re-coupling does.
func (s State) normalized() State {
	if !s.StepSize.Valid() {
		s.StepSize = DefaultStepSize
	}
	s.Tempo = Clamp(s.Tempo)
	s.PitchPercent = Clamp(s.PitchPercent)
	if s.SemitoneMode {
		s.PitchPercent = QuantizePitch(s.PitchPercent)
	}
	if s.Hook && s.Tempo != s.PitchPercent {
		v := min(s.Tempo, s.PitchPercent)
		if s.SemitoneMode {
			v = QuantizePitch(v)
		}
		s.Tempo, s.PitchPercent = v, v
	}
	return s
}
