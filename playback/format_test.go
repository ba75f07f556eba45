package playback

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"speed default", FormatSpeed(1), "1x"},
		{"speed two decimals", FormatSpeed(1.25), "1.25x"},
		{"speed rounds", FormatSpeed(1.2349), "1.23x"},
		{"speed one decimal", FormatSpeed(0.5), "0.5x"},
		{"pitch", FormatPitch(1.25), "125%"},
		{"pitch rounds", FormatPitch(0.996), "100%"},
		{"semitones up", FormatSemitones(SemitonesToPercent(3)), "+3"},
		{"semitones down", FormatSemitones(SemitonesToPercent(-2)), "-2"},
		{"semitones zero", FormatSemitones(1), "0"},
		{"step up", StepLabel(Step25Percent, 1), "+25%"},
		{"step down", StepLabel(Step5Percent, -1), "-5%"},
		{"step 100", StepLabel(Step100Percent, 1), "+100%"},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestParseStepSize(t *testing.T) {
	for _, s := range StepSizes {
		got, err := ParseStepSize(float64(s))
		if err != nil || got != s {
			t.Errorf("ParseStepSize(%v) = %v, %v", float64(s), got, err)
		}
	}
	if _, err := ParseStepSize(0.3); err == nil {
		t.Errorf("expected error for 0.3")
	}
}
