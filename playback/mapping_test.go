package playback

import (
	"errors"
	"math"
	"testing"
)

func TestQuadratic_RoundTripWithinOnePosition(t *testing.T) {
	q := QuadraticSlider
	bound := (MaxValue - MinValue) / Resolution

	for v := MinValue; v <= MaxValue; v += 0.0007 {
		got := q.ValueOf(q.ProgressOf(v))
		if diff := math.Abs(got - v); diff > bound {
			t.Fatalf("ValueOf(ProgressOf(%v)) = %v, diff %v > %v", v, got, diff, bound)
		}
	}
}

func TestQuadratic_Endpoints(t *testing.T) {
	q := QuadraticSlider

	if got := q.ProgressOf(MinValue); got != 0 {
		t.Errorf("ProgressOf(min) = %d, want 0", got)
	}
	if got := q.ProgressOf(MaxValue); got != Resolution {
		t.Errorf("ProgressOf(max) = %d, want %d", got, Resolution)
	}
	if got := q.ProgressOf(DefaultTempo); got != q.CenterProgress() {
		t.Errorf("ProgressOf(1.00) = %d, want center %d", got, q.CenterProgress())
	}
	if got := q.ValueOf(q.CenterProgress()); got != DefaultTempo {
		t.Errorf("ValueOf(center) = %v, want %v", got, DefaultTempo)
	}
	if got := q.ValueOf(0); math.Abs(got-MinValue) > 1e-12 {
		t.Errorf("ValueOf(0) = %v, want %v", got, MinValue)
	}
	if got := q.ValueOf(Resolution); math.Abs(got-MaxValue) > 1e-12 {
		t.Errorf("ValueOf(max) = %v, want %v", got, MaxValue)
	}
}

func TestQuadratic_ClampsInputs(t *testing.T) {
	q := QuadraticSlider

	if got := q.ProgressOf(-4); got != 0 {
		t.Errorf("ProgressOf(-4) = %d, want 0", got)
	}
	if got := q.ProgressOf(math.NaN()); got != 0 {
		t.Errorf("ProgressOf(NaN) = %d, want 0", got)
	}
	if got := q.ProgressOf(42); got != Resolution {
		t.Errorf("ProgressOf(42) = %d, want %d", got, Resolution)
	}
	if got, want := q.ValueOf(-10), q.ValueOf(0); got != want {
		t.Errorf("ValueOf(-10) = %v, want %v", got, want)
	}
	if got, want := q.ValueOf(Resolution+500), q.ValueOf(Resolution); got != want {
		t.Errorf("ValueOf(max+500) = %v, want %v", got, want)
	}
}

func TestQuadratic_Monotonic(t *testing.T) {
	q := QuadraticSlider

	prev := q.ValueOf(0)
	for p := 1; p <= Resolution; p++ {
		v := q.ValueOf(p)
		if v < prev {
			t.Fatalf("ValueOf(%d) = %v < ValueOf(%d) = %v", p, v, p-1, prev)
		}
		prev = v
	}

	prevP := q.ProgressOf(MinValue)
	for v := MinValue; v <= MaxValue; v += 0.001 {
		p := q.ProgressOf(v)
		if p < prevP {
			t.Fatalf("ProgressOf(%v) = %d < previous %d", v, p, prevP)
		}
		prevP = p
	}
}

func TestQuadratic_FinerNearDefault(t *testing.T) {
	q := QuadraticSlider
	c := q.CenterProgress()

	up := q.ValueOf(c+1) - q.ValueOf(c)
	down := q.ValueOf(c) - q.ValueOf(c-1)
	low := q.ValueOf(1) - q.ValueOf(0)
	high := q.ValueOf(Resolution) - q.ValueOf(Resolution-1)

	if !(up < high) {
		t.Errorf("delta near 1.00 (%v) should be < delta near max (%v)", up, high)
	}
	if !(down < low) {
		t.Errorf("delta near 1.00 (%v) should be < delta near min (%v)", down, low)
	}
}

func TestNewQuadratic_RejectsBadBounds(t *testing.T) {
	cases := []struct {
		name             string
		min, max, center float64
		maxProgress      int
	}{
		{"zero progress", 0.1, 3, 1, 0},
		{"center below min", 0.1, 3, 0.05, 100},
		{"center above max", 0.1, 3, 4, 100},
		{"inverted", 3, 0.1, 1, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewQuadratic(tc.min, tc.max, tc.center, tc.maxProgress)
			if !errors.Is(err, ErrInvalidMapping) {
				t.Fatalf("expected ErrInvalidMapping, got %v", err)
			}
		})
	}
}

func TestSemitoneSlider(t *testing.T) {
	var m Mapping = SemitoneSlider{}

	if got := m.MaxProgress(); got != 24 {
		t.Fatalf("MaxProgress() = %d, want 24", got)
	}
	if got := m.ProgressOf(1.0); got != 12 {
		t.Errorf("ProgressOf(1.0) = %d, want 12", got)
	}
	if got := m.ValueOf(0); got != 0.5 {
		t.Errorf("ValueOf(0) = %v, want 0.5", got)
	}
	if got := m.ValueOf(24); got != 2.0 {
		t.Errorf("ValueOf(24) = %v, want 2.0", got)
	}
	for p := 0; p <= m.MaxProgress(); p++ {
		if got := m.ProgressOf(m.ValueOf(p)); got != p {
			t.Errorf("ProgressOf(ValueOf(%d)) = %d", p, got)
		}
	}
}
