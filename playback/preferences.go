package playback

// PreferenceStore persists the two session toggles between sessions.
type PreferenceStore interface {
	GetBool(key string, def bool) bool
	SetBool(key string, value bool)
}

// Preference keys and the values used when a key has never been written.
const (
	PrefCoupled      = "playback_coupled"
	PrefSemitoneMode = "playback_adjust_by_semitones"

	DefaultCoupled      = true
	DefaultSemitoneMode = false
)

// noPreferences is used when no store is configured: defaults are read and
// writes are dropped.
type noPreferences struct{}

func (noPreferences) GetBool(_ string, def bool) bool { return def }
func (noPreferences) SetBool(string, bool)            {}
