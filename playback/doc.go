// Package playback implements the tempo/pitch control session used by a
// media player before it applies new playback parameters.
//
// A Session owns a State (tempo, pitch percent, step size and the
// skip-silence, coupling and semitone flags) and keeps it consistent after
// every mutation:
//
//   - tempo and pitch stay within [MinValue, MaxValue]
//   - when coupled (Hook), tempo and pitch are equal
//   - in semitone mode, pitch is always an exact semitone of the 12-TET scale
//
// Every mutation that touches tempo or pitch reports the full
// (tempo, pitch, skipSilence) triple through the configured Callback.
//
// A Session is owned by a single goroutine and is not safe for concurrent use.
package playback
