// Package engine turns a small parameter record into a scheduled, multi-track
// sequence of note events using stochastic grammar rewriting, scale
// quantization and self-similar rhythm construction.
package engine

// Track identifies one of the three independent voices of a composition
type Track string

const (
	TrackMelody Track = "melody"
	TrackBass   Track = "bass"
	TrackDrums  Track = "drums"
)

// Tracks lists every track in output order
var Tracks = []Track{TrackMelody, TrackBass, TrackDrums}

// NoteEvent is a single scheduled note. Times are expressed in beats.
type NoteEvent struct {
	Track         Track   `json:"track"`
	Channel       int     `json:"channel"`
	Pitch         int     `json:"pitch"`         // MIDI note number (0-127)
	StartBeat     float64 `json:"startBeat"`     // >= 0
	DurationBeats float64 `json:"durationBeats"` // > 0
	Velocity      int     `json:"velocity"`      // 0-127
}

// Instruments maps each track to a General MIDI program number
type Instruments struct {
	Melody int `json:"melody"`
	Bass   int `json:"bass"`
	Drums  int `json:"drums"` // forwarded only; drums always play on the percussion channel
}

// Fractal holds the generation parameters for the grammar and drum pattern
type Fractal struct {
	Iterations int     `json:"iterations"`
	Chaos      float64 `json:"chaos"`
	DrumLevels int     `json:"drumLevels"`
}

// Effects holds the expressive post-processing toggles
type Effects struct {
	Arpeggio     bool    `json:"arpeggio"`
	Reverb       bool    `json:"reverb"` // forwarded only
	Swing        float64 `json:"swing"`
	Humanize     float64 `json:"humanize"`
	MelodyVolume int     `json:"melodyVolume"`
	BassVolume   int     `json:"bassVolume"`
	DrumsVolume  int     `json:"drumsVolume"`
}

// Parameters is the canonical, fully populated generation request
type Parameters struct {
	Tempo       int         `json:"tempo"`
	Scale       ScaleID     `json:"scale"`
	RootPitch   int         `json:"rootPitch"`
	Instruments Instruments `json:"instruments"`
	Fractal     Fractal     `json:"fractal"`
	Effects     Effects     `json:"effects"`
}

// Composition is the output of one generation call
type Composition struct {
	Parameters  Parameters  `json:"parameters"`
	Grammar     Sequence    `json:"grammar"`
	DrumPattern DrumPattern `json:"drumPattern"`
	Events      []NoteEvent `json:"events"`
}

// Track returns the events of a single track in time order
func (c *Composition) Track(t Track) []NoteEvent {
	var out []NoteEvent
	for _, ev := range c.Events {
		if ev.Track == t {
			out = append(out, ev)
		}
	}
	return out
}

// Counts returns the number of events per track
func (c *Composition) Counts() map[Track]int {
	counts := make(map[Track]int, len(Tracks))
	for _, ev := range c.Events {
		counts[ev.Track]++
	}
	return counts
}

// LengthBeats returns the beat at which the last note ends
func (c *Composition) LengthBeats() float64 {
	var end float64
	for _, ev := range c.Events {
		if e := ev.StartBeat + ev.DurationBeats; e > end {
			end = e
		}
	}
	return end
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampMIDI(v int) int {
	return clamp(v, 0, 127)
}
