package engine

import (
	"sort"
	"strings"
)

// ScaleID names an entry of the scale table
type ScaleID string

const (
	ScaleMajor         ScaleID = "major"
	ScaleMinor         ScaleID = "minor"
	ScalePentatonic    ScaleID = "pentatonic"
	ScaleDorian        ScaleID = "dorian"
	ScalePhrygian      ScaleID = "phrygian"
	ScaleLydian        ScaleID = "lydian"
	ScaleMixolydian    ScaleID = "mixolydian"
	ScaleLocrian       ScaleID = "locrian"
	ScaleHarmonicMinor ScaleID = "harmonic_minor"
	ScaleBlues         ScaleID = "blues"
)

// Parameter domains
const (
	MinTempo      = 40
	MaxTempo      = 200
	MinRootPitch  = 21
	MaxRootPitch  = 108
	MinProgram    = 0
	MaxProgram    = 127
	MinIterations = 3
	MaxIterations = 10
	MinDrumLevels = 2
	MaxDrumLevels = 7
	MinVolume     = 0
	MaxVolume     = 127
)

// PercussionChannel is the General MIDI drum channel (zero-based)
const PercussionChannel = 9

// Config is the immutable set of lookup tables shared by the validator,
// scale mapper and scheduler. Build it once with DefaultConfig.
type Config struct {
	scales      map[ScaleID][]int
	instruments map[string]int
	channels    map[Track]int
	defaults    Parameters
}

// DefaultConfig builds the standard configuration
func DefaultConfig() *Config {
	return &Config{
		scales: map[ScaleID][]int{
			ScaleMajor:         {0, 2, 4, 5, 7, 9, 11},
			ScaleMinor:         {0, 2, 3, 5, 7, 8, 10},
			ScalePentatonic:    {0, 2, 4, 7, 9},
			ScaleDorian:        {0, 2, 3, 5, 7, 9, 10},
			ScalePhrygian:      {0, 1, 3, 5, 7, 8, 10},
			ScaleLydian:        {0, 2, 4, 6, 7, 9, 11},
			ScaleMixolydian:    {0, 2, 4, 5, 7, 9, 10},
			ScaleLocrian:       {0, 1, 3, 5, 6, 8, 10},
			ScaleHarmonicMinor: {0, 2, 3, 5, 7, 8, 11},
			ScaleBlues:         {0, 3, 5, 6, 7, 10},
		},
		instruments: map[string]int{
			"piano":            0,
			"bright_piano":     1,
			"electric_piano":   4,
			"harpsichord":      6,
			"celesta":          8,
			"glockenspiel":     9,
			"music_box":        10,
			"vibraphone":       11,
			"marimba":          12,
			"organ":            16,
			"church_organ":     19,
			"accordion":        21,
			"nylon_guitar":     24,
			"steel_guitar":     25,
			"clean_guitar":     27,
			"overdrive_guitar": 29,
			"acoustic_bass":    32,
			"finger_bass":      33,
			"pick_bass":        34,
			"fretless_bass":    35,
			"slap_bass":        36,
			"synth_bass":       38,
			"violin":           40,
			"cello":            42,
			"strings":          48,
			"choir":            52,
			"trumpet":          56,
			"trombone":         57,
			"french_horn":      60,
			"brass":            61,
			"saxophone":        65,
			"oboe":             68,
			"clarinet":         71,
			"flute":            73,
			"pan_flute":        75,
			"square_lead":      80,
			"saw_lead":         81,
			"pad":              88,
			"warm_pad":         89,
			"sitar":            104,
			"kalimba":          108,
			"steel_drums":      114,
			"synth_drum":       118,
		},
		channels: map[Track]int{
			TrackMelody: 0,
			TrackBass:   1,
			TrackDrums:  PercussionChannel,
		},
		defaults: Parameters{
			Tempo:     120,
			Scale:     ScaleMajor,
			RootPitch: 60,
			Instruments: Instruments{
				Melody: 0,
				Bass:   33,
				Drums:  0,
			},
			Fractal: Fractal{
				Iterations: 4,
				Chaos:      0.3,
				DrumLevels: 3,
			},
			Effects: Effects{
				MelodyVolume: 100,
				BassVolume:   100,
				DrumsVolume:  100,
			},
		},
	}
}

// Defaults returns the default parameter record
func (c *Config) Defaults() Parameters {
	return c.defaults
}

// Scale returns a copy of the semitone offsets for a scale
func (c *Config) Scale(id ScaleID) ([]int, bool) {
	offsets, ok := c.scales[id]
	if !ok {
		return nil, false
	}
	return append([]int(nil), offsets...), true
}

// ScaleIDs returns every known scale id, sorted
func (c *Config) ScaleIDs() []ScaleID {
	ids := make([]ScaleID, 0, len(c.scales))
	for id := range c.scales {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Program looks up a General MIDI program by instrument name.
// Names are matched case-insensitively; spaces and dashes count as underscores.
func (c *Config) Program(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	p, ok := c.instruments[key]
	return p, ok
}

// InstrumentNames returns the known instrument names, sorted
func (c *Config) InstrumentNames() []string {
	names := make([]string, 0, len(c.instruments))
	for name := range c.instruments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Channel returns the MIDI channel a track is scheduled on
func (c *Config) Channel(t Track) int {
	return c.channels[t]
}
