package engine

import (
	"sort"
)

// Schedule grid
const (
	BassSteps     = 32
	DrumSteps     = 32
	StepBeats     = 0.25
	DrumStepBeats = 0.125
)

// General MIDI percussion keys
const (
	KickPitch  = 35
	SnarePitch = 38
	HiHatPitch = 42
)

var arpeggioIntervals = [3]int{0, 4, 7}

// Scheduler emits the note events of the melody, bass and drum tracks
type Scheduler struct {
	cfg *Config
}

// NewScheduler creates a scheduler bound to a configuration
func NewScheduler(cfg *Config) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// Schedule builds all three tracks. Events are grouped by track and ordered
// by start beat within each track.
func (s *Scheduler) Schedule(p Parameters, pitches PitchSet, grammar Sequence, drums DrumPattern, rng Rand) []NoteEvent {
	events := make([]NoteEvent, 0, 2*MelodySteps+BassSteps+3*DrumSteps)
	events = append(events, s.melody(p, pitches.Melody, grammar, rng)...)
	events = append(events, s.bass(p, pitches.Bass)...)
	events = append(events, s.drums(p, drums)...)
	return events
}

func (s *Scheduler) melody(p Parameters, pool []int, grammar Sequence, rng Rand) []NoteEvent {
	steps := min(len(grammar), MelodySteps)
	channel := s.cfg.Channel(TrackMelody)
	out := make([]NoteEvent, 0, steps*2)

	for i := 0; i < steps; i++ {
		pitch := clampMIDI(pool[i%len(pool)])

		velocity := clamp(p.Effects.MelodyVolume-20+(i%4)*15, 80, 127)
		if p.Effects.Humanize > 0 {
			jitter := float64(rng.IntN(21)-10) * p.Effects.Humanize
			velocity = clamp(velocity+int(jitter), 60, 127)
		}

		duration := 0.25 + float64(i%3)*0.1
		start := float64(i) * StepBeats
		if p.Effects.Swing > 0 && i%2 == 1 {
			start += 0.1 * p.Effects.Swing
		}

		out = append(out, NoteEvent{
			Track:         TrackMelody,
			Channel:       channel,
			Pitch:         pitch,
			StartBeat:     start,
			DurationBeats: duration,
			Velocity:      velocity,
		})

		if p.Effects.Arpeggio && i%4 == 0 {
			for j, iv := range arpeggioIntervals {
				out = append(out, NoteEvent{
					Track:         TrackMelody,
					Channel:       channel,
					Pitch:         clampMIDI(pitch + iv),
					StartBeat:     start + 0.1*float64(j+1),
					DurationBeats: duration * 0.8,
					Velocity:      max(60, velocity-15),
				})
			}
		}
	}

	// arpeggio tones can start after the next primary note
	sort.SliceStable(out, func(a, b int) bool { return out[a].StartBeat < out[b].StartBeat })
	return out
}

func (s *Scheduler) bass(p Parameters, pool []int) []NoteEvent {
	channel := s.cfg.Channel(TrackBass)
	out := make([]NoteEvent, 0, BassSteps)
	for step := 0; step < BassSteps; step++ {
		out = append(out, NoteEvent{
			Track:         TrackBass,
			Channel:       channel,
			Pitch:         clampMIDI(pool[(step*step)%len(pool)]),
			StartBeat:     float64(step) * StepBeats,
			DurationBeats: 0.5,
			Velocity:      clampMIDI(p.Effects.BassVolume - 20 + (step%4)*10),
		})
	}
	return out
}

func (s *Scheduler) drums(p Parameters, pattern DrumPattern) []NoteEvent {
	channel := s.cfg.Channel(TrackDrums)
	vol := p.Effects.DrumsVolume
	out := make([]NoteEvent, 0, DrumSteps*2)
	for step := 0; step < DrumSteps; step++ {
		if !pattern.Hit(step) {
			continue
		}
		start := float64(step) * DrumStepBeats
		out = append(out, NoteEvent{
			Track:         TrackDrums,
			Channel:       channel,
			Pitch:         KickPitch,
			StartBeat:     start,
			DurationBeats: 0.1,
			Velocity:      clampMIDI(vol),
		})
		if step%4 == 2 {
			out = append(out, NoteEvent{
				Track:         TrackDrums,
				Channel:       channel,
				Pitch:         SnarePitch,
				StartBeat:     start + 0.05,
				DurationBeats: 0.1,
				Velocity:      clampMIDI(vol - 10),
			})
		}
		if step%2 == 1 {
			out = append(out, NoteEvent{
				Track:         TrackDrums,
				Channel:       channel,
				Pitch:         HiHatPitch,
				StartBeat:     start,
				DurationBeats: 0.05,
				Velocity:      clampMIDI(vol - 20),
			})
		}
	}
	return out
}
