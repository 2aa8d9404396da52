package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedule(t *testing.T, p Parameters, grammar Sequence, rng Rand) []NoteEvent {
	t.Helper()
	cfg := DefaultConfig()
	ps, err := cfg.Resolve(p.Scale, p.RootPitch)
	require.NoError(t, err)
	return NewScheduler(cfg).Schedule(p, ps, grammar, GenerateDrumPattern(p.Fractal.DrumLevels), rng)
}

func byTrack(events []NoteEvent, track Track) []NoteEvent {
	return (&Composition{Events: events}).Track(track)
}

func longGrammar() Sequence {
	s := make(Sequence, 100)
	for i := range s {
		s[i] = Symbol(i % 4)
	}
	return s
}

func TestScheduleMelodyBasics(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.MelodyVolume = 110

	melody := byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody)
	require.Len(t, melody, MelodySteps)

	pool, _ := DefaultConfig().Resolve(p.Scale, p.RootPitch)
	for i, ev := range melody {
		assert.Equal(t, pool.Melody[i%len(pool.Melody)], ev.Pitch, "step %d", i)
		assert.Equal(t, float64(i)*StepBeats, ev.StartBeat, "step %d", i)
		assert.InDelta(t, 0.25+float64(i%3)*0.1, ev.DurationBeats, 1e-9, "step %d", i)
		assert.Equal(t, clamp(90+(i%4)*15, 80, 127), ev.Velocity, "step %d", i)
		assert.Equal(t, 0, ev.Channel)
	}
}

func TestScheduleMelodyShortGrammar(t *testing.T) {
	p := DefaultConfig().Defaults()
	melody := byTrack(schedule(t, p, Sequence{Axiom}, &firstChoiceRand{}), TrackMelody)
	assert.Len(t, melody, 1)
}

func TestScheduleMelodyVelocityFloor(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.MelodyVolume = 0

	for _, ev := range byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody) {
		assert.GreaterOrEqual(t, ev.Velocity, 80)
	}
}

func TestScheduleHumanize(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.MelodyVolume = 110
	p.Effects.Humanize = 1

	// firstChoiceRand draws IntN(21) = 0, i.e. jitter of -10
	melody := byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody)
	assert.Equal(t, 80, melody[0].Velocity)
	assert.Equal(t, 95, melody[1].Velocity)

	p.Effects.Humanize = 0.5
	melody = byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody)
	assert.Equal(t, 85, melody[0].Velocity)
}

func TestScheduleSwing(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.Swing = 0.5

	melody := byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody)
	assert.Equal(t, 0.0, melody[0].StartBeat)
	assert.InDelta(t, 0.25+0.05, melody[1].StartBeat, 1e-9)
	assert.Equal(t, 0.5, melody[2].StartBeat)
}

func TestScheduleArpeggio(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.MelodyVolume = 110
	p.Effects.Arpeggio = true

	melody := byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody)
	assert.Len(t, melody, MelodySteps+3*MelodySteps/4)

	var triad []NoteEvent
	for _, ev := range melody {
		if ev.StartBeat > 0 && ev.StartBeat < 0.35 && ev.DurationBeats == 0.2 {
			triad = append(triad, ev)
		}
	}
	require.Len(t, triad, 3)
	for j, ev := range triad {
		assert.Equal(t, 60+arpeggioIntervals[j], ev.Pitch)
		assert.InDelta(t, 0.1*float64(j+1), ev.StartBeat, 1e-9)
		assert.Equal(t, 75, ev.Velocity)
	}
}

func TestScheduleArpeggioClampsPitch(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.RootPitch = MaxRootPitch
	p.Effects.Arpeggio = true

	for _, ev := range byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackMelody) {
		assert.LessOrEqual(t, ev.Pitch, 127)
	}
}

func TestScheduleBass(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.BassVolume = 110

	bass := byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackBass)
	require.Len(t, bass, BassSteps)

	pool, _ := DefaultConfig().Resolve(p.Scale, p.RootPitch)
	for step, ev := range bass {
		assert.Equal(t, pool.Bass[(step*step)%4], ev.Pitch)
		assert.Equal(t, float64(step)*StepBeats, ev.StartBeat)
		assert.Equal(t, 0.5, ev.DurationBeats)
		assert.Equal(t, clampMIDI(90+(step%4)*10), ev.Velocity)
		assert.Equal(t, 1, ev.Channel)
	}
}

func TestScheduleDrums(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Fractal.DrumLevels = 2
	p.Effects.DrumsVolume = 100
	p.Instruments.Drums = 25

	pattern := GenerateDrumPattern(2)
	drums := byTrack(schedule(t, p, longGrammar(), &firstChoiceRand{}), TrackDrums)

	var kicks, snares, hats int
	for step := 0; step < DrumSteps; step++ {
		if pattern.Hit(step) {
			kicks++
			if step%4 == 2 {
				snares++
			}
			if step%2 == 1 {
				hats++
			}
		}
	}

	counts := map[int]int{}
	for _, ev := range drums {
		assert.Equal(t, PercussionChannel, ev.Channel)
		counts[ev.Pitch]++
		switch ev.Pitch {
		case KickPitch:
			assert.Equal(t, 100, ev.Velocity)
			assert.Equal(t, 0.1, ev.DurationBeats)
		case SnarePitch:
			assert.Equal(t, 90, ev.Velocity)
		case HiHatPitch:
			assert.Equal(t, 80, ev.Velocity)
			assert.Equal(t, 0.05, ev.DurationBeats)
		default:
			t.Errorf("unexpected drum pitch %d", ev.Pitch)
		}
	}
	assert.Equal(t, kicks, counts[KickPitch])
	assert.Equal(t, snares, counts[SnarePitch])
	assert.Equal(t, hats, counts[HiHatPitch])
}

func TestScheduleLowVolumesClamp(t *testing.T) {
	p := DefaultConfig().Defaults()
	p.Effects.BassVolume = 0
	p.Effects.DrumsVolume = 5

	for _, ev := range schedule(t, p, longGrammar(), &firstChoiceRand{}) {
		assert.GreaterOrEqual(t, ev.Velocity, 0)
	}
}

// Properties over many seeds and parameter combinations: pitch and velocity
// stay in MIDI range and every track is ordered by start beat.
func TestScheduleInvariants(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg)
	scales := cfg.ScaleIDs()

	for seed := int64(0); seed < 300; seed++ {
		pick := NewRand(seed + 1000)
		p := Parameters{
			Tempo:     MinTempo + pick.IntN(MaxTempo-MinTempo+1),
			Scale:     scales[pick.IntN(len(scales))],
			RootPitch: MinRootPitch + pick.IntN(MaxRootPitch-MinRootPitch+1),
			Instruments: Instruments{
				Melody: pick.IntN(128),
				Bass:   pick.IntN(128),
				Drums:  pick.IntN(128),
			},
			Fractal: Fractal{
				Iterations: MinIterations + pick.IntN(MaxIterations-MinIterations+1),
				Chaos:      pick.Float64(),
				DrumLevels: MinDrumLevels + pick.IntN(MaxDrumLevels-MinDrumLevels+1),
			},
			Effects: Effects{
				Arpeggio:     pick.IntN(2) == 1,
				Swing:        pick.Float64(),
				Humanize:     pick.Float64(),
				MelodyVolume: pick.IntN(128),
				BassVolume:   pick.IntN(128),
				DrumsVolume:  pick.IntN(128),
			},
		}
		require.NoError(t, e.ValidateParameters(p))

		comp, err := e.Generate(p, NewRand(seed))
		require.NoError(t, err)

		last := map[Track]float64{}
		for _, ev := range comp.Events {
			require.GreaterOrEqual(t, ev.Pitch, 0)
			require.LessOrEqual(t, ev.Pitch, 127)
			require.GreaterOrEqual(t, ev.Velocity, 0)
			require.LessOrEqual(t, ev.Velocity, 127)
			require.GreaterOrEqual(t, ev.StartBeat, 0.0)
			require.Greater(t, ev.DurationBeats, 0.0)
			require.GreaterOrEqual(t, ev.StartBeat, last[ev.Track], "seed %d track %s", seed, ev.Track)
			last[ev.Track] = ev.StartBeat
		}
		assert.Len(t, comp.Track(TrackBass), BassSteps)
	}
}
