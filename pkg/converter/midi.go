package converter

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/james-see/fractune/pkg/engine"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const conductorName = "fractune"

// MIDIConverter writes compositions as Standard MIDI Files (format 1) and
// parses them back
type MIDIConverter struct {
	cfg             *engine.Config
	ticksPerQuarter uint16
}

// NewMIDIConverter creates a new MIDI converter
func NewMIDIConverter(cfg *engine.Config) *MIDIConverter {
	return &MIDIConverter{
		cfg:             cfg,
		ticksPerQuarter: 480,
	}
}

func (m *MIDIConverter) Format() Format      { return FormatMIDI }
func (m *MIDIConverter) Extension() string   { return ".mid" }
func (m *MIDIConverter) ContentType() string { return "audio/midi" }

// Encode implements Encoder
func (m *MIDIConverter) Encode(comp *engine.Composition) ([]byte, error) {
	return m.GenerateMIDI(comp)
}

// Decode implements Encoder
func (m *MIDIConverter) Decode(data []byte) (*engine.Composition, error) {
	return m.ParseMIDI(data)
}

// Tempo bounds representable by the 24-bit set-tempo meta event
const (
	minFileTempo = 4
	maxFileTempo = 60000000
)

// checkParameters rejects header values that cannot be written without
// truncation. A zero tempo means unset and is written as 120.
func checkParameters(p engine.Parameters) error {
	if p.Tempo != 0 && (p.Tempo < minFileTempo || p.Tempo > maxFileTempo) {
		return fmt.Errorf("tempo %d out of range", p.Tempo)
	}
	programs := []struct {
		track engine.Track
		value int
	}{
		{engine.TrackMelody, p.Instruments.Melody},
		{engine.TrackBass, p.Instruments.Bass},
		{engine.TrackDrums, p.Instruments.Drums},
	}
	for _, pr := range programs {
		if pr.value < engine.MinProgram || pr.value > engine.MaxProgram {
			return fmt.Errorf("%s program %d out of MIDI range", pr.track, pr.value)
		}
	}
	return nil
}

// ticks converts beats to ticks at the file resolution
func (m *MIDIConverter) ticks(beats float64) uint32 {
	return uint32(math.Round(beats * float64(m.ticksPerQuarter)))
}

func (m *MIDIConverter) beats(ticks int64) float64 {
	return float64(ticks) / float64(m.ticksPerQuarter)
}

// timedMessage is a channel message at an absolute tick
type timedMessage struct {
	tick  uint32
	off   bool
	order int
	msg   []byte
}

// GenerateMIDI creates MIDI data from a Composition. Track 0 carries tempo and
// meter; each engine track gets its own MIDI track. Melody and bass receive a
// program change at tick 0; drums stay on the percussion channel without one.
func (m *MIDIConverter) GenerateMIDI(comp *engine.Composition) ([]byte, error) {
	if comp == nil {
		return nil, errors.New("nil composition")
	}
	if err := checkParameters(comp.Parameters); err != nil {
		return nil, err
	}

	tempo := float64(comp.Parameters.Tempo)
	if tempo <= 0 {
		tempo = 120.0
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var conductor smf.Track
	conductor.Add(0, metaTrackName(conductorName))

	// Add tempo meta event
	microsecondsPerBeat := uint32(60000000.0 / tempo)
	conductor.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	// Add time signature (4/4)
	conductor.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	conductor.Close(0)

	if err := s.Add(conductor); err != nil {
		return nil, fmt.Errorf("failed to add conductor track: %w", err)
	}

	for _, t := range engine.Tracks {
		track, err := m.buildTrack(comp, t)
		if err != nil {
			return nil, err
		}
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add %s track: %w", t, err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *MIDIConverter) buildTrack(comp *engine.Composition, t engine.Track) (smf.Track, error) {
	var track smf.Track
	track.Add(0, metaTrackName(string(t)))

	channel := uint8(m.cfg.Channel(t))
	switch t {
	case engine.TrackMelody:
		track.Add(0, midi.ProgramChange(channel, uint8(comp.Parameters.Instruments.Melody)))
	case engine.TrackBass:
		track.Add(0, midi.ProgramChange(channel, uint8(comp.Parameters.Instruments.Bass)))
	}

	var msgs []timedMessage
	for i, ev := range comp.Track(t) {
		if ev.Channel < 0 || ev.Channel > 15 || ev.Pitch < 0 || ev.Pitch > 127 || ev.Velocity < 0 || ev.Velocity > 127 {
			return nil, fmt.Errorf("%s event %d out of MIDI range: %+v", t, i, ev)
		}
		if ev.Velocity == 0 {
			// a zero-velocity note-on is a note-off; the note is silent anyway
			continue
		}
		on := m.ticks(ev.StartBeat)
		off := m.ticks(ev.StartBeat + ev.DurationBeats)
		if off <= on {
			off = on + 1
		}
		ch, key := uint8(ev.Channel), uint8(ev.Pitch)
		msgs = append(msgs,
			timedMessage{tick: on, order: i, msg: midi.NoteOn(ch, key, uint8(ev.Velocity))},
			timedMessage{tick: off, off: true, order: i, msg: midi.NoteOff(ch, key)},
		)
	}

	// note-offs first at equal ticks so a repeated key is released before it restarts
	sort.SliceStable(msgs, func(a, b int) bool {
		if msgs[a].tick != msgs[b].tick {
			return msgs[a].tick < msgs[b].tick
		}
		if msgs[a].off != msgs[b].off {
			return msgs[a].off
		}
		return msgs[a].order < msgs[b].order
	})

	var current uint32
	for _, tm := range msgs {
		track.Add(tm.tick-current, tm.msg)
		current = tm.tick
	}
	track.Close(0)
	return track, nil
}

func metaTrackName(name string) smf.Message {
	if len(name) > 127 {
		name = name[:127]
	}
	return smf.Message(append([]byte{0xFF, 0x03, byte(len(name))}, name...))
}

type pendingNote struct {
	tick     int64
	velocity uint8
	order    int
}

type decodedNote struct {
	event engine.NoteEvent
	tick  int64
	order int
}

// ParseMIDI parses MIDI data back into a Composition. Tempo, programs and note
// events are recovered; the grammar and drum pattern are not stored in the file.
func (m *MIDIConverter) ParseMIDI(data []byte) (*engine.Composition, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	resolution := m.ticksPerQuarter
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		resolution = mt.Resolution()
	}
	reader := &MIDIConverter{cfg: m.cfg, ticksPerQuarter: resolution}

	comp := &engine.Composition{}
	comp.Parameters.Tempo = 120
	var notes []decodedNote
	order := 0

	for _, track := range s.Tracks {
		var name string
		var currentTick int64
		pending := make(map[uint16][]pendingNote)

		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := ev.Message

			// Meta events: FF type len data
			if len(msg) >= 3 && msg[0] == 0xFF {
				switch {
				case msg[1] == 0x03 && len(msg) >= 3+int(msg[2]):
					name = string(msg[3 : 3+int(msg[2])])
				case msg[1] == 0x51 && msg[2] == 0x03 && len(msg) >= 6:
					microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
					if microsecondsPerBeat > 0 {
						comp.Parameters.Tempo = int(math.Round(60000000.0 / float64(microsecondsPerBeat)))
					}
				}
				continue
			}

			if len(msg) < 2 {
				continue
			}
			status := msg[0] & 0xF0
			channel := msg[0] & 0x0F

			if status == 0xC0 {
				switch reader.trackFor(name, channel) {
				case engine.TrackMelody:
					comp.Parameters.Instruments.Melody = int(msg[1])
				case engine.TrackBass:
					comp.Parameters.Instruments.Bass = int(msg[1])
				case engine.TrackDrums:
					comp.Parameters.Instruments.Drums = int(msg[1])
				}
				continue
			}

			if len(msg) < 3 || (status != 0x90 && status != 0x80) {
				continue
			}
			key := msg[1]
			velocity := msg[2]
			id := uint16(channel)<<8 | uint16(key)

			if status == 0x90 && velocity > 0 {
				pending[id] = append(pending[id], pendingNote{tick: currentTick, velocity: velocity, order: order})
				order++
				continue
			}

			queue := pending[id]
			if len(queue) == 0 {
				continue
			}
			start := queue[0]
			pending[id] = queue[1:]
			notes = append(notes, decodedNote{
				event: engine.NoteEvent{
					Track:         reader.trackFor(name, channel),
					Channel:       int(channel),
					Pitch:         int(key),
					StartBeat:     reader.beats(start.tick),
					DurationBeats: reader.beats(currentTick - start.tick),
					Velocity:      int(start.velocity),
				},
				tick:  start.tick,
				order: start.order,
			})
		}
	}

	rank := make(map[engine.Track]int, len(engine.Tracks))
	for i, t := range engine.Tracks {
		rank[t] = i
	}
	sort.SliceStable(notes, func(a, b int) bool {
		na, nb := notes[a], notes[b]
		if na.event.Track != nb.event.Track {
			return rank[na.event.Track] < rank[nb.event.Track]
		}
		if na.tick != nb.tick {
			return na.tick < nb.tick
		}
		return na.order < nb.order
	})

	comp.Events = make([]engine.NoteEvent, len(notes))
	for i, n := range notes {
		comp.Events[i] = n.event
	}
	return comp, nil
}

// trackFor resolves the engine track of a MIDI track, by name first then by channel
func (m *MIDIConverter) trackFor(name string, channel uint8) engine.Track {
	for _, t := range engine.Tracks {
		if string(t) == name {
			return t
		}
	}
	for _, t := range engine.Tracks {
		if m.cfg.Channel(t) == int(channel) {
			return t
		}
	}
	return engine.TrackMelody
}

// WriteMIDIFile writes MIDI data to a file
func (m *MIDIConverter) WriteMIDIFile(comp *engine.Composition, filename string) error {
	data, err := m.GenerateMIDI(comp)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
