package converter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/fractune/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"test.mid", FormatMIDI},
		{"test.midi", FormatMIDI},
		{"TEST.MID", FormatMIDI},
		{"test.json", FormatJSON},
		{"test.seq", FormatUnknown},
		{"test.txt", FormatUnknown},
		{"test", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			result := DetectFormat(tt.filename)
			if result != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, result, tt.expected)
			}
		})
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"MIDI file", []byte("MThd\x00\x00\x00\x06"), FormatMIDI},
		{"JSON object", []byte("  {\"events\": []}"), FormatJSON},
		{"Short data", []byte{0x00, 0x01}, FormatUnknown},
		{"Binary data", []byte{0xF0, 0x00, 0x20, 0x32, 0x00, 0xF7}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormatFromContent(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatMIDI, ParseFormat("MIDI"))
	assert.Equal(t, FormatMIDI, ParseFormat(".mid"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatUnknown, ParseFormat("wav"))
}

func generate(t *testing.T, mutate func(*engine.Parameters)) *engine.Composition {
	t.Helper()
	e := engine.New(engine.DefaultConfig())
	p := e.Config().Defaults()
	if mutate != nil {
		mutate(&p)
	}
	comp, err := e.Generate(p, engine.NewRand(11))
	require.NoError(t, err)
	return comp
}

func TestConverterEncoders(t *testing.T) {
	conv := New(engine.DefaultConfig())

	midiEnc, ok := conv.Encoder(FormatMIDI)
	require.True(t, ok)
	assert.Equal(t, ".mid", midiEnc.Extension())
	assert.Equal(t, "audio/midi", midiEnc.ContentType())

	jsonEnc, ok := conv.Encoder(FormatJSON)
	require.True(t, ok)
	assert.Equal(t, ".json", jsonEnc.Extension())

	_, err := conv.Encode(generate(t, nil), FormatUnknown)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestJSONRoundTrip(t *testing.T) {
	conv := New(engine.DefaultConfig())
	comp := generate(t, func(p *engine.Parameters) { p.Effects.Arpeggio = true })

	data, err := conv.Encode(comp, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, DetectFormatFromContent(data))

	back, err := conv.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, comp, back)
}

func TestJSONDecodeRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"pitch", `{"events":[{"track":"melody","pitch":200,"velocity":10,"durationBeats":1}]}`},
		{"melody program", `{"parameters":{"instruments":{"melody":300}}}`},
		{"bass program", `{"parameters":{"instruments":{"bass":-1}}}`},
		{"negative tempo", `{"parameters":{"tempo":-5}}`},
		{"tempo too slow for MIDI", `{"parameters":{"tempo":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONConverter().Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	comp, err := NewJSONConverter().Decode([]byte(`{"parameters":{"instruments":{"melody":127}}}`))
	require.NoError(t, err)
	assert.Equal(t, 127, comp.Parameters.Instruments.Melody)
}

func TestExportAndImportFile(t *testing.T) {
	conv := New(engine.DefaultConfig())
	comp := generate(t, nil)
	dir := t.TempDir()

	midiPath := filepath.Join(dir, "song.mid")
	require.NoError(t, conv.ExportFile(comp, midiPath))
	data, err := os.ReadFile(midiPath)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))

	jsonPath := filepath.Join(dir, "song.json")
	require.NoError(t, conv.ConvertFile(midiPath, jsonPath))

	back, err := conv.ImportFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, back.Events, len(comp.Events))
	assert.Equal(t, comp.Parameters.Tempo, back.Parameters.Tempo)

	assert.Error(t, conv.ExportFile(comp, filepath.Join(dir, "song.wav")))
}

func TestConvert(t *testing.T) {
	conv := New(engine.DefaultConfig())
	comp := generate(t, nil)

	jsonData, err := conv.Encode(comp, FormatJSON)
	require.NoError(t, err)

	midiData, err := conv.Convert(jsonData, FormatMIDI)
	require.NoError(t, err)
	assert.Equal(t, FormatMIDI, DetectFormatFromContent(midiData))

	_, err = conv.Convert([]byte("not a song"), FormatMIDI)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestGetSupportedConversions(t *testing.T) {
	conversions := GetSupportedConversions()

	expected := []string{
		"midi -> json",
		"json -> midi",
		"json -> json",
		"midi -> midi",
	}

	if len(conversions) != len(expected) {
		t.Fatalf("GetSupportedConversions() returned %d conversions, want %d", len(conversions), len(expected))
	}
	for i, exp := range expected {
		if conversions[i] != exp {
			t.Errorf("conversions[%d] = %q, want %q", i, conversions[i], exp)
		}
	}
}

func TestMIDIRoundTrip(t *testing.T) {
	cfg := engine.DefaultConfig()
	conv := NewMIDIConverter(cfg)
	comp := generate(t, func(p *engine.Parameters) {
		p.Tempo = 96
		p.Instruments.Melody = 81
		p.Instruments.Bass = 38
	})

	data, err := conv.Encode(comp)
	require.NoError(t, err)
	assert.Equal(t, FormatMIDI, DetectFormatFromContent(data))

	back, err := conv.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, 96, back.Parameters.Tempo)
	assert.Equal(t, 81, back.Parameters.Instruments.Melody)
	assert.Equal(t, 38, back.Parameters.Instruments.Bass)
	assert.Equal(t, comp.Counts(), back.Counts())

	tolerance := 1.0 / 480
	for _, track := range engine.Tracks {
		want, got := comp.Track(track), back.Track(track)
		require.Len(t, got, len(want), track)
		for i := range want {
			assert.Equal(t, want[i].Pitch, got[i].Pitch, "%s[%d]", track, i)
			assert.Equal(t, want[i].Channel, got[i].Channel, "%s[%d]", track, i)
			assert.Equal(t, want[i].Velocity, got[i].Velocity, "%s[%d]", track, i)
			assert.InDelta(t, want[i].StartBeat, got[i].StartBeat, tolerance, "%s[%d]", track, i)
			assert.InDelta(t, want[i].DurationBeats, got[i].DurationBeats, 2*tolerance, "%s[%d]", track, i)
		}
	}
}

func TestMIDIDrumsHaveNoProgramChange(t *testing.T) {
	comp := generate(t, func(p *engine.Parameters) { p.Instruments.Drums = 25 })

	data, err := NewMIDIConverter(engine.DefaultConfig()).Encode(comp)
	require.NoError(t, err)

	back, err := NewMIDIConverter(engine.DefaultConfig()).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Parameters.Instruments.Drums)
	for _, ev := range back.Track(engine.TrackDrums) {
		assert.Equal(t, engine.PercussionChannel, ev.Channel)
	}
}

func TestMIDISkipsSilentNotes(t *testing.T) {
	comp := &engine.Composition{
		Parameters: engine.Parameters{Tempo: 120},
		Events: []engine.NoteEvent{
			{Track: engine.TrackMelody, Channel: 0, Pitch: 60, StartBeat: 0, DurationBeats: 1, Velocity: 0},
			{Track: engine.TrackMelody, Channel: 0, Pitch: 62, StartBeat: 1, DurationBeats: 1, Velocity: 90},
		},
	}
	conv := NewMIDIConverter(engine.DefaultConfig())

	data, err := conv.Encode(comp)
	require.NoError(t, err)
	back, err := conv.Decode(data)
	require.NoError(t, err)

	require.Len(t, back.Events, 1)
	assert.Equal(t, 62, back.Events[0].Pitch)
	assert.InDelta(t, 1.0, back.Events[0].StartBeat, 1e-9)
}

func TestMIDIRejectsOutOfRangeEvents(t *testing.T) {
	comp := &engine.Composition{
		Events: []engine.NoteEvent{{Track: engine.TrackBass, Channel: 1, Pitch: 128, DurationBeats: 1, Velocity: 90}},
	}
	_, err := NewMIDIConverter(engine.DefaultConfig()).Encode(comp)
	assert.Error(t, err)

	_, err = NewMIDIConverter(engine.DefaultConfig()).Encode(nil)
	assert.Error(t, err)

	comp = generate(t, nil)
	comp.Parameters.Instruments.Melody = 300
	_, err = NewMIDIConverter(engine.DefaultConfig()).Encode(comp)
	assert.Error(t, err)
}
