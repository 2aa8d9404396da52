package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/fractune/pkg/converter"
	"github.com/james-see/fractune/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRawParamsOnlyChangedFlags(t *testing.T) {
	require.NoError(t, generateCmd.ParseFlags([]string{"--tempo", "96", "--arpeggio", "--melody", "flute"}))
	raw := rawParams(generateCmd)
	assert.Equal(t, map[string]any{
		"tempo":              "96",
		"effects.arpeggio":   "true",
		"instruments.melody": "flute",
	}, raw)

	p, err := engine.New(engine.DefaultConfig()).Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, 96, p.Tempo)
	assert.True(t, p.Effects.Arpeggio)
	assert.Equal(t, 73, p.Instruments.Melody)
	assert.Equal(t, 33, p.Instruments.Bass)
}

func TestGenerateCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "take.json")
	out, err := execute(t, "generate", "--seed", "42", "--scale", "dorian", "--chaos", "0.6", "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed:    42")
	assert.Contains(t, out, "dorian")
	assert.Contains(t, out, "bass:    32 notes")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	comp, err := converter.NewJSONConverter().Decode(data)
	require.NoError(t, err)
	assert.Equal(t, engine.ScaleDorian, comp.Parameters.Scale)
	assert.InDelta(t, 0.6, comp.Parameters.Fractal.Chaos, 1e-9)
}

func TestGenerateCommandRejectsInvalidParameters(t *testing.T) {
	_, err := execute(t, "generate", "--tempo", "500", "-o", filepath.Join(t.TempDir(), "x.mid"))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrValidation)
	assert.Contains(t, err.Error(), "tempo")
}

func TestListCommands(t *testing.T) {
	out, err := execute(t, "scales")
	require.NoError(t, err)
	assert.Contains(t, out, "harmonic_minor")

	out, err = execute(t, "instruments")
	require.NoError(t, err)
	assert.Contains(t, out, " 33  finger_bass")
}
