package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Validator turns raw, possibly partial key/value input into Parameters
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator bound to a configuration
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate coerces and range-checks raw input. Missing fields take their
// default. The first failing field aborts validation; no partial record is
// ever returned.
func (v *Validator) Validate(raw map[string]any) (Parameters, error) {
	b := binder{cfg: v.cfg, fields: flatten("", raw, nil)}
	if alias, ok := b.fields["root"]; ok {
		if _, set := b.fields["rootPitch"]; !set {
			b.fields["rootPitch"] = alias
		}
	}

	p := v.cfg.Defaults()
	b.intRange("tempo", MinTempo, MaxTempo, &p.Tempo)
	b.scale("scale", &p.Scale)
	b.intRange("rootPitch", MinRootPitch, MaxRootPitch, &p.RootPitch)
	b.program("instruments.melody", &p.Instruments.Melody)
	b.program("instruments.bass", &p.Instruments.Bass)
	b.program("instruments.drums", &p.Instruments.Drums)
	b.intRange("fractal.iterations", MinIterations, MaxIterations, &p.Fractal.Iterations)
	b.unit("fractal.chaos", &p.Fractal.Chaos)
	b.intRange("fractal.drumLevels", MinDrumLevels, MaxDrumLevels, &p.Fractal.DrumLevels)
	b.boolean("effects.arpeggio", &p.Effects.Arpeggio)
	b.boolean("effects.reverb", &p.Effects.Reverb)
	b.unit("effects.swing", &p.Effects.Swing)
	b.unit("effects.humanize", &p.Effects.Humanize)
	b.intRange("effects.melodyVolume", MinVolume, MaxVolume, &p.Effects.MelodyVolume)
	b.intRange("effects.bassVolume", MinVolume, MaxVolume, &p.Effects.BassVolume)
	b.intRange("effects.drumsVolume", MinVolume, MaxVolume, &p.Effects.DrumsVolume)

	if b.err != nil {
		return Parameters{}, b.err
	}
	return p, nil
}

// ValidateParameters range-checks an already typed record
func (v *Validator) ValidateParameters(p Parameters) error {
	_, err := v.Validate(p.Raw())
	return err
}

// Raw converts Parameters back into the nested key/value form accepted by Validate
func (p Parameters) Raw() map[string]any {
	return map[string]any{
		"tempo":     p.Tempo,
		"scale":     string(p.Scale),
		"rootPitch": p.RootPitch,
		"instruments": map[string]any{
			"melody": p.Instruments.Melody,
			"bass":   p.Instruments.Bass,
			"drums":  p.Instruments.Drums,
		},
		"fractal": map[string]any{
			"iterations": p.Fractal.Iterations,
			"chaos":      p.Fractal.Chaos,
			"drumLevels": p.Fractal.DrumLevels,
		},
		"effects": map[string]any{
			"arpeggio":     p.Effects.Arpeggio,
			"reverb":       p.Effects.Reverb,
			"swing":        p.Effects.Swing,
			"humanize":     p.Effects.Humanize,
			"melodyVolume": p.Effects.MelodyVolume,
			"bassVolume":   p.Effects.BassVolume,
			"drumsVolume":  p.Effects.DrumsVolume,
		},
	}
}

// flatten turns nested maps into dotted keys; nil values are dropped
func flatten(prefix string, raw map[string]any, out map[string]any) map[string]any {
	if out == nil {
		out = make(map[string]any, len(raw))
	}
	for k, val := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch nested := val.(type) {
		case nil:
			continue
		case map[string]any:
			flatten(key, nested, out)
		default:
			out[key] = val
		}
	}
	return out
}

// binder records the first validation error and skips every later field
type binder struct {
	cfg    *Config
	fields map[string]any
	err    error
}

func (b *binder) lookup(key string) (any, bool) {
	if b.err != nil {
		return nil, false
	}
	val, ok := b.fields[key]
	return val, ok
}

func (b *binder) intRange(key string, min, max int, dst *int) {
	val, ok := b.lookup(key)
	if !ok {
		return
	}
	n, ok := coerceInt(val)
	if !ok {
		b.err = coercionFailure(key, val)
		return
	}
	if n < min || n > max {
		b.err = outOfRange(key, n, min, max)
		return
	}
	*dst = n
}

func (b *binder) unit(key string, dst *float64) {
	val, ok := b.lookup(key)
	if !ok {
		return
	}
	f, ok := coerceFloat(val)
	if !ok {
		b.err = coercionFailure(key, val)
		return
	}
	if f < 0 || f > 1 {
		b.err = outOfRange(key, f, 0.0, 1.0)
		return
	}
	*dst = f
}

func (b *binder) boolean(key string, dst *bool) {
	val, ok := b.lookup(key)
	if !ok {
		return
	}
	v, ok := coerceBool(val)
	if !ok {
		b.err = coercionFailure(key, val)
		return
	}
	*dst = v
}

func (b *binder) scale(key string, dst *ScaleID) {
	val, ok := b.lookup(key)
	if !ok {
		return
	}
	var name string
	switch s := val.(type) {
	case string:
		name = s
	case ScaleID:
		name = string(s)
	default:
		b.err = coercionFailure(key, val)
		return
	}
	id := ScaleID(strings.ToLower(strings.TrimSpace(name)))
	if _, known := b.cfg.scales[id]; !known {
		b.err = invalidEnum(key, name, scaleNames(b.cfg))
		return
	}
	*dst = id
}

// program accepts a program number or a known instrument name
func (b *binder) program(key string, dst *int) {
	val, ok := b.lookup(key)
	if !ok {
		return
	}
	if s, isString := val.(string); isString {
		if _, numeric := coerceInt(s); !numeric {
			p, known := b.cfg.Program(s)
			if !known {
				b.err = invalidEnum(key, s, b.cfg.InstrumentNames())
				return
			}
			*dst = p
			return
		}
	}
	b.intRange(key, MinProgram, MaxProgram, dst)
}

func scaleNames(cfg *Config) []string {
	ids := cfg.ScaleIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}

func coerceInt(val any) (int, bool) {
	switch n := val.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case float32:
		return integral(float64(n))
	case float64:
		return integral(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return integral(f)
	default:
		return 0, false
	}
}

func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func coerceFloat(val any) (float64, bool) {
	var f float64
	switch n := val.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		i, ok := coerceInt(val)
		if !ok {
			return 0, false
		}
		f = float64(i)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceBool(val any) (bool, bool) {
	switch b := val.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on", "t":
			return true, true
		case "false", "0", "no", "off", "f", "":
			return false, true
		}
		return false, false
	default:
		n, ok := coerceInt(val)
		if !ok || (n != 0 && n != 1) {
			return false, false
		}
		return n == 1, true
	}
}
