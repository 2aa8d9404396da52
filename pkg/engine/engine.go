package engine

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the random source consumed by generation. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a seeded pseudo-random source; equal seeds give equal output
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Engine validates parameters and generates compositions. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg       *Config
	validator *Validator
	scheduler *Scheduler
}

// New creates an engine bound to a configuration
func New(cfg *Config) *Engine {
	return &Engine{
		cfg:       cfg,
		validator: NewValidator(cfg),
		scheduler: NewScheduler(cfg),
	}
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.cfg
}

// Validate coerces raw input into Parameters
func (e *Engine) Validate(raw map[string]any) (Parameters, error) {
	return e.validator.Validate(raw)
}

// ValidateParameters range-checks a typed record
func (e *Engine) ValidateParameters(p Parameters) error {
	return e.validator.ValidateParameters(p)
}

// Generate range-checks p and runs the full pipeline. A panic inside any
// stage is returned as an *InternalError.
func (e *Engine) Generate(p Parameters, rng Rand) (comp *Composition, err error) {
	if err := e.validator.ValidateParameters(p); err != nil {
		return nil, err
	}

	stage := "resolve scale"
	defer func() {
		if r := recover(); r != nil {
			comp = nil
			err = &InternalError{Stage: stage, Cause: r}
		}
	}()

	pitches, err := e.cfg.Resolve(p.Scale, p.RootPitch)
	if err != nil {
		return nil, err
	}
	if len(pitches.Melody) == 0 || len(pitches.Bass) == 0 {
		return nil, &InternalError{Stage: stage, Cause: fmt.Errorf("empty pitch pool for scale %q", p.Scale)}
	}

	stage = "expand grammar"
	grammar := Expand(p.Fractal.Iterations, p.Fractal.Chaos, rng)

	stage = "generate drum pattern"
	drums := GenerateDrumPattern(p.Fractal.DrumLevels)

	stage = "schedule tracks"
	events := e.scheduler.Schedule(p, pitches, grammar, drums, rng)

	return &Composition{
		Parameters:  p,
		Grammar:     grammar,
		DrumPattern: drums,
		Events:      events,
	}, nil
}

// GenerateRaw validates raw input and generates with a source seeded from seed
func (e *Engine) GenerateRaw(raw map[string]any, seed int64) (*Composition, error) {
	p, err := e.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	return e.Generate(p, NewRand(seed))
}
