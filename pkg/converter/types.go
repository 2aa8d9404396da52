// Package converter writes generated compositions into note containers
// (Standard MIDI Files, JSON) and reads them back.
package converter

import (
	"github.com/james-see/fractune/pkg/engine"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatJSON    Format = "json"
	FormatUnknown Format = "unknown"
)

// Encoder interface for format-specific composition handling
type Encoder interface {
	Format() Format
	Extension() string
	ContentType() string
	Encode(comp *engine.Composition) ([]byte, error)
	Decode(data []byte) (*engine.Composition, error)
}

// Converter dispatches to the encoder registered for each format
type Converter struct {
	encoders map[Format]Encoder
}

// New creates a Converter with the MIDI and JSON encoders registered
func New(cfg *engine.Config) *Converter {
	c := &Converter{encoders: make(map[Format]Encoder)}
	c.Register(NewMIDIConverter(cfg))
	c.Register(NewJSONConverter())
	return c
}

// Register adds or replaces the encoder for its format
func (c *Converter) Register(enc Encoder) {
	c.encoders[enc.Format()] = enc
}

// Encoder returns the encoder for a format
func (c *Converter) Encoder(f Format) (Encoder, bool) {
	enc, ok := c.encoders[f]
	return enc, ok
}
