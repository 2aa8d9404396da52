package converter

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/james-see/fractune/pkg/engine"
)

// JSONConverter encodes compositions as indented JSON
type JSONConverter struct{}

// NewJSONConverter creates a new JSON converter
func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (j *JSONConverter) Format() Format      { return FormatJSON }
func (j *JSONConverter) Extension() string   { return ".json" }
func (j *JSONConverter) ContentType() string { return "application/json" }

// Encode implements Encoder
func (j *JSONConverter) Encode(comp *engine.Composition) ([]byte, error) {
	if comp == nil {
		return nil, errors.New("nil composition")
	}
	return json.MarshalIndent(comp, "", "  ")
}

// Decode implements Encoder
func (j *JSONConverter) Decode(data []byte) (*engine.Composition, error) {
	var comp engine.Composition
	if err := json.Unmarshal(data, &comp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if err := checkParameters(comp.Parameters); err != nil {
		return nil, err
	}
	for i, ev := range comp.Events {
		if ev.Pitch < 0 || ev.Pitch > 127 || ev.Velocity < 0 || ev.Velocity > 127 {
			return nil, fmt.Errorf("event %d out of MIDI range: %+v", i, ev)
		}
	}
	return &comp, nil
}
