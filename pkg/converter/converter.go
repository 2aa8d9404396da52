package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/fractune/pkg/engine"
)

// ErrUnsupportedFormat is returned when no encoder handles a format
var ErrUnsupportedFormat = errors.New("unsupported format")

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mid", ".midi", ".smf":
		return FormatMIDI
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}

	return FormatUnknown
}

// ParseFormat maps a user supplied format name to a Format
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "midi", "mid", "smf":
		return FormatMIDI
	case "json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Encode serializes a composition in the given format
func (c *Converter) Encode(comp *engine.Composition, f Format) ([]byte, error) {
	enc, ok := c.encoders[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return enc.Encode(comp)
}

// Decode parses a composition, detecting the format from content
func (c *Converter) Decode(data []byte) (*engine.Composition, error) {
	f := DetectFormatFromContent(data)
	enc, ok := c.encoders[f]
	if !ok {
		return nil, fmt.Errorf("%w: cannot detect format of input", ErrUnsupportedFormat)
	}
	return enc.Decode(data)
}

// Convert re-encodes data in another format
func (c *Converter) Convert(data []byte, to Format) ([]byte, error) {
	comp, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return c.Encode(comp, to)
}

// ExportFile writes a composition using the format implied by the file extension
func (c *Converter) ExportFile(comp *engine.Composition, outputPath string) error {
	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}

	data, err := c.Encode(comp, outputFormat)
	if err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// ImportFile reads a composition from a MIDI or JSON file
func (c *Converter) ImportFile(inputPath string) (*engine.Composition, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return c.Decode(data)
}

// ConvertFile converts a file from one format to another
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	comp, err := c.ImportFile(inputPath)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return c.ExportFile(comp, outputPath)
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"midi -> json",
		"json -> midi",
		"json -> json",
		"midi -> midi",
	}
}
