package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DrumPattern is a cyclic hit mask
type DrumPattern []bool

var drumSeed = DrumPattern{true, false, false, true}

// GenerateDrumPattern builds a self-similar pattern: each level is the
// previous pattern, one rest, then the previous pattern again. Lengths follow
// len(k+1) = 2*len(k)+1 from len(0) = 4. Levels above MaxDrumLevels are
// treated as MaxDrumLevels.
func GenerateDrumPattern(levels int) DrumPattern {
	levels = min(levels, MaxDrumLevels)
	p := append(DrumPattern(nil), drumSeed...)
	for i := 0; i < levels; i++ {
		next := make(DrumPattern, 0, 2*len(p)+1)
		next = append(next, p...)
		next = append(next, false)
		next = append(next, p...)
		p = next
	}
	return p
}

// DrumPatternLen returns the pattern length for a number of levels without building it
func DrumPatternLen(levels int) int {
	levels = min(levels, MaxDrumLevels)
	n := len(drumSeed)
	for i := 0; i < levels; i++ {
		n = 2*n + 1
	}
	return n
}

// Hit reports whether the pattern is active at a step, wrapping cyclically
func (p DrumPattern) Hit(step int) bool {
	if len(p) == 0 {
		return false
	}
	return p[step%len(p)]
}

func (p DrumPattern) String() string {
	var sb strings.Builder
	sb.Grow(len(p))
	for _, hit := range p {
		if hit {
			sb.WriteByte('x')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// MarshalJSON encodes the pattern in its compact "x..x" form
func (p DrumPattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts the compact form or a list of booleans
func (p *DrumPattern) UnmarshalJSON(data []byte) error {
	var grid string
	if err := json.Unmarshal(data, &grid); err != nil {
		var hits []bool
		if err := json.Unmarshal(data, &hits); err != nil {
			return fmt.Errorf("drum pattern: %w", err)
		}
		*p = hits
		return nil
	}
	out := make(DrumPattern, 0, len(grid))
	for i, c := range grid {
		switch c {
		case 'x', 'X':
			out = append(out, true)
		case '.', '-':
			out = append(out, false)
		default:
			return fmt.Errorf("drum pattern: invalid character %q at %d", c, i)
		}
	}
	*p = out
	return nil
}
