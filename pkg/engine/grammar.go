package engine

import (
	"fmt"
	"strings"
)

// Symbol is a letter of the melody grammar alphabet
type Symbol uint8

const (
	SymbolA Symbol = iota
	SymbolB
	SymbolC
	SymbolD
)

// Axiom is the starting symbol of every expansion
const Axiom = SymbolA

// MelodySteps is the number of grammar symbols the scheduler consumes
const MelodySteps = 64

func (s Symbol) String() string {
	if s > SymbolD {
		return "?"
	}
	return string(rune('A' + s))
}

// ParseSymbol converts a letter into a Symbol
func ParseSymbol(r rune) (Symbol, error) {
	if r < 'A' || r > 'D' {
		return 0, fmt.Errorf("unknown grammar symbol %q", r)
	}
	return Symbol(r - 'A'), nil
}

// Sequence is an ordered list of grammar symbols
type Sequence []Symbol

func (s Sequence) String() string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, sym := range s {
		sb.WriteString(sym.String())
	}
	return sb.String()
}

// MarshalText encodes the sequence as letters, e.g. "ABBA"
func (s Sequence) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a letter string produced by MarshalText
func (s *Sequence) UnmarshalText(text []byte) error {
	seq := make(Sequence, 0, len(text))
	for _, r := range string(text) {
		sym, err := ParseSymbol(r)
		if err != nil {
			return err
		}
		seq = append(seq, sym)
	}
	*s = seq
	return nil
}

func seq(letters string) Sequence {
	var s Sequence
	if err := s.UnmarshalText([]byte(letters)); err != nil {
		panic(err)
	}
	return s
}

// productions lists the candidate replacements per symbol. The first
// candidate of every symbol has length two.
var productions = [...][]Sequence{
	SymbolA: {seq("AB"), seq("AC"), seq("BA")},
	SymbolB: {seq("BC"), seq("A"), seq("CB"), seq("BD")},
	SymbolC: {seq("CD"), seq("DA"), seq("A")},
	SymbolD: {seq("DA"), seq("C"), seq("BD"), seq("AC")},
}

// Productions returns the candidate replacements for a symbol
func Productions(s Symbol) []Sequence {
	if int(s) >= len(productions) {
		return nil
	}
	return productions[s]
}

// Expand rewrites the axiom for the given number of rounds, keeping only the
// prefix the scheduler can consume.
func Expand(iterations int, chaos float64, rng Rand) Sequence {
	return ExpandLimit(iterations, chaos, rng, MelodySteps)
}

// ExpandLimit is Expand with an explicit width cap. Each round stops reading
// its input as soon as limit symbols have been produced, so work per round is
// bounded by limit regardless of iterations.
//
// For every symbol examined a uniform r in [0,1) is drawn; the symbol is
// rewritten to a uniformly chosen candidate only when r > chaos, so chaos=0
// rewrites every symbol and chaos=1 rewrites none.
func ExpandLimit(iterations int, chaos float64, rng Rand, limit int) Sequence {
	current := Sequence{Axiom}
	if limit < 1 {
		limit = 1
	}
	for round := 0; round < iterations; round++ {
		next := make(Sequence, 0, min(limit+maxProduction, 2*len(current)))
		for _, sym := range current {
			if len(next) >= limit {
				break
			}
			r := rng.Float64()
			cands := Productions(sym)
			if len(cands) > 0 && r > chaos {
				next = append(next, cands[rng.IntN(len(cands))]...)
			} else {
				next = append(next, sym)
			}
		}
		if len(next) > limit {
			next = next[:limit]
		}
		current = next
	}
	return current
}

var maxProduction = func() int {
	longest := 0
	for _, cands := range productions {
		for _, c := range cands {
			longest = max(longest, len(c))
		}
	}
	return longest
}()
