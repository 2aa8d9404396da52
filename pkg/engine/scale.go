package engine

// bassIntervals are the fixed offsets below the root used for bass candidates
var bassIntervals = [4]int{-12, -10, -8, -5}

// PitchSet holds the absolute pitches available to the melody and bass tracks
type PitchSet struct {
	Melody []int
	Bass   []int
}

// Resolve maps a scale and root pitch onto absolute pitches. The melody pool
// is root plus the offset set, repeated twice; the bass pool holds four
// candidates below the root. Every pitch is clamped into [0,127].
func (c *Config) Resolve(id ScaleID, root int) (PitchSet, error) {
	offsets, ok := c.scales[id]
	if !ok {
		return PitchSet{}, invalidEnum("scale", string(id), scaleNames(c))
	}

	melody := make([]int, 0, 2*len(offsets))
	for tile := 0; tile < 2; tile++ {
		for _, off := range offsets {
			melody = append(melody, clampMIDI(root+off))
		}
	}

	bass := make([]int, len(bassIntervals))
	for i, iv := range bassIntervals {
		bass[i] = clampMIDI(root + iv)
	}

	return PitchSet{Melody: melody, Bass: bass}, nil
}
