package dice

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// seededSource implements Source with a PCG generator.
//
// Invariant: two sources constructed with the same seed produce identical sequences.
type seededSource struct {
	rng *mrand.Rand
}

// NewSeededSource returns a reproducible Source for seed.
//
// Postcondition: every value returned by Float64 is in [0, 1).
func NewSeededSource(seed int64) Source {
	s := uint64(seed)
	return &seededSource{rng: mrand.New(mrand.NewPCG(s, s^0x9e3779b97f4a7c15))}
}

// Float64 returns the next value of the seeded sequence.
func (s *seededSource) Float64() float64 {
	return s.rng.Float64()
}

// NewSeed returns a non-zero seed drawn from crypto/rand.
//
// Postcondition: result != 0.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}
