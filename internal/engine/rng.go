package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
	"math/rand"
)

// Source produces uniformly distributed floats in [0, 1).
// Every random draw made by the game engine goes through a Source.
type Source interface {
	Float64() float64
}

// mathSource adapts math/rand to Source.
type mathSource struct {
	r *rand.Rand
}

// NewMathSource returns a pseudo-random Source seeded with seed.
func NewMathSource(seed int64) Source {
	return &mathSource{r: rand.New(rand.NewSource(seed))}
}

func (m *mathSource) Float64() float64 {
	return m.r.Float64()
}

// ByteGenerator generates bytes using HMAC-SHA256 over
// "clientSeed:nonce:round", keyed by the server seed.
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a new byte generator positioned at cursor.
func NewByteGenerator(serverSeed, clientSeed string, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:   serverSeed,
		clientSeed:   clientSeed,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat generates the next float using exactly 4 bytes
func (bg *ByteGenerator) NextFloat() float64 {
	b0 := bg.Next()
	b1 := bg.Next()
	b2 := bg.Next()
	b3 := bg.Next()

	return bytesToFloat([4]byte{b0, b1, b2, b3})
}

// Float64 makes ByteGenerator a Source.
func (bg *ByteGenerator) Float64() float64 {
	return bg.NextFloat()
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	message := fmt.Sprintf("%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

// bytesToFloat converts 4 bytes to a base-256 fraction in [0, 1).
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// NewFairSource returns a provably-fair Source. Anyone holding the three
// seed values can replay the exact sequence of draws.
func NewFairSource(serverSeed, clientSeed string, nonce uint64) Source {
	return NewByteGenerator(serverSeed, clientSeed, nonce, 0)
}

// Floats generates the specified number of floats starting from the given cursor
func Floats(serverSeed, clientSeed string, nonce uint64, cursor uint64, count int) []float64 {
	bg := NewByteGenerator(serverSeed, clientSeed, nonce, cursor)
	floats := make([]float64, count)

	for i := 0; i < count; i++ {
		floats[i] = bg.NextFloat()
	}

	return floats
}

// FixedSource replays a fixed list of values, cycling when exhausted.
// Values are clamped into [0, 1).
type FixedSource struct {
	values []float64
	pos    int
}

// Fixed returns a Source that yields values in order. With no values it
// always yields 0.
func Fixed(values ...float64) *FixedSource {
	return &FixedSource{values: values}
}

func (f *FixedSource) Float64() float64 {
	if len(f.values) == 0 {
		return 0
	}
	v := f.values[f.pos%len(f.values)]
	f.pos++
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}

// Draws reports how many values have been consumed.
func (f *FixedSource) Draws() int {
	return f.pos
}
