package testutil

import (
	"math/rand/v2"
	"sync"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789._-"

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed+1)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed+1))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Fill fills dst with uniform random bytes.
func (r *RNG) Fill(dst []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(dst); i += 8 {
		v := r.rand.Uint64()
		for j := i; j < min(i+8, len(dst)); j++ {
			dst[j] = byte(v)
			v >>= 8
		}
	}
}

// Bytes returns n uniform random bytes.
func (r *RNG) Bytes(n int) []byte {
	b := make([]byte, n)
	r.Fill(b)
	return b
}

// Text returns n bytes of low-entropy text drawn from a small vocabulary,
// which LZ4 and ZSTD compress well.
func (r *RNG) Text(n int) []byte {
	words := []string{"block ", "chain ", "entry ", "table ", "region ", "file ", "dir "}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, 0, n+8)
	for len(b) < n {
		b = append(b, words[r.rand.IntN(len(words))]...)
	}
	return b[:n]
}

// Name returns a random name of 1 to maxLen characters that is never
// "." or "..".
func (r *RNG) Name(maxLen int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		b := make([]byte, 1+r.rand.IntN(maxLen))
		for i := range b {
			b[i] = nameAlphabet[r.rand.IntN(len(nameAlphabet))]
		}
		if s := string(b); s != "." && s != ".." {
			return s
		}
	}
}
