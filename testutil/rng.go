package testutil

import (
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/model"
)

// Words is a small vocabulary for randomized text values.
var Words = []string{"alpha", "beta", "gamma", "delta", "intro", "body", "summary", "appendix"}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Zipf returns a Zipfian-distributed value in [0, n) with skew s.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Phrase returns n words drawn from vocab joined by spaces.
func (r *RNG) Phrase(vocab []string, n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phraseLocked(vocab, n)
}

func (r *RNG) phraseLocked(vocab []string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = vocab[r.rand.Intn(len(vocab))]
	}
	return strings.Join(parts, " ")
}

// Docs generates a Doc/Section fixture with n docs.
//
// Section counts per doc follow a Zipf distribution in [0, maxSections],
// so many docs have no sections at all. About one record in ten is private.
func (r *RNG) Docs(n, maxSections int, vocab []string) dataset.Fixture {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := NewBuilder().
		Datatype(Doc, "doc", Public(), Children(Section)).
		Field(Doc, Title, facet.Text).
		Datatype(Section, "section", Public()).
		Field(Section, Body, facet.Text)

	next := model.RecordID(n + 1)
	for i := 1; i <= n; i++ {
		doc := model.RecordID(i)
		b.Record(doc, Doc, 0).Text(doc, Title, r.phraseLocked(vocab, 2))
		if r.rand.Intn(10) == 0 {
			b.Private(doc)
		}
		for range r.zipfLocked(maxSections+1, 1.0) {
			b.Record(next, Section, doc).Text(next, Body, r.phraseLocked(vocab, 3))
			if r.rand.Intn(10) == 0 {
				b.Private(next)
			}
			next++
		}
	}
	return b.Fixture()
}
