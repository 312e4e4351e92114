// Package id mints ULID identifiers for positions, trades and runs.
// The time prefix means journal rows sorted by ID come out in creation
// order.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// generator serializes a monotonic entropy source so IDs minted within
// the same millisecond still sort in mint order.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var defaultGen = newGenerator()

func newGenerator() *generator {
	var seed int64
	if err := binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed); err != nil || seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

func (g *generator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), g.entropy).String()
}

// New returns a fresh ULID string.
func New() string {
	return defaultGen.next()
}
