package bptree

import (
	"math/rand"
	"time"
)

// splitRNG is the engine's tie-breaking coin-toss source for node
// splits. Encapsulated as a field on Tree and seeded once per
// Open/Create, rather than a package-level global, to avoid hidden
// process state shared across trees.
type splitRNG struct {
	r *rand.Rand
}

func newSplitRNG() *splitRNG {
	return &splitRNG{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// coinToss returns 0 or 1 with equal probability.
func (s *splitRNG) coinToss() int {
	return s.r.Intn(2)
}
