package refindex

import "hash/fnv"

// BloomFilter is a fixed-size bit array with k independent hash
// probes, used by LSMTree segments to skip disjoint reads cheaply.
type BloomFilter struct {
	bits []bool
	m    uint32
	k    int
}

// NewBloom returns a filter with size bits and k hash functions.
func NewBloom(size int, k int) *BloomFilter {
	return &BloomFilter{bits: make([]bool, size), m: uint32(size), k: k}
}

func (b *BloomFilter) getHashes(key int64) []uint32 {
	hashes := make([]uint32, b.k)
	h := fnv.New32a()
	keyBytes := []byte{
		byte(key), byte(key >> 8), byte(key >> 16), byte(key >> 24),
		byte(key >> 32), byte(key >> 40), byte(key >> 48), byte(key >> 56),
	}
	for i := 0; i < b.k; i++ {
		h.Write([]byte{byte(i)})
		h.Write(keyBytes)
		hashes[i] = h.Sum32() % b.m
		h.Reset()
	}
	return hashes
}

// Add records key as present.
func (b *BloomFilter) Add(key int64) {
	for _, h := range b.getHashes(key) {
		b.bits[h] = true
	}
}

// Test reports whether key might be present. False positives are
// possible; false negatives are not.
func (b *BloomFilter) Test(key int64) bool {
	for _, h := range b.getHashes(key) {
		if !b.bits[h] {
			return false
		}
	}
	return true
}
