package sat

import (
	"math/bits"
	"sync"
)

// Literal-slice pooling for clause storage: a fixed ladder of
// power-of-two size classes, each backed by its own sync.Pool, so the
// engine has a single always-on allocation strategy instead of
// branching on a build tag.

// nLitPools is the number of slice pools. Pool i serves capacities in
// [2^i, 2^(i+1)-1] (pool 0 also serves 0) and creates fresh slices of
// capacity 2^(i+1); the last pool serves every capacity of 2^(nLitPools-1)
// (32) or more.
const nLitPools = 6

const lastPoolCapa = 1 << nLitPools

var litPools [nLitPools]sync.Pool

func init() {
	for i := 0; i < nLitPools; i++ {
		capa := 1 << (i + 1)
		litPools[i].New = func() any {
			s := make([]Literal, 0, capa)
			return &s
		}
	}
}

func litPoolID(capa int) int {
	if capa >= lastPoolCapa {
		return nLitPools - 1
	}
	id := bits.Len(uint(capa)) - 1
	if capa < (1 << id) {
		id--
	}
	if id < 0 {
		id = 0
	}
	return id
}

// allocLits returns an empty slice with at least the requested capacity.
func allocLits(capa int) []Literal {
	ref := litPools[litPoolID(capa)].Get().(*[]Literal)
	s := *ref
	if cap(s) < capa {
		s = make([]Literal, 0, capa)
	} else {
		s = s[:0]
	}
	return s
}

// freeLits returns the backing array to its pool for reuse.
func freeLits(s []Literal) {
	s = s[:0]
	litPools[litPoolID(cap(s))].Put(&s)
}
