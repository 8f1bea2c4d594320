package nquad

import (
	"fmt"

	"github.com/san-kum/numkit/internal/quad"
)

// Bank is a fixed-length collection of scalar engines. Element i reduces
// dimension i. The factory must return a distinct engine on every call.
type Bank struct {
	engines []quad.Engine
}

func NewBank(dim int, factory func() quad.Engine) *Bank {
	if dim < 1 {
		panic(fmt.Sprintf("nquad: bank dimension must be positive, got %d", dim))
	}
	b := &Bank{engines: make([]quad.Engine, dim)}
	for i := range b.engines {
		b.engines[i] = factory()
	}
	return b
}

func (b *Bank) Len() int { return len(b.engines) }

func (b *Bank) checkIndex(i int) {
	if i < 0 || i >= len(b.engines) {
		panic(fmt.Sprintf("nquad: bank index %d out of range [0, %d)", i, len(b.engines)))
	}
}

// At returns engine i. It panics if i is out of range.
func (b *Bank) At(i int) quad.Engine {
	b.checkIndex(i)
	return b.engines[i]
}

// ApplyAt applies op to engine i in place. An out-of-range index is a
// programming error and panics.
func (b *Bank) ApplyAt(i int, op func(quad.Engine)) {
	b.checkIndex(i)
	op(b.engines[i])
}

// Swap exchanges the engines serving dimensions i and j.
func (b *Bank) Swap(i, j int) {
	b.checkIndex(i)
	b.checkIndex(j)
	b.engines[i], b.engines[j] = b.engines[j], b.engines[i]
}
