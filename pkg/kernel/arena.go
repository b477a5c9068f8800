package kernel

const arenaChunk = 1024

// arena hands out pointers to zeroed T values from fixed-size chunks.
// Pointers stay valid until release.
type arena[T any] struct {
	chunks [][]T
	next   int
	count  int
}

func (a *arena[T]) alloc() *T {
	if len(a.chunks) == 0 || a.next == arenaChunk {
		a.chunks = append(a.chunks, make([]T, arenaChunk))
		a.next = 0
	}
	p := &a.chunks[len(a.chunks)-1][a.next]
	a.next++
	a.count++
	return p
}

func (a *arena[T]) release() {
	a.chunks = nil
	a.next = 0
	a.count = 0
}

// Pass owns the scratch storage of one geometric operation: the BSP and
// kd-tree nodes it builds. Trees built in a pass must not be used after
// Release.
type Pass struct {
	bsp arena[bspNode]
	kd  arena[kdNode]
}

// NewPass returns an empty pass.
func NewPass() *Pass { return &Pass{} }

// Release frees every node allocated in the pass.
func (p *Pass) Release() {
	Logger().Debug("releasing pass", "bspNodes", p.bsp.count, "kdNodes", p.kd.count)
	p.bsp.release()
	p.kd.release()
}
