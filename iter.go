package pvec

import "iter"

// chunkFrame tracks the walk position inside one tree node.
type chunkFrame[T any] struct {
	node *node[T]
	slot int
}

// ChunkIterator walks a vector's leaf chunks in order, exposing each
// as a read-only slice:
//
//	it := v.Chunks()
//	for it.Next() {
//		process(it.Chunk())
//	}
//
// The returned slices alias the vector's storage and must not be
// written to.
type ChunkIterator[T any] struct {
	tail     *node[T]
	stack    []chunkFrame[T]
	chunk    []T
	off      int
	next     int
	tailDone bool
}

func newChunkIterator[T any](t *tree[T]) *ChunkIterator[T] {
	it := &ChunkIterator[T]{tail: t.tail}
	if t.root != nil {
		it.stack = append(make([]chunkFrame[T], 0, 8), chunkFrame[T]{node: t.root})
	}
	return it
}

// Next advances to the next chunk, reporting false when none remain.
func (it *ChunkIterator[T]) Next() bool {
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]
		if f.node.leaf() {
			it.stack = it.stack[:len(it.stack)-1]
			it.setChunk(f.node.items)
			return true
		}
		if f.slot < len(f.node.children) {
			child := f.node.children[f.slot]
			f.slot++
			it.stack = append(it.stack, chunkFrame[T]{node: child})
			continue
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	if !it.tailDone {
		it.tailDone = true
		if it.tail != nil && len(it.tail.items) > 0 {
			it.setChunk(it.tail.items)
			return true
		}
	}
	it.chunk = nil
	return false
}

func (it *ChunkIterator[T]) setChunk(items []T) {
	it.off = it.next
	it.next += len(items)
	it.chunk = items
}

// Chunk returns the current chunk. It stays valid until the next call
// to Next.
func (it *ChunkIterator[T]) Chunk() []T { return it.chunk }

// Offset returns the absolute index of the current chunk's first
// element.
func (it *ChunkIterator[T]) Offset() int { return it.off }

// Iterator walks elements front to back. Next must return true before
// Value or Index may be called.
type Iterator[T any] struct {
	chunks *ChunkIterator[T]
	cur    []T
	idx    int
}

func newIterator[T any](t *tree[T]) *Iterator[T] {
	return &Iterator[T]{chunks: newChunkIterator(t), idx: -1}
}

// Next advances to the next element, reporting false when none
// remain.
func (it *Iterator[T]) Next() bool {
	it.idx++
	for it.idx >= len(it.cur) {
		if !it.chunks.Next() {
			it.cur = nil
			return false
		}
		it.cur = it.chunks.Chunk()
		it.idx = 0
	}
	return true
}

// Value returns the current element.
func (it *Iterator[T]) Value() T { return it.cur[it.idx] }

// Index returns the current element's index.
func (it *Iterator[T]) Index() int { return it.chunks.Offset() + it.idx }

// Chunks returns an iterator over v's storage chunks.
func (v Vector[T]) Chunks() *ChunkIterator[T] { return newChunkIterator(&v.t) }

// Iter returns an element iterator over v.
func (v Vector[T]) Iter() *Iterator[T] { return newIterator(&v.t) }

// All returns an index/element sequence over v for range loops.
func (v Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		it := v.Chunks()
		for it.Next() {
			base := it.Offset()
			for j, x := range it.Chunk() {
				if !yield(base+j, x) {
					return
				}
			}
		}
	}
}

// Values returns an element sequence over v for range loops.
func (v Vector[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		it := v.Chunks()
		for it.Next() {
			for _, x := range it.Chunk() {
				if !yield(x) {
					return
				}
			}
		}
	}
}

// Backward returns an index/element sequence over v from back to
// front.
func (v Vector[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		t := &v.t
		end := t.size
		if t.tail != nil {
			items := t.tail.items
			start := end - len(items)
			for j := len(items) - 1; j >= 0; j-- {
				if !yield(start+j, items[j]) {
					return
				}
			}
			end = start
		}
		if t.root == nil {
			return
		}
		stack := append(make([]chunkFrame[T], 0, 8), chunkFrame[T]{t.root, lastSlot(t.root)})
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.node.leaf() {
				items := f.node.items
				start := end - len(items)
				for j := len(items) - 1; j >= 0; j-- {
					if !yield(start+j, items[j]) {
						return
					}
				}
				end = start
				stack = stack[:len(stack)-1]
				continue
			}
			if f.slot >= 0 {
				child := f.node.children[f.slot]
				f.slot--
				stack = append(stack, chunkFrame[T]{child, lastSlot(child)})
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func lastSlot[T any](n *node[T]) int { return len(n.children) - 1 }
