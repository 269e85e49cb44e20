package pvec

import "sync"

// nodePool recycles released nodes through sync.Pool. Leaves keep
// their element backing between uses, which is where the win is:
// transient-heavy workloads churn through tail leaves at a high rate.
type nodePool[T any] struct {
	leaves sync.Pool
	inners sync.Pool
}

func newNodePool[T any]() *nodePool[T] {
	p := &nodePool[T]{}
	p.leaves.New = func() any {
		return &node[T]{items: make([]T, 0, ChunkSize)}
	}
	p.inners.New = func() any {
		return &node[T]{}
	}
	return p
}

// getLeaf returns an empty leaf with its refcount already at one.
func (p *nodePool[T]) getLeaf() *node[T] {
	n := p.leaves.Get().(*node[T])
	n.items = n.items[:0]
	n.edit = nil
	n.refs.Store(1)
	return n
}

// getInner returns a bare inner node shell with its refcount at one.
// The caller attaches children and sizes.
func (p *nodePool[T]) getInner() *node[T] {
	n := p.inners.Get().(*node[T])
	n.edit = nil
	n.refs.Store(1)
	return n
}

// put returns a dead node to the matching pool. Child and element
// references are cleared first so pooled nodes never pin subtrees.
func (p *nodePool[T]) put(n *node[T]) {
	statPoolRecycles.add(1)
	if n.leaf() {
		var zero T
		for i := range n.items {
			n.items[i] = zero
		}
		n.items = n.items[:0]
		n.edit = nil
		p.leaves.Put(n)
		return
	}
	for i := range n.children {
		n.children[i] = nil
	}
	n.children = nil
	n.sizes = nil
	n.edit = nil
	p.inners.Put(n)
}
