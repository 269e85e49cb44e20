package pvec

// Builder assembles a vector element by element without path copying.
// Chunks fill in sequence and link bottom-up when Vector is called,
// which is much cheaper than repeated Append for large inputs. The
// zero Builder is ready to use with default policy.
type Builder[T any] struct {
	pol    *policy[T]
	leaves []*node[T]
	cur    []T
	size   int
}

// NewBuilder returns a builder configured by opts.
func NewBuilder[T any](opts ...Option) *Builder[T] {
	return &Builder[T]{pol: newPolicy[T](opts)}
}

// Append adds v at the back.
func (b *Builder[T]) Append(v T) {
	if b.cur == nil {
		b.cur = make([]T, 0, ChunkSize)
	}
	b.cur = append(b.cur, v)
	b.size++
	if len(b.cur) == ChunkSize {
		b.leaves = append(b.leaves, b.pol.newLeafTake(nil, b.cur))
		b.cur = nil
	}
}

// AppendSlice adds all of items at the back.
func (b *Builder[T]) AppendSlice(items []T) {
	for _, v := range items {
		b.Append(v)
	}
}

// Len returns the number of elements appended so far.
func (b *Builder[T]) Len() int { return b.size }

// Vector links the accumulated chunks into a vector and resets the
// builder for reuse.
func (b *Builder[T]) Vector() Vector[T] {
	t := tree[T]{pol: b.pol, size: b.size}
	nodes := b.leaves
	switch {
	case b.cur != nil:
		t.tail = b.pol.newLeafTake(nil, b.cur)
	case len(nodes) > 0:
		// the last full chunk becomes the tail, matching the shape
		// Append-built vectors have
		t.tail = nodes[len(nodes)-1]
		nodes = nodes[:len(nodes)-1]
	}
	sh := 0
	for len(nodes) > 1 {
		parents := make([]*node[T], 0, (len(nodes)+branchMask)>>BranchBits)
		for i := 0; i < len(nodes); i += BranchFactor {
			end := min(i+BranchFactor, len(nodes))
			group := make([]*node[T], end-i, BranchFactor)
			copy(group, nodes[i:end])
			parents = append(parents, innerFrom(b.pol, nil, sh, group))
		}
		nodes = parents
		sh += BranchBits
	}
	if len(nodes) == 1 {
		t.root, t.shift = nodes[0], sh
	}
	b.leaves, b.cur, b.size = nil, nil, 0
	return Vector[T]{t: t}
}
