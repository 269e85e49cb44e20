package pvec

import "sync/atomic"

// Tree geometry constants
const (
	// BranchBits is the number of index bits consumed per tree level.
	BranchBits = 5

	// BranchFactor is the maximum number of children per inner node.
	BranchFactor = 1 << BranchBits

	// ChunkSize is the number of elements held by a full leaf.
	ChunkSize = BranchFactor
)

const (
	branchMask = BranchFactor - 1
	chunkMask  = ChunkSize - 1
)

// An edit identifies the transient that may mutate nodes in place.
// Only the pointer identity matters; a fresh edit is allocated for
// every transient conversion.
type edit struct {
	_ byte
}

// newEdit allocates a distinct edit identity.
func newEdit() *edit {
	return &edit{}
}

// node is a tree node: a leaf holding up to ChunkSize elements, or an
// inner node holding up to BranchFactor children.
//
// refs counts the parent links and live handle references pointing at
// the node. A node with refs > 1 is shared and must never be mutated;
// mutating operations copy it instead. The count is atomic because
// handles referencing the same subtree may be dropped from different
// goroutines.
type node[T any] struct {
	refs atomic.Int32
	edit *edit // owner stamp; nil outside any transient

	// Inner node fields (sizes is nil while the children are
	// left-dense, i.e. addressable by shift arithmetic alone).
	children []*node[T]
	sizes    []int

	// Leaf node fields. Leaf backing slices are always allocated with
	// capacity ChunkSize so in-place appends never relocate elements.
	items []T
}

// leaf reports whether n is a leaf node.
func (n *node[T]) leaf() bool {
	return n.children == nil
}

// retain adds one reference and returns n. Safe on nil.
func (n *node[T]) retain() *node[T] {
	if n != nil {
		n.refs.Add(1)
	}
	return n
}

// canMutate reports whether the transient identified by e may modify
// n in place: n must carry e's stamp and no other reference to it may
// exist. This is the gate for every in-place write.
func (n *node[T]) canMutate(e *edit) bool {
	return e != nil && n.edit == e && n.refs.Load() == 1
}

// relaxed reports whether n carries a size table.
func (n *node[T]) relaxed() bool {
	return n.sizes != nil
}

// count returns the number of elements covered by n hanging at shift
// sh. Left-dense nodes derive it from the rightmost spine; relaxed
// nodes read their size table.
func (n *node[T]) count(sh int) int {
	if sh == 0 {
		return len(n.items)
	}
	if n.sizes != nil {
		return n.sizes[len(n.sizes)-1]
	}
	last := len(n.children) - 1
	return last<<sh + n.children[last].count(sh-BranchBits)
}

// fullAt reports whether n covers its entire capacity at shift sh.
func (n *node[T]) fullAt(sh int) bool {
	if sh == 0 {
		return len(n.items) == ChunkSize
	}
	if n.sizes != nil {
		return n.sizes[len(n.sizes)-1] == 1<<(sh+BranchBits)
	}
	last := len(n.children) - 1
	return last == branchMask && n.children[last].fullAt(sh-BranchBits)
}

// childFor locates the child covering relative index i using the size
// table. The radix guess can only undershoot a relaxed table, so scan
// forward from it.
func (n *node[T]) childFor(i, sh int) int {
	k := i >> sh
	if k >= len(n.sizes) {
		k = len(n.sizes) - 1
	}
	for n.sizes[k] <= i {
		k++
	}
	return k
}

// step picks the child slot covering relative index i at shift sh and
// returns i rebased into that child.
func (n *node[T]) step(sh, i int) (int, int) {
	if n.sizes != nil {
		k := n.childFor(i, sh)
		if k > 0 {
			i -= n.sizes[k-1]
		}
		return k, i
	}
	k := (i >> sh) & branchMask
	return k, i - (k << sh)
}

// release drops one reference from n, freeing any node whose count
// reaches zero and cascading into its children. The walk keeps its own
// stack so releasing a deep tree cannot overflow the goroutine stack.
// Freed nodes are handed to the pool when one is configured.
func release[T any](n *node[T], p *policy[T]) {
	if n == nil {
		return
	}
	var local [8]*node[T]
	stack := append(local[:0], n)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.refs.Add(-1) != 0 {
			continue
		}
		statReleases.add(1)
		stack = append(stack, cur.children...)
		p.recycle(cur)
	}
}

// releaseAll drops one reference from each node in ns.
func releaseAll[T any](ns []*node[T], p *policy[T]) {
	for _, n := range ns {
		release(n, p)
	}
}

// cloneLeaf copies a leaf, stamping the copy with e. The copy starts
// with a single reference belonging to whoever installs it.
func cloneLeaf[T any](p *policy[T], e *edit, n *node[T]) *node[T] {
	statPathCopies.add(1)
	return p.newLeafCopy(e, n.items)
}

// cloneInner copies an inner node, retaining every child. Pass skip =
// -1 to retain all children; otherwise the slot at skip is left for
// the caller to fill with a node it already owns.
func cloneInner[T any](p *policy[T], e *edit, n *node[T], skip int) *node[T] {
	statPathCopies.add(1)
	children := make([]*node[T], len(n.children), BranchFactor)
	copy(children, n.children)
	for i, c := range children {
		if i != skip {
			c.refs.Add(1)
		}
	}
	var sizes []int
	if n.sizes != nil {
		sizes = make([]int, len(n.sizes), BranchFactor)
		copy(sizes, n.sizes)
	}
	return p.newInner(e, children, sizes)
}

// newPath wraps leaf in a chain of single-child inner nodes so that it
// hangs at shift sh. The caller's reference to leaf transfers into the
// path.
func newPath[T any](p *policy[T], e *edit, sh int, leaf *node[T]) *node[T] {
	n := leaf
	for s := BranchBits; s <= sh; s += BranchBits {
		var sizes []int
		if p.eagerTables() {
			sizes = append(make([]int, 0, BranchFactor), ChunkSize)
		}
		n = p.newInner(e, append(make([]*node[T], 0, BranchFactor), n), sizes)
	}
	return n
}

// sizeTable builds a cumulative size table for children hanging at
// child shift csh.
func sizeTable[T any](children []*node[T], csh int) []int {
	sizes := make([]int, len(children), BranchFactor)
	total := 0
	for i, c := range children {
		total += c.count(csh)
		sizes[i] = total
	}
	return sizes
}

// innerFrom builds an inner node over children hanging at child shift
// csh, attaching a size table when radix addressing would misroute
// (some child other than the last is not full) or when the policy asks
// for eager tables. The caller's references to the children transfer
// into the new node.
func innerFrom[T any](p *policy[T], e *edit, csh int, children []*node[T]) *node[T] {
	need := p.eagerTables()
	for i := 0; i < len(children)-1 && !need; i++ {
		if !children[i].fullAt(csh) {
			need = true
		}
	}
	var sizes []int
	if need {
		sizes = sizeTable(children, csh)
	}
	return p.newInner(e, children, sizes)
}
