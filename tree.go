package pvec

// tree is the engine state shared by Vector and Transient: a root
// hanging at shift, a rightmost tail leaf buffering appends, and the
// logical element count. The zero tree is empty and ready to use.
//
// Structural invariants:
//   - size equals the elements covered by root plus len(tail.items)
//   - every leaf hangs at shift 0
//   - tail is nil only when size is 0; it never exceeds ChunkSize
//   - a node is mutated only while its refcount is exactly one
type tree[T any] struct {
	root  *node[T]
	shift int
	tail  *node[T]
	size  int
	pol   *policy[T]
}

// tailOffset returns the number of elements covered by the root.
func (t *tree[T]) tailOffset() int {
	if t.tail == nil {
		return t.size
	}
	return t.size - len(t.tail.items)
}

// share returns a copy of t holding its own references to root and
// tail.
func (t tree[T]) share() tree[T] {
	t.root.retain()
	t.tail.retain()
	return t
}

// leafFor returns the leaf holding index i and i's position within it.
// The index must be in [0, size).
func (t *tree[T]) leafFor(i int) (*node[T], int) {
	if i >= t.tailOffset() {
		return t.tail, i - t.tailOffset()
	}
	n := t.root
	for sh := t.shift; sh > 0; sh -= BranchBits {
		var k int
		k, i = n.step(sh, i)
		n = n.children[k]
	}
	return n, i & chunkMask
}

// get returns element i. The index must be in [0, size).
func (t *tree[T]) get(i int) T {
	leaf, j := t.leafFor(i)
	return leaf.items[j]
}

// ----- persistent operations -----

// pushBack returns a tree with v appended, sharing every untouched
// node with t.
func (t tree[T]) pushBack(v T) tree[T] {
	p := t.pol
	nt := t
	switch {
	case t.tail == nil:
		items := make([]T, 1, ChunkSize)
		items[0] = v
		nt.tail = p.newLeafTake(nil, items)
		nt.root.retain()
	case len(t.tail.items) < ChunkSize:
		items := make([]T, len(t.tail.items)+1, ChunkSize)
		copy(items, t.tail.items)
		items[len(items)-1] = v
		nt.tail = p.newLeafTake(nil, items)
		nt.root.retain()
	default:
		nt.root, nt.shift = t.pushTail()
		items := make([]T, 1, ChunkSize)
		items[0] = v
		nt.tail = p.newLeafTake(nil, items)
	}
	nt.size++
	return nt
}

// pushTail folds the full tail into the tree as its new rightmost
// leaf, returning the new root and shift. The old tail gains a tree
// parent reference; the caller's own references are untouched.
func (t *tree[T]) pushTail() (*node[T], int) {
	statTailPushes.add(1)
	p := t.pol
	leaf := t.tail.retain()
	if t.root == nil {
		return leaf, 0
	}
	if n, ok := pushLeaf(p, nil, t.root, t.shift, leaf); ok {
		return n, t.shift
	}
	// the rightmost spine is full at every level: grow
	cov := t.tailOffset()
	var sizes []int
	if cov != 1<<(t.shift+BranchBits) || p.eagerTables() {
		sizes = append(make([]int, 0, BranchFactor), cov, cov+ChunkSize)
	}
	children := append(make([]*node[T], 0, BranchFactor), t.root.retain(), newPath(p, nil, t.shift, leaf))
	return p.newInner(nil, children, sizes), t.shift + BranchBits
}

// pushLeaf copies the rightmost spine of n with leaf hung at the
// bottom. Returns false, with nothing copied, when the spine has no
// room at any level.
func pushLeaf[T any](p *policy[T], e *edit, n *node[T], sh int, leaf *node[T]) (*node[T], bool) {
	if sh == 0 {
		return nil, false
	}
	if sh == BranchBits {
		if len(n.children) == BranchFactor {
			return nil, false
		}
		return appendChild(p, e, n, sh, leaf), true
	}
	last := len(n.children) - 1
	if child, ok := pushLeaf(p, e, n.children[last], sh-BranchBits, leaf); ok {
		c := cloneInner(p, e, n, last)
		c.children[last] = child
		if c.sizes != nil {
			c.sizes[last] += ChunkSize
		}
		return c, true
	}
	if len(n.children) == BranchFactor {
		return nil, false
	}
	return appendChild(p, e, n, sh, newPath(p, e, sh-BranchBits, leaf)), true
}

// appendChild copies n with extra as a new rightmost child. extra must
// cover exactly ChunkSize elements. The copy keeps n's addressing mode
// unless left-density breaks or the policy wants eager tables.
func appendChild[T any](p *policy[T], e *edit, n *node[T], sh int, extra *node[T]) *node[T] {
	statPathCopies.add(1)
	children := make([]*node[T], len(n.children)+1, BranchFactor)
	copy(children, n.children)
	for _, c := range n.children {
		c.refs.Add(1)
	}
	children[len(children)-1] = extra
	var sizes []int
	switch {
	case n.sizes != nil:
		sizes = make([]int, len(n.sizes)+1, BranchFactor)
		copy(sizes, n.sizes)
		sizes[len(sizes)-1] = n.sizes[len(n.sizes)-1] + ChunkSize
	case p.eagerTables() || !n.children[len(n.children)-1].fullAt(sh-BranchBits):
		sizes = sizeTable(children, sh-BranchBits)
	}
	return p.newInner(e, children, sizes)
}

// assoc returns a tree with element i replaced by v. The index must
// be in [0, size).
func (t tree[T]) assoc(i int, v T) tree[T] {
	nt := t
	if i >= t.tailOffset() {
		j := i - t.tailOffset()
		items := make([]T, len(t.tail.items), ChunkSize)
		copy(items, t.tail.items)
		items[j] = v
		nt.tail = t.pol.newLeafTake(nil, items)
		nt.root.retain()
		return nt
	}
	nt.root = assocNode(t.pol, nil, t.root, t.shift, i, v)
	nt.tail.retain()
	return nt
}

// assocNode copies the path from n to the leaf holding relative index
// i and writes v there.
func assocNode[T any](p *policy[T], e *edit, n *node[T], sh, i int, v T) *node[T] {
	if sh == 0 {
		c := cloneLeaf(p, e, n)
		c.items[i&chunkMask] = v
		return c
	}
	k, rel := n.step(sh, i)
	c := cloneInner(p, e, n, k)
	c.children[k] = assocNode(p, e, n.children[k], sh-BranchBits, rel, v)
	return c
}

// take returns a tree keeping only the first n elements.
func (t tree[T]) take(n int) tree[T] {
	p := t.pol
	switch {
	case n <= 0:
		return tree[T]{pol: p}
	case n >= t.size:
		return t.share()
	}
	nt := t
	nt.size = n
	off := t.tailOffset()
	if n > off {
		items := make([]T, n-off, ChunkSize)
		copy(items, t.tail.items)
		nt.tail = p.newLeafTake(nil, items)
		nt.root.retain()
		return nt
	}
	// the leaf holding the last kept element becomes the new tail
	leaf, j := t.leafFor(n - 1)
	items := make([]T, j+1, ChunkSize)
	copy(items, leaf.items)
	nt.tail = p.newLeafTake(nil, items)
	cut := n - (j + 1)
	if cut == 0 {
		nt.root, nt.shift = nil, 0
		return nt
	}
	nt.root, nt.shift = takeRoot(p, nil, t.root, t.shift, cut)
	return nt
}

// takeRoot trims the tree to its first cut elements, descending past
// root levels where only the first child survives. cut is a leaf
// boundary in (0, covered).
func takeRoot[T any](p *policy[T], e *edit, n *node[T], sh, cut int) (*node[T], int) {
	for sh > 0 {
		if k, _ := n.step(sh, cut-1); k > 0 {
			break
		}
		n = n.children[0]
		sh -= BranchBits
	}
	if cut == n.count(sh) {
		return n.retain(), sh
	}
	return takeNode(p, e, n, sh, cut), sh
}

// takeNode returns a copy of n covering only its first cut elements.
func takeNode[T any](p *policy[T], e *edit, n *node[T], sh, cut int) *node[T] {
	if sh == 0 {
		return p.newLeafCopy(e, n.items[:cut])
	}
	k, _ := n.step(sh, cut-1)
	keep := cut - n.prefixBefore(k, sh)
	children := make([]*node[T], k+1, BranchFactor)
	copy(children, n.children[:k])
	for _, c := range children[:k] {
		c.refs.Add(1)
	}
	if child := n.children[k]; keep == child.count(sh-BranchBits) {
		children[k] = child.retain()
	} else {
		children[k] = takeNode(p, e, child, sh-BranchBits, keep)
	}
	var sizes []int
	if n.sizes != nil {
		sizes = make([]int, k+1, BranchFactor)
		copy(sizes, n.sizes[:k])
		sizes[k] = cut
	} else if p.eagerTables() {
		sizes = sizeTable(children, sh-BranchBits)
	}
	statPathCopies.add(1)
	return p.newInner(e, children, sizes)
}

// prefixBefore returns the element count covered by children before
// slot k.
func (n *node[T]) prefixBefore(k, sh int) int {
	if k == 0 {
		return 0
	}
	if n.sizes != nil {
		return n.sizes[k-1]
	}
	return k << sh
}

// drop returns a tree without the first n elements. Trimming the
// leftmost edge is what produces relaxed nodes: the partial leading
// child forces a size table onto every copied ancestor.
func (t tree[T]) drop(n int) tree[T] {
	p := t.pol
	switch {
	case n <= 0:
		return t.share()
	case n >= t.size:
		return tree[T]{pol: p}
	}
	nt := t
	nt.size = t.size - n
	off := t.tailOffset()
	if n >= off {
		j := n - off
		items := make([]T, len(t.tail.items)-j, ChunkSize)
		copy(items, t.tail.items[j:])
		nt.root, nt.shift = nil, 0
		nt.tail = p.newLeafTake(nil, items)
		return nt
	}
	nt.root, nt.shift = dropRoot(p, nil, t.root, t.shift, n)
	nt.tail.retain()
	return nt
}

// dropRoot removes the first n covered elements, descending past root
// levels where only the last child survives. n is in (0, covered).
func dropRoot[T any](p *policy[T], e *edit, nd *node[T], sh, n int) (*node[T], int) {
	for sh > 0 {
		k, rel := nd.step(sh, n)
		if k < len(nd.children)-1 {
			break
		}
		nd = nd.children[k]
		sh -= BranchBits
		n = rel
		if n == 0 {
			return nd.retain(), sh
		}
	}
	if sh == 0 {
		return p.newLeafCopy(e, nd.items[n:]), 0
	}
	return dropNode(p, e, nd, sh, n), sh
}

// dropNode returns a copy of nd without its first n covered elements.
func dropNode[T any](p *policy[T], e *edit, nd *node[T], sh, n int) *node[T] {
	if sh == 0 {
		return p.newLeafCopy(e, nd.items[n:])
	}
	k, rel := nd.step(sh, n)
	kept := len(nd.children) - k
	children := make([]*node[T], kept, BranchFactor)
	copy(children, nd.children[k:])
	for _, c := range children[1:] {
		c.refs.Add(1)
	}
	if rel == 0 {
		children[0] = nd.children[k].retain()
	} else {
		children[0] = dropNode(p, e, nd.children[k], sh-BranchBits, rel)
	}
	var sizes []int
	if nd.sizes != nil {
		sizes = make([]int, kept, BranchFactor)
		for j := 0; j < kept; j++ {
			sizes[j] = nd.sizes[k+j] - n
		}
	} else if rel != 0 || p.eagerTables() {
		sizes = sizeTable(children, sh-BranchBits)
	}
	statPathCopies.add(1)
	return p.newInner(e, children, sizes)
}

// ----- transient operations -----
//
// The transient variants claim nodes top-down: a node is mutated in
// place only when canMutate passes, otherwise it is copied and the
// copy stamped with the transient's edit. Claims happen before child
// work is installed and every fallible step runs before the first
// observable write, so a failed operation leaves the tree exactly as
// it was.

// pushBackMut appends v, mutating the tail in place when it is owned.
func (t *tree[T]) pushBackMut(e *edit, v T) error {
	p := t.pol
	if t.tail != nil && len(t.tail.items) < ChunkSize {
		if t.tail.canMutate(e) {
			statInPlace.add(1)
			t.tail.items = append(t.tail.items, v)
			t.size++
			return nil
		}
		if err := p.allocCheck(); err != nil {
			return err
		}
		c := cloneLeaf(p, e, t.tail)
		c.items = append(c.items, v)
		release(t.tail, p)
		t.tail = c
		t.size++
		return nil
	}
	if t.tail == nil {
		if err := p.allocCheck(); err != nil {
			return err
		}
		items := make([]T, 1, ChunkSize)
		items[0] = v
		t.tail = p.newLeafTake(e, items)
		t.size++
		return nil
	}
	// tail full: fold it, then start a fresh tail holding v
	if err := t.pushTailMut(e); err != nil {
		return err
	}
	items := make([]T, 1, ChunkSize)
	items[0] = v
	t.tail = p.newLeafTake(e, items)
	t.size++
	return nil
}

// pushTailMut folds the full tail into the tree, claiming the
// rightmost spine. On failure the tree is untouched.
func (t *tree[T]) pushTailMut(e *edit) error {
	statTailPushes.add(1)
	p := t.pol
	leaf := t.tail
	if t.root == nil {
		t.root, t.shift = leaf, 0
		t.tail = nil
		return nil
	}
	if hasRoom(t.root, t.shift) {
		n, err := pushDescend(p, e, t.root, t.shift, leaf)
		if err != nil {
			return err
		}
		if n != t.root {
			old := t.root
			t.root = n
			release(old, p)
		}
		t.tail = nil
		return nil
	}
	// grow: the caller's references to root and tail transfer into
	// the new top structure
	if err := p.allocCheck(); err != nil {
		return err
	}
	cov := t.tailOffset()
	var sizes []int
	if cov != 1<<(t.shift+BranchBits) || p.eagerTables() {
		sizes = append(make([]int, 0, BranchFactor), cov, cov+ChunkSize)
	}
	children := append(make([]*node[T], 0, BranchFactor), t.root, newPath(p, e, t.shift, leaf))
	t.root = p.newInner(e, children, sizes)
	t.shift += BranchBits
	t.tail = nil
	return nil
}

// hasRoom reports whether the rightmost spine can accept another leaf
// without growing the tree.
func hasRoom[T any](n *node[T], sh int) bool {
	if sh == 0 {
		return false
	}
	if len(n.children) < BranchFactor {
		return true
	}
	return hasRoom(n.children[len(n.children)-1], sh-BranchBits)
}

// pushDescend claims the rightmost spine top-down and hangs leaf at
// the bottom. The caller guarantees room via hasRoom.
func pushDescend[T any](p *policy[T], e *edit, n *node[T], sh int, leaf *node[T]) (*node[T], error) {
	c := n
	if n.canMutate(e) {
		statInPlace.add(1)
	} else {
		if err := p.allocCheck(); err != nil {
			return nil, err
		}
		c = cloneInner(p, e, n, -1)
	}
	last := len(c.children) - 1
	if sh > BranchBits && hasRoom(c.children[last], sh-BranchBits) {
		child := c.children[last]
		cc, err := pushDescend(p, e, child, sh-BranchBits, leaf)
		if err != nil {
			if c != n {
				release(c, p)
			}
			return nil, err
		}
		if cc != child {
			c.children[last] = cc
			release(child, p)
		}
		if c.sizes != nil {
			c.sizes[last] += ChunkSize
		}
		return c, nil
	}
	extra := leaf
	if sh > BranchBits {
		// a fresh path hangs beside the full rightmost child
		if err := p.allocCheck(); err != nil {
			if c != n {
				release(c, p)
			}
			return nil, err
		}
		extra = newPath(p, e, sh-BranchBits, leaf)
	}
	appendChildMut(p, c, sh, extra)
	return c, nil
}

// appendChildMut hangs extra, covering exactly ChunkSize elements, as
// a new rightmost child of the claimed node c.
func appendChildMut[T any](p *policy[T], c *node[T], sh int, extra *node[T]) {
	last := len(c.children) - 1
	if c.sizes == nil && (p.eagerTables() || !c.children[last].fullAt(sh-BranchBits)) {
		c.sizes = sizeTable(c.children, sh-BranchBits)
	}
	if c.sizes != nil {
		c.sizes = append(c.sizes, c.sizes[len(c.sizes)-1]+ChunkSize)
	}
	c.children = append(c.children, extra)
}

// assocMut replaces element i, writing through owned nodes in place.
func (t *tree[T]) assocMut(e *edit, i int, v T) error {
	p := t.pol
	if i >= t.tailOffset() {
		j := i - t.tailOffset()
		if t.tail.canMutate(e) {
			statInPlace.add(1)
			t.tail.items[j] = v
			return nil
		}
		if err := p.allocCheck(); err != nil {
			return err
		}
		c := cloneLeaf(p, e, t.tail)
		c.items[j] = v
		release(t.tail, p)
		t.tail = c
		return nil
	}
	n, err := assocDescend(p, e, t.root, t.shift, i, v)
	if err != nil {
		return err
	}
	if n != t.root {
		old := t.root
		t.root = n
		release(old, p)
	}
	return nil
}

// assocDescend claims the path to relative index i top-down and
// writes v into the leaf.
func assocDescend[T any](p *policy[T], e *edit, n *node[T], sh, i int, v T) (*node[T], error) {
	if sh == 0 {
		if n.canMutate(e) {
			statInPlace.add(1)
			n.items[i&chunkMask] = v
			return n, nil
		}
		if err := p.allocCheck(); err != nil {
			return nil, err
		}
		c := cloneLeaf(p, e, n)
		c.items[i&chunkMask] = v
		return c, nil
	}
	c := n
	if n.canMutate(e) {
		statInPlace.add(1)
	} else {
		if err := p.allocCheck(); err != nil {
			return nil, err
		}
		c = cloneInner(p, e, n, -1)
	}
	k, rel := c.step(sh, i)
	child := c.children[k]
	cc, err := assocDescend(p, e, child, sh-BranchBits, rel, v)
	if err != nil {
		if c != n {
			release(c, p)
		}
		return nil, err
	}
	if cc != child {
		c.children[k] = cc
		release(child, p)
	}
	return c, nil
}

// takeMut truncates to the first n elements, releasing everything
// right of the cut that the transient owned exclusively.
func (t *tree[T]) takeMut(e *edit, n int) error {
	p := t.pol
	switch {
	case n >= t.size:
		return nil
	case n <= 0:
		release(t.root, p)
		release(t.tail, p)
		t.root, t.shift, t.tail, t.size = nil, 0, nil, 0
		return nil
	}
	off := t.tailOffset()
	if n > off {
		keep := n - off
		if t.tail.canMutate(e) {
			statInPlace.add(1)
			var zero T
			for j := keep; j < len(t.tail.items); j++ {
				t.tail.items[j] = zero
			}
			t.tail.items = t.tail.items[:keep]
			t.size = n
			return nil
		}
		if err := p.allocCheck(); err != nil {
			return err
		}
		c := p.newLeafCopy(e, t.tail.items[:keep])
		release(t.tail, p)
		t.tail = c
		t.size = n
		return nil
	}
	leaf, j := t.leafFor(n - 1)
	if err := p.allocCheck(); err != nil {
		return err
	}
	newTail := p.newLeafCopy(e, leaf.items[:j+1])
	cut := n - (j + 1)
	var root *node[T]
	shift := 0
	if cut > 0 {
		var err error
		root, shift, err = takeRootMut(p, e, t.root, t.shift, cut)
		if err != nil {
			release(newTail, p)
			return err
		}
	}
	oldRoot, oldTail := t.root, t.tail
	t.root, t.shift, t.tail, t.size = root, shift, newTail, n
	release(oldRoot, p)
	release(oldTail, p)
	return nil
}

// takeRootMut trims the tree to cut elements, claiming owned nodes in
// place. The returned node carries a reference for the caller.
func takeRootMut[T any](p *policy[T], e *edit, n *node[T], sh, cut int) (*node[T], int, error) {
	for sh > 0 {
		if k, _ := n.step(sh, cut-1); k > 0 {
			break
		}
		n = n.children[0]
		sh -= BranchBits
	}
	if cut == n.count(sh) {
		return n.retain(), sh, nil
	}
	nn, err := takeDescend(p, e, n, sh, cut)
	if err != nil {
		return nil, 0, err
	}
	if nn == n {
		// trimmed in place: the node moves from the old spine to the
		// caller's root slot
		nn.retain()
	}
	return nn, sh, nil
}

// takeDescend trims node n to its first cut elements, in place when
// owned. Children are trimmed before the parent is touched.
func takeDescend[T any](p *policy[T], e *edit, n *node[T], sh, cut int) (*node[T], error) {
	if sh == 0 {
		if n.canMutate(e) {
			statInPlace.add(1)
			var zero T
			for j := cut; j < len(n.items); j++ {
				n.items[j] = zero
			}
			n.items = n.items[:cut]
			return n, nil
		}
		if err := p.allocCheck(); err != nil {
			return nil, err
		}
		return p.newLeafCopy(e, n.items[:cut]), nil
	}
	k, _ := n.step(sh, cut-1)
	keep := cut - n.prefixBefore(k, sh)
	child := n.children[k]
	newChild := child
	if keep != child.count(sh-BranchBits) {
		cc, err := takeDescend(p, e, child, sh-BranchBits, keep)
		if err != nil {
			return nil, err
		}
		newChild = cc
	}
	if n.canMutate(e) {
		statInPlace.add(1)
		releaseAll(n.children[k+1:], p)
		for j := k + 1; j < len(n.children); j++ {
			n.children[j] = nil
		}
		n.children = n.children[:k+1]
		if newChild != child {
			n.children[k] = newChild
			release(child, p)
		}
		if n.sizes != nil {
			n.sizes = n.sizes[:k+1]
			n.sizes[k] = cut
		}
		return n, nil
	}
	if err := p.allocCheck(); err != nil {
		if newChild != child {
			release(newChild, p)
		}
		return nil, err
	}
	children := make([]*node[T], k+1, BranchFactor)
	copy(children, n.children[:k])
	for _, c := range children[:k] {
		c.refs.Add(1)
	}
	if newChild == child {
		newChild = child.retain()
	}
	children[k] = newChild
	var sizes []int
	if n.sizes != nil {
		sizes = make([]int, k+1, BranchFactor)
		copy(sizes, n.sizes[:k])
		sizes[k] = cut
	} else if p.eagerTables() {
		sizes = sizeTable(children, sh-BranchBits)
	}
	statPathCopies.add(1)
	return p.newInner(e, children, sizes), nil
}

// dropMut removes the first n elements, claiming owned nodes in place.
func (t *tree[T]) dropMut(e *edit, n int) error {
	p := t.pol
	switch {
	case n <= 0:
		return nil
	case n >= t.size:
		release(t.root, p)
		release(t.tail, p)
		t.root, t.shift, t.tail, t.size = nil, 0, nil, 0
		return nil
	}
	off := t.tailOffset()
	if n >= off {
		j := n - off
		if j > 0 {
			if t.tail.canMutate(e) {
				statInPlace.add(1)
				kept := len(t.tail.items) - j
				copy(t.tail.items, t.tail.items[j:])
				var zero T
				for i := kept; i < len(t.tail.items); i++ {
					t.tail.items[i] = zero
				}
				t.tail.items = t.tail.items[:kept]
			} else {
				if err := p.allocCheck(); err != nil {
					return err
				}
				c := p.newLeafCopy(e, t.tail.items[j:])
				release(t.tail, p)
				t.tail = c
			}
		}
		release(t.root, p)
		t.root, t.shift = nil, 0
		t.size -= n
		return nil
	}
	root, shift, err := dropRootMut(p, e, t.root, t.shift, n)
	if err != nil {
		return err
	}
	// dropRootMut returns an owned reference even when it trimmed the
	// current root in place, so the swap-and-release is unconditional.
	old := t.root
	t.root, t.shift = root, shift
	release(old, p)
	t.size -= n
	return nil
}

// dropRootMut removes the first n covered elements, claiming owned
// nodes in place. The returned node carries a reference for the
// caller.
func dropRootMut[T any](p *policy[T], e *edit, nd *node[T], sh, n int) (*node[T], int, error) {
	for sh > 0 {
		k, rel := nd.step(sh, n)
		if k < len(nd.children)-1 {
			break
		}
		nd = nd.children[k]
		sh -= BranchBits
		n = rel
		if n == 0 {
			return nd.retain(), sh, nil
		}
	}
	nn, err := dropDescend(p, e, nd, sh, n)
	if err != nil {
		return nil, 0, err
	}
	if nn == nd {
		nn.retain()
	}
	return nn, sh, nil
}

// dropDescend removes the first n covered elements of nd, in place
// when owned.
func dropDescend[T any](p *policy[T], e *edit, nd *node[T], sh, n int) (*node[T], error) {
	if sh == 0 {
		if nd.canMutate(e) {
			statInPlace.add(1)
			kept := len(nd.items) - n
			copy(nd.items, nd.items[n:])
			var zero T
			for i := kept; i < len(nd.items); i++ {
				nd.items[i] = zero
			}
			nd.items = nd.items[:kept]
			return nd, nil
		}
		if err := p.allocCheck(); err != nil {
			return nil, err
		}
		return p.newLeafCopy(e, nd.items[n:]), nil
	}
	k, rel := nd.step(sh, n)
	child := nd.children[k]
	newChild := child
	if rel > 0 {
		cc, err := dropDescend(p, e, child, sh-BranchBits, rel)
		if err != nil {
			return nil, err
		}
		newChild = cc
	}
	if nd.canMutate(e) {
		statInPlace.add(1)
		releaseAll(nd.children[:k], p)
		kept := len(nd.children) - k
		copy(nd.children, nd.children[k:])
		for j := kept; j < len(nd.children); j++ {
			nd.children[j] = nil
		}
		nd.children = nd.children[:kept]
		if newChild != child {
			nd.children[0] = newChild
			release(child, p)
		}
		switch {
		case nd.sizes != nil:
			for j := 0; j < kept; j++ {
				nd.sizes[j] = nd.sizes[k+j] - n
			}
			nd.sizes = nd.sizes[:kept]
		case rel > 0 || p.eagerTables():
			nd.sizes = sizeTable(nd.children, sh-BranchBits)
		}
		return nd, nil
	}
	if err := p.allocCheck(); err != nil {
		if newChild != child {
			release(newChild, p)
		}
		return nil, err
	}
	kept := len(nd.children) - k
	children := make([]*node[T], kept, BranchFactor)
	copy(children, nd.children[k:])
	for _, c := range children[1:] {
		c.refs.Add(1)
	}
	if newChild == child {
		newChild = child.retain()
	}
	children[0] = newChild
	var sizes []int
	switch {
	case nd.sizes != nil:
		sizes = make([]int, kept, BranchFactor)
		for j := 0; j < kept; j++ {
			sizes[j] = nd.sizes[k+j] - n
		}
	case rel > 0 || p.eagerTables():
		sizes = sizeTable(children, sh-BranchBits)
	}
	statPathCopies.add(1)
	return p.newInner(e, children, sizes), nil
}
