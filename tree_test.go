package pvec

import "testing"

// seq returns the ints 0..n-1.
func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

// checkContents verifies v holds exactly want, through both bulk
// export and indexed reads.
func checkContents(t *testing.T, v Vector[int], want []int) {
	t.Helper()
	if v.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", v.Len(), len(want))
	}
	got := v.ToSlice()
	if len(got) != len(want) {
		t.Fatalf("ToSlice() has %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d = %d, want %d", i, got[i], want[i])
		}
	}
	for _, i := range []int{0, len(want) / 2, len(want) - 1} {
		if i >= 0 && i < len(want) && v.Get(i) != want[i] {
			t.Fatalf("Get(%d) = %d, want %d", i, v.Get(i), want[i])
		}
	}
}

// checkShape walks v's internal tree and fails on any structural
// invariant violation: node arity, leaf sizing, size-table accuracy,
// left-density of table-less nodes, and the covered-count bookkeeping.
func checkShape[T any](t *testing.T, v Vector[T]) {
	t.Helper()
	tr := &v.t
	if tr.tail == nil {
		if tr.size != 0 {
			t.Fatalf("size %d with no tail", tr.size)
		}
		if tr.root != nil {
			t.Fatal("root present on empty vector")
		}
		return
	}
	if len(tr.tail.items) == 0 {
		t.Fatal("empty tail leaf")
	}
	if len(tr.tail.items) > ChunkSize {
		t.Fatalf("tail holds %d elements", len(tr.tail.items))
	}
	cov := 0
	if tr.root != nil {
		cov = checkNode(t, tr.root, tr.shift)
	}
	if cov != tr.tailOffset() {
		t.Fatalf("tree covers %d elements, bookkeeping says %d", cov, tr.tailOffset())
	}
}

func checkNode[T any](t *testing.T, n *node[T], sh int) int {
	t.Helper()
	if n.refs.Load() < 1 {
		t.Fatalf("node at shift %d reachable with refcount %d", sh, n.refs.Load())
	}
	if sh == 0 {
		if !n.leaf() {
			t.Fatalf("inner node at shift 0")
		}
		if len(n.items) == 0 || len(n.items) > ChunkSize {
			t.Fatalf("leaf holds %d elements", len(n.items))
		}
		if cap(n.items) != ChunkSize {
			t.Fatalf("leaf backing capacity %d, want %d", cap(n.items), ChunkSize)
		}
		return len(n.items)
	}
	if n.leaf() {
		t.Fatalf("leaf at shift %d", sh)
	}
	if len(n.children) == 0 || len(n.children) > BranchFactor {
		t.Fatalf("inner node at shift %d has %d children", sh, len(n.children))
	}
	if n.sizes != nil && len(n.sizes) != len(n.children) {
		t.Fatalf("size table has %d entries for %d children", len(n.sizes), len(n.children))
	}
	total := 0
	for i, c := range n.children {
		cnt := checkNode(t, c, sh-BranchBits)
		total += cnt
		switch {
		case n.sizes != nil:
			if n.sizes[i] != total {
				t.Fatalf("size table entry %d = %d, want %d", i, n.sizes[i], total)
			}
		case i < len(n.children)-1 && cnt != 1<<sh:
			t.Fatalf("table-less node at shift %d has partial child %d (%d of %d)",
				sh, i, cnt, 1<<sh)
		}
	}
	return total
}

func TestTreeGrowth(t *testing.T) {
	// crossing 32, 1024, and 32768 grows the tree one level each time
	v := New[int]()
	wantShift := func(size, shift int) {
		t.Helper()
		if v.Len() != size {
			t.Fatalf("Len() = %d, want %d", v.Len(), size)
		}
		if v.t.shift != shift {
			t.Fatalf("shift = %d at size %d, want %d", v.t.shift, size, shift)
		}
	}
	for i := 0; i < 64; i++ {
		v = v.Append(i)
	}
	wantShift(64, 0)
	for i := 64; i < 1056; i++ {
		v = v.Append(i)
	}
	wantShift(1056, BranchBits)
	for i := 1056; i < 32800; i++ {
		v = v.Append(i)
	}
	wantShift(32800, 2*BranchBits)
	checkShape(t, v)
	checkContents(t, v, seq(32800))
}

func TestTreeShrinkOnTake(t *testing.T) {
	v := FromSlice(seq(32800))
	taken := v.Take(40)
	if taken.t.shift != 0 {
		t.Fatalf("shift = %d after taking 40, want 0", taken.t.shift)
	}
	checkShape(t, taken)
	checkContents(t, taken, seq(40))
	// the original keeps its height and contents
	if v.t.shift != 2*BranchBits {
		t.Fatalf("original shift changed to %d", v.t.shift)
	}
	checkContents(t, v, seq(32800))
}

func TestDropProducesSizeTables(t *testing.T) {
	v := FromSlice(seq(4096)).Drop(5)
	if v.t.root == nil || !v.t.root.relaxed() {
		t.Fatal("dropping mid-leaf should leave a relaxed root")
	}
	checkShape(t, v)
	checkContents(t, v, seq(4096)[5:])
}

func TestDropWholeLeavesStaysDense(t *testing.T) {
	// dropping on a chunk boundary removes whole subtrees; what
	// remains is still addressable by shift arithmetic alone
	v := FromSlice(seq(4096)).Drop(1024)
	checkShape(t, v)
	var sawTable bool
	var walk func(n *node[int])
	walk = func(n *node[int]) {
		if n == nil || n.leaf() {
			return
		}
		if n.relaxed() {
			sawTable = true
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(v.t.root)
	if sawTable {
		t.Error("boundary drop should not introduce size tables")
	}
	checkContents(t, v, seq(4096)[1024:])
}
