package pvec

import (
	"fmt"
	"testing"
)

func TestChunkIterator(t *testing.T) {
	for _, n := range boundarySizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			v := FromSlice(seq(n))
			it := v.Chunks()
			var got []int
			for it.Next() {
				chunk := it.Chunk()
				if len(chunk) == 0 || len(chunk) > ChunkSize {
					t.Fatalf("chunk of %d elements", len(chunk))
				}
				if it.Offset() != len(got) {
					t.Fatalf("Offset() = %d, want %d", it.Offset(), len(got))
				}
				got = append(got, chunk...)
			}
			if len(got) != n {
				t.Fatalf("iterated %d elements, want %d", len(got), n)
			}
			for i := range got {
				if got[i] != i {
					t.Fatalf("element %d = %d", i, got[i])
				}
			}
			if it.Next() {
				t.Error("Next() after exhaustion returned true")
			}
		})
	}
}

func TestChunkIteratorRelaxed(t *testing.T) {
	v := FromSlice(seq(2000)).Drop(45)
	it := v.Chunks()
	var got []int
	for it.Next() {
		got = append(got, it.Chunk()...)
	}
	want := seq(2000)[45:]
	if len(got) != len(want) {
		t.Fatalf("iterated %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIterator(t *testing.T) {
	v := FromSlice(seq(1100))
	it := v.Iter()
	i := 0
	for it.Next() {
		if it.Index() != i {
			t.Fatalf("Index() = %d, want %d", it.Index(), i)
		}
		if it.Value() != i {
			t.Fatalf("Value() = %d, want %d", it.Value(), i)
		}
		i++
	}
	if i != 1100 {
		t.Fatalf("iterated %d elements", i)
	}
}

func TestIteratorEmpty(t *testing.T) {
	it := New[int]().Iter()
	if it.Next() {
		t.Error("Next() on empty vector returned true")
	}
}

func TestAllSeq(t *testing.T) {
	v := FromSlice(seq(200))
	i := 0
	for idx, x := range v.All() {
		if idx != i || x != i {
			t.Fatalf("All() yielded (%d, %d) at step %d", idx, x, i)
		}
		i++
	}
	if i != 200 {
		t.Fatalf("All() yielded %d pairs", i)
	}
}

func TestAllSeqEarlyBreak(t *testing.T) {
	v := FromSlice(seq(1000))
	count := 0
	for _, x := range v.All() {
		if x == 150 {
			break
		}
		count++
	}
	if count != 150 {
		t.Errorf("consumed %d elements before break", count)
	}
}

func TestValuesSeq(t *testing.T) {
	v := Of("a", "b", "c")
	var got []string
	for x := range v.Values() {
		got = append(got, x)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Values() yielded %v", got)
	}
}

func TestBackward(t *testing.T) {
	for _, n := range []int{0, 1, 33, 1100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			v := FromSlice(seq(n))
			i := n - 1
			for idx, x := range v.Backward() {
				if idx != i || x != i {
					t.Fatalf("Backward() yielded (%d, %d), want (%d, %d)", idx, x, i, i)
				}
				i--
			}
			if i != -1 {
				t.Fatalf("Backward() stopped at %d", i)
			}
		})
	}
}

func TestBackwardRelaxed(t *testing.T) {
	v := FromSlice(seq(2000)).Drop(45)
	want := seq(2000)[45:]
	i := len(want) - 1
	for idx, x := range v.Backward() {
		if idx != i || x != want[i] {
			t.Fatalf("Backward() yielded (%d, %d), want (%d, %d)", idx, x, i, want[i])
		}
		i--
	}
	if i != -1 {
		t.Fatalf("Backward() stopped at %d", i)
	}
}

func TestBackwardEarlyBreak(t *testing.T) {
	v := FromSlice(seq(500))
	count := 0
	for _, x := range v.Backward() {
		if x < 490 {
			break
		}
		count++
	}
	if count != 10 {
		t.Errorf("consumed %d elements before break", count)
	}
}
