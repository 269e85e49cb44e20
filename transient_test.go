package pvec

import (
	"errors"
	"fmt"
	"testing"
	"testing/quick"
)

func TestTransientAppend(t *testing.T) {
	for _, n := range boundarySizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			tr := New[int]().Transient()
			for i := 0; i < n; i++ {
				if err := tr.Append(i); err != nil {
					t.Fatalf("Append(%d): %v", i, err)
				}
			}
			v := tr.Persistent()
			checkShape(t, v)
			checkContents(t, v, seq(n))
		})
	}
}

func TestTransientLeavesSourceIntact(t *testing.T) {
	// a transient seeded from a vector may mutate freely; the vector
	// must never observe it
	src := FromSlice(seq(5000))
	tr := src.Transient()
	for i := 0; i < 5000; i += 3 {
		if err := tr.Set(i, -1); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if err := tr.Take(4000); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if err := tr.Drop(100); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	for i := 0; i < 64; i++ {
		if err := tr.Append(1000000 + i); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	out := tr.Persistent()

	checkContents(t, src, seq(5000))
	checkShape(t, src)
	want := make([]int, 0, 4000)
	for i := 0; i < 4000; i++ {
		if i%3 == 0 {
			want = append(want, -1)
		} else {
			want = append(want, i)
		}
	}
	want = want[100:]
	for i := 0; i < 64; i++ {
		want = append(want, 1000000+i)
	}
	checkShape(t, out)
	checkContents(t, out, want)
}

func TestTransientSet(t *testing.T) {
	tr := FromSlice(seq(1025)).Transient()
	for i := 0; i < 1025; i++ {
		if err := tr.Set(i, i*2); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	v := tr.Persistent()
	want := make([]int, 1025)
	for i := range want {
		want[i] = i * 2
	}
	checkContents(t, v, want)
}

func TestTransientBounds(t *testing.T) {
	tr := FromSlice(seq(10)).Transient()
	for _, idx := range []int{-1, 10, 99} {
		if err := tr.Set(idx, 0); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Set(%d) = %v, want ErrIndexOutOfRange", idx, err)
		}
		if err := tr.Update(idx, func(x int) (int, error) { return x, nil }); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Update(%d) = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
	// failed ops left everything alone
	checkContents(t, tr.Persistent(), seq(10))
}

func TestTransientUpdate(t *testing.T) {
	tr := FromSlice(seq(100)).Transient()
	if err := tr.Update(7, func(x int) (int, error) { return x + 1000, nil }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := tr.Get(7); got != 1007 {
		t.Errorf("Get(7) = %d, want 1007", got)
	}

	boom := errors.New("boom")
	if err := tr.Update(8, func(int) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("Update error = %v, want boom", err)
	}
	if got := tr.Get(8); got != 8 {
		t.Errorf("failed Update wrote %d", got)
	}
}

func TestTransientTakeDrop(t *testing.T) {
	tests := []struct {
		name string
		size int
		take int
		drop int
	}{
		{"tail only", 20, 15, 5},
		{"cut into tree", 1000, 600, 100},
		{"boundary cuts", 1000, 512, 32},
		{"drop everything", 1000, 800, 800},
		{"take everything", 1000, 2000, 0},
		{"deep cuts", 40000, 33000, 12345},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := FromSlice(seq(tt.size)).Transient()
			if err := tr.Take(tt.take); err != nil {
				t.Fatalf("Take: %v", err)
			}
			if err := tr.Drop(tt.drop); err != nil {
				t.Fatalf("Drop: %v", err)
			}
			want := seq(tt.size)
			if tt.take < len(want) {
				want = want[:tt.take]
			}
			if tt.drop >= len(want) {
				want = nil
			} else if tt.drop > 0 {
				want = want[tt.drop:]
			}
			v := tr.Persistent()
			checkShape(t, v)
			checkContents(t, v, want)
		})
	}
}

func TestTransientReusesOwnedNodes(t *testing.T) {
	// once the transient has claimed the tail, further appends into
	// it must not allocate new leaves
	tr := New[int]().Transient()
	if err := tr.Append(0); err != nil {
		t.Fatal(err)
	}
	leaf := tr.t.tail
	for i := 1; i < ChunkSize; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	if tr.t.tail != leaf {
		t.Error("append into owned tail replaced the node")
	}
	if &tr.t.tail.items[0] != &leaf.items[0] {
		t.Error("append into owned tail relocated its storage")
	}
}

func TestFrozenTransientPanics(t *testing.T) {
	ops := []struct {
		name string
		call func(*Transient[int])
	}{
		{"Len", func(tr *Transient[int]) { tr.Len() }},
		{"Get", func(tr *Transient[int]) { tr.Get(0) }},
		{"Append", func(tr *Transient[int]) { _ = tr.Append(1) }},
		{"Set", func(tr *Transient[int]) { _ = tr.Set(0, 1) }},
		{"Take", func(tr *Transient[int]) { _ = tr.Take(1) }},
		{"Drop", func(tr *Transient[int]) { _ = tr.Drop(1) }},
		{"Persistent", func(tr *Transient[int]) { tr.Persistent() }},
		{"Snapshot", func(tr *Transient[int]) { tr.Snapshot() }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			tr := Of(1, 2, 3).Transient()
			tr.Persistent()
			defer func() {
				if recover() == nil {
					t.Errorf("%s on frozen transient did not panic", op.name)
				}
			}()
			op.call(tr)
		})
	}
}

func TestSnapshot(t *testing.T) {
	tr := New[int]().Transient()
	var snaps []Vector[int]
	var sizes []int
	for i := 0; i < 3000; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
		if i%700 == 0 {
			snaps = append(snaps, tr.Snapshot())
			sizes = append(sizes, i+1)
		}
	}
	// the transient keeps going after every snapshot
	final := tr.Persistent()
	checkContents(t, final, seq(3000))
	for k, s := range snaps {
		checkShape(t, s)
		checkContents(t, s, seq(sizes[k]))
	}
}

func TestSnapshotUnaffectedByLaterWrites(t *testing.T) {
	tr := FromSlice(seq(2000)).Transient()
	snap := tr.Snapshot()
	for i := 0; i < 2000; i++ {
		if err := tr.Set(i, -i); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Take(5); err != nil {
		t.Fatal(err)
	}
	checkContents(t, snap, seq(2000))
	got := tr.Persistent()
	checkContents(t, got, []int{0, -1, -2, -3, -4})
}

func TestTransientModelProperty(t *testing.T) {
	// interpret a byte string as a mutation script and compare the
	// transient against a plain slice model
	f := func(script []byte, base uint8) bool {
		model := seq(int(base))
		tr := FromSlice(model).Transient()
		next := 1000
		for _, op := range script {
			switch op % 4 {
			case 0:
				if err := tr.Append(next); err != nil {
					return false
				}
				model = append(model, next)
				next++
			case 1:
				if len(model) == 0 {
					continue
				}
				i := int(op) % len(model)
				if err := tr.Set(i, -next); err != nil {
					return false
				}
				model = append([]int{}, model...)
				model[i] = -next
				next++
			case 2:
				n := int(op) % (len(model) + 1)
				if err := tr.Take(n); err != nil {
					return false
				}
				model = model[:n]
			case 3:
				n := int(op) % (len(model) + 1)
				if err := tr.Drop(n); err != nil {
					return false
				}
				model = model[n:]
			}
		}
		v := tr.Persistent()
		if v.Len() != len(model) {
			return false
		}
		for i, want := range model {
			if v.Get(i) != want {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}
