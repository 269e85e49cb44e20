package pvec

import "testing"

func TestStatsTailPushes(t *testing.T) {
	ResetStats()
	before := ReadStats()
	v := New[int]()
	for i := 0; i < 65; i++ {
		v = v.Append(i)
	}
	d := ReadStats().Sub(before)
	// appends 33 and 65 fold a full tail
	if d.TailPushes != 2 {
		t.Errorf("TailPushes = %d, want 2", d.TailPushes)
	}
	if d.NodeAllocs == 0 {
		t.Error("NodeAllocs = 0 after 65 appends")
	}
}

func TestStatsInPlaceWrites(t *testing.T) {
	ResetStats()
	before := ReadStats()
	tr := New[int]().Transient()
	for i := 0; i < 1000; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	tr.Persistent()
	d := ReadStats().Sub(before)
	if d.InPlaceWrites == 0 {
		t.Error("transient appends recorded no in-place writes")
	}
	// owned-tail appends dominate; path copying should be rare here
	if d.PathCopies > d.InPlaceWrites {
		t.Errorf("PathCopies = %d exceeds InPlaceWrites = %d", d.PathCopies, d.InPlaceWrites)
	}
}

func TestStatsReleases(t *testing.T) {
	// an exclusively owned transient frees the whole right side of a
	// truncation; a transient sharing with a live vector only drops
	// reference counts
	ResetStats()
	tr := New[int]().Transient()
	for i := 0; i < 5000; i++ {
		if err := tr.Append(i); err != nil {
			t.Fatal(err)
		}
	}
	before := ReadStats()
	if err := tr.Take(10); err != nil {
		t.Fatal(err)
	}
	tr.Persistent()
	owned := ReadStats().Sub(before)
	if owned.Releases == 0 {
		t.Error("truncating an owned transient released nothing")
	}

	src := FromSlice(seq(5000))
	shared := src.Transient()
	before = ReadStats()
	if err := shared.Take(10); err != nil {
		t.Fatal(err)
	}
	shared.Persistent()
	d := ReadStats().Sub(before)
	if d.Releases != 0 {
		t.Errorf("truncating a sharing transient freed %d nodes the source still needs", d.Releases)
	}
	checkContents(t, src, seq(5000))
}

func TestSetStatsEnabled(t *testing.T) {
	ResetStats()
	SetStatsEnabled(false)
	v := New[int]()
	for i := 0; i < 100; i++ {
		v = v.Append(i)
	}
	if s := ReadStats(); s.NodeAllocs != 0 || s.TailPushes != 0 {
		t.Errorf("counters advanced while disabled: %+v", s)
	}
	SetStatsEnabled(true)
	v.Append(1)
	if s := ReadStats(); s.NodeAllocs == 0 {
		t.Error("counters still frozen after re-enable")
	}
}

func TestPooledTransientChurn(t *testing.T) {
	ResetStats()
	before := ReadStats()
	tr := New[int](WithPooling(true)).Transient()
	for round := 0; round < 20; round++ {
		for i := 0; i < 2000; i++ {
			if err := tr.Append(i); err != nil {
				t.Fatal(err)
			}
		}
		if err := tr.Take(16); err != nil {
			t.Fatal(err)
		}
	}
	v := tr.Persistent()
	checkShape(t, v)
	checkContents(t, v, seq(16))
	d := ReadStats().Sub(before)
	if d.PoolRecycles == 0 {
		t.Error("pooled churn recycled nothing")
	}
}

func TestPooledVectorCorrectness(t *testing.T) {
	// pooling must never change observable behavior
	opts := []Option{WithPooling(true)}
	v := FromSlice(seq(3000), opts...)
	w := v.Drop(100).Take(2000)
	checkShape(t, w)
	checkContents(t, w, seq(3000)[100:2100])

	tr := v.Transient()
	for i := 0; i < 3000; i += 2 {
		if err := tr.Set(i, -i); err != nil {
			t.Fatal(err)
		}
	}
	out := tr.Persistent()
	want := seq(3000)
	for i := 0; i < 3000; i += 2 {
		want[i] = -i
	}
	checkContents(t, out, want)
	checkContents(t, v, seq(3000))
}
