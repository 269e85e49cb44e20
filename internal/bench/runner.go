package bench

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/pvec"
)

// Report summarizes one scenario execution.
type Report struct {
	// RunID is a fresh UUID for correlating log lines.
	RunID string

	// Scenario and Mode echo the executed scenario.
	Scenario string
	Mode     string

	// Iterations and Ops count the completed work. Ops includes every
	// vector operation the mix or script performed.
	Iterations int
	Ops        int

	// Duration is the wall time of the measured section.
	Duration time.Duration

	// FinalLen is the vector length after the last iteration.
	FinalLen int

	// Checksum folds the final contents and every iterate-op total.
	// Identical scenario and seed produce identical checksums, so a
	// policy change that alters results is caught immediately.
	Checksum uint64

	// Stats holds the operation counter deltas attributable to the
	// run. Meaningful only while no other goroutine works vectors.
	Stats pvec.Stats
}

// PerOp returns the mean wall time per operation.
func (r *Report) PerOp() time.Duration {
	if r.Ops == 0 {
		return 0
	}
	return r.Duration / time.Duration(r.Ops)
}

// Runner executes scenarios and logs a report line per run.
type Runner struct {
	logger *slog.Logger
}

// NewRunner returns a runner logging through logger. A nil logger
// falls back to slog.Default.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run executes a scenario. Each iteration works a fresh vector with
// an iteration-derived seed, so iterations vary while whole runs stay
// reproducible.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:      uuid.NewString(),
		Scenario:   sc.Name,
		Mode:       sc.Mode,
		Iterations: sc.Iterations,
	}
	logger := r.logger.With("run_id", report.RunID, "scenario", sc.Name)

	var stream []int64
	if sc.Data != nil {
		var err error
		stream, err = LoadDataset(sc.Data.File, sc.Data.Path)
		if err != nil {
			return nil, err
		}
		logger.Debug("dataset loaded", "file", sc.Data.File, "values", len(stream))
	}

	before := pvec.ReadStats()
	start := time.Now()

	var err error
	if sc.Script != nil {
		err = r.runScript(ctx, sc, report)
	} else {
		err = r.runMix(ctx, sc, stream, report)
	}
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	report.Stats = pvec.ReadStats().Sub(before)

	logger.Info("scenario complete",
		"mode", sc.Mode,
		"iterations", report.Iterations,
		"ops", report.Ops,
		"duration", report.Duration,
		"per_op", report.PerOp(),
		"final_len", report.FinalLen,
		"checksum", report.Checksum,
		"node_allocs", report.Stats.NodeAllocs,
		"path_copies", report.Stats.PathCopies,
		"in_place", report.Stats.InPlaceWrites,
		"tail_pushes", report.Stats.TailPushes,
		"releases", report.Stats.Releases,
		"pool_recycles", report.Stats.PoolRecycles,
	)
	return report, nil
}

func (r *Runner) runScript(ctx context.Context, sc *Scenario, report *Report) error {
	for iter := 0; iter < sc.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runScriptOnce(ctx, sc, int64(iter), report); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runScriptOnce(ctx context.Context, sc *Scenario, iter int64, report *Report) error {
	host := NewScriptHost(sc.Policy.Options())
	defer host.Close()

	host.SetGlobals(sc.Elements, sc.Seed+iter)
	if err := host.RunFile(ctx, sc.Script.File); err != nil {
		return err
	}

	final := host.Finish()
	report.Ops += host.Ops()
	report.FinalLen = final.Len()
	report.Checksum = checksum(final, 0)
	return nil
}

func (r *Runner) runMix(ctx context.Context, sc *Scenario, stream []int64, report *Report) error {
	for iter := 0; iter < sc.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rng := rand.New(rand.NewSource(sc.Seed + int64(iter)))

		var final pvec.Vector[int64]
		var ops int
		var acc uint64
		var err error
		if sc.Mode == ModeTransient {
			final, ops, acc, err = runTransientMix(ctx, sc, stream, rng)
		} else {
			final, ops, acc, err = runPersistentMix(ctx, sc, stream, rng)
		}
		if err != nil {
			return err
		}

		report.Ops += ops
		report.FinalLen = final.Len()
		report.Checksum = checksum(final, acc)
	}
	return nil
}

// mixOp indexes the weighted operations of a Mix.
type mixOp int

const (
	opAppend mixOp = iota
	opSet
	opUpdate
	opTake
	opDrop
	opIterate
)

// pickOp draws an operation according to the mix weights. Set and
// update retarget to append while the vector is empty; take, drop,
// and iterate are harmless no-ops there.
func pickOp(rng *rand.Rand, m Mix, length int) mixOp {
	r := rng.Intn(m.total())

	var op mixOp
	switch {
	case r < m.Append:
		op = opAppend
	case r < m.Append+m.Set:
		op = opSet
	case r < m.Append+m.Set+m.Update:
		op = opUpdate
	case r < m.Append+m.Set+m.Update+m.Take:
		op = opTake
	case r < m.Append+m.Set+m.Update+m.Take+m.Drop:
		op = opDrop
	default:
		op = opIterate
	}

	if length == 0 && (op == opSet || op == opUpdate) {
		return opAppend
	}
	return op
}

// valueAt yields the k-th element value, cycling the dataset when one
// is present.
func valueAt(stream []int64, k int) int64 {
	if len(stream) > 0 {
		return stream[k%len(stream)]
	}
	return int64(k)
}

// prefill builds the starting vector for a mix iteration.
func prefill(sc *Scenario, stream []int64) pvec.Vector[int64] {
	b := pvec.NewBuilder[int64](sc.Policy.Options()...)
	for k := 0; k < sc.Elements; k++ {
		b.Append(valueAt(stream, k))
	}
	return b.Vector()
}

// trimTarget picks how far a take shrinks the vector: a small suffix,
// never the whole thing at once.
func trimTarget(rng *rand.Rand, length int) int {
	n := length - (rng.Intn(16) + 1)
	if n < 0 {
		return 0
	}
	return n
}

func runTransientMix(ctx context.Context, sc *Scenario, stream []int64, rng *rand.Rand) (pvec.Vector[int64], int, uint64, error) {
	var zero pvec.Vector[int64]

	tr := prefill(sc, stream).Detach()
	k := sc.Elements
	var acc uint64

	for ops := 0; ops < sc.Elements; ops++ {
		if ops&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return zero, ops, acc, err
			}
		}

		switch pickOp(rng, sc.Mix, tr.Len()) {
		case opAppend:
			if err := tr.Append(valueAt(stream, k)); err != nil {
				return zero, ops, acc, err
			}
			k++
		case opSet:
			if err := tr.Set(rng.Intn(tr.Len()), valueAt(stream, k)); err != nil {
				return zero, ops, acc, err
			}
			k++
		case opUpdate:
			err := tr.Update(rng.Intn(tr.Len()), func(old int64) (int64, error) {
				return old + 1, nil
			})
			if err != nil {
				return zero, ops, acc, err
			}
		case opTake:
			if err := tr.Take(trimTarget(rng, tr.Len())); err != nil {
				return zero, ops, acc, err
			}
		case opDrop:
			if err := tr.Drop(rng.Intn(16) + 1); err != nil {
				return zero, ops, acc, err
			}
		case opIterate:
			var sum int64
			for _, x := range tr.ToSlice() {
				sum += x
			}
			acc ^= uint64(sum)
		}
	}

	return tr.Persistent(), sc.Elements, acc, nil
}

func runPersistentMix(ctx context.Context, sc *Scenario, stream []int64, rng *rand.Rand) (pvec.Vector[int64], int, uint64, error) {
	var zero pvec.Vector[int64]

	v := prefill(sc, stream)
	k := sc.Elements
	var acc uint64

	for ops := 0; ops < sc.Elements; ops++ {
		if ops&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return zero, ops, acc, err
			}
		}

		switch pickOp(rng, sc.Mix, v.Len()) {
		case opAppend:
			v = v.Append(valueAt(stream, k))
			k++
		case opSet:
			v = v.Set(rng.Intn(v.Len()), valueAt(stream, k))
			k++
		case opUpdate:
			v = v.Update(rng.Intn(v.Len()), func(old int64) int64 { return old + 1 })
		case opTake:
			v = v.Take(trimTarget(rng, v.Len()))
		case opDrop:
			v = v.Drop(rng.Intn(16) + 1)
		case opIterate:
			var sum int64
			it := v.Chunks()
			for it.Next() {
				for _, x := range it.Chunk() {
					sum += x
				}
			}
			acc ^= uint64(sum)
		}
	}

	return v, sc.Elements, acc, nil
}

// checksum folds the final contents into acc so results are
// comparable across runs and the work cannot be discarded.
func checksum(v pvec.Vector[int64], acc uint64) uint64 {
	c := acc
	it := v.Chunks()
	for it.Next() {
		for _, x := range it.Chunk() {
			c = c*31 + uint64(x)
		}
	}
	return c
}
