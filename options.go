package pvec

// Option configures the memory policy of a vector at construction.
// The policy is structural: every vector and transient derived from a
// configured vector shares it.
type Option func(*config)

type config struct {
	moveReuse   bool
	eagerTables bool
	pooling     bool
}

func defaultConfig() config {
	return config{moveReuse: true}
}

// WithMoveReuse controls whether Detach may reuse the backing tree of
// an exclusively-owned vector instead of copying ownership lazily.
// Enabled by default.
func WithMoveReuse(on bool) Option {
	return func(c *config) {
		c.moveReuse = on
	}
}

// WithEagerSizeTables makes every freshly built inner node carry a
// size table, even when its children are left-dense and shift
// arithmetic alone would route correctly. Lookups pay for the table
// scan; pushes skip the left-dense bookkeeping. Off by default.
func WithEagerSizeTables(on bool) Option {
	return func(c *config) {
		c.eagerTables = on
	}
}

// WithPooling recycles released nodes through a sync.Pool instead of
// leaving them to the garbage collector. Only worthwhile for
// transient-heavy workloads. Off by default.
func WithPooling(on bool) Option {
	return func(c *config) {
		c.pooling = on
	}
}

// policy is the resolved memory configuration. A nil policy means the
// defaults: move reuse on, lazy size tables, no pooling.
type policy[T any] struct {
	cfg  config
	pool *nodePool[T]

	// allocHook, when set, runs before every node allocation performed
	// on behalf of a transient mutation. Returning an error aborts the
	// operation before any observable state change, which is how the
	// strong failure guarantee is exercised under fault injection.
	allocHook func() error
}

func newPolicy[T any](opts []Option) *policy[T] {
	if len(opts) == 0 {
		return nil
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	p := &policy[T]{cfg: cfg}
	if cfg.pooling {
		p.pool = newNodePool[T]()
	}
	return p
}

// moveEnabled reports whether Detach may adopt exclusively-owned trees.
func (p *policy[T]) moveEnabled() bool {
	return p == nil || p.cfg.moveReuse
}

// eagerTables reports whether fresh inner nodes always carry tables.
func (p *policy[T]) eagerTables() bool {
	return p != nil && p.cfg.eagerTables
}

// allocCheck consults the fault hook on transient mutation paths.
func (p *policy[T]) allocCheck() error {
	if p == nil || p.allocHook == nil {
		return nil
	}
	return p.allocHook()
}

// newLeafCopy builds a leaf holding a copy of src. The backing slice
// always has capacity ChunkSize so later in-place appends cannot
// relocate elements.
func (p *policy[T]) newLeafCopy(e *edit, src []T) *node[T] {
	n := p.grabLeaf()
	n.edit = e
	n.items = n.items[:len(src)]
	copy(n.items, src)
	return n
}

// newLeafTake builds a leaf adopting the caller's slice. The slice
// must have capacity ChunkSize.
func (p *policy[T]) newLeafTake(e *edit, items []T) *node[T] {
	statNodeAllocs.add(1)
	n := &node[T]{edit: e, items: items}
	n.refs.Store(1)
	return n
}

// newInner builds an inner node adopting the caller's child and size
// slices. Reference accounting for the children is the caller's job.
func (p *policy[T]) newInner(e *edit, children []*node[T], sizes []int) *node[T] {
	statNodeAllocs.add(1)
	if p != nil && p.pool != nil {
		n := p.pool.getInner()
		n.edit = e
		n.children = children
		n.sizes = sizes
		return n
	}
	n := &node[T]{edit: e, children: children, sizes: sizes}
	n.refs.Store(1)
	return n
}

// grabLeaf returns an empty leaf with refs already at one, pulling
// from the pool when one is configured.
func (p *policy[T]) grabLeaf() *node[T] {
	statNodeAllocs.add(1)
	if p != nil && p.pool != nil {
		return p.pool.getLeaf()
	}
	n := &node[T]{items: make([]T, 0, ChunkSize)}
	n.refs.Store(1)
	return n
}

// recycle disposes of a node whose refcount reached zero. Without a
// pool the fields are cleared so the garbage collector can reclaim
// the subtree pieces independently.
func (p *policy[T]) recycle(n *node[T]) {
	if p != nil && p.pool != nil {
		p.pool.put(n)
		return
	}
	n.children = nil
	n.sizes = nil
	n.items = nil
	n.edit = nil
}
