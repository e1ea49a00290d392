package batch

import (
	"fmt"
	"sync"

	"github.com/GglLfr/hephae"
	"github.com/GglLfr/hephae/internal/parallel"
	"github.com/GglLfr/hephae/vertex"
)

// DefaultChunkSize is the default number of entity states per drawer task.
const DefaultChunkSize = 64

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Workers is the number of drawer goroutines. Zero uses GOMAXPROCS.
	Workers int

	// ChunkSize is the number of entity states evaluated per task.
	ChunkSize int

	// DoubleBuffer alternates two writers so the previous frame's regions
	// stay readable while the next frame is written.
	DoubleBuffer bool

	// Writer configures the buffer regions.
	Writer WriterConfig
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize: DefaultChunkSize,
		Writer:    DefaultWriterConfig(),
	}
}

// Validate checks the configuration.
func (c *PipelineConfig) Validate() error {
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: "must be >= 0"}
	}
	if c.ChunkSize <= 0 {
		return &ConfigError{Field: "ChunkSize", Reason: "must be > 0"}
	}
	return c.Writer.Validate()
}

// Frame is the finished output of one frame, handed to the render node.
//
// Vertices and Indices alias the writer's regions and must be treated as
// read-only. They stay valid until the next Run, or the one after it when
// double buffering.
type Frame[K any] struct {
	Batches  []Batch[K]
	Vertices []byte
	Indices  []byte

	// Commands is the number of commands written this frame.
	Commands int
}

// Empty reports whether the frame has nothing to draw.
func (f *Frame[K]) Empty() bool {
	return f == nil || len(f.Batches) == 0
}

// Pipeline runs the drawer, drain, batch and write phases for one vertex
// type. S is the per-entity state and K the batch key.
//
// Evaluate runs drawers in parallel; the remaining phases run on the
// calling goroutine. A Pipeline must not be used by more than one
// goroutine at a time.
type Pipeline[S, K any] struct {
	drawer Drawer[S, K]
	order  KeyOrder[K]
	layout vertex.Layout
	cfg    PipelineConfig

	pool     *parallel.WorkerPool
	cache    *Cache[K]
	batchers [2]*Batcher[K]
	buffers  *DoubleBuffer

	recorders sync.Pool
	active    []*Recorder[K]
	tasks     []func()
	entries   []Entry[K]
	frames    [2]Frame[K]

	closed bool
}

// NewPipeline creates a pipeline drawing with drawer, ordering keys with
// order and writing vertices of the given layout.
func NewPipeline[S, K any](drawer Drawer[S, K], order KeyOrder[K], layout vertex.Layout, cfg PipelineConfig) (*Pipeline[S, K], error) {
	if drawer == nil {
		return nil, ErrNilDrawer
	}
	if order == nil {
		return nil, ErrNilKeyOrder
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("batch: vertex layout: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	buffers, err := NewDoubleBuffer(int(layout.Stride), cfg.Writer) //nolint:gosec // stride is small
	if err != nil {
		return nil, err
	}

	p := &Pipeline[S, K]{
		drawer:  drawer,
		order:   order,
		layout:  layout,
		cfg:     cfg,
		pool:    parallel.NewWorkerPool(cfg.Workers),
		cache:   NewCache(order),
		buffers: buffers,
	}
	for i := range p.batchers {
		p.batchers[i] = NewBatcher(order)
	}
	p.recorders.New = func() any { return &Recorder[K]{} }
	return p, nil
}

// Layout returns the vertex layout the pipeline writes.
func (p *Pipeline[S, K]) Layout() vertex.Layout { return p.layout }

// Validate checks keys against the key order's validator, if any. Use it at
// setup time to surface unsupported keys before the first frame.
func (p *Pipeline[S, K]) Validate(keys ...K) error {
	if p.batchers[0].validator == nil {
		return nil
	}
	for _, k := range keys {
		if err := p.batchers[0].validator.ValidateKey(k); err != nil {
			return fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
		}
	}
	return nil
}

// Evaluate runs the drawer over states in parallel and records the
// resulting commands. It returns once every drawer task has finished.
//
// If the drawer implements Preparer, Prepare runs first on the calling
// goroutine. Commands are committed to the cache in state order, so equal
// keys drain in state order regardless of scheduling. A drawer that panics
// is logged and contributes no commands for that state.
func (p *Pipeline[S, K]) Evaluate(states []S) error {
	if p.closed {
		return ErrPipelineClosed
	}
	if len(states) == 0 {
		return nil
	}
	if prep, ok := p.drawer.(Preparer[S]); ok {
		prep.Prepare(states)
	}

	chunks := (len(states) + p.cfg.ChunkSize - 1) / p.cfg.ChunkSize
	p.active = p.active[:0]
	p.tasks = p.tasks[:0]
	for c := range chunks {
		lo := c * p.cfg.ChunkSize
		hi := min(lo+p.cfg.ChunkSize, len(states))
		rec := p.recorders.Get().(*Recorder[K])
		p.active = append(p.active, rec)
		chunk := states[lo:hi]
		p.tasks = append(p.tasks, func() {
			for i := range chunk {
				p.draw(chunk[i], rec)
			}
		})
	}

	var err error
	if len(p.tasks) == 1 {
		p.tasks[0]()
	} else {
		err = p.pool.Run(p.tasks)
	}

	for _, rec := range p.active {
		if err == nil {
			p.cache.Commit(rec)
		} else {
			rec.Reset()
		}
		p.recorders.Put(rec)
	}
	clear(p.active)
	clear(p.tasks)
	if err != nil {
		return fmt.Errorf("batch: evaluate drawers: %w", err)
	}
	return nil
}

// draw runs the drawer for one state, rolling back its commands on panic.
func (p *Pipeline[S, K]) draw(state S, rec *Recorder[K]) {
	snapshot := rec.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			rec.Restore(snapshot)
			hephae.Logger().Warn("batch: drawer panicked, skipping entity", "panic", r)
		}
	}()
	p.drawer.Draw(state, rec)
}

// Queue returns the cache as a Queue for commands recorded outside
// Evaluate, for example by a host that runs its own drawer tasks.
func (p *Pipeline[S, K]) Queue() Queue[K] { return p.cache }

// DrainSorted consumes the cache and returns its entries sorted by key.
// The returned slice is reused by the next call.
func (p *Pipeline[S, K]) DrainSorted() []Entry[K] {
	p.entries = p.cache.DrainSorted(p.entries)
	return p.entries
}

// BatchAndWrite batches entries into a fresh writer and returns the frame.
// On error the writer is reset and no frame is produced; the caller must
// skip this frame's draw calls.
func (p *Pipeline[S, K]) BatchAndWrite(entries []Entry[K]) (*Frame[K], error) {
	if p.closed {
		return nil, ErrPipelineClosed
	}

	var w *Writer
	if p.cfg.DoubleBuffer {
		w = p.buffers.Next()
	} else {
		w = p.buffers.Current()
		w.Reset()
	}
	defer clear(entries)

	batches, err := p.batchers[p.buffers.current].Batch(entries, w)
	if err != nil {
		w.Reset()
		return nil, fmt.Errorf("batch: frame aborted: %w", err)
	}

	consumed := 0
	for i := range batches {
		consumed += batches[i].Commands
	}

	grows := w.Stats().Grows
	hephae.Logger().Debug("batch: frame written",
		"commands", consumed,
		"batches", len(batches),
		"vertexBytes", len(w.Vertices()),
		"indexBytes", len(w.Indices()),
		"grows", grows)

	f := &p.frames[p.buffers.current]
	*f = Frame[K]{
		Batches:  batches,
		Vertices: w.Vertices(),
		Indices:  w.Indices(),
		Commands: consumed,
	}
	return f, nil
}

// Run evaluates states and produces the frame's batches and buffers.
func (p *Pipeline[S, K]) Run(states []S) (*Frame[K], error) {
	if err := p.Evaluate(states); err != nil {
		p.cache.Reset()
		return nil, err
	}
	return p.BatchAndWrite(p.DrainSorted())
}

// Writer returns the writer holding the most recent frame.
func (p *Pipeline[S, K]) Writer() *Writer { return p.buffers.Current() }

// Close stops the drawer workers. Close is safe to call multiple times.
func (p *Pipeline[S, K]) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.pool.Close()
	p.cache.Reset()
}
