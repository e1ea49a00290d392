package batch

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/GglLfr/hephae/vertex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blip is a test entity: a quad at X on layer Z using texture Tex.
type blip struct {
	X    float32
	Z    float32
	Tex  uint32
	Hide bool
}

var blipDrawer = DrawerFunc[blip, DrawKey](func(b blip, q Queue[DrawKey]) {
	if b.Hide {
		return
	}
	q.Push(DrawKey{Z: b.Z, BindGroup: b.Tex}, quad(b.X, 0))
})

func newTestPipeline(t *testing.T, drawer Drawer[blip, DrawKey], modify func(*PipelineConfig)) *Pipeline[blip, DrawKey] {
	t.Helper()
	cfg := DefaultPipelineConfig()
	cfg.Workers = 4
	cfg.ChunkSize = 3
	if modify != nil {
		modify(&cfg)
	}
	p, err := NewPipeline[blip, DrawKey](drawer, DrawKeyOrder{}, testLayout, cfg)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewPipelineErrors(t *testing.T) {
	cfg := DefaultPipelineConfig()

	_, err := NewPipeline[blip, DrawKey](nil, DrawKeyOrder{}, testLayout, cfg)
	require.ErrorIs(t, err, ErrNilDrawer)

	_, err = NewPipeline[blip, DrawKey](blipDrawer, nil, testLayout, cfg)
	require.ErrorIs(t, err, ErrNilKeyOrder)

	_, err = NewPipeline[blip, DrawKey](blipDrawer, DrawKeyOrder{}, vertex.Layout{}, cfg)
	require.ErrorIs(t, err, vertex.ErrEmptyLayout)

	bad := cfg
	bad.ChunkSize = 0
	_, err = NewPipeline[blip, DrawKey](blipDrawer, DrawKeyOrder{}, testLayout, bad)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ChunkSize", cerr.Field)
}

func TestPipelineEmptyFrame(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, nil)

	f, err := p.Run(nil)
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Empty(t, f.Vertices)
	assert.Empty(t, f.Indices)

	f, err = p.Run([]blip{{Hide: true}, {Hide: true}})
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Zero(t, f.Commands)
}

func TestPipelineRunSortsAndBatches(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, nil)

	states := []blip{
		{X: 0, Z: 2, Tex: 1},
		{X: 1, Z: 0, Tex: 1},
		{X: 2, Z: 0, Tex: 1},
		{X: 3, Z: 1, Tex: 2},
		{X: 4, Z: 0, Tex: 1, Hide: true},
		{X: 5, Z: 1, Tex: 2},
	}
	f, err := p.Run(states)
	require.NoError(t, err)
	require.Len(t, f.Batches, 3)
	assert.Equal(t, 5, f.Commands)

	assert.Equal(t, DrawKey{Z: 0, BindGroup: 1}, f.Batches[0].Key)
	assert.Equal(t, 2, f.Batches[0].Commands)
	assert.Equal(t, DrawKey{Z: 1, BindGroup: 2}, f.Batches[1].Key)
	assert.Equal(t, 2, f.Batches[1].Commands)
	assert.Equal(t, DrawKey{Z: 2, BindGroup: 1}, f.Batches[2].Key)

	var xs []float32
	for i := 0; i < len(f.Vertices); i += 4 * testStride {
		xs = append(xs, vertex.Float32At(f.Vertices, i))
	}
	assert.Equal(t, []float32{1, 2, 3, 5, 0}, xs)
}

func TestPipelineDeterministicAcrossWorkers(t *testing.T) {
	states := make([]blip, 200)
	for i := range states {
		states[i] = blip{X: float32(i), Z: float32(i % 5), Tex: uint32(i % 3)}
	}

	run := func(workers, chunk int) ([]byte, []byte) {
		p := newTestPipeline(t, blipDrawer, func(c *PipelineConfig) {
			c.Workers = workers
			c.ChunkSize = chunk
		})
		f, err := p.Run(states)
		require.NoError(t, err)
		return bytes.Clone(f.Vertices), bytes.Clone(f.Indices)
	}

	v1, i1 := run(1, 200)
	v8, i8 := run(8, 7)
	assert.Equal(t, v1, v8)
	assert.Equal(t, i1, i8)
}

func TestPipelineDrawerPanicSkipsEntity(t *testing.T) {
	drawer := DrawerFunc[blip, DrawKey](func(b blip, q Queue[DrawKey]) {
		q.Push(DrawKey{Z: b.Z}, quad(b.X, 0))
		if b.Hide {
			panic("broken entity")
		}
	})
	p := newTestPipeline(t, drawer, nil)

	f, err := p.Run([]blip{{X: 1}, {X: 2, Hide: true}, {X: 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Commands)
	assert.Equal(t, float32(1), vertex.Float32At(f.Vertices, 0))
	assert.Equal(t, float32(3), vertex.Float32At(f.Vertices, 4*testStride))
}

func TestPipelineUnsupportedKeyAbortsFrame(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, nil)

	nan := float32(math.NaN())
	require.ErrorIs(t, p.Validate(DrawKey{Z: nan}), ErrUnsupportedKey)
	require.NoError(t, p.Validate(DrawKey{Z: 1}))

	f, err := p.Run([]blip{{X: 1}, {X: 2, Z: nan}})
	require.ErrorIs(t, err, ErrUnsupportedKey)
	assert.Nil(t, f)
	assert.Empty(t, p.Writer().Vertices())

	f, err = p.Run([]blip{{X: 1}})
	require.NoError(t, err)
	assert.Len(t, f.Batches, 1)
}

func TestPipelineCapacityFailure(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, func(c *PipelineConfig) {
		c.Writer = WriterConfig{
			InitialVertexBytes: 4 * testStride,
			InitialIndexBytes:  6 * IndexSize,
			GrowthFactor:       2,
			MaxBytes:           8 * testStride,
		}
	})

	_, err := p.Run([]blip{{X: 1}, {X: 2}, {X: 3}})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Empty(t, p.Writer().Vertices())
	assert.Empty(t, p.Writer().Indices())

	f, err := p.Run([]blip{{X: 1}, {X: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Commands)
}

func TestPipelineResetBetweenFrames(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, nil)
	states := []blip{{X: 1, Tex: 1}, {X: 2, Tex: 2}, {X: 3, Tex: 1}}

	f, err := p.Run(states)
	require.NoError(t, err)
	v1 := bytes.Clone(f.Vertices)
	i1 := bytes.Clone(f.Indices)

	f, err = p.Run(states)
	require.NoError(t, err)
	assert.Equal(t, v1, f.Vertices)
	assert.Equal(t, i1, f.Indices)
}

func TestPipelineDoubleBufferKeepsPreviousFrame(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, func(c *PipelineConfig) { c.DoubleBuffer = true })

	first, err := p.Run([]blip{{X: 7}})
	require.NoError(t, err)
	firstVerts := bytes.Clone(first.Vertices)

	second, err := p.Run([]blip{{X: 9}, {X: 10}})
	require.NoError(t, err)

	assert.Equal(t, firstVerts, first.Vertices)
	require.Len(t, first.Batches, 1)
	assert.Equal(t, 1, first.Batches[0].Commands)
	assert.Equal(t, 1, first.Commands)
	assert.Equal(t, 2, second.Commands)
	assert.Equal(t, float32(9), vertex.Float32At(second.Vertices, 0))
}

func TestPipelineConcurrentQueuePush(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, nil)
	q := p.Queue()

	const n = 256
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(DrawKey{Z: float32(i % 4)}, tagged{id: i})
		}()
	}
	wg.Wait()

	entries := p.DrainSorted()
	require.Len(t, entries, n)
	f, err := p.BatchAndWrite(entries)
	require.NoError(t, err)
	assert.Equal(t, n, f.Commands)
	require.Len(t, f.Indices, n*IndexSize)

	for i := range n {
		assert.Equal(t, uint32(i), binary.LittleEndian.Uint32(f.Indices[i*IndexSize:]))
	}
}

func TestPipelineClosed(t *testing.T) {
	p := newTestPipeline(t, blipDrawer, nil)
	p.Close()
	p.Close()

	_, err := p.Run([]blip{{X: 1}})
	require.ErrorIs(t, err, ErrPipelineClosed)
	_, err = p.BatchAndWrite(nil)
	require.ErrorIs(t, err, ErrPipelineClosed)
}

// texturing assigns textures in Prepare and only reads them in Draw.
type texturing struct {
	calls    int
	textures map[float32]uint32
}

func (d *texturing) Prepare(states []blip) {
	d.calls++
	for _, b := range states {
		if _, ok := d.textures[b.X]; !ok {
			d.textures[b.X] = uint32(len(d.textures) + 1)
		}
	}
}

func (d *texturing) Draw(b blip, q Queue[DrawKey]) {
	tex, ok := d.textures[b.X]
	if !ok {
		return
	}
	q.Push(DrawKey{Z: b.Z, BindGroup: tex}, quad(b.X, 0))
}

func TestPipelinePreparesBeforeDrawing(t *testing.T) {
	d := &texturing{textures: make(map[float32]uint32)}
	p := newTestPipeline(t, d, func(c *PipelineConfig) { c.ChunkSize = 1 })

	f, err := p.Run(nil)
	require.NoError(t, err)
	assert.True(t, f.Empty())
	assert.Zero(t, d.calls, "empty frames skip Prepare")

	f, err = p.Run([]blip{{X: 5}, {X: 7}, {X: 5}})
	require.NoError(t, err)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, 3, f.Commands)
	require.Len(t, f.Batches, 3)
	assert.Equal(t, []uint32{1, 2, 1}, []uint32{f.Batches[0].Key.BindGroup, f.Batches[1].Key.BindGroup, f.Batches[2].Key.BindGroup})

	_, err = p.Run([]blip{{X: 9}})
	require.NoError(t, err)
	assert.Equal(t, 2, d.calls)
	assert.Equal(t, uint32(3), d.textures[9])
}
