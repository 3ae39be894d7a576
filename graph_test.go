package fuser

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/fuser/types"
)

func TestGraphConstruction(t *testing.T) {
	g := NewGraph(t.Name())
	eb := g.Exprs()

	in := g.InputWithDims("x", dtypes.F32, 8, 16)
	require.True(t, in.IsInput())
	require.Len(t, in.RootDomain(), 2)
	assert.Equal(t, eb.Int(8), in.RootDomain()[0].Extent)
	assert.Equal(t, eb.Int(16), in.RootDomain()[1].Extent)
	assert.Equal(t, types.Global, in.MemoryType())

	t1 := must.M1(g.Pointwise("relu", in))
	assert.Equal(t, "T1_relu", t1.String())
	assert.Same(t, g.Ops()[0], t1.Definition())
	assert.Equal(t, []*Op{t1.Definition()}, in.Uses())
	assert.Equal(t, in.DType(), t1.DType())

	// Fresh root axes per tensor; extents shared through the arena.
	assert.NotSame(t, in.RootDomain()[0], t1.RootDomain()[0])
	assert.Equal(t, in.RootDomain()[0].Extent, t1.RootDomain()[0].Extent)

	t.Run("pointwise rank mismatch", func(t *testing.T) {
		other := g.InputWithDims("y", dtypes.F32, 8)
		_, err := g.Pointwise("bad", in, other)
		require.Error(t, err)
	})
}

func TestShift(t *testing.T) {
	t.Run("padded keeps full range", func(t *testing.T) {
		g := NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		out := must.M1(g.Shift("s", in, []int{1}, true))
		axis := out.RootDomain()[0]
		assert.Equal(t, eb.Zero(), axis.Start)
		assert.Equal(t, eb.Int(8), axis.Stop)
		assert.True(t, out.Definition().Shift().Pad)
		assert.Equal(t, 1, out.Definition().Shift().Offset(0))
	})

	t.Run("positive offset without padding narrows start", func(t *testing.T) {
		g := NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		out := must.M1(g.Shift("s", in, []int{1}, false))
		axis := out.RootDomain()[0]
		assert.Equal(t, eb.One(), axis.Start)
		assert.Equal(t, eb.Int(8), axis.Stop)
	})

	t.Run("negative offset without padding narrows stop", func(t *testing.T) {
		g := NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		out := must.M1(g.Shift("s", in, []int{-1}, false))
		axis := out.RootDomain()[0]
		assert.Equal(t, eb.Zero(), axis.Start)
		assert.Equal(t, eb.Int(7), axis.Stop)
	})

	t.Run("nonzero offset on broadcast axis", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		b := must.M1(g.Broadcast("b", in, []bool{false, true}))
		_, err := g.Shift("s", b, []int{0, 1}, true)
		require.Error(t, err)
	})

	t.Run("offset rank mismatch", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		_, err := g.Shift("s", in, []int{1, 2}, true)
		require.Error(t, err)
	})
}

func TestGather(t *testing.T) {
	g := NewGraph(t.Name())
	eb := g.Exprs()
	in := g.InputWithDims("x", dtypes.F32, 8)
	out := must.M1(g.Gather("gather", in, []int64{3}, [][2]int64{{1, 1}}))

	require.Len(t, out.RootDomain(), 2)
	// Spatial extent: 8 - (3-1) + 1 + 1.
	assert.Equal(t, eb.Int(8), out.RootDomain()[0].Extent)
	assert.Equal(t, eb.Int(3), out.RootDomain()[1].Extent)

	ga := out.Definition().Gather()
	assert.Equal(t, eb.Int(3), ga.Window(0))
	assert.Equal(t, eb.One(), ga.PadLeft(0))
	assert.Equal(t, 1, ga.GatherAxis(0))

	t.Run("window below one", func(t *testing.T) {
		_, err := g.Gather("bad", in, []int64{0}, [][2]int64{{0, 0}})
		require.Error(t, err)
	})

	t.Run("rank mismatch", func(t *testing.T) {
		_, err := g.Gather("bad", in, []int64{3, 3}, [][2]int64{{1, 1}})
		require.Error(t, err)
	})
}

func TestBroadcastAndReduce(t *testing.T) {
	g := NewGraph(t.Name())
	eb := g.Exprs()
	in := g.InputWithDims("x", dtypes.F32, 8)

	b := must.M1(g.Broadcast("b", in, []bool{false, true}))
	require.Len(t, b.RootDomain(), 2)
	assert.False(t, b.RootDomain()[0].IsBroadcast())
	assert.True(t, b.RootDomain()[1].IsBroadcast())
	assert.Equal(t, eb.One(), b.RootDomain()[1].Extent)

	r := must.M1(g.Reduce("sum", in, 0))
	require.Len(t, r.RootDomain(), 1)
	assert.True(t, r.RootDomain()[0].IsReduction())
	assert.Equal(t, []int{0}, r.Definition().ReduceAxes())
	assert.Nil(t, b.Definition().ReduceAxes())

	t.Run("broadcast rank mismatch", func(t *testing.T) {
		_, err := g.Broadcast("bad", in, []bool{true, true})
		require.Error(t, err)
	})

	t.Run("reduce axis out of range", func(t *testing.T) {
		_, err := g.Reduce("bad", in, 3)
		require.Error(t, err)
	})
}

func TestScheduling(t *testing.T) {
	t.Run("split", func(t *testing.T) {
		g := NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 10)
		tv := must.M1(g.Pointwise("copy", in))
		require.NoError(t, tv.SplitAxis(0, 4))

		require.Len(t, tv.LeafDomain(), 2)
		outer, inner := tv.LeafDomain()[0], tv.LeafDomain()[1]
		assert.Equal(t, eb.Int(3), outer.Extent) // ceil(10/4)
		assert.Equal(t, eb.Int(4), inner.Extent)
		require.Len(t, tv.Transforms(), 1)
		tr := tv.Transforms()[0]
		assert.Equal(t, SplitTransform, tr.Kind)
		assert.Same(t, tv.RootDomain()[0], tr.In)
		assert.Same(t, tr, outer.Transform)
		assert.False(t, outer.IsRoot())
	})

	t.Run("merge", func(t *testing.T) {
		g := NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 4, 8)
		tv := must.M1(g.Pointwise("copy", in))
		require.NoError(t, tv.MergeAxes(0))

		require.Len(t, tv.LeafDomain(), 1)
		assert.Equal(t, eb.Int(32), tv.LeafDomain()[0].Extent)
		assert.Equal(t, MergeTransform, tv.Transforms()[0].Kind)
	})

	t.Run("parallelize", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		tv := must.M1(g.Pointwise("copy", in))
		require.NoError(t, tv.Parallelize(0, types.ThreadX))
		assert.Equal(t, types.ThreadX, tv.LeafDomain()[0].Parallel)
		require.Error(t, tv.Parallelize(3, types.ThreadX))
	})

	t.Run("split errors", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		tv := must.M1(g.Pointwise("copy", in))
		require.Error(t, tv.SplitAxis(2, 4))
		require.Error(t, tv.SplitAxis(0, 0))
	})
}

func TestMapConsumerToProducer(t *testing.T) {
	t.Run("pointwise is positional", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8, 16)
		tv := must.M1(g.Pointwise("copy", in))
		c2p := must.M1(tv.Definition().MapConsumerToProducer(in))
		require.Len(t, c2p, 2)
		assert.Same(t, in.RootDomain()[0], c2p[tv.RootDomain()[0]])
		assert.Same(t, in.RootDomain()[1], c2p[tv.RootDomain()[1]])
	})

	t.Run("broadcast skips introduced axes", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		b := must.M1(g.Broadcast("b", in, []bool{true, false}))
		c2p := must.M1(b.Definition().MapConsumerToProducer(in))
		require.Len(t, c2p, 1)
		assert.Same(t, in.RootDomain()[0], c2p[b.RootDomain()[1]])
	})

	t.Run("gather maps spatial axes only", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		out := must.M1(g.Gather("gather", in, []int64{3}, [][2]int64{{1, 1}}))
		c2p := must.M1(out.Definition().MapConsumerToProducer(in))
		require.Len(t, c2p, 1)
		assert.Same(t, in.RootDomain()[0], c2p[out.RootDomain()[0]])
	})

	t.Run("not a producer", func(t *testing.T) {
		g := NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		other := g.InputWithDims("y", dtypes.F32, 8)
		tv := must.M1(g.Pointwise("copy", in))
		_, err := tv.Definition().MapConsumerToProducer(other)
		require.Error(t, err)
	})
}

func TestBuildLoopMap(t *testing.T) {
	g := NewGraph(t.Name())
	in := g.InputWithDims("x", dtypes.F32, 8)
	t1 := must.M1(g.Pointwise("a", in))
	t2 := must.M1(g.Pointwise("b", t1))
	t3 := must.M1(g.Shift("s", t2, []int{1}, true))

	lm := must.M1(g.BuildLoopMap())

	// Computed tensors related by identity ops share loops.
	assert.True(t, lm.AreMapped(t1.RootDomain()[0], t2.RootDomain()[0]))
	assert.Same(t, t1.RootDomain()[0], lm.Concrete(t2.RootDomain()[0]))

	// Graph inputs and shifted axes stay unmapped.
	assert.False(t, lm.AreMapped(in.RootDomain()[0], t1.RootDomain()[0]))
	assert.False(t, lm.AreMapped(t2.RootDomain()[0], t3.RootDomain()[0]))

	// Every axis maps to itself.
	assert.True(t, lm.AreMapped(in.RootDomain()[0], in.RootDomain()[0]))
}
