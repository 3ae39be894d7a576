package halo

import (
	"strings"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/fuser"
	"github.com/gomlx/fuser/types"
)

// buildInfo runs the halo analysis with the graph's default loop map.
func buildInfo(t *testing.T, g *fuser.Graph) *Info {
	t.Helper()
	lm := must.M1(g.BuildLoopMap())
	info, err := Build(g, lm)
	require.NoError(t, err)
	return info
}

func TestBackwardPropagation(t *testing.T) {
	t.Run("positive shift adds left halo", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Shift("s", t1, []int{2}, true))

		info := buildInfo(t, g)
		h := must.M1(info.RootAxisHalo(t1.RootDomain()[0]))
		assert.Equal(t, eb.Int(2), h.Width(Left))
		assert.Equal(t, eb.Zero(), h.Width(Right))
		assert.Equal(t, eb.Int(10), info.ResolvedExtent(t1.RootDomain()[0]))
	})

	t.Run("negative shift adds right halo", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Shift("s", t1, []int{-3}, true))

		info := buildInfo(t, g)
		h := must.M1(info.RootAxisHalo(t1.RootDomain()[0]))
		assert.Equal(t, eb.Zero(), h.Width(Left))
		assert.Equal(t, eb.Int(3), h.Width(Right))
	})

	t.Run("halo is the max over consumers", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Shift("a", t1, []int{2}, true))
		must.M1(g.Shift("b", t1, []int{5}, true))
		must.M1(g.Shift("c", t1, []int{-1}, true))

		info := buildInfo(t, g)
		h := must.M1(info.RootAxisHalo(t1.RootDomain()[0]))
		assert.Equal(t, eb.Int(5), h.Width(Left))
		assert.Equal(t, eb.One(), h.Width(Right))
		assert.Equal(t, eb.Int(14), info.ResolvedExtent(t1.RootDomain()[0]))
	})

	t.Run("chained shifts accumulate", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		t2 := must.M1(g.Shift("a", t1, []int{1}, true))
		must.M1(g.Shift("b", t2, []int{1}, true))

		info := buildInfo(t, g)
		assert.Equal(t, eb.One(),
			must.M1(info.RootAxisHalo(t2.RootDomain()[0])).Width(Left))
		assert.Equal(t, eb.Int(2),
			must.M1(info.RootAxisHalo(t1.RootDomain()[0])).Width(Left))
	})

	t.Run("gather splits window around left padding", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Gather("gather", t1, []int64{4}, [][2]int64{{2, 1}}))

		info := buildInfo(t, g)
		h := must.M1(info.RootAxisHalo(t1.RootDomain()[0]))
		// left = padLeft, right = window - 1 - padLeft.
		assert.Equal(t, eb.Int(2), h.Width(Left))
		assert.Equal(t, eb.One(), h.Width(Right))
	})

	t.Run("unit window is a pass-through", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Gather("gather", t1, []int64{1}, [][2]int64{{0, 0}}))

		info := buildInfo(t, g)
		h := must.M1(info.RootAxisHalo(t1.RootDomain()[0]))
		assert.False(t, h.HasHalo(g.Exprs()))
	})

	t.Run("inputs never receive halo", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		must.M1(g.Shift("s", in, []int{3}, true))

		info := buildInfo(t, g)
		h := must.M1(info.RootAxisHalo(in.RootDomain()[0]))
		assert.False(t, h.HasHalo(g.Exprs()))
		assert.Equal(t, g.Exprs().Int(8), info.ResolvedExtent(in.RootDomain()[0]))
	})

	t.Run("broadcast axes stay halo-free", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		eb := g.Exprs()
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		b := must.M1(g.Broadcast("b", t1, []bool{false, true}))
		must.M1(g.Shift("s", b, []int{1, 0}, true))

		info := buildInfo(t, g)
		assert.Equal(t, eb.One(),
			must.M1(info.RootAxisHalo(b.RootDomain()[0])).Width(Left))
		assert.False(t,
			must.M1(info.RootAxisHalo(b.RootDomain()[1])).HasHalo(eb))
		// Propagates through the broadcast to its producer.
		assert.Equal(t, eb.One(),
			must.M1(info.RootAxisHalo(t1.RootDomain()[0])).Width(Left))
	})
}

// gatherThroughCache builds x -> t1 -> gather(t1) so t1's axes carry
// symmetric halo <1, 1>.
func gatherThroughCache(t *testing.T, dims ...int64) (*fuser.Graph, *fuser.Tensor) {
	g := fuser.NewGraph(t.Name())
	in := g.InputWithDims("x", dtypes.F32, dims...)
	t1 := must.M1(g.Pointwise("p", in))
	window := make([]int64, len(dims))
	pad := make([][2]int64, len(dims))
	for i := range dims {
		window[i] = 3
		pad[i] = [2]int64{1, 1}
	}
	must.M1(g.Gather("gather", t1, window, pad))
	return g, t1
}

func TestForwardPropagation(t *testing.T) {
	t.Run("split sends halo to the inner axis", func(t *testing.T) {
		g, t1 := gatherThroughCache(t, 8)
		eb := g.Exprs()
		require.NoError(t, t1.SplitAxis(0, 4))
		outer, inner := t1.LeafDomain()[0], t1.LeafDomain()[1]

		info := buildInfo(t, g)
		assert.False(t, info.HasHalo(outer))
		assert.Equal(t, eb.Zero(), must.M1(info.HaloWidth(outer)))
		assert.True(t, info.HasHalo(inner))
		assert.Equal(t, eb.Int(2), must.M1(info.HaloWidth(inner)))
		assert.Equal(t, eb.Int(6), info.ResolvedExtent(inner))
	})

	t.Run("split of a plain axis keeps zero widths", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		require.NoError(t, t1.SplitAxis(0, 4))

		info := buildInfo(t, g)
		for _, leaf := range t1.LeafDomain() {
			assert.False(t, info.HasHalo(leaf))
			assert.Equal(t, g.Exprs().Zero(), must.M1(info.HaloWidth(leaf)))
		}
	})

	t.Run("merge multiplies expanded extents", func(t *testing.T) {
		g, t1 := gatherThroughCache(t, 8, 8)
		eb := g.Exprs()
		require.NoError(t, t1.MergeAxes(0))
		fused := t1.LeafDomain()[0]

		info := buildInfo(t, g)
		assert.True(t, info.HasHalo(fused))
		assert.Equal(t, eb.Int(100), info.ResolvedExtent(fused))
		// Fused halo axes have no individually meaningful width.
		assert.False(t, info.HasHaloWidth(fused))
		_, err := info.HaloWidth(fused)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInternal))
	})

	t.Run("re-splitting a merged halo axis is rejected", func(t *testing.T) {
		g, t1 := gatherThroughCache(t, 8, 8)
		require.NoError(t, t1.MergeAxes(0))
		require.NoError(t, t1.SplitAxis(0, 4))

		lm := must.M1(g.BuildLoopMap())
		_, err := Build(g, lm)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInternal))
	})
}

func TestNeedsShiftPredicate(t *testing.T) {
	t.Run("halo on the output", func(t *testing.T) {
		g, t1 := gatherThroughCache(t, 8)
		info := buildInfo(t, g)
		assert.True(t, must.M1(info.NeedsShiftPredicate(t1.Definition())))
	})

	t.Run("shift with nonzero offset", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		s := must.M1(g.Shift("s", in, []int{1}, true))
		info := buildInfo(t, g)
		assert.True(t, must.M1(info.NeedsShiftPredicate(s.Definition())))
	})

	t.Run("shift with all-zero offsets", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		s := must.M1(g.Shift("s", in, []int{0}, true))
		info := buildInfo(t, g)
		assert.False(t, must.M1(info.NeedsShiftPredicate(s.Definition())))
	})

	t.Run("gather with a unit window", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		ga := must.M1(g.Gather("gather", in, []int64{1}, [][2]int64{{0, 0}}))
		info := buildInfo(t, g)
		assert.False(t, must.M1(info.NeedsShiftPredicate(ga.Definition())))
	})

	t.Run("gather with a real window", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		ga := must.M1(g.Gather("gather", in, []int64{3}, [][2]int64{{1, 1}}))
		info := buildInfo(t, g)
		assert.True(t, must.M1(info.NeedsShiftPredicate(ga.Definition())))
	})

	t.Run("plain pointwise", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		p := must.M1(g.Pointwise("p", in))
		info := buildInfo(t, g)
		assert.False(t, must.M1(info.NeedsShiftPredicate(p.Definition())))
	})
}

func TestValidate(t *testing.T) {
	shiftedCache := func(t *testing.T) (*fuser.Graph, *fuser.Tensor) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Shift("s", t1, []int{1}, true))
		return g, t1
	}

	t.Run("serial halo axis needs nothing", func(t *testing.T) {
		g, _ := shiftedCache(t)
		_ = buildInfo(t, g)
	})

	t.Run("thread parallel requires shared memory", func(t *testing.T) {
		g, t1 := shiftedCache(t)
		require.NoError(t, t1.Parallelize(0, types.ThreadX))

		lm := must.M1(g.BuildLoopMap())
		_, err := Build(g, lm)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupported))

		t1.SetMemory(types.Shared)
		_, err = Build(g, lm)
		require.NoError(t, err)
	})

	t.Run("block parallel is rejected", func(t *testing.T) {
		g, t1 := shiftedCache(t)
		require.NoError(t, t1.Parallelize(0, types.BlockX))
		t1.SetMemory(types.Shared)

		lm := must.M1(g.BuildLoopMap())
		_, err := Build(g, lm)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupported))
	})

	t.Run("non-thread parallel is rejected", func(t *testing.T) {
		g, t1 := shiftedCache(t)
		require.NoError(t, t1.Parallelize(0, types.Vectorize))

		lm := must.M1(g.BuildLoopMap())
		_, err := Build(g, lm)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupported))
	})

	t.Run("thread parallel without halo is fine", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		must.M1(g.Pointwise("q", t1))
		require.NoError(t, t1.Parallelize(0, types.BlockX))
		_ = buildInfo(t, g)
	})
}

func TestInfoString(t *testing.T) {
	g, t1 := gatherThroughCache(t, 8)
	info := buildInfo(t, g)
	s := info.String()
	assert.True(t, strings.Contains(s, t1.String()))
	assert.True(t, strings.Contains(s, "<1, 1>"))
}
