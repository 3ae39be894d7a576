package halo

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/fuser"
)

func TestExtentCompare(t *testing.T) {
	t.Run("reflexive", func(t *testing.T) {
		g, t1 := gatherThroughCache(t, 8)
		require.NoError(t, t1.SplitAxis(0, 4))
		info := buildInfo(t, g)

		for _, axis := range t1.LeafDomain() {
			assert.True(t, must.M1(info.ExtentEqual(axis, axis)))
			assert.True(t, must.M1(info.ExtentLessEqual(axis, axis)))
		}
	})

	t.Run("unmapped axes are an internal error", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		info := buildInfo(t, g)

		_, err := info.ExtentEqual(in.RootDomain()[0], t1.RootDomain()[0])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInternal))
	})

	t.Run("conservative over halo widths", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8)
		t1 := must.M1(g.Pointwise("p", in))
		t2 := must.M1(g.Pointwise("q", t1))
		t3 := must.M1(g.Shift("s", t2, []int{1}, true))

		lm := must.M1(g.BuildLoopMap())
		info, err := Build(g, lm)
		require.NoError(t, err)

		a2, a3 := t2.RootDomain()[0], t3.RootDomain()[0]
		// t1 and t2 both carry <1, 0> and share a loop.
		assert.True(t, must.M1(info.ExtentEqual(t1.RootDomain()[0], a2)))

		// The shifted edge is unmapped by default; identify it to compare
		// the halo-bearing producer against the halo-free consumer.
		lm.MapAxes(a2, a3)
		assert.False(t, must.M1(info.ExtentEqual(a2, a3)))
		assert.True(t, must.M1(info.ExtentLessEqual(a3, a2)))
		assert.False(t, must.M1(info.ExtentLessEqual(a2, a3)))
	})

	t.Run("merge outputs compare operand-wise", func(t *testing.T) {
		g := fuser.NewGraph(t.Name())
		in := g.InputWithDims("x", dtypes.F32, 8, 8)
		t1 := must.M1(g.Pointwise("p", in))
		t2 := must.M1(g.Pointwise("q", t1))
		must.M1(g.Gather("gather", t2, []int64{3, 3}, [][2]int64{{1, 1}, {1, 1}}))
		require.NoError(t, t1.MergeAxes(0))
		require.NoError(t, t2.MergeAxes(0))

		lm := must.M1(g.BuildLoopMap())
		lm.MapAxes(t1.LeafDomain()[0], t2.LeafDomain()[0])
		info, err := Build(g, lm)
		require.NoError(t, err)

		assert.True(t, must.M1(info.ExtentEqual(t1.LeafDomain()[0], t2.LeafDomain()[0])))
		assert.True(t, must.M1(info.ExtentLessEqual(t1.LeafDomain()[0], t2.LeafDomain()[0])))
	})

	t.Run("asymmetric width entries are an internal error", func(t *testing.T) {
		g, t1 := gatherThroughCache(t, 8, 8)
		require.NoError(t, t1.MergeAxes(0))
		fused := t1.LeafDomain()[0]

		lm := must.M1(g.BuildLoopMap())
		info, err := Build(g, lm)
		require.NoError(t, err)

		// A fused halo axis has no width entry; a root axis always does.
		lm.MapAxes(fused, t1.RootDomain()[0])
		_, err = info.ExtentEqual(fused, t1.RootDomain()[0])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInternal))
	})
}
