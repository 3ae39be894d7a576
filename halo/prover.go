package halo

import (
	"github.com/pkg/errors"

	"github.com/gomlx/fuser"
	"github.com/gomlx/fuser/exprs"
)

// Recursion bound for the merge-operand descent in extentCompare. Axis
// trees are shallow in practice; hitting the bound means a malformed tree.
const proverMaxDepth = 64

// cmpFunc decides one comparison over two extent expressions. It must be
// conservative: returning false only means "not provably true".
type cmpFunc func(eb *exprs.Builder, x, y exprs.Val) bool

// ExtentEqual conservatively proves that two loop-mapped axes have equal
// resolved extents, halo included. False means not provably equal.
func (h *Info) ExtentEqual(id1, id2 *fuser.IterDomain) (bool, error) {
	return h.extentCompare(id1, id2, cmpEqual, 0)
}

// ExtentLessEqual conservatively proves resolvedExtent(id1) <=
// resolvedExtent(id2) for two loop-mapped axes.
func (h *Info) ExtentLessEqual(id1, id2 *fuser.IterDomain) (bool, error) {
	return h.extentCompare(id1, id2, cmpLessEqual, 0)
}

func cmpEqual(eb *exprs.Builder, x, y exprs.Val) bool {
	// Interning gives structural equality by handle comparison.
	return x == y
}

func cmpLessEqual(eb *exprs.Builder, x, y exprs.Val) bool {
	if x == y {
		return true
	}
	xv, xOk := eb.ConstInt(x)
	yv, yOk := eb.ConstInt(y)
	return xOk && yOk && xv <= yv
}

func (h *Info) extentCompare(id1, id2 *fuser.IterDomain, cmp cmpFunc, depth int) (bool, error) {
	if depth > proverMaxDepth {
		return false, errors.Wrapf(ErrInternal,
			"axis transformation tree deeper than %d while comparing %s and %s", proverMaxDepth, id1, id2)
	}
	if !h.loopMap.AreMapped(id1, id2) {
		return false, errors.Wrapf(ErrInternal, "axes %s and %s are not loop-mapped", id1, id2)
	}

	has1 := h.HasHaloWidth(id1)
	has2 := h.HasHaloWidth(id2)
	if has1 != has2 {
		return false, errors.Wrapf(ErrInternal,
			"only one of the mapped axes %s and %s has a halo width entry", id1, id2)
	}

	if has1 {
		w1, err := h.HaloWidth(id1)
		if err != nil {
			return false, err
		}
		w2, err := h.HaloWidth(id2)
		if err != nil {
			return false, err
		}
		return cmp(h.eb, w1, w2), nil
	}

	// Neither axis has a width entry: both must be outputs of merging
	// halo-extended axes. Compare the merge operands pairwise.
	t1 := id1.Transform
	t2 := id2.Transform
	if t1 == nil || t1.Kind != fuser.MergeTransform || t2 == nil || t2.Kind != fuser.MergeTransform {
		return false, errors.Wrapf(ErrInternal,
			"axes %s and %s lack halo width entries but are not merge outputs", id1, id2)
	}
	innerEq, err := h.extentCompare(t1.Inner, t2.Inner, cmp, depth+1)
	if err != nil {
		return false, err
	}
	if !innerEq {
		return false, nil
	}
	return h.extentCompare(t1.Outer, t2.Outer, cmp, depth+1)
}
