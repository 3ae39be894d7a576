package kernel

import (
	"github.com/pkg/errors"

	"github.com/gomlx/fuser"
	"github.com/gomlx/fuser/exprs"
)

// ConsumerRootIndices returns, for each root axis of tv, the index
// expression valid inside the given loop nest, together with whether the
// statement is a reduction-buffer initialization (the loop nest drives none
// of the tensor's reduction axes).
//
// contig is a per-root-axis contiguity hint. It is validated against the
// root rank but does not yet influence the result: indices are never
// coalesced across contiguous axes, so every root axis gets its own index.
// A nil contig is accepted.
//
// The indices are recovered by undoing the tensor's scheduling transforms:
// a split's input index is outer*innerExtent + inner; a merge's input
// indices are out/innerExtent and out%innerExtent.
func (k *Kernel) ConsumerRootIndices(tv *fuser.Tensor, loops []*ForLoop, contig []bool) ([]exprs.Val, bool, error) {
	eb := k.Exprs()
	root := tv.RootDomain()
	if contig != nil && len(contig) != len(root) {
		return nil, false, errors.Errorf("contiguity hint has %d entries for %s with %d root axes",
			len(contig), tv, len(root))
	}

	loopOf := make(map[*fuser.IterDomain]*ForLoop, len(loops))
	for _, l := range loops {
		loopOf[l.Axis] = l
	}

	idx := make(map[*fuser.IterDomain]exprs.Val, len(root))
	hasReduction := false
	drivenReduction := false
	for _, leaf := range tv.LeafDomain() {
		if leaf.IsReduction() {
			hasReduction = true
		}
		l, ok := loopOf[leaf]
		if !ok {
			// Reduction axes are absent from the nest when the statement
			// initializes the accumulator outside the reduction loops;
			// broadcast axes never get loops of their own.
			if leaf.IsReduction() || leaf.IsBroadcast() {
				idx[leaf] = eb.Zero()
				continue
			}
			return nil, false, errors.Errorf("no loop drives leaf axis %s of %s", leaf, tv)
		}
		if leaf.IsReduction() {
			drivenReduction = true
		}
		idx[leaf] = l.Index
	}
	bufferInit := hasReduction && !drivenReduction

	transforms := tv.Transforms()
	for i := len(transforms) - 1; i >= 0; i-- {
		t := transforms[i]
		switch t.Kind {
		case fuser.SplitTransform:
			outerIdx, okO := idx[t.Outer]
			innerIdx, okI := idx[t.Inner]
			if !okO || !okI {
				return nil, false, errors.Errorf("split outputs %s/%s of %s have no index", t.Outer, t.Inner, tv)
			}
			idx[t.In] = eb.Add(eb.Mul(outerIdx, t.Inner.Extent), innerIdx)
		case fuser.MergeTransform:
			outIdx, ok := idx[t.Out]
			if !ok {
				return nil, false, errors.Errorf("merge output %s of %s has no index", t.Out, tv)
			}
			outerIdx, err := eb.Div(outIdx, t.Inner.Extent)
			if err != nil {
				return nil, false, err
			}
			innerIdx, err := eb.Mod(outIdx, t.Inner.Extent)
			if err != nil {
				return nil, false, err
			}
			idx[t.Outer] = outerIdx
			idx[t.Inner] = innerIdx
		default:
			return nil, false, errors.Errorf("unsupported axis transformation kind %s on %s", t.Kind, tv)
		}
	}

	indices := make([]exprs.Val, len(root))
	for i, r := range root {
		v, ok := idx[r]
		if !ok {
			return nil, false, errors.Errorf("no index recovered for root axis %s of %s", r, tv)
		}
		indices[i] = v
	}
	return indices, bufferInit, nil
}
