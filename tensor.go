package fuser

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/gomlx/fuser/exprs"
	"github.com/gomlx/fuser/types"
)

// IterDomain is a single iteration axis of a tensor.
//
// Root axes have no Transform; derived axes record the split or merge that
// produced them. Extent, Start and Stop are expressions in the owning
// graph's arena; Start/Stop bracket the valid index range ([Start, Stop)),
// which differs from [0, Extent) only for the output of a non-padded shift.
type IterDomain struct {
	id   int
	name string

	Extent exprs.Val
	Start  exprs.Val
	Stop   exprs.Val

	Kind     types.AxisKind
	Parallel types.ParallelType

	// Transform is the split/merge that defined this axis, nil for root axes.
	Transform *Transform
}

// String implements fmt.Stringer.
func (id *IterDomain) String() string {
	return id.name
}

// IsRoot returns whether the axis has no defining transformation.
func (id *IterDomain) IsRoot() bool {
	return id.Transform == nil
}

// IsBroadcast returns whether the axis is a broadcast axis.
func (id *IterDomain) IsBroadcast() bool {
	return id.Kind == types.Broadcast
}

// IsReduction returns whether the axis is a reduction axis.
func (id *IterDomain) IsReduction() bool {
	return id.Kind == types.Reduction
}

// TransformKind enumerates the closed vocabulary of axis transformations.
type TransformKind int

const (
	// SplitTransform factors one axis into an outer and an inner axis.
	SplitTransform TransformKind = iota

	// MergeTransform fuses an outer and an inner axis into one.
	MergeTransform
)

// String implements fmt.Stringer.
func (k TransformKind) String() string {
	switch k {
	case SplitTransform:
		return "Split"
	case MergeTransform:
		return "Merge"
	}
	return fmt.Sprintf("TransformKind(%d)", int(k))
}

// Transform records one split or merge in a tensor's axis tree.
//
// Split: In -> (Outer, Inner), with Factor the inner extent.
// Merge: (Outer, Inner) -> Out.
type Transform struct {
	Kind TransformKind

	In, Outer, Inner, Out *IterDomain

	// Factor is the split factor (inner extent); only set for splits.
	Factor exprs.Val
}

// Tensor is an intermediate (or input) array of the dataflow graph, with its
// root axis domain and, once scheduled, a leaf domain derived through
// split/merge transforms.
type Tensor struct {
	graph *Graph
	id    int
	name  string
	dtype dtypes.DType

	root    []*IterDomain
	rfactor []*IterDomain
	leaf    []*IterDomain

	// transforms in creation order; creation order is topological because a
	// transform can only consume axes that already exist.
	transforms []*Transform

	definition *Op
	uses       []*Op

	memory  types.MemoryType
	isInput bool
}

// String implements fmt.Stringer.
func (tv *Tensor) String() string {
	return fmt.Sprintf("T%d_%s", tv.id, tv.name)
}

// Name returns the tensor's name.
func (tv *Tensor) Name() string { return tv.name }

// DType returns the tensor's element type.
func (tv *Tensor) DType() dtypes.DType { return tv.dtype }

// RootDomain returns the tensor's root axes.
func (tv *Tensor) RootDomain() []*IterDomain { return tv.root }

// RFactorDomain returns the auxiliary root domain registered for reduction
// restructuring, or nil.
func (tv *Tensor) RFactorDomain() []*IterDomain { return tv.rfactor }

// LeafDomain returns the axes that drive the generated loops for this
// tensor. Before any scheduling it is the root domain.
func (tv *Tensor) LeafDomain() []*IterDomain { return tv.leaf }

// Transforms returns the split/merge records of the tensor's axis tree, in
// topological order.
func (tv *Tensor) Transforms() []*Transform { return tv.transforms }

// Definition returns the operation producing this tensor, nil for inputs.
func (tv *Tensor) Definition() *Op { return tv.definition }

// Uses returns the operations consuming this tensor.
func (tv *Tensor) Uses() []*Op { return tv.uses }

// IsInput returns whether the tensor is a graph input.
func (tv *Tensor) IsInput() bool { return tv.isInput }

// MemoryType returns the tensor's memory placement.
func (tv *Tensor) MemoryType() types.MemoryType { return tv.memory }

// SetMemory sets the tensor's memory placement.
func (tv *Tensor) SetMemory(m types.MemoryType) *Tensor {
	tv.memory = m
	return tv
}

// SetRFactorDomain registers an auxiliary root domain used to restructure a
// reduction (rfactor). The axes must be fresh axes of this tensor's graph.
func (tv *Tensor) SetRFactorDomain(axes ...*IterDomain) {
	tv.rfactor = axes
}

// Parallelize binds the leaf axis at axisIdx to the given parallel type.
func (tv *Tensor) Parallelize(axisIdx int, pt types.ParallelType) error {
	if axisIdx < 0 || axisIdx >= len(tv.leaf) {
		return errors.Errorf("%s has no leaf axis %d to parallelize (leaf domain has %d axes)",
			tv, axisIdx, len(tv.leaf))
	}
	tv.leaf[axisIdx].Parallel = pt
	return nil
}

// SplitAxis splits leaf axis axisIdx into an outer axis of extent
// ceil(extent/factor) and an inner axis of extent factor, replacing it in
// the leaf domain by the pair (outer, inner).
func (tv *Tensor) SplitAxis(axisIdx int, factor int64) error {
	if axisIdx < 0 || axisIdx >= len(tv.leaf) {
		return errors.Errorf("%s has no leaf axis %d to split (leaf domain has %d axes)",
			tv, axisIdx, len(tv.leaf))
	}
	if factor <= 0 {
		return errors.Errorf("split factor of %s axis %d must be positive, got %d", tv, axisIdx, factor)
	}
	eb := tv.graph.eb
	in := tv.leaf[axisIdx]
	factorV := eb.Int(factor)
	outerExtent, err := eb.Div(eb.AddInt(in.Extent, factor-1), factorV)
	if err != nil {
		return errors.WithMessagef(err, "computing outer extent for split of %s axis %d", tv, axisIdx)
	}

	outer := tv.graph.newAxis(in.Kind, outerExtent)
	inner := tv.graph.newAxis(in.Kind, factorV)
	t := &Transform{
		Kind:   SplitTransform,
		In:     in,
		Outer:  outer,
		Inner:  inner,
		Factor: factorV,
	}
	outer.Transform = t
	inner.Transform = t
	tv.transforms = append(tv.transforms, t)

	newLeaf := make([]*IterDomain, 0, len(tv.leaf)+1)
	newLeaf = append(newLeaf, tv.leaf[:axisIdx]...)
	newLeaf = append(newLeaf, outer, inner)
	newLeaf = append(newLeaf, tv.leaf[axisIdx+1:]...)
	tv.leaf = newLeaf
	return nil
}

// MergeAxes fuses leaf axes axisIdx (outer) and axisIdx+1 (inner) into a
// single axis of extent outer*inner, replacing the pair in the leaf domain.
func (tv *Tensor) MergeAxes(axisIdx int) error {
	if axisIdx < 0 || axisIdx+1 >= len(tv.leaf) {
		return errors.Errorf("%s cannot merge leaf axes %d and %d (leaf domain has %d axes)",
			tv, axisIdx, axisIdx+1, len(tv.leaf))
	}
	eb := tv.graph.eb
	outer, inner := tv.leaf[axisIdx], tv.leaf[axisIdx+1]

	out := tv.graph.newAxis(outer.Kind, eb.Mul(outer.Extent, inner.Extent))
	t := &Transform{
		Kind:  MergeTransform,
		Outer: outer,
		Inner: inner,
		Out:   out,
	}
	out.Transform = t
	tv.transforms = append(tv.transforms, t)

	newLeaf := make([]*IterDomain, 0, len(tv.leaf)-1)
	newLeaf = append(newLeaf, tv.leaf[:axisIdx]...)
	newLeaf = append(newLeaf, out)
	newLeaf = append(newLeaf, tv.leaf[axisIdx+2:]...)
	tv.leaf = newLeaf
	return nil
}
