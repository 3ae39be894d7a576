package fuser

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"k8s.io/klog/v2"

	"github.com/gomlx/fuser/exprs"
	"github.com/gomlx/fuser/types"
)

// Graph holds a dataflow computation in construction: its tensors and
// operations in creation order, and the expression arena shared by all of
// them.
//
// Creation order is topological order: an operation can only consume tensors
// that already exist. The lowering passes rely on this to iterate forward
// (producers first) or backward (consumers first) without an explicit sort.
type Graph struct {
	name string

	eb *exprs.Builder

	tensors []*Tensor
	ops     []*Op

	nextAxisID int
}

// NewGraph creates an empty graph with its own expression arena.
func NewGraph(name string) *Graph {
	return &Graph{
		name: NormalizeIdentifier(name),
		eb:   exprs.NewBuilder(),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// Exprs returns the graph's expression arena.
//
// All extents, indices and predicates of one compilation live in this single
// arena, so handle equality is structural equality across passes.
func (g *Graph) Exprs() *exprs.Builder { return g.eb }

// Tensors returns the graph's tensors in creation order.
func (g *Graph) Tensors() []*Tensor { return g.tensors }

// Ops returns the graph's operations in creation (= topological) order.
func (g *Graph) Ops() []*Op { return g.ops }

// newAxis creates a fresh iteration axis with the given kind and extent.
// Start/Stop default to the full [0, extent) range.
func (g *Graph) newAxis(kind types.AxisKind, extent exprs.Val) *IterDomain {
	id := &IterDomain{
		id:     g.nextAxisID,
		name:   fmt.Sprintf("i%d", g.nextAxisID),
		Extent: extent,
		Start:  g.eb.Zero(),
		Stop:   extent,
		Kind:   kind,
	}
	g.nextAxisID++
	return id
}

// NewAxis creates a fresh root iteration axis with the given extent,
// for use with Tensor.SetRFactorDomain.
func (g *Graph) NewAxis(kind types.AxisKind, extent exprs.Val) *IterDomain {
	return g.newAxis(kind, extent)
}

// newTensor creates a tensor with the given root domain and registers it.
func (g *Graph) newTensor(name string, dtype dtypes.DType, root []*IterDomain) *Tensor {
	tv := &Tensor{
		graph:  g,
		id:     len(g.tensors),
		name:   NormalizeIdentifier(name),
		dtype:  dtype,
		root:   root,
		leaf:   append([]*IterDomain(nil), root...),
		memory: types.Global,
	}
	g.tensors = append(g.tensors, tv)
	return tv
}

// Input declares a graph input tensor with one iteration axis per extent
// expression. Inputs never receive halo.
func (g *Graph) Input(name string, dtype dtypes.DType, extents ...exprs.Val) *Tensor {
	root := make([]*IterDomain, len(extents))
	for i, extent := range extents {
		root[i] = g.newAxis(types.Iteration, extent)
	}
	tv := g.newTensor(name, dtype, root)
	tv.isInput = true
	klog.V(2).Infof("graph %s: input %s with %d axes", g.name, tv, len(extents))
	return tv
}

// InputWithDims is a shortcut for Input with constant integer extents.
func (g *Graph) InputWithDims(name string, dtype dtypes.DType, dims ...int64) *Tensor {
	extents := make([]exprs.Val, len(dims))
	for i, d := range dims {
		extents[i] = g.eb.Int(d)
	}
	return g.Input(name, dtype, extents...)
}

// addOp registers an operation and wires it to its tensors.
func (g *Graph) addOp(op *Op) {
	g.ops = append(g.ops, op)
	for _, in := range op.inputs {
		in.uses = append(in.uses, op)
	}
	for _, out := range op.outputs {
		out.definition = op
	}
}
