package fuser

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/fuser/exprs"
	"github.com/gomlx/fuser/internal/optypes"
	"github.com/gomlx/fuser/types"
)

// Op is one operation of the dataflow graph. Its kind is the closed set in
// internal/optypes; shift and gather carry their geometric payloads.
type Op struct {
	graph  *Graph
	opType optypes.OpType

	inputs  []*Tensor
	outputs []*Tensor

	shift  *ShiftAttrs
	gather *GatherAttrs

	// isBroadcastDim flags, per output axis, the axes introduced by a
	// BroadcastInDim op.
	isBroadcastDim []bool

	// reduceAxes are the input axis positions folded by a Reduce op.
	reduceAxes []int
}

// Type returns the operation kind.
func (op *Op) Type() optypes.OpType { return op.opType }

// Inputs returns the operation's input tensors.
func (op *Op) Inputs() []*Tensor { return op.inputs }

// Outputs returns the operation's output tensors.
func (op *Op) Outputs() []*Tensor { return op.outputs }

// Output returns the operation's single output tensor.
func (op *Op) Output() *Tensor { return op.outputs[0] }

// Shift returns the shift payload, nil unless Type() is Shift.
func (op *Op) Shift() *ShiftAttrs { return op.shift }

// Gather returns the gather payload, nil unless Type() is Gather.
func (op *Op) Gather() *GatherAttrs { return op.gather }

// ReduceAxes returns the input axis positions folded by a Reduce op,
// nil for every other op type.
func (op *Op) ReduceAxes() []int { return op.reduceAxes }

// String implements fmt.Stringer.
func (op *Op) String() string {
	return op.opType.String()
}

// ShiftAttrs is the payload of a Shift operation: one constant offset per
// consumer root axis, and whether out-of-range reads are zero-padded.
type ShiftAttrs struct {
	Offsets []int
	Pad     bool
}

// Offset returns the shift offset of the given consumer root axis.
func (s *ShiftAttrs) Offset(axis int) int {
	return s.Offsets[axis]
}

// GatherAttrs is the payload of a Gather operation: a window extent and a
// (left, right) zero-pad pair per producer axis. The consumer root domain is
// the producer-rank axes followed by one window axis per producer axis.
type GatherAttrs struct {
	WindowShape []exprs.Val
	PadWidth    [][2]exprs.Val

	producerRank int
}

// Window returns the window extent along the given axis.
func (ga *GatherAttrs) Window(axis int) exprs.Val {
	return ga.WindowShape[axis]
}

// PadLeft returns the zero-padding at the window origin of the given axis.
func (ga *GatherAttrs) PadLeft(axis int) exprs.Val {
	return ga.PadWidth[axis][0]
}

// GatherAxis returns the position, in the consumer root domain, of the
// window axis that corresponds to spatial axis i.
func (ga *GatherAttrs) GatherAxis(i int) int {
	return ga.producerRank + i
}

// cloneAxis copies an axis's geometry into a fresh root axis of the output
// tensor being built.
func (g *Graph) cloneAxis(in *IterDomain) *IterDomain {
	out := g.newAxis(in.Kind, in.Extent)
	out.Start = in.Start
	out.Stop = in.Stop
	return out
}

// Pointwise creates an elementwise operation over the inputs. All inputs
// must have the same rank; broadcast axes are resolved against the first
// non-broadcast axis at each position.
func (g *Graph) Pointwise(name string, inputs ...*Tensor) (*Tensor, error) {
	op := optypes.Pointwise
	if len(inputs) == 0 {
		return nil, errors.Errorf("cannot add %s %q without inputs", op, name)
	}
	rank := len(inputs[0].root)
	for _, in := range inputs[1:] {
		if len(in.root) != rank {
			return nil, errors.Errorf("cannot add %s %q: inputs %s and %s have different ranks (%d vs %d)",
				op, name, inputs[0], in, rank, len(in.root))
		}
	}
	root := make([]*IterDomain, rank)
	for i := range root {
		picked := inputs[0].root[i]
		for _, in := range inputs {
			if !in.root[i].IsBroadcast() {
				picked = in.root[i]
				break
			}
		}
		root[i] = g.cloneAxis(picked)
	}
	return g.finishOp(op, &Op{graph: g, opType: op, inputs: inputs}, name, inputs[0], root), nil
}

// Reduce creates a reduction over the given input axis positions. The output
// keeps the reduced axes in its root domain, retagged as reduction axes.
func (g *Graph) Reduce(name string, input *Tensor, axes ...int) (*Tensor, error) {
	op := optypes.Reduce
	if len(axes) == 0 {
		return nil, errors.Errorf("cannot add %s %q without reduction axes", op, name)
	}
	reduced := make([]bool, len(input.root))
	for _, a := range axes {
		if a < 0 || a >= len(input.root) {
			return nil, errors.Errorf("cannot add %s %q: axis %d out of range for %s (rank %d)",
				op, name, a, input, len(input.root))
		}
		reduced[a] = true
	}
	root := make([]*IterDomain, len(input.root))
	for i, in := range input.root {
		root[i] = g.cloneAxis(in)
		if reduced[i] {
			root[i].Kind = types.Reduction
		}
	}
	return g.finishOp(op, &Op{graph: g, opType: op, inputs: []*Tensor{input}, reduceAxes: axes}, name, input, root), nil
}

// Broadcast creates a BroadcastInDim operation. isBroadcastDim has one entry
// per output axis; the false positions, in order, take the input's axes, and
// the true positions become fresh broadcast axes of extent 1.
func (g *Graph) Broadcast(name string, input *Tensor, isBroadcastDim []bool) (*Tensor, error) {
	op := optypes.BroadcastInDim
	kept := 0
	for _, b := range isBroadcastDim {
		if !b {
			kept++
		}
	}
	if kept != len(input.root) {
		return nil, errors.Errorf("cannot add %s %q: %d non-broadcast output axes for input %s of rank %d",
			op, name, kept, input, len(input.root))
	}
	root := make([]*IterDomain, len(isBroadcastDim))
	nextIn := 0
	for i, isB := range isBroadcastDim {
		if isB {
			root[i] = g.newAxis(types.Broadcast, g.eb.One())
		} else {
			root[i] = g.cloneAxis(input.root[nextIn])
			nextIn++
		}
	}
	o := &Op{graph: g, opType: op, inputs: []*Tensor{input}, isBroadcastDim: isBroadcastDim}
	return g.finishOp(op, o, name, input, root), nil
}

// Shift creates a shift operation: output position i reads input position
// i - offset along each axis. With pad, out-of-range reads are zero-filled;
// without, the output's valid range is narrowed instead (a positive offset
// moves the start up, a negative offset moves the stop down).
func (g *Graph) Shift(name string, input *Tensor, offsets []int, pad bool) (*Tensor, error) {
	op := optypes.Shift
	if len(offsets) != len(input.root) {
		return nil, errors.Errorf("cannot add %s %q: %d offsets for input %s of rank %d",
			op, name, len(offsets), input, len(input.root))
	}
	for i, offset := range offsets {
		if input.root[i].IsBroadcast() && offset != 0 {
			return nil, errors.Errorf("cannot add %s %q: nonzero offset %d on broadcast axis %d of %s",
				op, name, offset, i, input)
		}
	}
	root := make([]*IterDomain, len(input.root))
	for i, in := range input.root {
		root[i] = g.cloneAxis(in)
		if pad {
			continue
		}
		if offset := offsets[i]; offset > 0 {
			root[i].Start = g.eb.Int(int64(offset))
		} else if offset < 0 {
			root[i].Stop = g.eb.AddInt(in.Extent, int64(offset))
		}
	}
	o := &Op{
		graph:  g,
		opType: op,
		inputs: []*Tensor{input},
		shift:  &ShiftAttrs{Offsets: append([]int(nil), offsets...), Pad: pad},
	}
	return g.finishOp(op, o, name, input, root), nil
}

// Gather creates a windowed gather: output position (i, w) reads input
// position i + w - padLeft along each axis. The consumer root domain is the
// input-rank spatial axes followed by one window axis per input axis; a
// window of extent 1 on an axis makes it a plain pass-through.
func (g *Graph) Gather(name string, input *Tensor, windowShape []int64, padWidth [][2]int64) (*Tensor, error) {
	op := optypes.Gather
	rank := len(input.root)
	if len(windowShape) != rank || len(padWidth) != rank {
		return nil, errors.Errorf("cannot add %s %q: window/pad ranks (%d/%d) do not match input %s rank %d",
			op, name, len(windowShape), len(padWidth), input, rank)
	}
	eb := g.eb
	attrs := &GatherAttrs{
		WindowShape:  make([]exprs.Val, rank),
		PadWidth:     make([][2]exprs.Val, rank),
		producerRank: rank,
	}
	root := make([]*IterDomain, 0, 2*rank)
	for i, in := range input.root {
		w := windowShape[i]
		if w < 1 {
			return nil, errors.Errorf("cannot add %s %q: window extent on axis %d must be >= 1, got %d",
				op, name, i, w)
		}
		if in.IsBroadcast() && w != 1 {
			return nil, errors.Errorf("cannot add %s %q: window extent %d on broadcast axis %d of %s",
				op, name, w, i, input)
		}
		attrs.WindowShape[i] = eb.Int(w)
		attrs.PadWidth[i] = [2]exprs.Val{eb.Int(padWidth[i][0]), eb.Int(padWidth[i][1])}

		// Spatial extent: extent - (window-1) + padLeft + padRight.
		out := g.newAxis(in.Kind,
			eb.AddInt(eb.Add(in.Extent, eb.Add(attrs.PadWidth[i][0], attrs.PadWidth[i][1])), -(w-1)))
		root = append(root, out)
	}
	for i := range input.root {
		root = append(root, g.newAxis(types.Iteration, attrs.WindowShape[i]))
	}
	o := &Op{graph: g, opType: op, inputs: []*Tensor{input}, gather: attrs}
	return g.finishOp(op, o, name, input, root), nil
}

// finishOp creates the output tensor, registers the op and logs it.
func (g *Graph) finishOp(opType optypes.OpType, op *Op, name string, firstInput *Tensor, root []*IterDomain) *Tensor {
	out := g.newTensor(name, firstInput.dtype, root)
	op.outputs = []*Tensor{out}
	g.addOp(op)
	klog.V(2).Infof("graph %s: %s -> %s", g.name, opType, out)
	return out
}

// MapConsumerToProducer returns the pairwise root-axis correspondence from
// the op's consumer (output) root axes to the given producer's root axes.
// Consumer axes with no producer counterpart (gather window axes, broadcast
// axes introduced by BroadcastInDim) are absent from the map.
func (op *Op) MapConsumerToProducer(producer *Tensor) (map[*IterDomain]*IterDomain, error) {
	found := false
	for _, in := range op.inputs {
		if in == producer {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Errorf("%s is not an input of %s operation producing %s", producer, op.opType, op.Output())
	}
	consumer := op.Output()
	c2p := make(map[*IterDomain]*IterDomain, len(producer.root))
	switch op.opType {
	case optypes.Pointwise, optypes.Reduce, optypes.Shift:
		for i, c := range consumer.root {
			c2p[c] = producer.root[i]
		}
	case optypes.BroadcastInDim:
		nextIn := 0
		for i, c := range consumer.root {
			if op.isBroadcastDim[i] {
				continue
			}
			c2p[c] = producer.root[nextIn]
			nextIn++
		}
	case optypes.Gather:
		for i, p := range producer.root {
			c2p[consumer.root[i]] = p
		}
	default:
		return nil, errors.Errorf("unsupported operation kind %s for root-axis mapping", op.opType)
	}
	return c2p, nil
}
