package halo

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/fuser"
	"github.com/gomlx/fuser/exprs"
	"github.com/gomlx/fuser/internal/optypes"
	"github.com/gomlx/fuser/internal/utils"
	"github.com/gomlx/fuser/types"
)

// Info is the halo table of one graph compilation: per-root-axis halo
// records, plus the derived expanded-extent and halo-width maps over all
// axes. Build populates it once; afterwards it is only queried.
//
// The width map intentionally has no entry for an axis produced by merging
// two halo-bearing axes: the width of a fused axis is not independently
// meaningful, only its expanded extent is. The extent map has entries only
// for axes that carry halo; absence means the axis is not extended.
type Info struct {
	graph   *fuser.Graph
	eb      *exprs.Builder
	loopMap *fuser.LoopMap

	rootAxis map[*fuser.IterDomain]*AxisHalo
	extent   map[*fuser.IterDomain]exprs.Val
	width    map[*fuser.IterDomain]exprs.Val
}

// Build runs the halo analysis over the graph: root-axis initialization,
// backward halo propagation from outputs to inputs, forward extent
// propagation through each tensor's axis-transformation tree, and placement
// validation. The returned Info is read-only.
//
// Errors with cause ErrInternal indicate a broken compiler invariant;
// errors with cause ErrUnsupported reject the graph's parallelization or
// placement choices.
func Build(graph *fuser.Graph, loopMap *fuser.LoopMap) (*Info, error) {
	h := &Info{
		graph:    graph,
		eb:       graph.Exprs(),
		loopMap:  loopMap,
		rootAxis: make(map[*fuser.IterDomain]*AxisHalo),
		extent:   make(map[*fuser.IterDomain]exprs.Val),
		width:    make(map[*fuser.IterDomain]exprs.Val),
	}

	// Fresh zero records for every root axis, including auxiliary rfactor
	// roots used for reduction restructuring.
	for _, tv := range graph.Tensors() {
		for _, rootAxis := range tv.RootDomain() {
			if err := h.registerRootAxis(rootAxis); err != nil {
				return nil, errors.WithMessagef(err, "registering root domain of %s", tv)
			}
		}
		for _, rfAxis := range tv.RFactorDomain() {
			if err := h.registerRootAxis(rfAxis); err != nil {
				return nil, errors.WithMessagef(err, "registering rfactor domain of %s", tv)
			}
		}
	}

	// Backward propagation of root-axis halo from graph outputs to inputs.
	ops := graph.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		if err := h.propagateOp(ops[i]); err != nil {
			return nil, err
		}
	}

	// Forward propagation from root axes down to leaf axes.
	for _, tv := range graph.Tensors() {
		if err := h.buildTensor(tv); err != nil {
			return nil, err
		}
	}

	// Validation requires consumer halo info, so it runs last.
	for _, tv := range graph.Tensors() {
		if err := h.validate(tv); err != nil {
			return nil, err
		}
	}

	if klog.V(2).Enabled() {
		klog.Infof("halo analysis of graph %s:\n%s", graph.Name(), h)
	}
	return h, nil
}

func (h *Info) registerRootAxis(id *fuser.IterDomain) error {
	if !id.IsRoot() {
		return errors.Wrapf(ErrInternal, "axis %s is not a root axis", id)
	}
	if _, ok := h.rootAxis[id]; ok {
		return errors.Wrapf(ErrInternal, "root axis %s registered twice", id)
	}
	h.rootAxis[id] = NewAxisHalo(h.eb)
	return nil
}

// RootAxisHalo returns the halo record of a root axis.
func (h *Info) RootAxisHalo(id *fuser.IterDomain) (*AxisHalo, error) {
	info, ok := h.rootAxis[id]
	if !ok {
		return nil, errors.Wrapf(ErrInternal, "halo root axis info not found for %s", id)
	}
	return info, nil
}

// propagateOp pushes the halo of each of the op's outputs into each of its
// producers.
func (h *Info) propagateOp(op *fuser.Op) error {
	for _, consumer := range op.Outputs() {
		for _, producer := range op.Inputs() {
			if err := h.propagatePair(producer, consumer, op); err != nil {
				return errors.WithMessagef(err, "propagating halo from %s to %s across %s", consumer, producer, op)
			}
		}
	}
	return nil
}

func (h *Info) propagatePair(producer, consumer *fuser.Tensor, op *fuser.Op) error {
	// Graph inputs never receive halo.
	if producer.IsInput() {
		return nil
	}
	c2p, err := op.MapConsumerToProducer(producer)
	if err != nil {
		return err
	}

	eb := h.eb
	for i, cID := range consumer.RootDomain() {
		pID, ok := c2p[cID]
		if !ok {
			// nothing to propagate
			continue
		}
		pInfo, err := h.RootAxisHalo(pID)
		if err != nil {
			return err
		}
		cInfo, err := h.RootAxisHalo(cID)
		if err != nil {
			return err
		}

		// Broadcast axes never carry halo themselves.
		if cID.IsBroadcast() {
			if cInfo.HasHalo(eb) {
				return errors.Wrapf(ErrInternal, "broadcast axis %s of %s carries halo %s", cID, consumer, cInfo.StringWith(eb))
			}
			pInfo.Merge(eb, cInfo)
			continue
		}

		switch op.Type() {
		case optypes.Shift:
			// A positive offset makes the consumer read below the producer's
			// origin, so halo grows on the left side; a negative offset on
			// the right. The offset adds on top of whatever halo the
			// consumer axis already demands.
			offset := op.Shift().Offset(i)
			if offset == 0 {
				pInfo.Merge(eb, cInfo)
				continue
			}
			side := Left
			if offset < 0 {
				side = Right
			}
			pInfo.MergeWidth(eb, side, eb.AddInt(cInfo.Width(side), absInt(offset)))

		case optypes.Gather:
			window := op.Gather().Window(i)
			if eb.IsOne(window) {
				pInfo.Merge(eb, cInfo)
				continue
			}
			pad0 := op.Gather().PadLeft(i)
			pInfo.MergeWidth(eb, Left, eb.Add(cInfo.Width(Left), pad0))
			// Right side: consumer right halo + (window - 1 - left padding).
			pInfo.MergeWidth(eb, Right,
				eb.Sub(eb.Add(cInfo.Width(Right), window), eb.AddInt(pad0, 1)))

		default:
			// Halo is the maximum over all consumers of a shared producer axis.
			pInfo.Merge(eb, cInfo)
		}
	}
	return nil
}

// buildTensor propagates extent information from the tensor's root axes to
// its descendants through the split/merge tree.
func (h *Info) buildTensor(tv *fuser.Tensor) error {
	for _, rootAxis := range tv.RootDomain() {
		if err := h.initRootWidth(tv, rootAxis); err != nil {
			return err
		}
	}
	for _, rfAxis := range tv.RFactorDomain() {
		if err := h.initRootWidth(tv, rfAxis); err != nil {
			return err
		}
	}

	eb := h.eb

	// Axes generated by merging halo-extended axes: splitting them again is
	// rejected, since halo semantics for a sub-range of a fused dimension
	// are undefined.
	mergedHalo := utils.MakeSet[*fuser.IterDomain](0)

	for _, t := range tv.Transforms() {
		switch t.Kind {
		case fuser.SplitTransform:
			if mergedHalo.Has(t.In) {
				return errors.Wrapf(ErrInternal,
					"splitting axis %s of %s, which merges halo-extended axes, is not allowed", t.In, tv)
			}
			width, ok := h.width[t.In]
			if !ok {
				return errors.Wrapf(ErrInternal, "no halo width registered for split input %s of %s", t.In, tv)
			}
			if eb.IsZero(width) {
				h.width[t.Outer] = width
				h.width[t.Inner] = width
				continue
			}
			// Halo propagates only to the inner output; it never spans a
			// coarse split boundary.
			h.extent[t.Inner] = eb.Add(t.Inner.Extent, width)
			h.width[t.Outer] = eb.Zero()
			h.width[t.Inner] = width

		case fuser.MergeTransform:
			innerExtent, innerHasHalo := h.extent[t.Inner]
			outerExtent, outerHasHalo := h.extent[t.Outer]
			if innerHasHalo || outerHasHalo {
				if !innerHasHalo {
					innerExtent = t.Inner.Extent
				}
				if !outerHasHalo {
					outerExtent = t.Outer.Extent
				}
				h.extent[t.Out] = eb.Mul(outerExtent, innerExtent)
				mergedHalo.Insert(t.Out)
				// No width entry: the halo width of a fused axis is not
				// independently meaningful.
			} else {
				h.width[t.Out] = eb.Zero()
			}

		default:
			return errors.Wrapf(ErrInternal, "unsupported axis transformation kind %s on %s", t.Kind, tv)
		}
	}
	return nil
}

func (h *Info) initRootWidth(tv *fuser.Tensor, rootAxis *fuser.IterDomain) error {
	haloInfo, err := h.RootAxisHalo(rootAxis)
	if err != nil {
		return errors.WithMessagef(err, "initializing widths for %s", tv)
	}
	if _, ok := h.width[rootAxis]; ok {
		return errors.Wrapf(ErrInternal, "halo width of root axis %s of %s computed twice", rootAxis, tv)
	}
	if !haloInfo.HasHalo(h.eb) {
		h.width[rootAxis] = h.eb.Zero()
		return nil
	}
	total := haloInfo.TotalWidth(h.eb)
	h.extent[rootAxis] = h.eb.Add(rootAxis.Extent, total)
	h.width[rootAxis] = total
	return nil
}

// HasHalo returns whether the axis's resolved extent includes halo.
func (h *Info) HasHalo(id *fuser.IterDomain) bool {
	_, ok := h.extent[id]
	return ok
}

// Extent returns the axis's expanded extent; ok is false when the axis
// carries no halo and its plain extent applies.
func (h *Info) Extent(id *fuser.IterDomain) (extent exprs.Val, ok bool) {
	extent, ok = h.extent[id]
	return
}

// ResolvedExtent returns the expanded extent when the axis carries halo,
// else the axis's own extent. This is the allocation-relevant size.
func (h *Info) ResolvedExtent(id *fuser.IterDomain) exprs.Val {
	if extent, ok := h.extent[id]; ok {
		return extent
	}
	return id.Extent
}

// HaloWidth returns the total halo width of an axis. It is an internal
// error to ask for the width of an axis that has none registered (merge
// outputs of halo-bearing axes, see the Info doc).
func (h *Info) HaloWidth(id *fuser.IterDomain) (exprs.Val, error) {
	w, ok := h.width[id]
	if !ok {
		return exprs.Invalid, errors.Wrapf(ErrInternal, "no halo width registered for axis %s", id)
	}
	return w, nil
}

// HasHaloWidth returns whether the axis has a registered halo width.
func (h *Info) HasHaloWidth(id *fuser.IterDomain) bool {
	_, ok := h.width[id]
	return ok
}

// NeedsShiftPredicate returns whether statements computing the op's output
// must run under a boundary guard: any output root axis carries halo, or
// the op is a shift with a nonzero offset (or a gather with a non-unit
// window) on a non-broadcast axis.
func (h *Info) NeedsShiftPredicate(op *fuser.Op) (bool, error) {
	consumer := op.Output()
	for i, cID := range consumer.RootDomain() {
		cInfo, err := h.RootAxisHalo(cID)
		if err != nil {
			return false, err
		}
		if cInfo.HasHalo(h.eb) {
			return true, nil
		}
		if cID.IsBroadcast() {
			continue
		}
		if op.Type() == optypes.Shift && op.Shift().Offset(i) != 0 {
			return true, nil
		}
		if op.Type() == optypes.Gather {
			if ga := op.Gather(); i < len(ga.WindowShape) && !h.eb.IsOne(ga.Window(i)) {
				return true, nil
			}
		}
	}
	return false, nil
}

// validate enforces the placement restrictions on halo-extended axes:
// thread-parallel ones may need shared memory so neighboring threads can see
// the halo, and block-level parallelization is rejected outright since no
// cross-block synchronization is assumed available.
func (h *Info) validate(tv *fuser.Tensor) error {
	for _, axis := range tv.LeafDomain() {
		concrete := h.loopMap.Concrete(axis)

		// The extent is assumed to be the same.
		equal, err := h.ExtentEqual(axis, concrete)
		if err != nil {
			return errors.WithMessagef(err, "validating %s", tv)
		}
		if !equal {
			return errors.Wrapf(ErrInternal,
				"axis %s of %s does not have the same extent as its concrete axis %s due to halo extension",
				axis, tv, concrete)
		}

		if !h.HasHalo(axis) {
			continue
		}

		ptype := concrete.Parallel
		if ptype == types.Serial {
			continue
		}
		if !ptype.IsThread() {
			return errors.Wrapf(ErrUnsupported,
				"parallel type %s on halo-extended axis %s of %s", ptype, axis, tv)
		}

		sharedMemNeeded := false
		for _, use := range tv.Uses() {
			if use.Type().HasHaloTransfer() {
				sharedMemNeeded = true
				break
			}
			consumer := use.Output()
			var mapped *fuser.IterDomain
			for _, consumerAxis := range consumer.LeafDomain() {
				if h.loopMap.AreMapped(axis, consumerAxis) {
					mapped = consumerAxis
					break
				}
			}
			if mapped == nil {
				continue
			}
			equal, err := h.ExtentEqual(axis, mapped)
			if err != nil {
				return errors.WithMessagef(err, "validating %s against consumer %s", tv, consumer)
			}
			if !equal {
				sharedMemNeeded = true
				break
			}
		}
		if !sharedMemNeeded {
			continue
		}

		if ptype.IsThreadDim() {
			if tv.MemoryType() != types.Shared {
				return errors.Wrapf(ErrUnsupported,
					"%s must be allocated on shared memory as its halo-extended axis %s is parallelized by %s",
					tv, axis, ptype)
			}
		} else if ptype.IsBlockDim() {
			return errors.Wrapf(ErrUnsupported,
				"block-based parallelization of halo-extended axis %s of %s is not supported", axis, tv)
		}
	}
	return nil
}

// String renders the per-tensor root-axis halo records, for diagnostics.
func (h *Info) String() string {
	var sb strings.Builder
	sb.WriteString("HaloInfo:\n")
	for _, tv := range h.graph.Tensors() {
		sb.WriteString(tv.String())
		sb.WriteString(" root domain: ")
		for i, axis := range tv.RootDomain() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(axis.String())
			sb.WriteString(" -> ")
			if info, ok := h.rootAxis[axis]; ok {
				sb.WriteString(info.StringWith(h.eb))
			} else {
				sb.WriteString("<unregistered>")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func absInt(v int) int64 {
	if v < 0 {
		return int64(-v)
	}
	return int64(v)
}
