package halo

import (
	"github.com/pkg/errors"

	"github.com/gomlx/fuser"
	"github.com/gomlx/fuser/exprs"
	"github.com/gomlx/fuser/internal/optypes"
	"github.com/gomlx/fuser/kernel"
	"github.com/gomlx/fuser/types"
)

// PredicateKind selects which of the two boundary guards of a statement is
// being built.
type PredicateKind int

const (
	// ShiftPredicate guards the real computation: all producer and consumer
	// accesses fall inside the halo-extended valid region.
	ShiftPredicate PredicateKind = iota

	// PaddingPredicate guards the zero-fill fallback of the else branch:
	// the consumer index is inside the allocated (padded) region.
	PaddingPredicate
)

// Inserter rewrites tensor assignments that need boundary guards. Guarded
// statements become
//
//	if (shiftPred) {
//	  consumer = ...;
//	} else {
//	  if (paddingPred) {
//	    consumer = 0;
//	  }
//	}
//
// inside the innermost loop driving the statement.
type Inserter struct {
	info   *Info
	kernel *kernel.Kernel
}

// NewInserter creates an inserter rewriting statements of k using the halo
// analysis in info.
func NewInserter(info *Info, k *kernel.Kernel) *Inserter {
	return &Inserter{info: info, kernel: k}
}

// Insert guards stmt if its defining op needs boundary predication; it is a
// no-op otherwise. loops is the loop nest enclosing stmt, innermost last;
// threadPred is the statement's thread predicate (Invalid for none).
//
// Statements executing under a cross-thread barrier cannot be branched
// around, so they get the predicate attached instead of an if/else rewrite.
func (ins *Inserter) Insert(stmt *kernel.Assign, loops []*kernel.ForLoop, threadPred exprs.Val) error {
	op := stmt.Out.Definition()
	if op == nil {
		return errors.Wrapf(ErrInternal, "statement output %s has no defining op", stmt.Out)
	}
	needed, err := ins.info.NeedsShiftPredicate(op)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}

	shiftPred, err := ins.Predicate(ShiftPredicate, stmt, loops, threadPred)
	if err != nil {
		return err
	}

	if stmt.Sync {
		stmt.Predicate = shiftPred
		return nil
	}

	scope := &ins.kernel.Body
	if len(loops) > 0 {
		scope = &loops[len(loops)-1].Body
	}

	guard := ins.kernel.NewIfThenElse(shiftPred)
	if err := scope.InsertBefore(stmt, guard); err != nil {
		return errors.WithMessagef(err, "guarding statement writing %s", stmt.Out)
	}
	scope.Erase(stmt)
	guard.Then.PushBack(stmt)

	paddingPred, err := ins.Predicate(PaddingPredicate, stmt, loops, threadPred)
	if err != nil {
		return err
	}
	eb := ins.kernel.Exprs()
	if v, ok := eb.ConstBool(paddingPred); ok && !v {
		// Nothing to pad.
		return nil
	}
	pad := ins.kernel.NewIfThenElse(paddingPred)
	pad.Then.PushBack(ins.kernel.ZeroFill(stmt.Out))
	guard.Else.PushBack(pad)
	return nil
}

// shiftProducerIndex adjusts a consumer index to the producer coordinate of
// a shift: producer = consumer - offset.
func (ins *Inserter) shiftProducerIndex(axis int, consumerIdx exprs.Val, op *fuser.Op) exprs.Val {
	offset := op.Shift().Offset(axis)
	if offset == 0 {
		return consumerIdx
	}
	return ins.kernel.Exprs().AddInt(consumerIdx, int64(-offset))
}

// gatherProducerIndex adjusts a consumer index to the producer coordinate
// of a gather: producer = consumer + windowIndex - leftPad.
func (ins *Inserter) gatherProducerIndex(axis int, consumerIdx exprs.Val, op *fuser.Op, indices []exprs.Val) (exprs.Val, error) {
	ga := op.Gather()
	if axis >= len(ga.WindowShape) || ins.kernel.Exprs().IsOne(ga.Window(axis)) {
		return consumerIdx, nil
	}
	windowAxis := ga.GatherAxis(axis)
	if windowAxis >= len(indices) {
		return exprs.Invalid, errors.Wrapf(ErrInternal,
			"gather window axis %d out of range of %d indices", windowAxis, len(indices))
	}
	eb := ins.kernel.Exprs()
	return eb.Sub(eb.Add(consumerIdx, indices[windowAxis]), ga.PadLeft(axis)), nil
}

// Predicate builds the requested guard for stmt. The shift predicate
// bounds every producer/consumer access by the halo-extended valid region
// of each root axis; the padding predicate bounds the consumer index by the
// allocated extent and is constant false when the op introduces no padding.
func (ins *Inserter) Predicate(kind PredicateKind, stmt *kernel.Assign, loops []*kernel.ForLoop, threadPred exprs.Val) (exprs.Val, error) {
	eb := ins.kernel.Exprs()
	out := stmt.Out
	op := out.Definition()
	if op == nil {
		return exprs.Invalid, errors.Wrapf(ErrInternal, "predicated tensor %s has no defining op", out)
	}

	isShift := op.Type() == optypes.Shift
	isGather := op.Type() == optypes.Gather

	// Padding only exists for padded shifts and gathers.
	if kind == PaddingPredicate {
		if (!isShift && !isGather) || (isShift && !op.Shift().Pad) {
			return eb.False(), nil
		}
	}

	// Separate indices per root axis: predication needs them unfused.
	rootDomain := out.RootDomain()
	contig := make([]bool, len(rootDomain))
	indices, bufferInit, err := ins.kernel.ConsumerRootIndices(out, loops, contig)
	if err != nil {
		return exprs.Invalid, errors.WithMessagef(err, "computing predicate indices for %s", out)
	}

	// Initializing a reduction buffer on registers needs no guard.
	if out.MemoryType() == types.Local && bufferInit {
		return eb.True(), nil
	}

	predicate := exprs.Invalid

	for i, rootID := range rootDomain {
		if rootID.IsBroadcast() || (bufferInit && rootID.IsReduction()) {
			continue
		}

		haloInfo, err := ins.info.RootAxisHalo(rootID)
		if err != nil {
			return exprs.Invalid, err
		}
		consumerIdx := indices[i]

		if kind == PaddingPredicate {
			// The full allocated range: extent plus both halo sides.
			allocStop := eb.Add(rootID.Extent, haloInfo.TotalWidth(eb))
			predicate = eb.And(predicate, eb.Lt(consumerIdx, allocStop))
			continue
		}

		// The consumer axis is laid out as
		//
		//   [0, left halo)[start, stop)[0, right halo)
		//                ^           ^
		//          left limit   right limit
		//
		// so left limit = left halo + start and right limit = stop + left
		// halo. Accesses outside the limits read the zero padding.
		leftWidth := haloInfo.Width(Left)
		leftLimit := eb.Add(leftWidth, rootID.Start)
		rightLimit := eb.Add(rootID.Stop, leftWidth)

		producerIdx := consumerIdx
		if isShift {
			producerIdx = ins.shiftProducerIndex(i, consumerIdx, op)
		} else if isGather {
			producerIdx, err = ins.gatherProducerIndex(i, consumerIdx, op, indices)
			if err != nil {
				return exprs.Invalid, err
			}
		}

		// Lower limit.
		if isShift && op.Shift().Offset(i) > 0 {
			// Without padding the consumer range itself starts at the
			// offset, so the consumer index is the one to bound.
			predIdx := producerIdx
			if !op.Shift().Pad {
				predIdx = consumerIdx
			}
			predicate = eb.And(predicate, eb.Ge(predIdx, leftLimit))
		} else if isGather {
			// The producer index may be on either side of the consumer
			// index, so both need bounding.
			predicate = eb.And(predicate, eb.Ge(consumerIdx, leftLimit))
			if producerIdx != consumerIdx {
				predicate = eb.And(predicate, eb.Ge(producerIdx, leftLimit))
			}
		} else if !eb.IsZero(leftLimit) {
			predicate = eb.And(predicate, eb.Ge(consumerIdx, leftLimit))
		}

		// Upper limit.
		if isShift && op.Shift().Offset(i) < 0 {
			predIdx := producerIdx
			if !op.Shift().Pad {
				predIdx = consumerIdx
			}
			predicate = eb.And(predicate, eb.Lt(predIdx, rightLimit))
		} else if isGather {
			predicate = eb.And(predicate, eb.Lt(consumerIdx, rightLimit))
			if producerIdx != consumerIdx {
				predicate = eb.And(predicate, eb.Lt(producerIdx, rightLimit))
			}
		} else if haloInfo.HasHalo(eb) {
			// Halo-extended axes iterate past their logical stop, so the
			// upper guard is needed whichever side the halo is on; plain
			// axes are already covered by the regular bounds check of
			// the loop nest.
			predicate = eb.And(predicate, eb.Lt(consumerIdx, rightLimit))
		}
	}

	// A constant-false thread predicate makes the whole guard false;
	// otherwise it is just another conjunct.
	if v, ok := eb.ConstBool(threadPred); ok {
		if !v {
			predicate = eb.False()
		}
	} else if threadPred.IsValid() {
		predicate = eb.And(predicate, threadPred)
	}

	if !predicate.IsValid() {
		return eb.True(), nil
	}
	return predicate, nil
}
