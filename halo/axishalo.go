// Package halo computes how much boundary region ("halo") every iteration
// axis needs so that shift and gather operations can read past an array's
// logical bounds, validates that halo-extended axes are parallelized and
// placed compatibly, and guards the generated statements that consume them.
//
// The analysis runs once per graph, before code generation:
//
//  1. Backward propagation pushes each consumer's per-axis halo into its
//     producers, with shift/gather-specific transfer rules (Info builds the
//     root-axis table).
//  2. Forward extent propagation rewrites descendant axis extents through
//     each tensor's split/merge tree.
//  3. Validation rejects parallelization/placement choices incompatible with
//     halo.
//
// During code generation the Inserter consults the (now read-only) Info to
// wrap shift/gather statements in boundary guards with zero-fill fallbacks.
package halo

import (
	"fmt"

	"github.com/gomlx/fuser/exprs"
)

// Side selects one boundary of an axis.
const (
	// Left is the boundary at offset zero.
	Left = 0
	// Right is the boundary at the axis extent.
	Right = 1
)

// AxisHalo holds the halo widths of one root axis, one non-negative
// symbolic width per side. The zero value is not usable; create records
// with NewAxisHalo.
type AxisHalo struct {
	widths [2]exprs.Val
}

// NewAxisHalo returns a record with both widths set to the literal 0.
func NewAxisHalo(eb *exprs.Builder) *AxisHalo {
	return &AxisHalo{widths: [2]exprs.Val{eb.Zero(), eb.Zero()}}
}

// Width returns the halo width of the given side.
func (h *AxisHalo) Width(side int) exprs.Val {
	return h.widths[side]
}

// TotalWidth returns the sum of both sides' widths.
func (h *AxisHalo) TotalWidth(eb *exprs.Builder) exprs.Val {
	return eb.Add(h.widths[Left], h.widths[Right])
}

// SetWidth overwrites the width of the given side.
func (h *AxisHalo) SetWidth(side int, width exprs.Val) {
	h.widths[side] = width
}

// MergeWidth widens the given side to cover other as well: the constant max
// when both widths are literals, the non-zero operand when one is the
// literal 0, else a symbolic max expression.
func (h *AxisHalo) MergeWidth(eb *exprs.Builder, side int, other exprs.Val) {
	cur := h.widths[side]
	curC, curConst := eb.ConstInt(cur)
	otherC, otherConst := eb.ConstInt(other)
	var merged exprs.Val
	switch {
	case curConst && otherConst:
		merged = eb.Int(max(curC, otherC))
	case eb.IsZero(cur):
		merged = other
	case eb.IsZero(other):
		merged = cur
	default:
		merged = eb.Max(cur, other)
	}
	h.widths[side] = merged
}

// Merge widens both sides to cover other.
func (h *AxisHalo) Merge(eb *exprs.Builder, other *AxisHalo) {
	for side := range h.widths {
		h.MergeWidth(eb, side, other.widths[side])
	}
}

// HasHalo returns whether either side has a width that is not the literal 0.
func (h *AxisHalo) HasHalo(eb *exprs.Builder) bool {
	for _, w := range h.widths {
		if !eb.IsZero(w) {
			return true
		}
	}
	return false
}

// StringWith renders the record as "<left, right>".
func (h *AxisHalo) StringWith(eb *exprs.Builder) string {
	return fmt.Sprintf("<%s, %s>", eb.String(h.widths[Left]), eb.String(h.widths[Right]))
}
