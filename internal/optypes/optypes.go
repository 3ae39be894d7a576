// Package optypes defines OpType, the closed set of graph operations the
// halo lowering understands.
//
// The set is deliberately small: Shift and Gather are the only operations
// with halo-specific transfer rules; everything else propagates halo
// unchanged and is folded into the generic kinds.
package optypes

// OpType is the kind tag of a graph operation.
type OpType int

//go:generate go tool enumer -type=OpType -output=gen_optype_enumer.go optypes.go

const (
	Invalid OpType = iota

	// Pointwise covers all elementwise operations: unary math, binary
	// arithmetic, type conversion. They share one halo transfer rule
	// (identity), so the lowering does not distinguish them further.
	Pointwise

	// Reduce folds one or more reduction axes of its input.
	Reduce

	// BroadcastInDim inserts broadcast axes into its input's domain.
	BroadcastInDim

	// Shift reads each output position from a producer position offset by a
	// constant per-axis amount.
	Shift

	// Gather reads a fixed-size window of producer positions per output
	// position, with optional zero padding at the window origin.
	Gather
)

// HasHaloTransfer returns whether the operation has a halo transfer rule of
// its own, rather than the identity pass-through.
func (op OpType) HasHaloTransfer() bool {
	return op == Shift || op == Gather
}
