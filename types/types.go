// Package types defines the shared enums of the fuser packages: axis kinds,
// parallelization tags and memory placements.
package types

// AxisKind tags what an iteration axis ranges over.
type AxisKind int

//go:generate go tool enumer -type=AxisKind -output=gen_axiskind_enumer.go types.go

const (
	// Iteration is a plain data axis.
	Iteration AxisKind = iota

	// Broadcast axes have extent 1 logically replicated; they never carry halo.
	Broadcast

	// Reduction axes are folded away by a reduction operation.
	Reduction
)

// ParallelType says how a loop axis is mapped onto the GPU execution
// hierarchy.
type ParallelType int

//go:generate go tool enumer -type=ParallelType -output=gen_paralleltype_enumer.go types.go

const (
	// Serial axes run as ordinary sequential loops.
	Serial ParallelType = iota

	// ThreadX..ThreadZ bind the axis to an intra-block thread dimension.
	ThreadX
	ThreadY
	ThreadZ

	// BlockX..BlockZ bind the axis to a grid block dimension.
	BlockX
	BlockY
	BlockZ

	Vectorize
	Unroll
)

// IsThread returns whether the axis is indexed by a thread or block
// dimension, i.e. its iterations run on distinct hardware lanes.
func (p ParallelType) IsThread() bool {
	return p.IsThreadDim() || p.IsBlockDim()
}

// IsThreadDim returns whether the axis is bound to an intra-block thread
// dimension.
func (p ParallelType) IsThreadDim() bool {
	return p == ThreadX || p == ThreadY || p == ThreadZ
}

// IsBlockDim returns whether the axis is bound to a grid block dimension.
func (p ParallelType) IsBlockDim() bool {
	return p == BlockX || p == BlockY || p == BlockZ
}

// CUDADim returns the CUDA builtin the parallel type indexes with, or "" for
// non-thread types.
func (p ParallelType) CUDADim() string {
	switch p {
	case ThreadX:
		return "threadIdx.x"
	case ThreadY:
		return "threadIdx.y"
	case ThreadZ:
		return "threadIdx.z"
	case BlockX:
		return "blockIdx.x"
	case BlockY:
		return "blockIdx.y"
	case BlockZ:
		return "blockIdx.z"
	}
	return ""
}

// MemoryType is the placement of a tensor's backing storage.
type MemoryType int

//go:generate go tool enumer -type=MemoryType -output=gen_memorytype_enumer.go types.go

const (
	// Local is per-thread registers or local memory.
	Local MemoryType = iota

	// Shared is block-visible shared memory.
	Shared

	// Global is device global memory.
	Global
)
