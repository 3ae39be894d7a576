package halo

import "github.com/pkg/errors"

// ErrInternal is the cause of errors that indicate a broken invariant of the
// lowering itself: duplicate root-axis registration, querying an axis that
// was never registered, comparing unmapped axes, an axis transformation
// outside the split/merge vocabulary, re-splitting a merged halo axis, or an
// extent mismatch with a concrete axis. These abort the compilation; they
// are never recoverable by changing the input graph.
var ErrInternal = errors.New("halo lowering invariant violated")

// ErrUnsupported is the cause of errors that reject a valid input graph the
// lowering cannot compile safely: block-level parallelization of a
// halo-extended axis, a non-thread parallel type on one, or a halo-extended
// thread-parallel axis placed outside shared memory.
var ErrUnsupported = errors.New("unsupported halo pattern")
