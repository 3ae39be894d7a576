// Package fuser models the dataflow graph consumed by the kernel lowering
// passes: tensors, their iteration-axis trees (built from split/merge
// scheduling transforms), and the closed set of operations relevant to
// halo/boundary analysis.
//
// Among its features:
//
//   - A builder-style API: tensors and operations are created one by one and
//     recorded in topological order.
//   - A per-graph arena of interned scalar expressions (see the exprs
//     package) shared by every axis extent and every lowering pass.
//   - The axis correspondence maps (pairwise root mapping, loop map) that the
//     halo analysis and the code generator query.
//
// The halo analysis itself lives in the halo package; the kernel statement IR
// and index service in the kernel package.
package fuser

import "github.com/gomlx/fuser/internal/utils"

// NormalizeIdentifier converts the name of an identifier (tensor name, axis
// symbol, etc.) to a valid one: only letters, digits, and underscores are
// allowed.
//
// Invalid characters are replaced with underscores.
// If the name starts with a digit, it is prefixed with an underscore.
func NormalizeIdentifier(name string) string {
	return utils.NormalizeIdentifier(name)
}
