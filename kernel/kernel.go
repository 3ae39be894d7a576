// Package kernel holds the lowered statement IR that the halo pass rewrites:
// loops, conditionals and tensor assignments, grouped in editable scopes,
// plus the index service that recovers per-root-axis index expressions from
// a loop nest.
//
// The IR here is deliberately small: it is the slice of the code generator
// the guard-insertion pass interacts with (insert-before, erase, append, and
// predicate attachment), not a full kernel builder.
package kernel

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/gomlx/fuser"
	"github.com/gomlx/fuser/exprs"
)

// Kernel is the statement stream being generated for one graph. It owns the
// top-level scope and gives statements access to the graph's expression
// arena for rendering.
type Kernel struct {
	graph *fuser.Graph
	Body  Scope
}

// NewKernel creates an empty kernel for the graph.
func NewKernel(graph *fuser.Graph) *Kernel {
	return &Kernel{graph: graph}
}

// Graph returns the graph this kernel is generated for.
func (k *Kernel) Graph() *fuser.Graph { return k.graph }

// Exprs returns the expression arena shared with the graph.
func (k *Kernel) Exprs() *exprs.Builder { return k.graph.Exprs() }

// Stmt is a node of the kernel statement IR.
type Stmt interface {
	// Write renders the statement as readable pseudo-CUDA with the given
	// indentation.
	Write(w io.Writer, indentation string) error
}

const indentationStep = "  "

// Scope is an editable list of statements (a loop or branch body).
type Scope struct {
	stmts []Stmt
}

// Stmts returns the statements in order.
func (s *Scope) Stmts() []Stmt { return s.stmts }

// PushBack appends a statement to the scope.
func (s *Scope) PushBack(stmt Stmt) {
	s.stmts = append(s.stmts, stmt)
}

// InsertBefore inserts stmt immediately before ref, which must be in the
// scope.
func (s *Scope) InsertBefore(ref, stmt Stmt) error {
	for i, cur := range s.stmts {
		if cur == ref {
			s.stmts = append(s.stmts[:i], append([]Stmt{stmt}, s.stmts[i:]...)...)
			return nil
		}
	}
	return errors.Errorf("reference statement not found in scope")
}

// Erase removes stmt from the scope; removing an absent statement is a no-op.
func (s *Scope) Erase(stmt Stmt) {
	for i, cur := range s.stmts {
		if cur == stmt {
			s.stmts = append(s.stmts[:i], s.stmts[i+1:]...)
			return
		}
	}
}

func (s *Scope) write(w io.Writer, indentation string) error {
	for _, stmt := range s.stmts {
		if err := stmt.Write(w, indentation); err != nil {
			return err
		}
	}
	return nil
}

// Assign is a tensor store statement, the unit the halo pass guards.
type Assign struct {
	kernel *Kernel

	// Out is the tensor written by the statement.
	Out *fuser.Tensor

	// RHS is the rendered right-hand side, owned by the code generator.
	RHS string

	// Predicate, when valid, guards the statement without branching around
	// it. Used for statements executing under a cross-thread barrier.
	Predicate exprs.Val

	// Sync marks statements that execute under a cross-thread
	// synchronization barrier (e.g. a block reduction).
	Sync bool
}

// NewAssign creates an assignment statement writing out.
func (k *Kernel) NewAssign(out *fuser.Tensor, rhs string) *Assign {
	return &Assign{kernel: k, Out: out, RHS: rhs}
}

// Write implements Stmt.
func (a *Assign) Write(writer io.Writer, indentation string) error {
	eb := a.kernel.Exprs()
	pred := ""
	if a.Predicate.IsValid() {
		pred = fmt.Sprintf("  // predicate: %s", eb.String(a.Predicate))
	}
	_, err := fmt.Fprintf(writer, "%s%s = %s;%s\n", indentation, a.Out, a.RHS, pred)
	return err
}

// IfThenElse is a conditional statement with then/else bodies.
type IfThenElse struct {
	kernel *Kernel

	Cond exprs.Val
	Then Scope
	Else Scope
}

// NewIfThenElse creates a conditional with empty bodies.
func (k *Kernel) NewIfThenElse(cond exprs.Val) *IfThenElse {
	return &IfThenElse{kernel: k, Cond: cond}
}

// Write implements Stmt.
func (ite *IfThenElse) Write(writer io.Writer, indentation string) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	we := func(s *Scope, indentation string) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		err = s.write(writer, indentation)
	}
	w("%sif (%s) {\n", indentation, ite.kernel.Exprs().String(ite.Cond))
	we(&ite.Then, indentation+indentationStep)
	if len(ite.Else.stmts) > 0 {
		w("%s} else {\n", indentation)
		we(&ite.Else, indentation+indentationStep)
	}
	w("%s}\n", indentation)
	return err
}

// ForLoop drives one leaf axis. Thread- and block-parallel axes use the
// hardware index instead of a loop counter, but still appear as a ForLoop
// node so the nest structure is uniform.
type ForLoop struct {
	kernel *Kernel

	Axis  *fuser.IterDomain
	Index exprs.Val
	Body  Scope
}

// NewForLoop creates a loop over the axis. The loop index is the hardware
// dimension for parallelized axes, else a symbol named after the axis.
func (k *Kernel) NewForLoop(axis *fuser.IterDomain) *ForLoop {
	eb := k.Exprs()
	var index exprs.Val
	if dim := axis.Parallel.CUDADim(); dim != "" {
		index = eb.Symbol(dim)
	} else {
		index = eb.Symbol(axis.String())
	}
	return &ForLoop{kernel: k, Axis: axis, Index: index}
}

// Write implements Stmt.
func (fl *ForLoop) Write(writer io.Writer, indentation string) error {
	var err error
	w := func(format string, args ...any) {
		if err != nil {
			// No op if an error was encountered earlier
			return
		}
		_, err = fmt.Fprintf(writer, format, args...)
	}
	eb := fl.kernel.Exprs()
	idx := eb.String(fl.Index)
	if fl.Axis.Parallel.CUDADim() != "" {
		w("%s{  // %s bound to %s\n", indentation, fl.Axis, idx)
	} else {
		w("%sfor (int %s = 0; %s < %s; ++%s) {\n", indentation, idx, idx, eb.String(fl.Axis.Extent), idx)
	}
	if err == nil {
		err = fl.Body.write(writer, indentation+indentationStep)
	}
	w("%s}\n", indentation)
	return err
}

// Render returns the kernel body as readable pseudo-CUDA.
func (k *Kernel) Render() (string, error) {
	var buf bytes.Buffer
	if err := k.Body.write(&buf, ""); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ZeroFill builds the fallback statement storing zero into out, used as the
// else-branch of a boundary guard. Sub-word float types are emitted as raw
// bit patterns, the form the generated kernel can use without conversions.
func (k *Kernel) ZeroFill(out *fuser.Tensor) *Assign {
	return k.NewAssign(out, zeroLiteral(out.DType()))
}

func zeroLiteral(dtype dtypes.DType) string {
	switch dtype {
	case dtypes.F16:
		return fmt.Sprintf("__ushort_as_half(0x%04x)", float16.Fromfloat32(0).Bits())
	case dtypes.BFloat16:
		return "__ushort_as_bfloat16(0x0000)"
	case dtypes.F32:
		return "0.0f"
	case dtypes.F64:
		return "0.0"
	default:
		return "0"
	}
}
