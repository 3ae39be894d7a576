// Package exprs implements the scalar integer/boolean expression pool used by
// the kernel lowering passes.
//
// Expressions are immutable nodes owned by a Builder arena and referred to by
// lightweight Val handles. Every constructor interns its node through a
// value-keyed map, so two structurally equal expressions always yield the
// same handle: handle equality is structural equality. Constructors also fold
// constants and elide identities (x+0, max with equal operands, AND with a
// constant), keeping expression graphs minimal under symbolic operands.
package exprs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Val is a handle to an expression node in a Builder arena.
// The zero Val is Invalid and means "no expression".
type Val int32

// Invalid is the zero Val, meaning "no expression".
const Invalid Val = 0

// IsValid returns whether v refers to an actual expression.
func (v Val) IsValid() bool { return v != Invalid }

// Kind enumerates the expression node kinds.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -output=gen_kind_enumer.go exprs.go

const (
	KindInvalid Kind = iota
	KindConstInt
	KindConstBool
	KindSymbol

	KindAdd
	KindSub
	KindMul
	KindDiv
	KindMod
	KindMax

	KindGe
	KindLt
	KindEq
	KindAnd
	KindNot
)

// node is the interned representation of an expression.
// All fields are comparable, so nodes can key the interning map directly.
type node struct {
	kind Kind
	a, b Val
	ival int64
	bval bool
	name string
}

// Builder owns an arena of interned expression nodes.
// One Builder is created per graph compilation and shared by all passes.
type Builder struct {
	nodes    []node
	interned map[node]Val
}

// NewBuilder returns an empty expression arena.
func NewBuilder() *Builder {
	b := &Builder{
		nodes:    make([]node, 1), // nodes[0] backs the Invalid handle.
		interned: make(map[node]Val, 64),
	}
	return b
}

func (b *Builder) intern(n node) Val {
	if v, ok := b.interned[n]; ok {
		return v
	}
	v := Val(len(b.nodes))
	b.nodes = append(b.nodes, n)
	b.interned[n] = v
	return v
}

func (b *Builder) node(v Val) node {
	return b.nodes[v]
}

// Int returns the integer literal value.
func (b *Builder) Int(value int64) Val {
	return b.intern(node{kind: KindConstInt, ival: value})
}

// Zero returns the integer literal 0.
func (b *Builder) Zero() Val { return b.Int(0) }

// One returns the integer literal 1.
func (b *Builder) One() Val { return b.Int(1) }

// Bool returns the boolean literal value.
func (b *Builder) Bool(value bool) Val {
	return b.intern(node{kind: KindConstBool, bval: value})
}

// True returns the boolean literal true.
func (b *Builder) True() Val { return b.Bool(true) }

// False returns the boolean literal false.
func (b *Builder) False() Val { return b.Bool(false) }

// Symbol returns a named runtime integer value, e.g. an extent or a loop index.
func (b *Builder) Symbol(name string) Val {
	return b.intern(node{kind: KindSymbol, name: name})
}

// Kind returns the node kind of v.
func (b *Builder) Kind(v Val) Kind {
	return b.node(v).kind
}

// Operands returns the operand handles of a compound expression.
// Not has a single operand; leaves have none.
func (b *Builder) Operands(v Val) (Val, Val) {
	n := b.node(v)
	return n.a, n.b
}

// ConstInt returns the value of an integer literal and whether v is one.
func (b *Builder) ConstInt(v Val) (int64, bool) {
	n := b.node(v)
	if n.kind != KindConstInt {
		return 0, false
	}
	return n.ival, true
}

// ConstBool returns the value of a boolean literal and whether v is one.
func (b *Builder) ConstBool(v Val) (bool, bool) {
	n := b.node(v)
	if n.kind != KindConstBool {
		return false, false
	}
	return n.bval, true
}

// IsZero returns whether v is the integer literal 0.
func (b *Builder) IsZero(v Val) bool {
	c, ok := b.ConstInt(v)
	return ok && c == 0
}

// IsOne returns whether v is the integer literal 1.
func (b *Builder) IsOne(v Val) bool {
	c, ok := b.ConstInt(v)
	return ok && c == 1
}

// Add returns x + y, folding constants and eliding zero operands.
func (b *Builder) Add(x, y Val) Val {
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Int(xc + yc)
		}
	}
	if b.IsZero(x) {
		return y
	}
	if b.IsZero(y) {
		return x
	}
	return b.intern(node{kind: KindAdd, a: x, b: y})
}

// AddInt returns x + c for a Go integer constant c.
func (b *Builder) AddInt(x Val, c int64) Val {
	return b.Add(x, b.Int(c))
}

// Sub returns x - y, folding constants and eliding a zero subtrahend.
func (b *Builder) Sub(x, y Val) Val {
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Int(xc - yc)
		}
	}
	if b.IsZero(y) {
		return x
	}
	return b.intern(node{kind: KindSub, a: x, b: y})
}

// Mul returns x * y, folding constants and eliding unit/zero operands.
func (b *Builder) Mul(x, y Val) Val {
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Int(xc * yc)
		}
	}
	if b.IsZero(x) || b.IsZero(y) {
		return b.Zero()
	}
	if b.IsOne(x) {
		return y
	}
	if b.IsOne(y) {
		return x
	}
	return b.intern(node{kind: KindMul, a: x, b: y})
}

// Div returns x / y (integer division). Division by the literal 0 is refused.
func (b *Builder) Div(x, y Val) (Val, error) {
	if b.IsZero(y) {
		return Invalid, errors.Errorf("division of %s by literal zero", b.String(x))
	}
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Int(xc / yc), nil
		}
	}
	if b.IsOne(y) {
		return x, nil
	}
	return b.intern(node{kind: KindDiv, a: x, b: y}), nil
}

// Mod returns x % y. A modulus of the literal 0 is refused.
func (b *Builder) Mod(x, y Val) (Val, error) {
	if b.IsZero(y) {
		return Invalid, errors.Errorf("modulus of %s by literal zero", b.String(x))
	}
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Int(xc % yc), nil
		}
	}
	if b.IsOne(y) {
		return b.Zero(), nil
	}
	return b.intern(node{kind: KindMod, a: x, b: y}), nil
}

// Max returns max(x, y), folding constants and equal handles.
func (b *Builder) Max(x, y Val) Val {
	if x == y {
		return x
	}
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Int(max(xc, yc))
		}
	}
	return b.intern(node{kind: KindMax, a: x, b: y})
}

// Ge returns the boolean expression x >= y, folded when both are literals.
func (b *Builder) Ge(x, y Val) Val {
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Bool(xc >= yc)
		}
	}
	return b.intern(node{kind: KindGe, a: x, b: y})
}

// Lt returns the boolean expression x < y, folded when both are literals.
func (b *Builder) Lt(x, y Val) Val {
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Bool(xc < yc)
		}
	}
	return b.intern(node{kind: KindLt, a: x, b: y})
}

// Eq returns the boolean expression x == y.
// Interning makes structurally equal operands the same handle, so x == y
// folds to the literal true without inspecting the nodes.
func (b *Builder) Eq(x, y Val) Val {
	if x == y {
		return b.True()
	}
	if xc, ok := b.ConstInt(x); ok {
		if yc, ok := b.ConstInt(y); ok {
			return b.Bool(xc == yc)
		}
	}
	return b.intern(node{kind: KindEq, a: x, b: y})
}

// And returns x && y. Either side may be Invalid, in which case the other
// side is returned unchanged; this lets predicates accumulate clause by
// clause from an empty start. Constant sides fold.
func (b *Builder) And(x, y Val) Val {
	if !x.IsValid() {
		return y
	}
	if !y.IsValid() {
		return x
	}
	if xc, ok := b.ConstBool(x); ok {
		if !xc {
			return b.False()
		}
		return y
	}
	if yc, ok := b.ConstBool(y); ok {
		if !yc {
			return b.False()
		}
		return x
	}
	if x == y {
		return x
	}
	return b.intern(node{kind: KindAnd, a: x, b: y})
}

// Not returns !x, folded when x is a literal.
func (b *Builder) Not(x Val) Val {
	if xc, ok := b.ConstBool(x); ok {
		return b.Bool(!xc)
	}
	if b.Kind(x) == KindNot {
		a, _ := b.Operands(x)
		return a
	}
	return b.intern(node{kind: KindNot, a: x})
}

// NumNodes returns the number of live expression nodes in the arena,
// not counting the Invalid sentinel.
func (b *Builder) NumNodes() int {
	return len(b.nodes) - 1
}

// String renders v as a readable expression, used for diagnostics and tests.
func (b *Builder) String(v Val) string {
	if !v.IsValid() {
		return "<invalid>"
	}
	var sb strings.Builder
	b.render(&sb, v)
	return sb.String()
}

var kindSymbols = map[Kind]string{
	KindAdd: "+",
	KindSub: "-",
	KindMul: "*",
	KindDiv: "/",
	KindMod: "%",
	KindGe:  ">=",
	KindLt:  "<",
	KindEq:  "==",
	KindAnd: "&&",
}

func (b *Builder) render(sb *strings.Builder, v Val) {
	n := b.node(v)
	switch n.kind {
	case KindConstInt:
		_, _ = fmt.Fprintf(sb, "%d", n.ival)
	case KindConstBool:
		_, _ = fmt.Fprintf(sb, "%t", n.bval)
	case KindSymbol:
		sb.WriteString(n.name)
	case KindMax:
		sb.WriteString("max(")
		b.render(sb, n.a)
		sb.WriteString(", ")
		b.render(sb, n.b)
		sb.WriteString(")")
	case KindNot:
		sb.WriteString("!(")
		b.render(sb, n.a)
		sb.WriteString(")")
	case KindAdd, KindSub, KindMul, KindDiv, KindMod, KindGe, KindLt, KindEq, KindAnd:
		sb.WriteString("(")
		b.render(sb, n.a)
		_, _ = fmt.Fprintf(sb, " %s ", kindSymbols[n.kind])
		b.render(sb, n.b)
		sb.WriteString(")")
	default:
		_, _ = fmt.Fprintf(sb, "<bad expr %d>", v)
	}
}
