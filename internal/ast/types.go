// Package ast holds Pork's typed AST node, its built-in type registry, and
// the Variable bookkeeping shared by the semantic analyzer and the
// bytecode lowerer.
package ast

// OpType names a built-in integral type's machine representation, plus
// the sentinel OpNone (void). The integer-literal placeholder has no
// OpType of its own; it carries OpI64.
type OpType int

const (
	OpNone OpType = iota
	OpU8
	OpU16
	OpU32
	OpU64
	OpI8
	OpI16
	OpI32
	OpI64
)

// Type is an immutable type descriptor. Identity is by pointer: two Types
// describing the same shape are only equal if they are the same *Type,
// which Program guarantees by owning exactly one instance per built-in.
type Type struct {
	Name   string
	OpType OpType
	Size   int // bytes
}

// IsIntegral reports whether t's OpType is one of the eight integral
// op types. It looks at OpType only, so the integer-literal placeholder
// (which carries OpI64) also reports true; Program.IsIntegral is the
// check that excludes it.
func (t *Type) IsIntegral() bool {
	switch t.OpType {
	case OpU8, OpU16, OpU32, OpU64, OpI8, OpI16, OpI32, OpI64:
		return true
	}
	return false
}

// IsSigned reports whether t's OpType is one of the four signed op types
// (true for the integer-literal placeholder as well, via OpI64).
func (t *Type) IsSigned() bool {
	switch t.OpType {
	case OpI8, OpI16, OpI32, OpI64:
		return true
	}
	return false
}

// Program owns every Type used by one compilation and the table of
// built-in integral types.
type Program struct {
	Void           *Type
	IntegerLiteral *Type

	// IntegerTypes is fixed-order: [u64,u32,u16,u8,i64,i32,i16,i8].
	IntegerTypes [8]*Type

	U8, U16, U32, U64 *Type
	I8, I16, I32, I64 *Type
}

// NewProgram installs the built-in types in a fixed order: void, the
// integer-literal placeholder, and the eight integral types.
func NewProgram() *Program {
	p := &Program{
		Void: &Type{Name: "void", OpType: OpNone, Size: 0},
		// integer_literal has size 0 and carries OpI64 for codegen
		// fall-back, per the spec: literals that are never coerced to a
		// concrete type lower as if they were i64.
		IntegerLiteral: &Type{Name: "integer_literal", OpType: OpI64, Size: 0},
	}
	p.U64 = &Type{Name: "u64", OpType: OpU64, Size: 8}
	p.U32 = &Type{Name: "u32", OpType: OpU32, Size: 4}
	p.U16 = &Type{Name: "u16", OpType: OpU16, Size: 2}
	p.U8 = &Type{Name: "u8", OpType: OpU8, Size: 1}
	p.I64 = &Type{Name: "i64", OpType: OpI64, Size: 8}
	p.I32 = &Type{Name: "i32", OpType: OpI32, Size: 4}
	p.I16 = &Type{Name: "i16", OpType: OpI16, Size: 2}
	p.I8 = &Type{Name: "i8", OpType: OpI8, Size: 1}
	p.IntegerTypes = [8]*Type{p.U64, p.U32, p.U16, p.U8, p.I64, p.I32, p.I16, p.I8}
	return p
}

// ByKeyword resolves a type-name keyword (u8..u64, i8..i64) to its Type.
func (p *Program) ByKeyword(keyword string) (*Type, bool) {
	for _, t := range p.IntegerTypes {
		if t.Name == keyword {
			return t, true
		}
	}
	return nil, false
}

// IsIntegral reports whether t is one of the eight built-in integral
// types.
func (p *Program) IsIntegral(t *Type) bool {
	return t != nil && t != p.Void && t != p.IntegerLiteral && t.IsIntegral()
}

// IsSignedIntegral reports whether t is one of the four signed built-ins
// (indices 4..7 of IntegerTypes).
func (p *Program) IsSignedIntegral(t *Type) bool {
	return p.IsIntegral(t) && t.IsSigned()
}

// ToSigned maps each unsigned built-in to the signed built-in of equal
// width; a signed type (or anything else) maps to itself.
func (p *Program) ToSigned(t *Type) *Type {
	switch t {
	case p.U64:
		return p.I64
	case p.U32:
		return p.I32
	case p.U16:
		return p.I16
	case p.U8:
		return p.I8
	default:
		return t
	}
}

// ToUnsigned mirrors ToSigned for the other direction.
func (p *Program) ToUnsigned(t *Type) *Type {
	switch t {
	case p.I64:
		return p.U64
	case p.I32:
		return p.U32
	case p.I16:
		return p.U16
	case p.I8:
		return p.U8
	default:
		return t
	}
}

// Coercible reports whether a value of type from can be implicitly
// coerced to type to: both integral with to at least as wide, or from is
// the integer-literal placeholder and to is any integral type.
func (p *Program) Coercible(from, to *Type) bool {
	if from == p.IntegerLiteral {
		return p.IsIntegral(to)
	}
	return p.IsIntegral(from) && p.IsIntegral(to) && to.Size >= from.Size
}
