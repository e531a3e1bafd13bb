package ast

import "testing"

func TestBuiltinTypesFixedOrder(t *testing.T) {
	p := NewProgram()
	want := []*Type{p.U64, p.U32, p.U16, p.U8, p.I64, p.I32, p.I16, p.I8}
	for i, t2 := range want {
		if p.IntegerTypes[i] != t2 {
			t.Fatalf("IntegerTypes[%d] = %v, want %v", i, p.IntegerTypes[i], t2)
		}
	}
}

func TestIsIntegralExcludesVoidAndLiteral(t *testing.T) {
	p := NewProgram()
	if p.IsIntegral(p.Void) || p.IsIntegral(p.IntegerLiteral) {
		t.Fatalf("void and integer_literal must not be integral")
	}
	if !p.IsIntegral(p.U8) || !p.IsIntegral(p.I64) {
		t.Fatalf("built-in integral types must report integral")
	}
}

func TestToSignedToUnsigned(t *testing.T) {
	p := NewProgram()
	if p.ToSigned(p.U32) != p.I32 {
		t.Fatalf("expected u32 -> i32")
	}
	if p.ToSigned(p.I32) != p.I32 {
		t.Fatalf("signed types map to themselves")
	}
	if p.ToUnsigned(p.I16) != p.U16 {
		t.Fatalf("expected i16 -> u16")
	}
}

func TestCoercible(t *testing.T) {
	p := NewProgram()
	if !p.Coercible(p.U8, p.U32) {
		t.Fatalf("widening u8 -> u32 should be coercible")
	}
	if p.Coercible(p.U32, p.U8) {
		t.Fatalf("narrowing u32 -> u8 should not be implicitly coercible")
	}
	if !p.Coercible(p.IntegerLiteral, p.I64) {
		t.Fatalf("integer_literal should coerce to any integral type")
	}
	if p.Coercible(p.Void, p.I64) {
		t.Fatalf("void should not be coercible")
	}
}

func TestByKeyword(t *testing.T) {
	p := NewProgram()
	got, ok := p.ByKeyword("i32")
	if !ok || got != p.I32 {
		t.Fatalf("expected i32 lookup to succeed")
	}
	if _, ok := p.ByKeyword("nope"); ok {
		t.Fatalf("expected lookup of unknown keyword to fail")
	}
}
