package spool

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Token is one element of a type descriptor.
// Tokens at or above TokenCustom name registered polymorphic types; array lengths
// and recursion depths appear inline as plain numbers.
type Token uint64

// Descriptor tokens.
const (
	TokenInvalid Token = iota
	TokenBool
	TokenI8
	TokenI16
	TokenI32
	TokenI64
	TokenU8
	TokenU16
	TokenU32
	TokenU64
	TokenF32
	TokenF64
	TokenC64
	TokenC128
	TokenInt
	TokenUint
	TokenString
	TokenArray
	TokenVector
	TokenMap
	TokenSet
	TokenRaw
	TokenUnique
	TokenShared
	TokenWeak
	TokenVoid
	TokenInterface
	TokenConst
	TokenOptional
	TokenVariant
	TokenTuple
	TokenStruct
	TokenRecursive
	TokenEnd
	TokenDuration
	TokenTime
	TokenAtomic
)

// TokenCustom is the base of custom type tokens: TokenCustom + TypeID.
const TokenCustom Token = 1 << 32

var tokenNames = map[Token]string{
	TokenInvalid:   "invalid",
	TokenBool:      "bool",
	TokenI8:        "i8",
	TokenI16:       "i16",
	TokenI32:       "i32",
	TokenI64:       "i64",
	TokenU8:        "u8",
	TokenU16:       "u16",
	TokenU32:       "u32",
	TokenU64:       "u64",
	TokenF32:       "f32",
	TokenF64:       "f64",
	TokenC64:       "c64",
	TokenC128:      "c128",
	TokenInt:       "int",
	TokenUint:      "uint",
	TokenString:    "string",
	TokenArray:     "array",
	TokenVector:    "vector",
	TokenMap:       "map",
	TokenSet:       "set",
	TokenRaw:       "ptr",
	TokenUnique:    "unique",
	TokenShared:    "shared",
	TokenWeak:      "weak",
	TokenVoid:      "void",
	TokenInterface: "interface",
	TokenConst:     "const",
	TokenOptional:  "opt",
	TokenVariant:   "variant",
	TokenTuple:     "tuple",
	TokenStruct:    "struct",
	TokenRecursive: "rec",
	TokenEnd:       "end",
	TokenDuration:  "duration",
	TokenTime:      "time",
	TokenAtomic:    "atomic",
}

var scalarTokens = map[reflect.Kind]Token{
	reflect.Bool:       TokenBool,
	reflect.Int8:       TokenI8,
	reflect.Int16:      TokenI16,
	reflect.Int32:      TokenI32,
	reflect.Int64:      TokenI64,
	reflect.Uint8:      TokenU8,
	reflect.Uint16:     TokenU16,
	reflect.Uint32:     TokenU32,
	reflect.Uint64:     TokenU64,
	reflect.Float32:    TokenF32,
	reflect.Float64:    TokenF64,
	reflect.Complex64:  TokenC64,
	reflect.Complex128: TokenC128,
	reflect.Int:        TokenInt,
	reflect.Uint:       TokenUint,
}

// Descriptor is the structural description of a type as a token sequence.
// Equal types always produce equal descriptors.
type Descriptor []Token

// Equal reports whether d and o are token-for-token identical.
func (d Descriptor) Equal(o Descriptor) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if d[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders d as space separated token names. Operands of array and
// recursion tokens print as numbers, custom tokens as "custom:<id>".
func (d Descriptor) String() string {
	var b strings.Builder
	operand := false
	for i, t := range d {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case operand:
			b.WriteString(strconv.FormatUint(uint64(t), 10))
			operand = false
		case t >= TokenCustom:
			b.WriteString("custom:")
			b.WriteString(strconv.FormatUint(uint64(t-TokenCustom), 10))
		default:
			b.WriteString(tokenNames[t])
			operand = t == TokenArray || t == TokenRecursive
		}
	}
	return b.String()
}

// valid reports whether every type in d can be coded.
func (d Descriptor) valid() bool {
	for i := 0; i < len(d); i++ {
		switch d[i] {
		case TokenInvalid:
			return false
		case TokenArray, TokenRecursive:
			i++
		}
	}
	return true
}

var descriptors sync.Map // reflect.Type -> Descriptor

// Describe returns the descriptor of T.
func Describe[T any]() Descriptor {
	return DescribeType(reflect.TypeFor[T]())
}

// DescribeType returns the descriptor of t. Results are cached.
func DescribeType(t reflect.Type) Descriptor {
	if cached, ok := descriptors.Load(t); ok {
		return cached.(Descriptor)
	}
	var g describer
	d := Descriptor(g.describe(nil, t))
	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(Descriptor)
}

// describer tracks the enclosing named types so self-referential types terminate.
type describer struct {
	stack []reflect.Type
}

func (g *describer) describe(out []Token, t reflect.Type) []Token {
	info := infoOf(t)
	switch info.class {
	case classSlice, classArray, classMap, classPointer:
		if t.Name() != "" {
			return g.named(out, t, info)
		}
	}
	return g.composite(out, t, info)
}

// named describes a defined slice, array, map or pointer type, which may refer to itself.
func (g *describer) named(out []Token, t reflect.Type, info *typeInfo) []Token {
	if out, ok := g.reenter(out, t); ok {
		return out
	}
	g.stack = append(g.stack, t)
	out = g.composite(out, t, info)
	g.stack = g.stack[:len(g.stack)-1]
	return out
}

// reenter appends a recursion token when t is already being described.
func (g *describer) reenter(out []Token, t reflect.Type) ([]Token, bool) {
	for depth := 1; depth <= len(g.stack); depth++ {
		if g.stack[len(g.stack)-depth] == t {
			return append(out, TokenRecursive, Token(depth)), true
		}
	}
	return out, false
}

func (g *describer) composite(out []Token, t reflect.Type, info *typeInfo) []Token {
	switch info.class {
	case classScalar:
		return append(out, scalarTokens[t.Kind()])
	case classString:
		return append(out, TokenString, TokenU8)
	case classSlice:
		return g.describe(append(out, TokenVector), t.Elem())
	case classArray:
		return g.describe(append(out, TokenArray, Token(t.Len())), t.Elem())
	case classMap:
		if isSet(t) {
			return g.describe(append(out, TokenSet), t.Key())
		}
		out = g.describe(append(out, TokenMap), t.Key())
		return g.describe(out, t.Elem())
	case classPointer:
		return g.describe(append(out, TokenRaw), t.Elem())
	case classInterface:
		return append(out, TokenInterface)
	case classVoid:
		return append(out, TokenVoid)
	case classReference:
		r := reflect.New(t).Interface().(reference)
		out = append(out, ownershipTokens[r.ownership()])
		return g.pointee(out, r.refType())
	case classOptional:
		o := reflect.New(t).Interface().(optional)
		return g.describe(append(out, TokenOptional), o.optionalElem())
	case classVariant:
		out = append(out, TokenVariant)
		for _, alt := range reflect.New(t).Interface().(variantValue).alternatives() {
			out = g.describe(out, alt)
		}
		return append(out, TokenEnd)
	case classConst:
		c := reflect.New(t).Interface().(constValue)
		return g.describe(append(out, TokenConst), c.constElem())
	case classDuration:
		return append(out, TokenDuration)
	case classTime:
		return append(out, TokenTime)
	case classAtomic:
		return g.describe(append(out, TokenAtomic), atomicTypes[t])
	case classStruct:
		return g.structure(out, t)
	}
	return append(out, TokenInvalid)
}

// pointee describes the target of a reference whose static type is p.
func (g *describer) pointee(out []Token, p reflect.Type) []Token {
	if p.Kind() == reflect.Pointer {
		return g.describe(out, p.Elem())
	}
	return g.describe(out, p)
}

func (g *describer) structure(out []Token, t reflect.Type) []Token {
	if id, ok := staticTypeID(t); ok {
		return append(out, TokenCustom+Token(id))
	}
	if out, ok := g.reenter(out, t); ok {
		return out
	}

	open := TokenStruct
	if t.Implements(tupleType) {
		open = TokenTuple
	}
	g.stack = append(g.stack, t)
	out = append(out, open)
	for _, f := range planFor(t).fields {
		out = g.describe(out, f.typ)
	}
	g.stack = g.stack[:len(g.stack)-1]
	return append(out, TokenEnd)
}

var ownershipTokens = map[Ownership]Token{
	OwnershipRaw:    TokenRaw,
	OwnershipUnique: TokenUnique,
	OwnershipShared: TokenShared,
	OwnershipWeak:   TokenWeak,
}

// isSet reports whether t is a map used as a set.
func isSet(t reflect.Type) bool {
	e := t.Elem()
	return e.Kind() == reflect.Struct && e.NumField() == 0
}
