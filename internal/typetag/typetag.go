// Package typetag parses fully-qualified Move type identifiers such as
// 0x2::coin::Coin<0x2::sui::SUI> into comparable struct tags.
package typetag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrInvalidTag is wrapped by every parse failure.
var ErrInvalidTag = errors.New("invalid type tag")

var primitives = map[string]struct{}{
	"bool": {}, "u8": {}, "u16": {}, "u32": {}, "u64": {}, "u128": {}, "u256": {},
	"address": {}, "signer": {},
}

// StructTag identifies a Move struct type.
type StructTag struct {
	Address    common.Hash
	Module     string
	Name       string
	TypeParams []TypeTag
}

// TypeTag is a primitive, a vector or a struct type.
type TypeTag struct {
	Primitive string
	Vector    *TypeTag
	Struct    *StructTag
}

// String renders the canonical form with a full 32-byte address.
func (s StructTag) String() string {
	var b strings.Builder
	b.WriteString(s.Address.Hex())
	b.WriteString("::")
	b.WriteString(s.Module)
	b.WriteString("::")
	b.WriteString(s.Name)
	if len(s.TypeParams) > 0 {
		b.WriteByte('<')
		for i, p := range s.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteByte('>')
	}
	return b.String()
}

func (t TypeTag) String() string {
	switch {
	case t.Struct != nil:
		return t.Struct.String()
	case t.Vector != nil:
		return "vector<" + t.Vector.String() + ">"
	default:
		return t.Primitive
	}
}

// Equal reports whether both tags name the same type.
func (s StructTag) Equal(other StructTag) bool {
	return s.String() == other.String()
}

// Parse parses a struct tag. Short addresses are left-padded to 32 bytes.
func Parse(input string) (StructTag, error) {
	p := &parser{src: strings.TrimSpace(input)}
	tag, err := p.parseStruct()
	if err != nil {
		return StructTag{}, fmt.Errorf("%w %q: %v", ErrInvalidTag, input, err)
	}
	p.skipSpace()
	if !p.eof() {
		return StructTag{}, fmt.Errorf("%w %q: unexpected %q at %d", ErrInvalidTag, input, p.src[p.pos:], p.pos)
	}
	return tag, nil
}

// ParseAddress parses a hex address of up to 32 bytes, with or without 0x.
func ParseAddress(input string) (common.Hash, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(input), "0x"), "0X")
	if raw == "" || len(raw) > 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("address %q: bad length", input)
	}
	padded := strings.Repeat("0", 2*common.HashLength-len(raw)) + raw
	data, err := hexutil.Decode("0x" + padded)
	if err != nil {
		return common.Hash{}, fmt.Errorf("address %q: %w", input, err)
	}
	return common.BytesToHash(data), nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) expect(tok string) error {
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], tok) {
		return fmt.Errorf("expected %q at %d", tok, p.pos)
	}
	p.pos += len(tok)
	return nil
}

func (p *parser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		isAlpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isAlpha && !(isDigit && p.pos > start) {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("expected identifier at %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) parseStruct() (StructTag, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.src[p.pos] != ':' {
		p.pos++
	}
	addr, err := ParseAddress(p.src[start:p.pos])
	if err != nil {
		return StructTag{}, err
	}
	if err := p.expect("::"); err != nil {
		return StructTag{}, err
	}
	module, err := p.ident()
	if err != nil {
		return StructTag{}, err
	}
	if err := p.expect("::"); err != nil {
		return StructTag{}, err
	}
	name, err := p.ident()
	if err != nil {
		return StructTag{}, err
	}
	tag := StructTag{Address: addr, Module: module, Name: name}

	p.skipSpace()
	if p.eof() || p.src[p.pos] != '<' {
		return tag, nil
	}
	p.pos++
	for {
		param, err := p.parseType()
		if err != nil {
			return StructTag{}, err
		}
		tag.TypeParams = append(tag.TypeParams, param)
		p.skipSpace()
		if p.eof() {
			return StructTag{}, fmt.Errorf("unterminated type parameters")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == '>' {
			p.pos++
			return tag, nil
		}
		return StructTag{}, fmt.Errorf("unexpected %q at %d", p.src[p.pos], p.pos)
	}
}

func (p *parser) parseType() (TypeTag, error) {
	p.skipSpace()
	rest := p.src[p.pos:]
	if strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X") || (len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9') {
		st, err := p.parseStruct()
		if err != nil {
			return TypeTag{}, err
		}
		return TypeTag{Struct: &st}, nil
	}

	name, err := p.ident()
	if err != nil {
		return TypeTag{}, err
	}
	if name == "vector" {
		if err := p.expect("<"); err != nil {
			return TypeTag{}, err
		}
		elem, err := p.parseType()
		if err != nil {
			return TypeTag{}, err
		}
		if err := p.expect(">"); err != nil {
			return TypeTag{}, err
		}
		return TypeTag{Vector: &elem}, nil
	}
	if _, ok := primitives[name]; !ok {
		return TypeTag{}, fmt.Errorf("unknown type %q", name)
	}
	return TypeTag{Primitive: name}, nil
}
