// Package bcs reads and writes the fixed-width subset of Binary Canonical
// Serialization used by on-chain event structs.
package bcs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// AddressLength is the byte length of addresses and object IDs.
const AddressLength = 32

var (
	ErrShortBuffer   = errors.New("bcs: unexpected end of input")
	ErrInvalidBool   = errors.New("bcs: invalid bool byte")
	ErrTrailingBytes = errors.New("bcs: trailing bytes")
)

// Reader consumes a BCS payload front to back. The first error sticks and
// every later read returns it.
type Reader struct {
	buf []byte
	pos int
	err error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Done returns the sticky error, or ErrTrailingBytes if input remains.
func (r *Reader) Done() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.buf) {
		return fmt.Errorf("%w: %d unread", ErrTrailingBytes, len(r.buf)-r.pos)
	}
	return nil
}

func (r *Reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.pos < n {
		r.err = fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d", ErrShortBuffer, field, n, r.pos, len(r.buf)-r.pos)
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *Reader) U8(field string) uint8 {
	b := r.take(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool(field string) bool {
	b := r.take(1, field)
	if b == nil {
		return false
	}
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		r.err = fmt.Errorf("%w: %s = 0x%02x at offset %d", ErrInvalidBool, field, b[0], r.pos-1)
		return false
	}
}

func (r *Reader) U32(field string) uint32 {
	b := r.take(4, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// U128 returns the little-endian 128-bit value as a non-negative big.Int.
func (r *Reader) U128(field string) *big.Int {
	b := r.take(16, field)
	if b == nil {
		return new(big.Int)
	}
	be := make([]byte, 16)
	for i := range b {
		be[15-i] = b[i]
	}
	return new(big.Int).SetBytes(be)
}

func (r *Reader) Address(field string) [AddressLength]byte {
	var out [AddressLength]byte
	b := r.take(AddressLength, field)
	if b != nil {
		copy(out[:], b)
	}
	return out
}
