package bcs

import (
	"errors"
	"math/big"
	"testing"

	"pgregory.net/rapid"
)

func TestReaderFixedWidth(t *testing.T) {
	var addr [AddressLength]byte
	addr[0], addr[31] = 0xab, 0xcd

	maxU128, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	payload := NewWriter().
		Bool(true).
		U8(7).
		U32(0xfffffff6).
		U64(1<<63 + 5).
		U128(maxU128).
		Address(addr).
		Bytes()

	if len(payload) != 1+1+4+8+16+32 {
		t.Fatalf("payload length: %d", len(payload))
	}

	r := NewReader(payload)
	if !r.Bool("b") {
		t.Fatalf("bool mismatch")
	}
	if r.U8("u8") != 7 {
		t.Fatalf("u8 mismatch")
	}
	if r.U32("u32") != 0xfffffff6 {
		t.Fatalf("u32 mismatch")
	}
	if r.U64("u64") != 1<<63+5 {
		t.Fatalf("u64 mismatch")
	}
	if got := r.U128("u128"); got.String() != "340282366920938463463374607431768211455" {
		t.Fatalf("u128 mismatch: %s", got)
	}
	if r.Address("addr") != addr {
		t.Fatalf("address mismatch")
	}
	if err := r.Done(); err != nil {
		t.Fatalf("done: %v", err)
	}
}

func TestReaderU128LittleEndian(t *testing.T) {
	payload := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if got := NewReader(payload).U128("v"); got.String() != "1" {
		t.Fatalf("expected 1, got %s", got)
	}
	zero := make([]byte, 16)
	if got := NewReader(zero).U128("v"); got.String() != "0" {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestReaderShortBufferIsSticky(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_ = r.U64("amount")
	if !errors.Is(r.Err(), ErrShortBuffer) {
		t.Fatalf("expected short buffer, got %v", r.Err())
	}
	_ = r.U8("next")
	if !errors.Is(r.Done(), ErrShortBuffer) {
		t.Fatalf("expected sticky short buffer, got %v", r.Done())
	}
}

func TestReaderInvalidBool(t *testing.T) {
	r := NewReader([]byte{2})
	_ = r.Bool("flag")
	if !errors.Is(r.Done(), ErrInvalidBool) {
		t.Fatalf("expected invalid bool, got %v", r.Done())
	}
}

func TestReaderTrailingBytes(t *testing.T) {
	r := NewReader([]byte{1, 0})
	_ = r.U8("only")
	if !errors.Is(r.Done(), ErrTrailingBytes) {
		t.Fatalf("expected trailing bytes, got %v", r.Done())
	}
}

func TestU128RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hi := rapid.Uint64().Draw(t, "hi")
		lo := rapid.Uint64().Draw(t, "lo")
		v := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
		v.Or(v, new(big.Int).SetUint64(lo))

		r := NewReader(NewWriter().U128(v).Bytes())
		got := r.U128("v")
		if err := r.Done(); err != nil {
			t.Fatalf("done: %v", err)
		}
		if got.Cmp(v) != 0 {
			t.Fatalf("round trip: %s != %s", got, v)
		}
	})
}

func TestReaderNeverPanicsOnArbitraryInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOf(rapid.Byte()).Draw(t, "payload")
		r := NewReader(payload)
		_ = r.Bool("a")
		_ = r.Address("b")
		_ = r.U128("c")
		_ = r.U64("d")
		_ = r.U32("e")
		_ = r.Done()
	})
}
