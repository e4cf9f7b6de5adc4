package bcs

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Writer is the inverse of Reader. It is used to build fixtures.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) U64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// U128 panics if v is negative or wider than 128 bits.
func (w *Writer) U128(v *big.Int) *Writer {
	if v.Sign() < 0 || v.BitLen() > 128 {
		panic(fmt.Sprintf("bcs: %s does not fit in u128", v))
	}
	be := v.FillBytes(make([]byte, 16))
	for i := 15; i >= 0; i-- {
		w.buf = append(w.buf, be[i])
	}
	return w
}

func (w *Writer) Address(v [AddressLength]byte) *Writer {
	w.buf = append(w.buf, v[:]...)
	return w
}
