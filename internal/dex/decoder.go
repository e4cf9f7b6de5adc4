package dex

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"cetusindexer/internal/bcs"
	"cetusindexer/internal/model"
)

// ErrAmountOverflow is returned when an on-chain u64 does not fit the
// signed 64-bit column it is stored in.
var ErrAmountOverflow = errors.New("u64 value exceeds int64 range")

// DecodeError wraps a payload that does not match its registered layout.
type DecodeError struct {
	Kind   EventKind
	Layout Layout
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s event (%s): %v", e.Kind, e.Layout, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Record is the decoded form of one event. Exactly one of Swap and
// Liquidity is set, according to Kind. IDs are left empty for the caller.
type Record struct {
	Kind      EventKind
	Swap      *model.SwapEvent
	Liquidity *model.LiquidityEvent
}

// Decode parses payload with the descriptor's layout. It never panics on
// malformed input.
func Decode(desc Descriptor, payload []byte) (Record, error) {
	var (
		rec Record
		err error
	)
	switch desc.Layout {
	case LayoutCLMMSwap:
		var swap model.SwapEvent
		swap, err = decodeCLMMSwap(payload)
		rec = Record{Kind: desc.Kind, Swap: &swap}
	case LayoutMinimalSwap:
		var swap model.SwapEvent
		swap, err = decodeMinimalSwap(payload)
		rec = Record{Kind: desc.Kind, Swap: &swap}
	case LayoutCLMMLiquidity:
		var liq model.LiquidityEvent
		liq, err = decodeCLMMLiquidity(payload)
		rec = Record{Kind: desc.Kind, Liquidity: &liq}
	default:
		err = fmt.Errorf("unsupported layout %q", desc.Layout)
	}
	if err != nil {
		return Record{}, &DecodeError{Kind: desc.Kind, Layout: desc.Layout, Err: err}
	}
	if (desc.Kind == KindSwap) != (rec.Swap != nil) {
		return Record{}, &DecodeError{Kind: desc.Kind, Layout: desc.Layout, Err: fmt.Errorf("layout does not produce %s records", desc.Kind)}
	}
	return rec, nil
}

func toInt64(field string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%s=%d: %w", field, v, ErrAmountOverflow)
	}
	return int64(v), nil
}

func hexID(id [bcs.AddressLength]byte) string {
	return common.Hash(id).Hex()
}
