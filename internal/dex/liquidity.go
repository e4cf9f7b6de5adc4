package dex

import (
	"cetusindexer/internal/bcs"
	"cetusindexer/internal/model"
)

// decodeCLMMLiquidity reads pool::AddLiquidityEvent and
// pool::RemoveLiquidityEvent, which share a layout:
//
//	pool: ID, position: ID, tick_lower: I32, tick_upper: I32,
//	liquidity: u128, after_liquidity: u128, amount_a: u64, amount_b: u64
//
// I32 is a struct wrapping bits: u32 in two's complement.
func decodeCLMMLiquidity(payload []byte) (model.LiquidityEvent, error) {
	r := bcs.NewReader(payload)
	pool := r.Address("pool")
	position := r.Address("position")
	tickLower := r.U32("tick_lower")
	tickUpper := r.U32("tick_upper")
	liquidity := r.U128("liquidity")
	afterLiquidity := r.U128("after_liquidity")
	amountA := r.U64("amount_a")
	amountB := r.U64("amount_b")
	if err := r.Done(); err != nil {
		return model.LiquidityEvent{}, err
	}

	var n narrower
	event := model.LiquidityEvent{
		Liquidity:      liquidity.String(),
		AfterLiquidity: afterLiquidity.String(),
		Pool:           hexID(pool),
		Position:       hexID(position),
		TickLower:      int32(tickLower),
		TickUpper:      int32(tickUpper),
		AmountA:        n.int64("amount_a", amountA),
		AmountB:        n.int64("amount_b", amountB),
	}
	if n.err != nil {
		return model.LiquidityEvent{}, n.err
	}
	return event, nil
}
