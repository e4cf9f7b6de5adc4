package dex

import (
	"cetusindexer/internal/bcs"
	"cetusindexer/internal/model"
)

// narrower converts u64 fields to int64, keeping the first overflow.
type narrower struct {
	err error
}

func (n *narrower) int64(field string, v uint64) int64 {
	if n.err != nil {
		return 0
	}
	out, err := toInt64(field, v)
	if err != nil {
		n.err = err
	}
	return out
}

// decodeCLMMSwap reads pool::SwapEvent:
//
//	atob: bool, pool: ID, partner: ID, amount_in: u64, amount_out: u64,
//	ref_amount: u64, fee_amount: u64, vault_a_amount: u64, vault_b_amount: u64,
//	before_sqrt_price: u128, after_sqrt_price: u128, steps: u64
func decodeCLMMSwap(payload []byte) (model.SwapEvent, error) {
	r := bcs.NewReader(payload)
	atob := r.Bool("atob")
	pool := r.Address("pool")
	partner := r.Address("partner")
	amountIn := r.U64("amount_in")
	amountOut := r.U64("amount_out")
	refAmount := r.U64("ref_amount")
	feeAmount := r.U64("fee_amount")
	vaultA := r.U64("vault_a_amount")
	vaultB := r.U64("vault_b_amount")
	before := r.U128("before_sqrt_price")
	after := r.U128("after_sqrt_price")
	steps := r.U64("steps")
	if err := r.Done(); err != nil {
		return model.SwapEvent{}, err
	}

	var n narrower
	swap := model.SwapEvent{
		AmountIn:  n.int64("amount_in", amountIn),
		AmountOut: n.int64("amount_out", amountOut),
	}
	ref := n.int64("ref_amount", refAmount)
	fee := n.int64("fee_amount", feeAmount)
	va := n.int64("vault_a_amount", vaultA)
	vb := n.int64("vault_b_amount", vaultB)
	st := n.int64("steps", steps)
	if n.err != nil {
		return model.SwapEvent{}, n.err
	}

	poolID := hexID(pool)
	partnerID := hexID(partner)
	beforeText := before.String()
	afterText := after.String()

	swap.AtoB = &atob
	swap.Pool = &poolID
	swap.Partner = &partnerID
	swap.RefAmount = &ref
	swap.FeeAmount = &fee
	swap.VaultAAmount = &va
	swap.VaultBAmount = &vb
	swap.BeforeSqrtPrice = &beforeText
	swap.AfterSqrtPrice = &afterText
	swap.Steps = &st
	return swap, nil
}

// decodeMinimalSwap reads a struct of amount_in: u64, amount_out: u64.
func decodeMinimalSwap(payload []byte) (model.SwapEvent, error) {
	r := bcs.NewReader(payload)
	amountIn := r.U64("amount_in")
	amountOut := r.U64("amount_out")
	if err := r.Done(); err != nil {
		return model.SwapEvent{}, err
	}

	var n narrower
	swap := model.SwapEvent{
		AmountIn:  n.int64("amount_in", amountIn),
		AmountOut: n.int64("amount_out", amountOut),
	}
	if n.err != nil {
		return model.SwapEvent{}, n.err
	}
	return swap, nil
}
