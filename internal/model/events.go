package model

// SwapEvent is a decoded pool swap. Extended fields are nil when the event
// was decoded with the minimal layout.
type SwapEvent struct {
	ID              string  `json:"id"`
	AmountIn        int64   `json:"amount_in"`
	AmountOut       int64   `json:"amount_out"`
	AtoB            *bool   `json:"atob,omitempty"`
	Pool            *string `json:"pool,omitempty"`
	Partner         *string `json:"partner,omitempty"`
	RefAmount       *int64  `json:"ref_amount,omitempty"`
	FeeAmount       *int64  `json:"fee_amount,omitempty"`
	VaultAAmount    *int64  `json:"vault_a_amount,omitempty"`
	VaultBAmount    *int64  `json:"vault_b_amount,omitempty"`
	BeforeSqrtPrice *string `json:"before_sqrt_price,omitempty"`
	AfterSqrtPrice  *string `json:"after_sqrt_price,omitempty"`
	Steps           *int64  `json:"steps,omitempty"`
}

// LiquidityEvent is a decoded add or remove liquidity event. 128-bit
// quantities are decimal strings.
type LiquidityEvent struct {
	ID             string `json:"id"`
	Liquidity      string `json:"liquidity"`
	AfterLiquidity string `json:"after_liquidity"`
	Pool           string `json:"pool"`
	Position       string `json:"position"`
	TickLower      int32  `json:"tick_lower"`
	TickUpper      int32  `json:"tick_upper"`
	AmountA        int64  `json:"amount_a"`
	AmountB        int64  `json:"amount_b"`
}

// Batches groups the records extracted from one checkpoint by destination.
type Batches struct {
	Swaps           []SwapEvent      `json:"swaps"`
	AddLiquidity    []LiquidityEvent `json:"add_liquidity"`
	RemoveLiquidity []LiquidityEvent `json:"remove_liquidity"`
}

// Empty reports whether there is nothing to persist.
func (b Batches) Empty() bool {
	return len(b.Swaps) == 0 && len(b.AddLiquidity) == 0 && len(b.RemoveLiquidity) == 0
}

// Len returns the total number of records.
func (b Batches) Len() int {
	return len(b.Swaps) + len(b.AddLiquidity) + len(b.RemoveLiquidity)
}
