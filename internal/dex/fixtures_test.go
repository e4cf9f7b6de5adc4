package dex

import (
	"math/big"

	"cetusindexer/internal/bcs"
)

type swapFields struct {
	AtoB            bool
	Pool            [32]byte
	Partner         [32]byte
	AmountIn        uint64
	AmountOut       uint64
	RefAmount       uint64
	FeeAmount       uint64
	VaultAAmount    uint64
	VaultBAmount    uint64
	BeforeSqrtPrice *big.Int
	AfterSqrtPrice  *big.Int
	Steps           uint64
}

func encodeCLMMSwap(f swapFields) []byte {
	return bcs.NewWriter().
		Bool(f.AtoB).
		Address(f.Pool).
		Address(f.Partner).
		U64(f.AmountIn).
		U64(f.AmountOut).
		U64(f.RefAmount).
		U64(f.FeeAmount).
		U64(f.VaultAAmount).
		U64(f.VaultBAmount).
		U128(f.BeforeSqrtPrice).
		U128(f.AfterSqrtPrice).
		U64(f.Steps).
		Bytes()
}

func encodeMinimalSwap(amountIn, amountOut uint64) []byte {
	return bcs.NewWriter().U64(amountIn).U64(amountOut).Bytes()
}

type liquidityFields struct {
	Pool           [32]byte
	Position       [32]byte
	TickLower      int32
	TickUpper      int32
	Liquidity      *big.Int
	AfterLiquidity *big.Int
	AmountA        uint64
	AmountB        uint64
}

func encodeCLMMLiquidity(f liquidityFields) []byte {
	return bcs.NewWriter().
		Address(f.Pool).
		Address(f.Position).
		U32(uint32(f.TickLower)).
		U32(uint32(f.TickUpper)).
		U128(f.Liquidity).
		U128(f.AfterLiquidity).
		U64(f.AmountA).
		U64(f.AmountB).
		Bytes()
}

func filledID(b byte) [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = b
	}
	return id
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}
