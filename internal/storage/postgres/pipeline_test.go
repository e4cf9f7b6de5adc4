package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cetusindexer/internal/bcs"
	"cetusindexer/internal/dex"
	"cetusindexer/internal/indexer"
	"cetusindexer/internal/model"
	"cetusindexer/internal/storage"
)

func clmmSwapPayload(amountIn, amountOut uint64) []byte {
	return bcs.NewWriter().
		Bool(true).
		Address([32]byte{0xaa}).
		Address([32]byte{}).
		U64(amountIn).
		U64(amountOut).
		U64(0).U64(1).U64(2).U64(3).
		U128(big.NewInt(10)).
		U128(big.NewInt(11)).
		U64(1).
		Bytes()
}

func TestExtractAndCommitSkipsMalformedEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	registry, err := dex.NewRegistry(dex.RegistryConfig{})
	require.NoError(t, err)

	cp := &model.Checkpoint{
		SequenceNumber: 42,
		Transactions: []model.Transaction{{
			Digest: "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
			Events: []model.RawEvent{
				{PackageID: dex.CetusPackageID, Type: dex.DefaultSwapEventType, Contents: clmmSwapPayload(100, 95)},
				{PackageID: dex.CetusPackageID, Type: dex.DefaultAddLiquidityEventType, Contents: []byte{1, 2, 3}},
			},
		}},
	}

	batches := indexer.NewExtractor(registry, nil, nil).Extract(cp)
	require.Len(t, batches.Swaps, 1)
	assert.Empty(t, batches.AddLiquidity)

	// Replaying the checkpoint must not add rows.
	require.NoError(t, store.Commit(ctx, batches))
	require.NoError(t, store.Commit(ctx, batches))

	assert.EqualValues(t, 1, countRows(t, store, storage.SwapTable))
	assert.EqualValues(t, 0, countRows(t, store, storage.AddLiquidityTable))

	swaps, _, err := store.ListSwaps(ctx, Page{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.EqualValues(t, 100, swaps[0].AmountIn)
	assert.EqualValues(t, 95, swaps[0].AmountOut)
	assert.Equal(t, batches.Swaps[0].ID, swaps[0].ID)
}
