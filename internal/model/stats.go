package model

// Stats counts persisted rows per event table.
type Stats struct {
	TotalSwaps           int64 `json:"total_swaps"`
	TotalAddLiquidity    int64 `json:"total_add_liquidity"`
	TotalRemoveLiquidity int64 `json:"total_remove_liquidity"`
}

// PoolVolume aggregates the swaps of one pool. Sums are decimal strings
// because they can exceed the int64 range.
type PoolVolume struct {
	PoolID    string `json:"pool_id"`
	VolumeIn  string `json:"volume_in"`
	VolumeOut string `json:"volume_out"`
	SwapCount int64  `json:"swap_count"`
}

// Volume aggregates all swaps, with per-pool breakdown ordered by VolumeIn
// descending.
type Volume struct {
	TotalVolumeIn  string       `json:"total_volume_in"`
	TotalVolumeOut string       `json:"total_volume_out"`
	PoolStats      []PoolVolume `json:"pool_stats"`
}
