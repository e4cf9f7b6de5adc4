package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"cetusindexer/internal/model"
	"cetusindexer/internal/storage"
)

// Page selects a slice of rows ordered by id descending. IDContains, when
// set, keeps only ids containing it as a literal substring.
type Page struct {
	Page       int
	PerPage    int
	IDContains string
}

// offset saturates at math.MaxInt rather than wrapping negative.
func (p Page) offset() int {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PerPage
}

// where renders the optional id filter, with LIKE wildcards in the needle
// escaped.
func (p Page) where() (string, []any) {
	if p.IDContains == "" {
		return "", nil
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(p.IDContains)
	return ` WHERE id LIKE '%' || $1::text || '%'`, []any{escaped}
}

// ListSwaps returns one page of swaps and the number of rows matching the
// filter.
func (s *Store) ListSwaps(ctx context.Context, page Page) ([]model.SwapEvent, int64, error) {
	where, args := page.where()
	total, err := s.count(ctx, storage.SwapTable, where, args)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + strings.Join(swapColumns, ", ") + ` FROM ` + storage.SwapTable + where +
		fmt.Sprintf(` ORDER BY id DESC LIMIT %d OFFSET %d`, page.PerPage, page.offset())
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SwapEvent, error) {
		var e model.SwapEvent
		err := row.Scan(
			&e.ID, &e.AmountIn, &e.AmountOut, &e.AtoB, &e.Pool, &e.Partner,
			&e.RefAmount, &e.FeeAmount, &e.VaultAAmount, &e.VaultBAmount,
			&e.BeforeSqrtPrice, &e.AfterSqrtPrice, &e.Steps,
		)
		return e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}
	if out == nil {
		out = []model.SwapEvent{}
	}
	return out, total, nil
}

// ListLiquidity is ListSwaps for one of the two liquidity tables.
func (s *Store) ListLiquidity(ctx context.Context, table string, page Page) ([]model.LiquidityEvent, int64, error) {
	if table != storage.AddLiquidityTable && table != storage.RemoveLiquidityTable {
		return nil, 0, fmt.Errorf("unknown liquidity table %q", table)
	}
	where, args := page.where()
	total, err := s.count(ctx, table, where, args)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + strings.Join(liquidityColumns, ", ") + ` FROM ` + table + where +
		fmt.Sprintf(` ORDER BY id DESC LIMIT %d OFFSET %d`, page.PerPage, page.offset())
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LiquidityEvent, error) {
		var e model.LiquidityEvent
		err := row.Scan(
			&e.ID, &e.Liquidity, &e.AfterLiquidity, &e.Pool, &e.Position,
			&e.TickLower, &e.TickUpper, &e.AmountA, &e.AmountB,
		)
		return e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	if out == nil {
		out = []model.LiquidityEvent{}
	}
	return out, total, nil
}

func (s *Store) count(ctx context.Context, table, where string, args []any) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}

// Stats counts the rows of every event table.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cetus_swap_events),
			(SELECT COUNT(*) FROM cetus_add_liquidity_events),
			(SELECT COUNT(*) FROM cetus_remove_liquidity_events)
	`).Scan(&st.TotalSwaps, &st.TotalAddLiquidity, &st.TotalRemoveLiquidity)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Volume sums swap amounts overall and per pool. Swaps decoded without a
// pool are grouped under an empty pool id.
func (s *Store) Volume(ctx context.Context) (model.Volume, error) {
	var v model.Volume
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_in), 0)::text, COALESCE(SUM(amount_out), 0)::text
		FROM cetus_swap_events
	`).Scan(&v.TotalVolumeIn, &v.TotalVolumeOut)
	if err != nil {
		return model.Volume{}, fmt.Errorf("volume totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(pool, ''), SUM(amount_in)::text, SUM(amount_out)::text, COUNT(*)
		FROM cetus_swap_events
		GROUP BY pool
		ORDER BY SUM(amount_in) DESC, COALESCE(pool, '')
	`)
	if err != nil {
		return model.Volume{}, fmt.Errorf("volume by pool: %w", err)
	}
	v.PoolStats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PoolVolume, error) {
		var p model.PoolVolume
		err := row.Scan(&p.PoolID, &p.VolumeIn, &p.VolumeOut, &p.SwapCount)
		return p, err
	})
	if err != nil {
		return model.Volume{}, fmt.Errorf("volume by pool: %w", err)
	}
	if v.PoolStats == nil {
		v.PoolStats = []model.PoolVolume{}
	}
	return v, nil
}
