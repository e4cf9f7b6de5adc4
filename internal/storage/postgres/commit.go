package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"cetusindexer/internal/model"
	"cetusindexer/internal/storage"
)

// Postgres caps a statement at 65535 bind parameters.
const maxBindParams = 65535

// CommitError reports a failed commit. Nothing from the call was persisted.
type CommitError struct {
	Op    string
	Table string
	Err   error
}

func (e *CommitError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("commit %s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("commit %s: %v", e.Op, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

var (
	swapColumns = []string{
		"id", "amount_in", "amount_out", "atob", "pool", "partner",
		"ref_amount", "fee_amount", "vault_a_amount", "vault_b_amount",
		"before_sqrt_price", "after_sqrt_price", "steps",
	}
	liquidityColumns = []string{
		"id", "liquidity", "after_liquidity", "pool", "position",
		"tick_lower", "tick_upper", "amount_a", "amount_b",
	}
)

// upsert is the pending write for one table.
type upsert struct {
	table   string
	columns []string
	rows    [][]any
}

// Commit writes all three batches in one transaction. Existing rows keep
// their id and take the new values of every other column. Empty batches
// never touch the database.
func (s *Store) Commit(ctx context.Context, batches model.Batches) (err error) {
	if batches.Empty() {
		return nil
	}

	start := time.Now()
	defer func() {
		s.metrics.CommitDone(err, time.Since(start).Seconds())
	}()

	upserts := []upsert{
		{table: storage.SwapTable, columns: swapColumns, rows: swapRows(batches.Swaps)},
		{table: storage.AddLiquidityTable, columns: liquidityColumns, rows: liquidityRows(batches.AddLiquidity)},
		{table: storage.RemoveLiquidityTable, columns: liquidityColumns, rows: liquidityRows(batches.RemoveLiquidity)},
	}

	batch := &pgx.Batch{}
	var tables []string
	for _, u := range upserts {
		for _, stmt := range u.statements(s.chunkSize) {
			batch.Queue(stmt.sql, stmt.args...)
			tables = append(tables, u.table)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &CommitError{Op: "begin", Err: err}
	}
	// Rollback is a no-op once the transaction has committed.
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	br := tx.SendBatch(ctx, batch)
	for _, table := range tables {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return &CommitError{Op: "upsert", Table: table, Err: err}
		}
	}
	if err := br.Close(); err != nil {
		return &CommitError{Op: "upsert", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &CommitError{Op: "commit", Err: err}
	}

	for _, u := range upserts {
		s.metrics.Upserted(u.table, len(u.rows))
	}
	s.logger.Debug("batches committed",
		zap.Int("swaps", len(batches.Swaps)),
		zap.Int("add_liquidity", len(batches.AddLiquidity)),
		zap.Int("remove_liquidity", len(batches.RemoveLiquidity)),
	)
	return nil
}

type statement struct {
	sql  string
	args []any
}

// statements renders multi-row upserts of at most chunkSize rows each.
// Rows sharing an id collapse to the last one, since a single INSERT may not
// touch the same row twice.
func (u upsert) statements(chunkSize int) []statement {
	rows := dedupeByID(u.rows)
	if len(rows) == 0 {
		return nil
	}
	if limit := maxBindParams / len(u.columns); chunkSize <= 0 || chunkSize > limit {
		chunkSize = limit
	}

	var updates []string
	for _, col := range u.columns[1:] {
		updates = append(updates, col+" = EXCLUDED."+col)
	}
	head := "INSERT INTO " + u.table + " (" + strings.Join(u.columns, ", ") + ") VALUES "
	tail := " ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")

	var out []statement
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var sb strings.Builder
		sb.WriteString(head)
		args := make([]any, 0, len(chunk)*len(u.columns))
		for i, row := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for j, v := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				args = append(args, v)
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(len(args)))
			}
			sb.WriteByte(')')
		}
		sb.WriteString(tail)
		out = append(out, statement{sql: sb.String(), args: args})
	}
	return out
}

func dedupeByID(rows [][]any) [][]any {
	pos := make(map[any]int, len(rows))
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		if i, ok := pos[row[0]]; ok {
			out[i] = row
			continue
		}
		pos[row[0]] = len(out)
		out = append(out, row)
	}
	return out
}

func swapRows(events []model.SwapEvent) [][]any {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			e.ID, e.AmountIn, e.AmountOut, e.AtoB, e.Pool, e.Partner,
			e.RefAmount, e.FeeAmount, e.VaultAAmount, e.VaultBAmount,
			e.BeforeSqrtPrice, e.AfterSqrtPrice, e.Steps,
		})
	}
	return rows
}

func liquidityRows(events []model.LiquidityEvent) [][]any {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{
			e.ID, e.Liquidity, e.AfterLiquidity, e.Pool, e.Position,
			e.TickLower, e.TickUpper, e.AmountA, e.AmountB,
		})
	}
	return rows
}
