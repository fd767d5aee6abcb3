package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockTxnRepository = (*StockTxnRepo)(nil)

var txnColumns = []string{
	"id", "inventory_item_id", "batch_id", "date", "qty_delta", "new_stock", "unit_cost",
	"ref_collection", "ref_id", "txn_type", "notes", "created_by", "created_at",
}

type txnRow struct {
	ID              string          `db:"id"`
	InventoryItemID string          `db:"inventory_item_id"`
	BatchID         string          `db:"batch_id"`
	Date            time.Time       `db:"date"`
	QtyDelta        decimal.Decimal `db:"qty_delta"`
	NewStock        decimal.Decimal `db:"new_stock"`
	UnitCost        decimal.Decimal `db:"unit_cost"`
	RefCollection   string          `db:"ref_collection"`
	RefID           string          `db:"ref_id"`
	TxnType         string          `db:"txn_type"`
	Notes           string          `db:"notes"`
	CreatedBy       string          `db:"created_by"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r txnRow) toEntity() *entity.StockTxn {
	t := entity.StockTxn(r)
	return &t
}

// StockTxnRepo libro de stock sobre PostgreSQL: solo INSERT y SELECT.
type StockTxnRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewStockTxnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTxnRepository(q Querier) *StockTxnRepo {
	return &StockTxnRepo{q: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Append inserta los asientos en una sola sentencia, en el orden recibido.
func (r *StockTxnRepo) Append(ctx context.Context, txns ...*entity.StockTxn) error {
	if len(txns) == 0 {
		return nil
	}
	q := r.builder.Insert("stock_txns").Columns(txnColumns...)
	for _, t := range txns {
		q = q.Values(t.ID, t.InventoryItemID, t.BatchID, t.Date, t.QtyDelta, t.NewStock, t.UnitCost,
			t.RefCollection, t.RefID, t.TxnType, t.Notes, t.CreatedBy, t.CreatedAt)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append stock txns: %w", mapWriteErr(err))
	}
	return nil
}

// ListByItem asientos del ítem, más recientes primero.
func (r *StockTxnRepo) ListByItem(ctx context.Context, itemID string, f repository.StockTxnFilter) ([]*entity.StockTxn, error) {
	q := r.builder.Select(txnColumns...).
		From("stock_txns").
		Where(squirrel.Eq{"inventory_item_id": itemID}).
		OrderBy("date DESC", "seq DESC")
	if f.TxnType != "" {
		q = q.Where(squirrel.Eq{"txn_type": f.TxnType})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return r.selectTxns(ctx, q)
}

// ListByRef asientos de un documento de origen en orden de inserción.
func (r *StockTxnRepo) ListByRef(ctx context.Context, refCollection, refID string) ([]*entity.StockTxn, error) {
	q := r.builder.Select(txnColumns...).
		From("stock_txns").
		Where(squirrel.Eq{"ref_collection": refCollection, "ref_id": refID}).
		OrderBy("seq")
	return r.selectTxns(ctx, q)
}

func (r *StockTxnRepo) SumByItem(ctx context.Context, itemID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(qty_delta), 0) FROM stock_txns WHERE inventory_item_id = $1`, itemID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum stock txns: %w", err)
	}
	return sum, nil
}

func (r *StockTxnRepo) selectTxns(ctx context.Context, q squirrel.SelectBuilder) ([]*entity.StockTxn, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rows []txnRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list stock txns: %w", err)
	}
	out := make([]*entity.StockTxn, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
