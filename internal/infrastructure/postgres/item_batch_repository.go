package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ItemBatchRepository = (*ItemBatchRepo)(nil)

const batchColumns = `id, inventory_item_id, supplier_batch_code, internal_batch_code, qty_initial, qty_remaining,
	unit_cost, expiry_date, qc_status, is_closed, source_collection, source_id, created_at, updated_at`

// batchRow fila de item_batches tal como la escanea pgxscan.
type batchRow struct {
	ID                string          `db:"id"`
	InventoryItemID   string          `db:"inventory_item_id"`
	SupplierBatchCode string          `db:"supplier_batch_code"`
	InternalBatchCode string          `db:"internal_batch_code"`
	QtyInitial        decimal.Decimal `db:"qty_initial"`
	QtyRemaining      decimal.Decimal `db:"qty_remaining"`
	UnitCost          decimal.Decimal `db:"unit_cost"`
	ExpiryDate        *time.Time      `db:"expiry_date"`
	QCStatus          string          `db:"qc_status"`
	IsClosed          bool            `db:"is_closed"`
	SourceCollection  string          `db:"source_collection"`
	SourceID          string          `db:"source_id"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r batchRow) toEntity() *entity.ItemBatch {
	return &entity.ItemBatch{
		ID:                r.ID,
		InventoryItemID:   r.InventoryItemID,
		SupplierBatchCode: r.SupplierBatchCode,
		InternalBatchCode: r.InternalBatchCode,
		QtyInitial:        r.QtyInitial,
		QtyRemaining:      r.QtyRemaining,
		UnitCost:          r.UnitCost,
		ExpiryDate:        r.ExpiryDate,
		QCStatus:          r.QCStatus,
		IsClosed:          r.IsClosed,
		SourceCollection:  r.SourceCollection,
		SourceID:          r.SourceID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ItemBatchRepo lotes sobre PostgreSQL. El CHECK de la tabla garantiza 0 <= restante <= inicial.
type ItemBatchRepo struct {
	q Querier
}

// NewItemBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemBatchRepository(q Querier) *ItemBatchRepo {
	return &ItemBatchRepo{q: q}
}

func (r *ItemBatchRepo) Create(ctx context.Context, b *entity.ItemBatch) error {
	query := `
		INSERT INTO item_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.InventoryItemID, b.SupplierBatchCode, b.InternalBatchCode, b.QtyInitial, b.QtyRemaining,
		b.UnitCost, b.ExpiryDate, b.QCStatus, b.IsClosed, b.SourceCollection, b.SourceID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create item batch %s: %w", b.ID, mapWriteErr(err))
	}
	return nil
}

func (r *ItemBatchRepo) Update(ctx context.Context, b *entity.ItemBatch) error {
	query := `
		UPDATE item_batches SET supplier_batch_code = $2, internal_batch_code = $3, qty_initial = $4,
			qty_remaining = $5, unit_cost = $6, expiry_date = $7, qc_status = $8, is_closed = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		b.ID, b.SupplierBatchCode, b.InternalBatchCode, b.QtyInitial,
		b.QtyRemaining, b.UnitCost, b.ExpiryDate, b.QCStatus, b.IsClosed, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item batch %s: %w", b.ID, mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", b.ID, domain.ErrMissingBatch)
	}
	return nil
}

// GetByID obtiene un lote; nil si no existe.
func (r *ItemBatchRepo) GetByID(ctx context.Context, id string) (*entity.ItemBatch, error) {
	var row batchRow
	err := pgxscan.Get(ctx, r.q, &row, `SELECT `+batchColumns+` FROM item_batches WHERE id = $1`, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item batch: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ItemBatchRepo) GetByIDsForUpdate(ctx context.Context, ids []string) (map[string]*entity.ItemBatch, error) {
	out := make(map[string]*entity.ItemBatch, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []batchRow
	query := `SELECT ` + batchColumns + ` FROM item_batches WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`
	if err := pgxscan.Select(ctx, r.q, &rows, query, ids); err != nil {
		return nil, fmt.Errorf("lock item batches: %w", mapWriteErr(err))
	}
	for _, row := range rows {
		out[row.ID] = row.toEntity()
	}
	return out, nil
}

// ListByItem lotes del ítem en orden de recepción.
func (r *ItemBatchRepo) ListByItem(ctx context.Context, itemID string, openOnly bool) ([]*entity.ItemBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM item_batches WHERE inventory_item_id = $1`
	if openOnly {
		query += ` AND NOT is_closed AND qty_remaining > 0`
	}
	query += ` ORDER BY created_at, id`
	return r.selectBatches(ctx, query, itemID)
}

// ListByItemForUpdate lotes abiertos del ítem, bloqueados hasta el fin de la transacción.
func (r *ItemBatchRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.ItemBatch, error) {
	query := `
		SELECT ` + batchColumns + ` FROM item_batches
		WHERE inventory_item_id = $1 AND NOT is_closed AND qty_remaining > 0
		ORDER BY created_at, id
		FOR UPDATE`
	return r.selectBatches(ctx, query, itemID)
}

func (r *ItemBatchRepo) selectBatches(ctx context.Context, query string, args ...any) ([]*entity.ItemBatch, error) {
	var rows []batchRow
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list item batches: %w", mapWriteErr(err))
	}
	out := make([]*entity.ItemBatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
