package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const itemColumns = `id, name, sku, category_id, uom, stock, safety_stock, average_cost, latest_purchase, created_at, updated_at`

// InventoryItemRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

// Create persiste un ítem nuevo.
func (r *InventoryItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	lp, err := marshalLatest(item.LatestPurchase)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		item.ID, item.Name, item.SKU, item.CategoryID, item.UOM,
		item.Stock, item.SafetyStock, item.AverageCost, lp, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory item: %w", mapWriteErr(err))
	}
	return nil
}

// GetByID obtiene un ítem; nil si no existe.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	it, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return it, nil
}

// GetByIDsForUpdate bloquea los ítems en orden de id para evitar interbloqueos.
func (r *InventoryItemRepo) GetByIDsForUpdate(ctx context.Context, ids []string) (map[string]*entity.InventoryItem, error) {
	out := make(map[string]*entity.InventoryItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lock inventory items: %w", mapWriteErr(err))
	}
	defer rows.Close()
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, mapWriteErr(err)
	}
	return out, nil
}

// Update persiste el ítem completo, incluidos stock y la instantánea de compra.
func (r *InventoryItemRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	lp, err := marshalLatest(item.LatestPurchase)
	if err != nil {
		return err
	}
	query := `
		UPDATE inventory_items SET name = $2, sku = $3, category_id = $4, uom = $5, stock = $6,
			safety_stock = $7, average_cost = $8, latest_purchase = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.SKU, item.CategoryID, item.UOM, item.Stock,
		item.SafetyStock, item.AverageCost, lp, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ítem %s: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

// List ítems ordenados por nombre.
func (r *InventoryItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items ORDER BY name, id LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limitOrAll(limit), max(offset, 0))
}

// BelowSafetyStock ítems bajo el umbral, mayor déficit primero.
func (r *InventoryItemRepo) BelowSafetyStock(ctx context.Context) ([]*entity.InventoryItem, error) {
	query := `
		SELECT ` + itemColumns + ` FROM inventory_items
		WHERE stock < safety_stock
		ORDER BY (safety_stock - stock) DESC, name`
	return r.list(ctx, query)
}

func (r *InventoryItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var it entity.InventoryItem
	var lp []byte
	err := row.Scan(
		&it.ID, &it.Name, &it.SKU, &it.CategoryID, &it.UOM,
		&it.Stock, &it.SafetyStock, &it.AverageCost, &lp, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(lp) > 0 {
		it.LatestPurchase = new(entity.LatestPurchase)
		if err := json.Unmarshal(lp, it.LatestPurchase); err != nil {
			return nil, fmt.Errorf("decode latest_purchase: %w", err)
		}
	}
	return &it, nil
}

func marshalLatest(lp *entity.LatestPurchase) ([]byte, error) {
	if lp == nil {
		return nil, nil
	}
	b, err := json.Marshal(lp)
	if err != nil {
		return nil, fmt.Errorf("encode latest_purchase: %w", err)
	}
	return b, nil
}
