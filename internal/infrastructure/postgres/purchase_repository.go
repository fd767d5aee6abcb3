package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

var purchaseColumns = []string{
	"id", "supplier_id", "supplier_name", "order_date", "invoice_number", "invoice_date",
	"invoice", "lines", "notes", "total_cost", "created_by", "created_at", "updated_at",
}

// PurchaseRepo compras sobre PostgreSQL. Líneas y adjunto se guardan como JSONB.
type PurchaseRepo struct {
	q       Querier
	builder squirrel.StatementBuilderType
}

// NewPurchaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	lines, invoice, err := encodePurchaseJSON(p)
	if err != nil {
		return err
	}
	sql, args, err := r.builder.Insert("purchases").Columns(purchaseColumns...).
		Values(p.ID, p.SupplierID, p.SupplierName, p.OrderDate, p.InvoiceNumber, p.InvoiceDate,
			invoice, lines, p.Notes, p.TotalCost, p.CreatedBy, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("create purchase: %w", mapWriteErr(err))
	}
	return nil
}

// GetByID obtiene una compra; nil si no existe.
func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, id, "")
}

func (r *PurchaseRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PurchaseRepo) get(ctx context.Context, id, suffix string) (*entity.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).From("purchases").Where(squirrel.Eq{"id": id})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	p, err := scanPurchase(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", mapWriteErr(err))
	}
	return p, nil
}

func (r *PurchaseRepo) Update(ctx context.Context, p *entity.Purchase) error {
	lines, invoice, err := encodePurchaseJSON(p)
	if err != nil {
		return err
	}
	sql, args, err := r.builder.Update("purchases").
		SetMap(map[string]any{
			"supplier_id":    p.SupplierID,
			"supplier_name":  p.SupplierName,
			"order_date":     p.OrderDate,
			"invoice_number": p.InvoiceNumber,
			"invoice_date":   p.InvoiceDate,
			"invoice":        invoice,
			"lines":          lines,
			"notes":          p.Notes,
			"total_cost":     p.TotalCost,
			"updated_at":     p.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LatestWithItem busca por contención JSONB sobre las líneas (índice GIN sobre lines).
func (r *PurchaseRepo) LatestWithItem(ctx context.Context, itemID, excludeID string) (*entity.Purchase, error) {
	filter, err := json.Marshal([]map[string]string{{"inventory_item_id": itemID}})
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	sql, args, err := r.builder.Select(purchaseColumns...).From("purchases").
		Where("lines @> ?::jsonb", string(filter)).
		Where(squirrel.NotEq{"id": excludeID}).
		OrderBy("order_date DESC", "created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	p, err := scanPurchase(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest purchase of %s: %w", itemID, err)
	}
	return p, nil
}

// List compras filtradas, por fecha de pedido descendente.
func (r *PurchaseRepo) List(ctx context.Context, f repository.PurchaseFilter) ([]*entity.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).From("purchases").OrderBy("order_date DESC", "created_at DESC")
	if f.SupplierID != "" {
		q = q.Where(squirrel.Eq{"supplier_id": f.SupplierID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"order_date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"order_date": *f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	var out []*entity.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	var invoice, lines []byte
	err := row.Scan(
		&p.ID, &p.SupplierID, &p.SupplierName, &p.OrderDate, &p.InvoiceNumber, &p.InvoiceDate,
		&invoice, &lines, &p.Notes, &p.TotalCost, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(invoice) > 0 {
		p.Invoice = new(entity.InvoiceFile)
		if err := json.Unmarshal(invoice, p.Invoice); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
	}
	if err := json.Unmarshal(lines, &p.Lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	return &p, nil
}

func encodePurchaseJSON(p *entity.Purchase) (lines, invoice []byte, err error) {
	ls := p.Lines
	if ls == nil {
		ls = []entity.PurchaseLine{}
	}
	if lines, err = json.Marshal(ls); err != nil {
		return nil, nil, fmt.Errorf("encode lines: %w", err)
	}
	if p.Invoice != nil {
		if invoice, err = json.Marshal(p.Invoice); err != nil {
			return nil, nil, fmt.Errorf("encode invoice: %w", err)
		}
	}
	return lines, invoice, nil
}
