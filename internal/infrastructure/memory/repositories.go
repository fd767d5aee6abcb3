package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.InventoryItemRepository = (*ItemRepo)(nil)
	_ repository.ItemBatchRepository     = (*BatchRepo)(nil)
	_ repository.StockTxnRepository      = (*TxnRepo)(nil)
	_ repository.PurchaseRepository      = (*PurchaseRepo)(nil)
	_ repository.SupplierRepository      = (*SupplierRepo)(nil)
)

// ItemRepo ítems en memoria. Entrega y guarda copias.
type ItemRepo struct{ h handle }

func (r *ItemRepo) Create(_ context.Context, item *entity.InventoryItem) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return fmt.Errorf("ítem %s: %w", item.ID, domain.ErrDuplicate)
		}
		st.items[item.ID] = item.Clone()
		return nil
	})
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	var out *entity.InventoryItem
	r.h.read(func(st *state) {
		if it, ok := st.items[id]; ok {
			out = it.Clone()
		}
	})
	return out, nil
}

func (r *ItemRepo) GetByIDsForUpdate(_ context.Context, ids []string) (map[string]*entity.InventoryItem, error) {
	out := make(map[string]*entity.InventoryItem, len(ids))
	r.h.read(func(st *state) {
		for _, id := range ids {
			if it, ok := st.items[id]; ok {
				out[id] = it.Clone()
			}
		}
	})
	return out, nil
}

func (r *ItemRepo) Update(_ context.Context, item *entity.InventoryItem) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.items[item.ID]; !ok {
			return fmt.Errorf("ítem %s: %w", item.ID, domain.ErrNotFound)
		}
		st.items[item.ID] = item.Clone()
		return nil
	})
}

func (r *ItemRepo) List(_ context.Context, limit, offset int) ([]*entity.InventoryItem, error) {
	var all []*entity.InventoryItem
	r.h.read(func(st *state) {
		for _, it := range st.items {
			all = append(all, it.Clone())
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), nil
}

func (r *ItemRepo) BelowSafetyStock(_ context.Context) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	r.h.read(func(st *state) {
		for _, it := range st.items {
			if it.Stock.LessThan(it.SafetyStock) {
				out = append(out, it.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].SafetyStock.Sub(out[i].Stock).GreaterThan(out[j].SafetyStock.Sub(out[j].Stock))
	})
	return out, nil
}

// BatchRepo lotes en memoria.
type BatchRepo struct{ h handle }

func (r *BatchRepo) Create(_ context.Context, b *entity.ItemBatch) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.batches[b.ID]; ok {
			return fmt.Errorf("lote %s: %w", b.ID, domain.ErrDuplicate)
		}
		if err := checkBounds(b); err != nil {
			return err
		}
		st.batches[b.ID] = b.Clone()
		return nil
	})
}

func (r *BatchRepo) Update(_ context.Context, b *entity.ItemBatch) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.batches[b.ID]; !ok {
			return fmt.Errorf("lote %s: %w", b.ID, domain.ErrMissingBatch)
		}
		if err := checkBounds(b); err != nil {
			return err
		}
		st.batches[b.ID] = b.Clone()
		return nil
	})
}

// checkBounds equivale al CHECK de la tabla item_batches.
func checkBounds(b *entity.ItemBatch) error {
	if b.QtyRemaining.IsNegative() || b.QtyRemaining.GreaterThan(b.QtyInitial) {
		return fmt.Errorf("lote %s fuera de rango (%s/%s): %w", b.ID, b.QtyRemaining, b.QtyInitial, domain.ErrConflict)
	}
	return nil
}

func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.ItemBatch, error) {
	var out *entity.ItemBatch
	r.h.read(func(st *state) {
		if b, ok := st.batches[id]; ok {
			out = b.Clone()
		}
	})
	return out, nil
}

func (r *BatchRepo) GetByIDsForUpdate(_ context.Context, ids []string) (map[string]*entity.ItemBatch, error) {
	out := make(map[string]*entity.ItemBatch, len(ids))
	r.h.read(func(st *state) {
		for _, id := range ids {
			if b, ok := st.batches[id]; ok {
				out[id] = b.Clone()
			}
		}
	})
	return out, nil
}

func (r *BatchRepo) ListByItem(_ context.Context, itemID string, openOnly bool) ([]*entity.ItemBatch, error) {
	var out []*entity.ItemBatch
	r.h.read(func(st *state) {
		for _, b := range st.batches {
			if b.InventoryItemID != itemID || (openOnly && b.Depleted()) {
				continue
			}
			out = append(out, b.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *BatchRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.ItemBatch, error) {
	return r.ListByItem(ctx, itemID, true)
}

// TxnRepo libro en memoria: solo se agrega.
type TxnRepo struct{ h handle }

func (r *TxnRepo) Append(_ context.Context, txns ...*entity.StockTxn) error {
	return r.h.write(func(st *state) error {
		for _, t := range txns {
			if _, ok := st.batches[t.BatchID]; !ok {
				return fmt.Errorf("asiento sobre lote %s: %w", t.BatchID, domain.ErrMissingBatch)
			}
			c := *t
			st.txns = append(st.txns, &c)
		}
		return nil
	})
}

func (r *TxnRepo) ListByItem(_ context.Context, itemID string, f repository.StockTxnFilter) ([]*entity.StockTxn, error) {
	var out []*entity.StockTxn
	r.h.read(func(st *state) {
		for i := len(st.txns) - 1; i >= 0; i-- {
			t := st.txns[i]
			if t.InventoryItemID != itemID {
				continue
			}
			if f.TxnType != "" && t.TxnType != f.TxnType {
				continue
			}
			if f.From != nil && t.Date.Before(*f.From) {
				continue
			}
			if f.To != nil && t.Date.After(*f.To) {
				continue
			}
			c := *t
			out = append(out, &c)
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return page(out, f.Limit, f.Offset), nil
}

func (r *TxnRepo) ListByRef(_ context.Context, refCollection, refID string) ([]*entity.StockTxn, error) {
	var out []*entity.StockTxn
	r.h.read(func(st *state) {
		for _, t := range st.txns {
			if t.RefCollection == refCollection && t.RefID == refID {
				c := *t
				out = append(out, &c)
			}
		}
	})
	return out, nil
}

func (r *TxnRepo) SumByItem(_ context.Context, itemID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.h.read(func(st *state) {
		for _, t := range st.txns {
			if t.InventoryItemID == itemID {
				sum = sum.Add(t.QtyDelta)
			}
		}
	})
	return sum, nil
}

// PurchaseRepo compras en memoria.
type PurchaseRepo struct{ h handle }

func (r *PurchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.purchases[p.ID]; ok {
			return fmt.Errorf("compra %s: %w", p.ID, domain.ErrDuplicate)
		}
		st.purchases[p.ID] = p.Clone()
		return nil
	})
}

func (r *PurchaseRepo) GetByID(_ context.Context, id string) (*entity.Purchase, error) {
	var out *entity.Purchase
	r.h.read(func(st *state) {
		if p, ok := st.purchases[id]; ok {
			out = p.Clone()
		}
	})
	return out, nil
}

func (r *PurchaseRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.GetByID(ctx, id)
}

func (r *PurchaseRepo) Update(_ context.Context, p *entity.Purchase) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.purchases[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.purchases[p.ID] = p.Clone()
		return nil
	})
}

func (r *PurchaseRepo) Delete(_ context.Context, id string) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.purchases[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.purchases, id)
		return nil
	})
}

func (r *PurchaseRepo) LatestWithItem(_ context.Context, itemID, excludeID string) (*entity.Purchase, error) {
	var out *entity.Purchase
	r.h.read(func(st *state) {
		for _, p := range st.purchases {
			if p.ID == excludeID || !p.HasItem(itemID) {
				continue
			}
			if out == nil || p.OrderDate.After(out.OrderDate) ||
				(p.OrderDate.Equal(out.OrderDate) && p.CreatedAt.After(out.CreatedAt)) {
				out = p
			}
		}
		if out != nil {
			out = out.Clone()
		}
	})
	return out, nil
}

func (r *PurchaseRepo) List(_ context.Context, f repository.PurchaseFilter) ([]*entity.Purchase, error) {
	var out []*entity.Purchase
	r.h.read(func(st *state) {
		for _, p := range st.purchases {
			if f.SupplierID != "" && p.SupplierID != f.SupplierID {
				continue
			}
			if f.From != nil && p.OrderDate.Before(*f.From) {
				continue
			}
			if f.To != nil && p.OrderDate.After(*f.To) {
				continue
			}
			out = append(out, p.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

// SupplierRepo proveedores en memoria; NameKey es único.
type SupplierRepo struct{ h handle }

func (r *SupplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	return r.h.write(func(st *state) error {
		for _, e := range st.suppliers {
			if e.NameKey == s.NameKey {
				return fmt.Errorf("proveedor %q: %w", s.Name, domain.ErrDuplicate)
			}
		}
		c := *s
		st.suppliers[s.ID] = &c
		return nil
	})
}

func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	r.h.read(func(st *state) {
		if s, ok := st.suppliers[id]; ok {
			c := *s
			out = &c
		}
	})
	return out, nil
}

func (r *SupplierRepo) FindByNameKey(_ context.Context, nameKey string) (*entity.Supplier, error) {
	var out *entity.Supplier
	r.h.read(func(st *state) {
		for _, s := range st.suppliers {
			if s.NameKey == nameKey {
				c := *s
				out = &c
				return
			}
		}
	})
	return out, nil
}

func (r *SupplierRepo) Update(_ context.Context, s *entity.Supplier) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.suppliers[s.ID]; !ok {
			return domain.ErrNotFound
		}
		c := *s
		st.suppliers[s.ID] = &c
		return nil
	})
}

func (r *SupplierRepo) List(_ context.Context, limit, offset int) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	r.h.read(func(st *state) {
		for _, s := range st.suppliers {
			c := *s
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
