// Package memory almacén en memoria del libro de stock (desarrollo local y tests).
// Las transacciones trabajan sobre una copia del estado y la publican solo al confirmar,
// serializadas por un único mutex.
package memory

import (
	"context"
	"sync"

	appinv "github.com/jhoicas/bodega-erp/internal/application/inventory"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
)

var _ appinv.TxRunner = (*Store)(nil)

type state struct {
	items     map[string]*entity.InventoryItem
	batches   map[string]*entity.ItemBatch
	txns      []*entity.StockTxn
	purchases map[string]*entity.Purchase
	suppliers map[string]*entity.Supplier
}

func newState() *state {
	return &state{
		items:     map[string]*entity.InventoryItem{},
		batches:   map[string]*entity.ItemBatch{},
		purchases: map[string]*entity.Purchase{},
		suppliers: map[string]*entity.Supplier{},
	}
}

// clone copia profunda; los asientos son inmutables y se comparten.
func (s *state) clone() *state {
	c := newState()
	for id, it := range s.items {
		c.items[id] = it.Clone()
	}
	for id, b := range s.batches {
		c.batches[id] = b.Clone()
	}
	c.txns = append(make([]*entity.StockTxn, 0, len(s.txns)), s.txns...)
	for id, p := range s.purchases {
		c.purchases[id] = p.Clone()
	}
	for id, sp := range s.suppliers {
		cp := *sp
		c.suppliers[id] = &cp
	}
	return c
}

// Store estado compartido. Implementa TxRunner.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn sobre una copia del estado; si fn no falla, la copia pasa a ser el estado.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos appinv.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, reposFor(handle{tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repos repositorios fuera de transacción (lecturas y altas de catálogo).
func (s *Store) Repos() appinv.Repos {
	return reposFor(handle{store: s})
}

func reposFor(h handle) appinv.Repos {
	return appinv.Repos{
		Items:     &ItemRepo{h: h},
		Batches:   &BatchRepo{h: h},
		Txns:      &TxnRepo{h: h},
		Purchases: &PurchaseRepo{h: h},
		Suppliers: &SupplierRepo{h: h},
	}
}

// handle acceso al estado: el de la transacción en curso (ya bajo Lock) o el compartido.
type handle struct {
	store *Store
	tx    *state
}

func (h handle) read(fn func(st *state)) {
	if h.tx != nil {
		fn(h.tx)
		return
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	fn(h.store.st)
}

func (h handle) write(fn func(st *state) error) error {
	if h.tx != nil {
		return fn(h.tx)
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return fn(h.store.st)
}
