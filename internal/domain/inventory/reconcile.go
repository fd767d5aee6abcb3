package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ReconcileInput estado viejo y nuevo de un documento de compra más todo lo precargado
// dentro de la transacción. Old nil = alta; New nil = baja.
type ReconcileInput struct {
	PurchaseID string
	Date       time.Time // fecha de la compra (asientos y latestPurchase)
	Old        []entity.PurchaseLine
	New        []entity.PurchaseLine
	// Batches lotes de las líneas viejas, por id.
	Batches map[string]*entity.ItemBatch
	// Items ítems de todas las líneas (viejas y nuevas), por id.
	Items map[string]*entity.InventoryItem
	// Previous última recepción de otra compra por ítem; sustituye a latestPurchase cuando
	// se revierte el lote al que apunta. Sin entrada el ítem queda sin última compra.
	Previous  map[string]*entity.LatestPurchase
	Policy    CostingPolicy
	CreatedBy string
	NewID     func() string
	Now       time.Time
}

// Plan escrituras que dejan el libro en el estado implicado por Old → New.
// Se aplica completo dentro de la misma transacción o no se aplica.
type Plan struct {
	NewBatches     []*entity.ItemBatch
	UpdatedBatches []*entity.ItemBatch
	Txns           []*entity.StockTxn
	Items          []*entity.InventoryItem
	// Lines líneas nuevas con BatchID asignado, tal como se guardan en la compra.
	Lines []entity.PurchaseLine
}

// Empty indica que el plan no escribe nada en el libro.
func (p *Plan) Empty() bool {
	return len(p.NewBatches) == 0 && len(p.UpdatedBatches) == 0 && len(p.Txns) == 0
}

type reconciler struct {
	in      ReconcileInput
	plan    *Plan
	items   map[string]*entity.InventoryItem
	batches map[string]*entity.ItemBatch
	touched map[string]bool
	updated map[string]bool
}

// Reconcile calcula lotes, asientos y agregados sin tocar almacenamiento.
// Los mapas de entrada no se modifican; el plan trabaja sobre copias.
//
// Identidad de línea: el BatchID que generó en la recepción. Una línea nueva con BatchID
// se empareja con la vieja de ese lote; sin BatchID es una recepción nueva; una línea vieja
// cuyo lote no aparece se revierte. Si cambia el ítem de una línea emparejada se trata
// como baja + alta.
//
// Nunca deja QtyRemaining negativo: revertir un lote con consumo o reducirlo por debajo
// de lo consumido devuelve ErrBatchConsumed.
func Reconcile(in ReconcileInput) (*Plan, error) {
	if in.Policy == nil {
		in.Policy = FrozenLot{}
	}
	if in.NewID == nil {
		return nil, fmt.Errorf("generador de ids requerido: %w", domain.ErrInvalidInput)
	}
	r := &reconciler{
		in:      in,
		plan:    &Plan{},
		items:   make(map[string]*entity.InventoryItem, len(in.Items)),
		batches: make(map[string]*entity.ItemBatch, len(in.Batches)),
		touched: map[string]bool{},
		updated: map[string]bool{},
	}
	for id, it := range in.Items {
		r.items[id] = it.Clone()
	}
	for id, b := range in.Batches {
		r.batches[id] = b.Clone()
	}

	oldByBatch := make(map[string]entity.PurchaseLine, len(in.Old))
	for _, l := range in.Old {
		if l.BatchID == "" {
			return nil, fmt.Errorf("línea de %s sin lote: %w", l.InventoryItemID, domain.ErrMissingBatch)
		}
		oldByBatch[l.BatchID] = l
	}

	matched := make(map[string]bool, len(in.New))
	for _, l := range in.New {
		if err := validateLine(l); err != nil {
			return nil, err
		}
		if l.BatchID == "" {
			continue
		}
		if _, ok := oldByBatch[l.BatchID]; !ok {
			return nil, fmt.Errorf("lote %s no pertenece a la compra: %w", l.BatchID, domain.ErrInvalidInput)
		}
		if matched[l.BatchID] {
			return nil, fmt.Errorf("lote %s repetido: %w", l.BatchID, domain.ErrInvalidInput)
		}
		matched[l.BatchID] = true
	}

	// 1. Reversiones: líneas viejas sin pareja o cuyo ítem cambió.
	for _, old := range in.Old {
		nl, ok := findByBatch(in.New, old.BatchID)
		if ok && nl.InventoryItemID == old.InventoryItemID {
			continue
		}
		if err := r.reverse(old); err != nil {
			return nil, err
		}
	}

	// 2. Líneas emparejadas y recepciones nuevas, en el orden del documento.
	for _, l := range in.New {
		var (
			line entity.PurchaseLine
			err  error
		)
		old, ok := oldByBatch[l.BatchID]
		if l.BatchID != "" && ok && old.InventoryItemID == l.InventoryItemID {
			line, err = r.change(old, l)
		} else {
			line, err = r.receive(l)
		}
		if err != nil {
			return nil, err
		}
		r.plan.Lines = append(r.plan.Lines, line)
		r.snapshot(line)
	}

	return r.plan, nil
}

func validateLine(l entity.PurchaseLine) error {
	if l.InventoryItemID == "" || l.IsNewItem() {
		return fmt.Errorf("línea sin ítem resuelto: %w", domain.ErrInvalidInput)
	}
	if _, err := UnitCost(l.TotalCost, l.Quantity); err != nil {
		return err
	}
	if l.QCStatus != "" && !entity.ValidQCStatus(l.QCStatus) {
		return fmt.Errorf("estado de calidad %q: %w", l.QCStatus, domain.ErrInvalidInput)
	}
	return nil
}

func findByBatch(lines []entity.PurchaseLine, batchID string) (entity.PurchaseLine, bool) {
	for _, l := range lines {
		if l.BatchID != "" && l.BatchID == batchID {
			return l, true
		}
	}
	return entity.PurchaseLine{}, false
}

func (r *reconciler) item(id string) (*entity.InventoryItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("ítem %s no precargado: %w", id, domain.ErrNotFound)
	}
	r.touch(it)
	return it, nil
}

// touch incluye el ítem en el plan una sola vez.
func (r *reconciler) touch(it *entity.InventoryItem) {
	if !r.touched[it.ID] {
		r.touched[it.ID] = true
		r.plan.Items = append(r.plan.Items, it)
	}
}

func (r *reconciler) batch(id string) (*entity.ItemBatch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, fmt.Errorf("lote %s: %w", id, domain.ErrMissingBatch)
	}
	return b, nil
}

func (r *reconciler) markUpdated(b *entity.ItemBatch) {
	b.UpdatedAt = r.in.Now
	if !r.updated[b.ID] {
		r.updated[b.ID] = true
		r.plan.UpdatedBatches = append(r.plan.UpdatedBatches, b)
	}
}

// move aplica la política de costo y luego la cantidad al agregado.
func (r *reconciler) move(it *entity.InventoryItem, qty, unitCost decimal.Decimal) {
	r.in.Policy.OnMovement(it, qty, unitCost)
	it.Stock = it.Stock.Add(qty)
	it.UpdatedAt = r.in.Now
}

func (r *reconciler) appendTxn(it *entity.InventoryItem, b *entity.ItemBatch, delta, unitCost decimal.Decimal, notes string) {
	r.plan.Txns = append(r.plan.Txns, &entity.StockTxn{
		ID:              r.in.NewID(),
		InventoryItemID: it.ID,
		BatchID:         b.ID,
		Date:            r.in.Date,
		QtyDelta:        delta,
		NewStock:        it.Stock,
		UnitCost:        unitCost,
		RefCollection:   entity.RefPurchases,
		RefID:           r.in.PurchaseID,
		TxnType:         entity.TxnTypeReception,
		Notes:           notes,
		CreatedBy:       r.in.CreatedBy,
		CreatedAt:       r.in.Now,
	})
}

func (r *reconciler) reverse(old entity.PurchaseLine) error {
	b, err := r.batch(old.BatchID)
	if err != nil {
		return err
	}
	if b.Consumed().IsPositive() {
		return fmt.Errorf("lote %s tiene %s consumido: %w", b.InternalBatchCode, b.Consumed(), domain.ErrBatchConsumed)
	}
	it, err := r.item(b.InventoryItemID)
	if err != nil {
		return err
	}
	delta := b.QtyRemaining.Neg()
	r.move(it, delta, b.UnitCost)
	b.QtyRemaining = decimal.Zero
	b.IsClosed = true
	r.markUpdated(b)
	r.appendTxn(it, b, delta, b.UnitCost, "reversión de compra")

	if it.LatestPurchase != nil && it.LatestPurchase.BatchID == b.ID {
		it.LatestPurchase = nil
		if prev := r.in.Previous[it.ID]; prev != nil {
			lp := *prev
			it.LatestPurchase = &lp
		}
	}
	return nil
}

func (r *reconciler) change(old, l entity.PurchaseLine) (entity.PurchaseLine, error) {
	b, err := r.batch(old.BatchID)
	if err != nil {
		return l, err
	}
	it, err := r.item(b.InventoryItemID)
	if err != nil {
		return l, err
	}
	unitCost, err := UnitCost(l.TotalCost, l.Quantity)
	if err != nil {
		return l, err
	}

	metaChanged := l.SupplierBatchCode != b.SupplierBatchCode || !sameDate(l.ExpiryDate, b.ExpiryDate) ||
		(l.QCStatus != "" && l.QCStatus != b.QCStatus)
	qtyChanged := !l.Quantity.Equal(b.QtyInitial)
	costChanged := !unitCost.Equal(b.UnitCost)

	if metaChanged {
		b.SupplierBatchCode = l.SupplierBatchCode
		b.ExpiryDate = l.ExpiryDate
		if l.QCStatus != "" {
			b.QCStatus = l.QCStatus
		}
		r.markUpdated(b)
	}
	l.QCStatus = b.QCStatus
	if !qtyChanged && !costChanged {
		return l, nil
	}

	consumed := b.Consumed()
	if l.Quantity.LessThan(consumed) {
		return l, fmt.Errorf("lote %s: cantidad %s menor que lo consumido %s: %w",
			b.InternalBatchCode, l.Quantity, consumed, domain.ErrBatchConsumed)
	}
	oldRemaining := b.QtyRemaining
	newRemaining := l.Quantity.Sub(consumed)
	delta := l.Quantity.Sub(b.QtyInitial)

	// Se retira lo que quedaba al costo anterior y se vuelve a entrar al costo nuevo.
	r.move(it, oldRemaining.Neg(), b.UnitCost)
	r.move(it, newRemaining, unitCost)

	b.QtyInitial = l.Quantity
	b.QtyRemaining = newRemaining
	b.UnitCost = unitCost
	r.markUpdated(b)
	r.appendTxn(it, b, delta, unitCost, "corrección de compra")
	return l, nil
}

func (r *reconciler) receive(l entity.PurchaseLine) (entity.PurchaseLine, error) {
	it, err := r.item(l.InventoryItemID)
	if err != nil {
		return l, err
	}
	unitCost, err := UnitCost(l.TotalCost, l.Quantity)
	if err != nil {
		return l, err
	}
	qc := l.QCStatus
	if qc == "" {
		qc = entity.QCPending
	}
	id := r.in.NewID()
	b := &entity.ItemBatch{
		ID:                id,
		InventoryItemID:   it.ID,
		SupplierBatchCode: l.SupplierBatchCode,
		InternalBatchCode: InternalBatchCode(r.in.Date, id),
		QtyInitial:        l.Quantity,
		QtyRemaining:      l.Quantity,
		UnitCost:          unitCost,
		ExpiryDate:        l.ExpiryDate,
		QCStatus:          qc,
		SourceCollection:  entity.RefPurchases,
		SourceID:          r.in.PurchaseID,
		CreatedAt:         r.in.Now,
		UpdatedAt:         r.in.Now,
	}
	r.batches[id] = b
	r.plan.NewBatches = append(r.plan.NewBatches, b)

	r.move(it, l.Quantity, unitCost)
	r.appendTxn(it, b, l.Quantity, unitCost, "recepción de compra")

	l.BatchID = id
	l.QCStatus = qc
	return l, nil
}

// snapshot reescribe latestPurchase salvo que el ítem ya apunte a una compra posterior.
func (r *reconciler) snapshot(l entity.PurchaseLine) {
	it := r.items[l.InventoryItemID]
	b := r.batches[l.BatchID]
	if it == nil || b == nil {
		return
	}
	lp := it.LatestPurchase
	if lp != nil && lp.PurchaseID != r.in.PurchaseID && lp.Date.After(r.in.Date) {
		return
	}
	next := Snapshot(r.in.PurchaseID, r.in.Date, l, b)
	if lp != nil && lp.Equal(next) {
		return
	}
	it.LatestPurchase = next
	it.UpdatedAt = r.in.Now
	r.touch(it)
}

// Snapshot instantánea de latestPurchase para la línea l recibida en el lote b.
func Snapshot(purchaseID string, date time.Time, l entity.PurchaseLine, b *entity.ItemBatch) *entity.LatestPurchase {
	return &entity.LatestPurchase{
		PurchaseID:  purchaseID,
		BatchID:     b.ID,
		BatchNumber: b.InternalBatchCode,
		Quantity:    l.Quantity,
		TotalCost:   l.TotalCost,
		UnitCost:    b.UnitCost,
		Date:        date,
	}
}

// InternalBatchCode código interno de lote: LOT-AAAAMMDD-XXXXXX.
func InternalBatchCode(date time.Time, batchID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(batchID, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("LOT-%s-%s", date.Format("20060102"), suffix)
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
