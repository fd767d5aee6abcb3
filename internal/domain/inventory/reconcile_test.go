package inventory_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var (
	testDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	testNow  = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func corks(stock string) *entity.InventoryItem {
	return &entity.InventoryItem{ID: "corks", Name: "Corks", UOM: "ud", Stock: dec(stock)}
}

func line(itemID, qty, total string) entity.PurchaseLine {
	return entity.PurchaseLine{InventoryItemID: itemID, Quantity: dec(qty), TotalCost: dec(total)}
}

func receipt(t *testing.T, item *entity.InventoryItem, lines ...entity.PurchaseLine) *inventory.Plan {
	t.Helper()
	plan, err := inventory.Reconcile(inventory.ReconcileInput{
		PurchaseID: "p1",
		Date:       testDate,
		New:        lines,
		Items:      map[string]*entity.InventoryItem{item.ID: item},
		NewID:      seqIDs(),
		Now:        testNow,
	})
	require.NoError(t, err)
	return plan
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta
// ──────────────────────────────────────────────────────────────────────────────

// Corks 1000 ud por 150 € → un lote a 0.15 y un asiento +1000.
func TestReconcile_RecepcionSimple(t *testing.T) {
	plan := receipt(t, corks("0"), line("corks", "1000", "150.00"))

	require.Len(t, plan.NewBatches, 1)
	b := plan.NewBatches[0]
	assert.True(t, b.QtyInitial.Equal(dec("1000")))
	assert.True(t, b.QtyRemaining.Equal(dec("1000")))
	assert.True(t, b.UnitCost.Equal(dec("0.15")), "costo unitario = total / cantidad")
	assert.Equal(t, entity.QCPending, b.QCStatus)
	assert.Equal(t, "LOT-20240315-ID001", b.InternalBatchCode)

	require.Len(t, plan.Txns, 1)
	txn := plan.Txns[0]
	assert.True(t, txn.QtyDelta.Equal(dec("1000")))
	assert.True(t, txn.NewStock.Equal(dec("1000")))
	assert.Equal(t, entity.TxnTypeReception, txn.TxnType)
	assert.Equal(t, entity.RefPurchases, txn.RefCollection)
	assert.Equal(t, "p1", txn.RefID)
	assert.Equal(t, b.ID, txn.BatchID)

	require.Len(t, plan.Items, 1)
	assert.True(t, plan.Items[0].Stock.Equal(dec("1000")))
	require.NotNil(t, plan.Items[0].LatestPurchase)
	assert.True(t, plan.Items[0].LatestPurchase.UnitCost.Equal(dec("0.15")))
	assert.Equal(t, b.ID, plan.Lines[0].BatchID, "la línea guardada conserva el lote generado")
}

func TestReconcile_NoModificaLaEntrada(t *testing.T) {
	item := corks("10")
	_ = receipt(t, item, line("corks", "5", "5"))
	assert.True(t, item.Stock.Equal(dec("10")), "Reconcile trabaja sobre copias")
	assert.Nil(t, item.LatestPurchase)
}

func TestReconcile_NewStockSecuencialPorItem(t *testing.T) {
	plan := receipt(t, corks("100"), line("corks", "10", "1"), line("corks", "20", "4"))
	require.Len(t, plan.Txns, 2)
	assert.True(t, plan.Txns[0].NewStock.Equal(dec("110")))
	assert.True(t, plan.Txns[1].NewStock.Equal(dec("130")))
	assert.True(t, plan.Items[0].Stock.Equal(dec("130")))
	assert.Equal(t, plan.NewBatches[1].ID, plan.Items[0].LatestPurchase.BatchID, "la última línea gana")
}

func TestReconcile_CantidadInvalida(t *testing.T) {
	for _, qty := range []string{"0", "-5", "0.00001"} {
		_, err := inventory.Reconcile(inventory.ReconcileInput{
			PurchaseID: "p1",
			New:        []entity.PurchaseLine{line("corks", qty, "10")},
			Items:      map[string]*entity.InventoryItem{"corks": corks("0")},
			NewID:      seqIDs(),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad %s", qty)
	}
}

func TestReconcile_ItemSinResolver(t *testing.T) {
	_, err := inventory.Reconcile(inventory.ReconcileInput{
		New:   []entity.PurchaseLine{line(entity.NewItemSentinel, "1", "1")},
		NewID: seqIDs(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición y baja
// ──────────────────────────────────────────────────────────────────────────────

type stored struct {
	item    *entity.InventoryItem
	batches map[string]*entity.ItemBatch
	lines   []entity.PurchaseLine
}

func apply(plan *inventory.Plan, s *stored) {
	for _, it := range plan.Items {
		s.item = it
	}
	for _, b := range plan.NewBatches {
		s.batches[b.ID] = b
	}
	for _, b := range plan.UpdatedBatches {
		s.batches[b.ID] = b
	}
	s.lines = plan.Lines
}

func createCorks(t *testing.T) *stored {
	t.Helper()
	s := &stored{batches: map[string]*entity.ItemBatch{}}
	apply(receipt(t, corks("0"), line("corks", "1000", "150.00")), s)
	return s
}

func edit(s *stored, newLines []entity.PurchaseLine) (*inventory.Plan, error) {
	return inventory.Reconcile(inventory.ReconcileInput{
		PurchaseID: "p1",
		Date:       testDate,
		Old:        s.lines,
		New:        newLines,
		Batches:    s.batches,
		Items:      map[string]*entity.InventoryItem{"corks": s.item},
		NewID:      seqIDs(),
		Now:        testNow,
	})
}

// 1000 → 800 sin consumo: un asiento -200 y stock -200.
func TestReconcile_CorreccionDeCantidad(t *testing.T) {
	s := createCorks(t)
	l := s.lines[0]
	l.Quantity = dec("800")
	l.TotalCost = dec("120.00")

	plan, err := edit(s, []entity.PurchaseLine{l})
	require.NoError(t, err)

	assert.Empty(t, plan.NewBatches, "misma línea, mismo lote")
	require.Len(t, plan.UpdatedBatches, 1)
	assert.True(t, plan.UpdatedBatches[0].QtyRemaining.Equal(dec("800")))
	assert.True(t, plan.UpdatedBatches[0].UnitCost.Equal(dec("0.15")))
	require.Len(t, plan.Txns, 1)
	assert.True(t, plan.Txns[0].QtyDelta.Equal(dec("-200")))
	assert.True(t, plan.Items[0].Stock.Equal(dec("800")))
}

func TestReconcile_LineaSinCambiosNoEscribeAsiento(t *testing.T) {
	s := createCorks(t)
	plan, err := edit(s, s.lines)
	require.NoError(t, err)
	assert.Empty(t, plan.Txns)
	assert.Empty(t, plan.NewBatches)
	assert.Empty(t, plan.UpdatedBatches)
}

func TestReconcile_CambioSoloDeCostoEscribeAsientoCero(t *testing.T) {
	s := createCorks(t)
	l := s.lines[0]
	l.TotalCost = dec("200.00")

	plan, err := edit(s, []entity.PurchaseLine{l})
	require.NoError(t, err)
	require.Len(t, plan.Txns, 1)
	assert.True(t, plan.Txns[0].QtyDelta.IsZero())
	assert.True(t, plan.Txns[0].UnitCost.Equal(dec("0.2")))
	assert.True(t, plan.UpdatedBatches[0].UnitCost.Equal(dec("0.2")))
	assert.True(t, plan.Items[0].LatestPurchase.UnitCost.Equal(dec("0.2")))
}

// El costo releído del almacén (NUMERIC de 6 decimales) coincide con el calculado.
func TestReconcile_CostoReleidoDelAlmacenNoCambia(t *testing.T) {
	s := &stored{batches: map[string]*entity.ItemBatch{}}
	apply(receipt(t, corks("0"), line("corks", "3", "100")), s)
	for _, b := range s.batches {
		assert.Equal(t, "33.333333", b.UnitCost.String())
		b.UnitCost = dec("33.333333")
	}
	s.item.LatestPurchase.UnitCost = dec("33.333333")

	plan, err := edit(s, s.lines)
	require.NoError(t, err)
	assert.True(t, plan.Empty(), "txns=%d lotes=%d", len(plan.Txns), len(plan.UpdatedBatches))
}

func TestReconcile_BajaRestauraLaRecepcionAnterior(t *testing.T) {
	s := createCorks(t)
	prev := &entity.LatestPurchase{
		PurchaseID:  "p0",
		BatchID:     "b0",
		BatchNumber: "LOT-20240201-B0",
		Quantity:    dec("500"),
		TotalCost:   dec("60"),
		UnitCost:    dec("0.12"),
		Date:        testDate.AddDate(0, -1, 0),
	}
	plan, err := inventory.Reconcile(inventory.ReconcileInput{
		PurchaseID: "p1",
		Date:       testDate,
		Old:        s.lines,
		Batches:    s.batches,
		Items:      map[string]*entity.InventoryItem{"corks": s.item},
		Previous:   map[string]*entity.LatestPurchase{"corks": prev},
		NewID:      seqIDs(),
		Now:        testNow,
	})
	require.NoError(t, err)
	got := plan.Items[0].LatestPurchase
	require.NotNil(t, got)
	assert.True(t, prev.Equal(got))
	assert.NotSame(t, prev, got, "el plan no comparte la instantánea de entrada")
}

// Una compra más reciente de otro documento no se pisa al revertir esta.
func TestReconcile_BajaNoTocaInstantaneaAjena(t *testing.T) {
	s := createCorks(t)
	other := &entity.LatestPurchase{PurchaseID: "p9", BatchID: "b9", UnitCost: dec("0.3"), Date: testDate.AddDate(0, 1, 0)}
	s.item.LatestPurchase = other

	plan, err := edit(s, nil)
	require.NoError(t, err)
	assert.True(t, other.Equal(plan.Items[0].LatestPurchase))
}

func TestReconcile_BajaSinConsumoCierraElLote(t *testing.T) {
	s := createCorks(t)
	plan, err := edit(s, nil)
	require.NoError(t, err)

	require.Len(t, plan.UpdatedBatches, 1)
	b := plan.UpdatedBatches[0]
	assert.True(t, b.IsClosed)
	assert.True(t, b.QtyRemaining.IsZero())
	require.Len(t, plan.Txns, 1)
	assert.True(t, plan.Txns[0].QtyDelta.Equal(dec("-1000")))
	assert.True(t, plan.Items[0].Stock.IsZero())
	assert.Nil(t, plan.Items[0].LatestPurchase, "la instantánea apuntaba al lote retirado")
}

// Tras consumir 300 de 1000, borrar la compra se rechaza.
func TestReconcile_BajaConConsumoSeRechaza(t *testing.T) {
	s := createCorks(t)
	for _, b := range s.batches {
		b.QtyRemaining = dec("700")
	}
	s.item.Stock = dec("700")

	_, err := edit(s, nil)
	assert.ErrorIs(t, err, domain.ErrBatchConsumed)
}

func TestReconcile_ReduccionPorDebajoDeLoConsumido(t *testing.T) {
	s := createCorks(t)
	for _, b := range s.batches {
		b.QtyRemaining = dec("700")
	}
	s.item.Stock = dec("700")

	l := s.lines[0]
	l.Quantity = dec("250")
	_, err := edit(s, []entity.PurchaseLine{l})
	assert.ErrorIs(t, err, domain.ErrBatchConsumed)

	l.Quantity = dec("300")
	plan, err := edit(s, []entity.PurchaseLine{l})
	require.NoError(t, err, "reducir hasta lo consumido está permitido")
	assert.True(t, plan.UpdatedBatches[0].QtyRemaining.IsZero())
	assert.True(t, plan.Items[0].Stock.IsZero())
}

func TestReconcile_LoteFaltanteAbortaElPlan(t *testing.T) {
	s := createCorks(t)
	s.batches = map[string]*entity.ItemBatch{}
	_, err := edit(s, nil)
	assert.ErrorIs(t, err, domain.ErrMissingBatch)
}

func TestReconcile_LoteAjenoALaCompra(t *testing.T) {
	s := createCorks(t)
	l := line("corks", "1", "1")
	l.BatchID = "otro-lote"
	_, err := edit(s, []entity.PurchaseLine{l})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconcile_CambioDeItemEsBajaMasAlta(t *testing.T) {
	s := createCorks(t)
	capsules := &entity.InventoryItem{ID: "caps", Name: "Cápsulas", Stock: dec("0")}
	l := s.lines[0]
	l.InventoryItemID = "caps"

	plan, err := inventory.Reconcile(inventory.ReconcileInput{
		PurchaseID: "p1",
		Date:       testDate,
		Old:        s.lines,
		New:        []entity.PurchaseLine{l},
		Batches:    s.batches,
		Items:      map[string]*entity.InventoryItem{"corks": s.item, "caps": capsules},
		NewID:      seqIDs(),
		Now:        testNow,
	})
	require.NoError(t, err)
	require.Len(t, plan.NewBatches, 1)
	assert.Equal(t, "caps", plan.NewBatches[0].InventoryItemID)
	require.Len(t, plan.Txns, 2)
	assert.True(t, plan.Txns[0].QtyDelta.Equal(dec("-1000")))
	assert.True(t, plan.Txns[1].QtyDelta.Equal(dec("1000")))
	assert.NotEqual(t, s.lines[0].BatchID, plan.Lines[0].BatchID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de costo promedio
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_PromedioPonderado(t *testing.T) {
	item := corks("100")
	item.AverageCost = dec("0.10")
	plan, err := inventory.Reconcile(inventory.ReconcileInput{
		PurchaseID: "p2",
		Date:       testDate,
		New:        []entity.PurchaseLine{line("corks", "100", "20")},
		Items:      map[string]*entity.InventoryItem{"corks": item},
		Policy:     inventory.MovingAverage{},
		NewID:      seqIDs(),
		Now:        testNow,
	})
	require.NoError(t, err)
	assert.True(t, plan.Items[0].AverageCost.Equal(dec("0.15")), "(100*0.10 + 100*0.20) / 200")
	assert.True(t, plan.NewBatches[0].UnitCost.Equal(dec("0.2")), "el lote conserva su costo")
}
