package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/internal/application/dto"
	appinv "github.com/jhoicas/bodega-erp/internal/application/inventory"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	domaininv "github.com/jhoicas/bodega-erp/internal/domain/inventory"
	"github.com/jhoicas/bodega-erp/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func inYears(n int) *time.Time {
	t := time.Now().UTC().AddDate(n, 0, 0)
	return &t
}

func newStock(t *testing.T, policy domaininv.CostingPolicy) *appinv.StockUseCase {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	return appinv.NewStockUseCase(store, repos.Items, repos.Batches, repos.Txns, policy, nil)
}

func createItem(t *testing.T, uc *appinv.StockUseCase, name, safety string) string {
	t.Helper()
	it, err := uc.CreateItem(context.Background(), dto.CreateItemRequest{Name: name, UOM: "ud", SafetyStock: dec(safety)})
	require.NoError(t, err)
	return it.ID
}

// produce registra un lote de producción y, si release, lo libera.
func produce(t *testing.T, uc *appinv.StockUseCase, itemID, qty, cost string, expiry *time.Time, release bool) string {
	t.Helper()
	ctx := context.Background()
	b, err := uc.ReceiveProductionOutput(ctx, "u1", dto.ProductionOutputRequest{
		InventoryItemID: itemID,
		Quantity:        dec(qty),
		UnitCost:        dec(cost),
		RefID:           "of-1",
		ExpiryDate:      expiry,
	})
	require.NoError(t, err)
	if release {
		_, err = uc.SetQCStatus(ctx, b.ID, dto.QCStatusRequest{Status: entity.QCReleased})
		require.NoError(t, err)
	}
	return b.ID
}

func consumeReq(itemID, qty string) dto.ConsumeRequest {
	return dto.ConsumeRequest{InventoryItemID: itemID, Quantity: dec(qty), TxnType: entity.TxnTypeConsumption, RefID: "run-7"}
}

func requireConsistent(t *testing.T, uc *appinv.StockUseCase, itemID string) {
	t.Helper()
	chk, err := uc.VerifyLedger(context.Background(), itemID)
	require.NoError(t, err)
	assert.True(t, chk.Consistent, "stock=%s ledger=%s lotes=%s", chk.Stock, chk.LedgerSum, chk.BatchSum)
}

func TestConsume_RepartoFEFO(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")
	late := produce(t, uc, wine, "100", "2.00", inYears(3), true)
	soon := produce(t, uc, wine, "50", "1.00", inYears(1), true)

	out, err := uc.Consume(ctx, "u-prod", consumeReq(wine, "80"))
	require.NoError(t, err)

	require.Len(t, out.Batches, 2)
	assert.Equal(t, soon, out.Batches[0].BatchID, "primero el que caduca antes")
	assert.True(t, out.Batches[0].Quantity.Equal(dec("50")))
	assert.Equal(t, late, out.Batches[1].BatchID)
	assert.True(t, out.Batches[1].Quantity.Equal(dec("30")))
	assert.True(t, out.TotalCost.Equal(dec("110")), "50×1 + 30×2")
	assert.True(t, out.NewStock.Equal(dec("70")))

	txns, err := uc.ListTransactions(ctx, wine, dto.TxnListQuery{TxnType: entity.TxnTypeConsumption})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, tx := range txns {
		assert.Equal(t, entity.RefProductionRuns, tx.RefCollection)
		assert.Equal(t, "run-7", tx.RefID)
		assert.True(t, tx.QtyDelta.IsNegative())
	}
	requireConsistent(t, uc, wine)
}

func TestConsume_StockInsuficienteNoEscribe(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")
	produce(t, uc, wine, "10", "1.00", nil, true)

	_, err := uc.Consume(ctx, "u-prod", consumeReq(wine, "11"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	it, err := uc.GetItem(ctx, wine)
	require.NoError(t, err)
	assert.True(t, it.Stock.Equal(dec("10")))
	txns, err := uc.ListTransactions(ctx, wine, dto.TxnListQuery{})
	require.NoError(t, err)
	assert.Len(t, txns, 1, "solo la entrada de producción")
	requireConsistent(t, uc, wine)
}

func TestConsume_LotePendienteNoElegible(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")
	pending := produce(t, uc, wine, "100", "1.00", nil, false)

	_, err := uc.Consume(ctx, "u-prod", consumeReq(wine, "1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uc.SetQCStatus(ctx, pending, dto.QCStatusRequest{Status: entity.QCRejected})
	require.NoError(t, err)
	_, err = uc.Consume(ctx, "u-prod", consumeReq(wine, "1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uc.SetQCStatus(ctx, pending, dto.QCStatusRequest{Status: entity.QCReleased})
	require.NoError(t, err)
	_, err = uc.Consume(ctx, "u-prod", consumeReq(wine, "1"))
	assert.NoError(t, err)
}

func TestConsume_VentaDirectaYLotePreferido(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")
	produce(t, uc, wine, "10", "1.00", inYears(1), true)
	chosen := produce(t, uc, wine, "10", "3.00", inYears(2), true)

	in := consumeReq(wine, "4")
	in.TxnType = entity.TxnTypeSale
	in.RefID = "venta-1"
	in.BatchID = chosen
	out, err := uc.Consume(ctx, "u-ventas", in)
	require.NoError(t, err)
	require.Len(t, out.Batches, 1)
	assert.Equal(t, chosen, out.Batches[0].BatchID)
	assert.True(t, out.TotalCost.Equal(dec("12")))

	txns, err := uc.ListTransactions(ctx, wine, dto.TxnListQuery{TxnType: entity.TxnTypeSale})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.RefDirectSales, txns[0].RefCollection)
}

func TestConsume_Validacion(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")

	bad := consumeReq(wine, "1")
	bad.TxnType = entity.TxnTypeAdjustment
	_, err := uc.Consume(ctx, "u", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = consumeReq(wine, "1")
	bad.RefID = ""
	_, err = uc.Consume(ctx, "u", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Consume(ctx, "u", consumeReq(wine, "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Consume(ctx, "u", consumeReq(wine, "0.00001"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "más de 4 decimales")

	_, err = uc.Consume(ctx, "u", consumeReq("no-existe", "1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsume_PromedioPonderado(t *testing.T) {
	uc := newStock(t, domaininv.MovingAverage{})
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")
	produce(t, uc, wine, "100", "1.00", inYears(1), true)
	produce(t, uc, wine, "100", "3.00", inYears(2), true)

	out, err := uc.Consume(ctx, "u", consumeReq(wine, "10"))
	require.NoError(t, err)
	assert.True(t, out.Batches[0].UnitCost.Equal(dec("2")), "costo promedio, no el del lote")
}

func TestReceiveProductionOutput(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")

	b, err := uc.ReceiveProductionOutput(ctx, "u1", dto.ProductionOutputRequest{
		InventoryItemID: wine, Quantity: dec("600"), UnitCost: dec("1.25"), RefID: "of-9", BatchCode: "T-2026-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "T-2026-01", b.InternalBatchCode)
	assert.Equal(t, entity.QCPending, b.QCStatus)
	assert.Equal(t, entity.RefProductionRuns, b.SourceCollection)
	assert.Equal(t, "of-9", b.SourceID)

	txns, err := uc.ListTransactions(ctx, wine, dto.TxnListQuery{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, entity.TxnTypeProduction, txns[0].TxnType)
	assert.True(t, txns[0].NewStock.Equal(dec("600")))
	requireConsistent(t, uc, wine)

	_, err = uc.ReceiveProductionOutput(ctx, "u1", dto.ProductionOutputRequest{InventoryItemID: wine, Quantity: dec("1"), RefID: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.ReceiveProductionOutput(ctx, "u1", dto.ProductionOutputRequest{InventoryItemID: "no-existe", Quantity: dec("1"), RefID: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjust(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	wine := createItem(t, uc, "Vino tinto", "0")
	batch := produce(t, uc, wine, "10", "1.00", nil, true)

	txn, err := uc.Adjust(ctx, "admin", dto.AdjustmentRequest{BatchID: batch, QtyDelta: dec("-3"), Notes: "rotura"})
	require.NoError(t, err)
	assert.Equal(t, entity.TxnTypeAdjustment, txn.TxnType)
	assert.Equal(t, entity.RefAdjustments, txn.RefCollection)
	assert.True(t, txn.NewStock.Equal(dec("7")))

	// Se puede devolver hasta lo recibido, no más.
	_, err = uc.Adjust(ctx, "admin", dto.AdjustmentRequest{BatchID: batch, QtyDelta: dec("4"), Notes: "recuento"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Adjust(ctx, "admin", dto.AdjustmentRequest{BatchID: batch, QtyDelta: dec("3"), Notes: "recuento"})
	require.NoError(t, err)

	_, err = uc.Adjust(ctx, "admin", dto.AdjustmentRequest{BatchID: batch, QtyDelta: dec("-11"), Notes: "merma"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uc.Adjust(ctx, "admin", dto.AdjustmentRequest{BatchID: batch, QtyDelta: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "las notas son obligatorias")

	_, err = uc.Adjust(ctx, "admin", dto.AdjustmentRequest{BatchID: "no-existe", QtyDelta: dec("-1"), Notes: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	requireConsistent(t, uc, wine)
}

func TestSetQCStatus_Validacion(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()

	_, err := uc.SetQCStatus(ctx, "b1", dto.QCStatusRequest{Status: "Aprobado"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.SetQCStatus(ctx, "no-existe", dto.QCStatusRequest{Status: entity.QCReleased})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLowStock_OrdenPorDeficit(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()
	corks := createItem(t, uc, "Corcho", "1000")
	labels := createItem(t, uc, "Etiqueta", "100")
	caps := createItem(t, uc, "Cápsula", "10")
	produce(t, uc, corks, "950", "0.10", nil, false)
	produce(t, uc, caps, "50", "0.20", nil, false)

	out, err := uc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2, "las cápsulas están por encima del mínimo")

	assert.Equal(t, labels, out[0].InventoryItemID)
	assert.Equal(t, 1, out[0].Priority)
	assert.True(t, out[0].SuggestedOrderQty.Equal(dec("150")))

	assert.Equal(t, corks, out[1].InventoryItemID)
	assert.Equal(t, 2, out[1].Priority)
	assert.True(t, out[1].IdealStock.Equal(dec("1500")))
	assert.True(t, out[1].SuggestedOrderQty.Equal(dec("550")))
}

func TestCreateItem_Validacion(t *testing.T) {
	uc := newStock(t, nil)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, dto.CreateItemRequest{Name: " ", UOM: "ud"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateItem(ctx, dto.CreateItemRequest{Name: "Corcho", UOM: "ud", SafetyStock: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.GetItem(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.ListBatches(ctx, "no-existe", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
