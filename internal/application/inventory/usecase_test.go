package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/bodega-erp/internal/application/inventory"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/infrastructure/memory"
)

// countingRunner cuenta las transacciones abiertas sobre el almacén.
type countingRunner struct {
	appinv.TxRunner
	runs int
}

func (c *countingRunner) Run(ctx context.Context, fn func(context.Context, appinv.Repos) error) error {
	c.runs++
	return c.TxRunner.Run(ctx, fn)
}

func TestVerifyLedger_LeeEnUnaTransaccion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repos()
	runner := &countingRunner{TxRunner: store}
	uc := appinv.NewStockUseCase(runner, repos.Items, repos.Batches, repos.Txns, nil, nil)

	wine := createItem(t, uc, "Vino tinto", "0")
	produce(t, uc, wine, "40", "2", nil, true)

	before := runner.runs
	chk, err := uc.VerifyLedger(ctx, wine)
	require.NoError(t, err)
	assert.Equal(t, before+1, runner.runs, "stock, asientos y lotes en una sola transacción")
	assert.True(t, chk.Consistent)
	assert.True(t, chk.Stock.Equal(dec("40")))
	assert.True(t, chk.LedgerSum.Equal(dec("40")))
	assert.True(t, chk.BatchSum.Equal(dec("40")))

	_, err = uc.VerifyLedger(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
