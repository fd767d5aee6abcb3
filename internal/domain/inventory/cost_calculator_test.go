package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/inventory"
)

func TestCostCalculator(t *testing.T) {
	got := inventory.CostCalculator(dec("10"), dec("2"), dec("10"), dec("4"))
	assert.True(t, got.Equal(dec("3")))

	assert.True(t, inventory.CostCalculator(dec("10"), dec("2"), dec("-10"), dec("2")).IsZero(),
		"denominador cero → costo cero")

	// 2/3 se guarda con la escala de costo.
	assert.Equal(t, "0.666667", inventory.CostCalculator(dec("1"), dec("0"), dec("2"), dec("1")).String())
}

func TestUnitCost(t *testing.T) {
	c, err := inventory.UnitCost(dec("150.00"), dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, "0.15", c.String())

	c, err = inventory.UnitCost(dec("100"), dec("3"))
	require.NoError(t, err)
	assert.Equal(t, "33.333333", c.String())

	_, err = inventory.UnitCost(dec("1"), dec("0.00001"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = inventory.UnitCost(dec("1"), dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = inventory.UnitCost(dec("-1"), dec("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFitsQtyScale(t *testing.T) {
	assert.True(t, inventory.FitsQtyScale(dec("1.2345")))
	assert.True(t, inventory.FitsQtyScale(dec("1.50000")))
	assert.True(t, inventory.FitsQtyScale(dec("-3")))
	assert.False(t, inventory.FitsQtyScale(dec("0.00001")))
}

func TestPolicyByName(t *testing.T) {
	p, err := inventory.PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, inventory.PolicyFrozenLot, p.Name())

	p, err = inventory.PolicyByName("moving_average")
	require.NoError(t, err)
	assert.Equal(t, inventory.PolicyMovingAverage, p.Name())

	_, err = inventory.PolicyByName("fifo")
	assert.Error(t, err)
}

func TestIssueCost(t *testing.T) {
	item := &entity.InventoryItem{AverageCost: dec("0.18")}
	batch := &entity.ItemBatch{UnitCost: dec("0.15")}

	assert.True(t, inventory.FrozenLot{}.IssueCost(item, batch).Equal(dec("0.15")))
	assert.True(t, inventory.MovingAverage{}.IssueCost(item, batch).Equal(dec("0.18")))
}
