package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/pkg/config"
)

func valid() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Store: config.StoreMemory},
		JWT:       config.JWTConfig{Secret: "s3cr3t"},
		Inventory: config.InventoryConfig{CostingPolicy: "frozen_lot"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, valid().Validate())

	c := valid()
	c.JWT.Secret = "  "
	assert.ErrorContains(t, c.Validate(), "JWT_SECRET")

	c = valid()
	c.App.Store = "mongo"
	assert.ErrorContains(t, c.Validate(), "APP_STORE")

	c = valid()
	c.Inventory.CostingPolicy = "fifo"
	assert.ErrorContains(t, c.Validate(), "INVENTORY_COSTING_POLICY")

	c = valid()
	c.Storage = config.StorageConfig{Endpoint: "minio:9000"}
	assert.ErrorContains(t, c.Validate(), "STORAGE_BUCKET")
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("APP_STORE", "memory")
	t.Setenv("JWT_SECRET", "desde-env")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("INVENTORY_COSTING_POLICY", "moving_average")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "desde-env", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "moving_average", cfg.Inventory.CostingPolicy)
}

func TestLoad_SinSecretoFalla(t *testing.T) {
	t.Setenv("APP_STORE", "memory")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
