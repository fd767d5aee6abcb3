package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/bodega-erp/internal/infrastructure/storage"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "purchases/p1/tok-factura_marzo.pdf", storage.ObjectPath("p1", "tok", "factura marzo.pdf"))
	assert.Equal(t, "purchases/p1/tok-x.pdf", storage.ObjectPath("p1", "tok", "../../x.pdf"))
	assert.Equal(t, "purchases/p1/tok-factura", storage.ObjectPath("p1", "tok", ""))
}
