package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrSupplierRequired se devuelve antes de abrir la transacción si la compra no nombra proveedor.
	ErrSupplierRequired = errors.New("el nombre del proveedor es obligatorio")
	// ErrBatchConsumed indica que el lote ya fue consumido y no se puede revertir la recepción.
	ErrBatchConsumed = errors.New("el lote ya tiene consumos; no se puede revertir la cantidad consumida")
	// ErrMissingBatch indica que un lote referenciado no está en el conjunto leído antes de escribir.
	ErrMissingBatch = errors.New("lote referenciado no encontrado")
	// ErrTxConflict colisión con otra transacción concurrente; el llamador debe reintentar.
	ErrTxConflict = errors.New("conflicto de concurrencia, reintente la operación")
)
