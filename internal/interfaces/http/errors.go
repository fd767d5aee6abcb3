package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/bodega-erp/internal/application/dto"
	"github.com/jhoicas/bodega-erp/internal/domain"
)

// errorStatus mapea un error de dominio a status HTTP y código de la respuesta.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrTxConflict):
		return fiber.StatusConflict, "TX_CONFLICT"
	case errors.Is(err, domain.ErrSupplierRequired):
		return fiber.StatusBadRequest, "SUPPLIER_REQUIRED"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrBatchConsumed):
		return fiber.StatusConflict, "BATCH_CONSUMED"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrMissingBatch):
		return fiber.StatusConflict, "MISSING_BATCH"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con dto.ErrorResponse según el error de dominio.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

var errInvalidBody = errors.New("cuerpo inválido")
