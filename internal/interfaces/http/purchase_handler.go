package http

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/bodega-erp/internal/application/dto"
	"github.com/jhoicas/bodega-erp/internal/application/ports"
	"github.com/jhoicas/bodega-erp/internal/application/purchase"
)

// PurchaseHandler maneja las peticiones HTTP de compras (protegido).
type PurchaseHandler struct {
	uc *purchase.UseCase
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchase.UseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar compra
// @Description  Crea el documento, resuelve el proveedor por nombre y recibe cada línea como lote nuevo.
//
//	Acepta JSON o multipart (campo "payload" con el JSON y "invoice" con la factura).
//
// @Tags         purchases
// @Security     Bearer
// @Accept       json,mpfd
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "Compra"
// @Success      201   {object}  dto.CreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	in, file, closeFile, err := parsePurchase(c)
	if err != nil {
		return badRequest(c, "INVALID_BODY", err.Error())
	}
	defer closeFile()

	id, err := h.uc.Add(c.UserContext(), GetUserID(c), in, file)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreatedResponse{ID: id})
}

// Update godoc
// @Summary      Editar compra
// @Description  Reconcilia las líneas nuevas contra las recibidas: conserva, corrige, revierte o recibe lotes.
// @Tags         purchases
// @Security     Bearer
// @Accept       json,mpfd
// @Param        id    path  string               true  "ID de la compra"
// @Param        body  body  dto.PurchaseRequest  true  "Compra"
// @Success      204
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [put]
func (h *PurchaseHandler) Update(c *fiber.Ctx) error {
	in, file, closeFile, err := parsePurchase(c)
	if err != nil {
		return badRequest(c, "INVALID_BODY", err.Error())
	}
	defer closeFile()

	if err := h.uc.Update(c.UserContext(), GetUserID(c), c.Params("id"), in, file); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Eliminar compra
// @Description  Revierte todos los lotes de la compra; falla si alguno tiene consumos.
// @Tags         purchases
// @Security     Bearer
// @Param        id   path  string  true  "ID de la compra"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [delete]
func (h *PurchaseHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la compra"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar compras
// @Description  Ordenadas por fecha de pedido descendente.
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        from         query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.PurchaseResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	q := dto.PurchaseListQuery{
		SupplierID:  c.Query("supplier_id"),
		From:        c.Query("from"),
		To:          c.Query("to"),
		PageRequest: pageFromQuery(c),
	}
	out, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// parsePurchase lee la compra como JSON o multipart. closeFile siempre es invocable.
func parsePurchase(c *fiber.Ctx) (dto.PurchaseRequest, *ports.InvoiceUpload, func(), error) {
	var in dto.PurchaseRequest
	noop := func() {}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(&in); err != nil {
			return in, nil, noop, errInvalidBody
		}
		return in, nil, noop, nil
	}

	if err := json.Unmarshal([]byte(c.FormValue("payload")), &in); err != nil {
		return in, nil, noop, errInvalidBody
	}
	fh, err := c.FormFile("invoice")
	if err != nil {
		// sin adjunto
		return in, nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, nil, noop, err
	}
	upload := &ports.InvoiceUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
	return in, upload, func() { _ = f.Close() }, nil
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
