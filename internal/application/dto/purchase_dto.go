package dto

import (
	"time"

	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SupplierInput datos del proveedor que acompañan la compra.
// Solo Name es obligatorio; el resto completa campos vacíos del proveedor existente.
type SupplierInput struct {
	Name          string `json:"name"`
	TaxID         string `json:"tax_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
}

// PurchaseLineRequest línea de compra. InventoryItemID "__new__" crea el ítem con ItemName/UOM/CategoryID.
// BatchID identifica una línea ya recibida al editar.
type PurchaseLineRequest struct {
	BatchID           string          `json:"batch_id,omitempty"`
	InventoryItemID   string          `json:"inventory_item_id"`
	ItemName          string          `json:"item_name,omitempty"`
	CategoryID        string          `json:"category_id,omitempty"`
	UOM               string          `json:"uom,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	SupplierBatchCode string          `json:"supplier_batch_code,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	QCStatus          string          `json:"qc_status,omitempty"`
}

// PurchaseRequest body para POST /api/purchases y PUT /api/purchases/:id.
// En multipart llega en el campo "payload" y el adjunto en "invoice".
type PurchaseRequest struct {
	Supplier      SupplierInput         `json:"supplier"`
	OrderDate     time.Time             `json:"order_date"`
	InvoiceNumber string                `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time            `json:"invoice_date,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Lines         []PurchaseLineRequest `json:"lines"`
	RemoveInvoice bool                  `json:"remove_invoice,omitempty"`
}

// PurchaseListQuery query params de GET /api/purchases.
type PurchaseListQuery struct {
	SupplierID string `query:"supplier_id"`
	From       string `query:"from"`
	To         string `query:"to"`
	PageRequest
}

// PurchaseResponse documento de compra.
type PurchaseResponse struct {
	ID            string                `json:"id"`
	SupplierID    string                `json:"supplier_id"`
	SupplierName  string                `json:"supplier_name"`
	OrderDate     time.Time             `json:"order_date"`
	InvoiceNumber string                `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time            `json:"invoice_date,omitempty"`
	Invoice       *entity.InvoiceFile   `json:"invoice,omitempty"`
	Lines         []entity.PurchaseLine `json:"lines"`
	Notes         string                `json:"notes,omitempty"`
	TotalCost     decimal.Decimal       `json:"total_cost"`
	CreatedBy     string                `json:"created_by,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// CreatedResponse id del recurso creado.
type CreatedResponse struct {
	ID string `json:"id"`
}

// ToPurchaseResponse convierte la entidad a respuesta.
func ToPurchaseResponse(p *entity.Purchase) PurchaseResponse {
	lines := p.Lines
	if lines == nil {
		lines = []entity.PurchaseLine{}
	}
	return PurchaseResponse{
		ID:            p.ID,
		SupplierID:    p.SupplierID,
		SupplierName:  p.SupplierName,
		OrderDate:     p.OrderDate,
		InvoiceNumber: p.InvoiceNumber,
		InvoiceDate:   p.InvoiceDate,
		Invoice:       p.Invoice,
		Lines:         lines,
		Notes:         p.Notes,
		TotalCost:     p.TotalCost,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
