package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodega-erp/internal/application/dto"
	appinv "github.com/jhoicas/bodega-erp/internal/application/inventory"
	"github.com/jhoicas/bodega-erp/internal/application/ports"
	"github.com/jhoicas/bodega-erp/internal/domain"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/inventory"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
	"github.com/jhoicas/bodega-erp/internal/domain/supplier"
	"github.com/jhoicas/bodega-erp/pkg/logger"
)

// UseCase alta, edición y baja de compras. Cada operación es una sola transacción que resuelve
// proveedor, crea ítems nuevos, reconcilia lotes/asientos/stock y guarda el documento.
type UseCase struct {
	txRunner     appinv.TxRunner
	purchaseRepo repository.PurchaseRepository
	storage      ports.InvoiceStorage
	locker       ports.NameLocker
	policy       inventory.CostingPolicy
	log          *logger.Logger
}

// NewUseCase construye el caso de uso. storage nil deshabilita adjuntos; locker nil = sin bloqueo.
func NewUseCase(
	txRunner appinv.TxRunner,
	purchaseRepo repository.PurchaseRepository,
	storage ports.InvoiceStorage,
	locker ports.NameLocker,
	policy inventory.CostingPolicy,
	log *logger.Logger,
) *UseCase {
	if locker == nil {
		locker = ports.NoopLocker{}
	}
	if policy == nil {
		policy = inventory.FrozenLot{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:     txRunner,
		purchaseRepo: purchaseRepo,
		storage:      storage,
		locker:       locker,
		policy:       policy,
		log:          log.Component("purchase"),
	}
}

// Add crea la compra y devuelve su id.
func (uc *UseCase) Add(ctx context.Context, userID string, in dto.PurchaseRequest, file *ports.InvoiceUpload) (string, error) {
	if err := validate(in, false); err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	invoice, err := uc.upload(ctx, id, file)
	if err != nil {
		return "", err
	}
	key := supplier.NameKey(in.Supplier.Name)
	release, err := uc.locker.Acquire(ctx, key)
	if err != nil {
		uc.orphan(ctx, invoice, err)
		return "", err
	}
	defer release()

	var p *entity.Purchase
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos appinv.Repos) error {
		// Lecturas
		existing, err := repos.Suppliers.FindByNameKey(ctx, key)
		if err != nil {
			return err
		}
		items, err := repos.Items.GetByIDsForUpdate(ctx, itemIDs(nil, in.Lines))
		if err != nil {
			return err
		}

		// Escrituras
		sup, err := resolveSupplier(ctx, repos.Suppliers, existing, in.Supplier, now)
		if err != nil {
			return err
		}
		lines, err := materializeLines(ctx, repos.Items, items, in.Lines, now)
		if err != nil {
			return err
		}
		plan, err := inventory.Reconcile(inventory.ReconcileInput{
			PurchaseID: id,
			Date:       in.OrderDate,
			New:        lines,
			Items:      items,
			Policy:     uc.policy,
			CreatedBy:  userID,
			NewID:      newID,
			Now:        now,
		})
		if err != nil {
			return err
		}
		if err := appinv.ApplyPlan(ctx, repos, plan); err != nil {
			return err
		}
		p = &entity.Purchase{
			ID:            id,
			SupplierID:    sup.ID,
			SupplierName:  sup.Name,
			OrderDate:     in.OrderDate,
			InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
			InvoiceDate:   in.InvoiceDate,
			Invoice:       invoice,
			Lines:         plan.Lines,
			Notes:         in.Notes,
			CreatedBy:     userID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		p.TotalCost = p.ComputeTotal()
		return repos.Purchases.Create(ctx, p)
	})
	if err != nil {
		uc.orphan(ctx, invoice, err)
		return "", err
	}
	uc.log.Info().
		Str("purchase_id", id).
		Str("supplier_id", p.SupplierID).
		Int("lines", len(p.Lines)).
		Str("total_cost", p.TotalCost.String()).
		Msg("compra registrada")
	return id, nil
}

// Update reemplaza el contenido de la compra; el libro refleja solo la diferencia viejo → nuevo.
func (uc *UseCase) Update(ctx context.Context, userID, id string, in dto.PurchaseRequest, file *ports.InvoiceUpload) error {
	if id == "" {
		return domain.ErrNotFound
	}
	if err := validate(in, true); err != nil {
		return err
	}
	now := time.Now().UTC()

	invoice, err := uc.upload(ctx, id, file)
	if err != nil {
		return err
	}
	key := supplier.NameKey(in.Supplier.Name)
	release, err := uc.locker.Acquire(ctx, key)
	if err != nil {
		uc.orphan(ctx, invoice, err)
		return err
	}
	defer release()

	var stale *entity.InvoiceFile
	var p *entity.Purchase
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos appinv.Repos) error {
		// Lecturas
		old, err := repos.Purchases.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return domain.ErrNotFound
		}
		existing, err := repos.Suppliers.FindByNameKey(ctx, key)
		if err != nil {
			return err
		}
		items, err := repos.Items.GetByIDsForUpdate(ctx, itemIDs(old.Lines, in.Lines))
		if err != nil {
			return err
		}
		batches, err := repos.Batches.GetByIDsForUpdate(ctx, batchIDs(old.Lines))
		if err != nil {
			return err
		}
		previous, err := previousSnapshots(ctx, repos, id, items, old.Lines)
		if err != nil {
			return err
		}

		// Escrituras
		sup, err := resolveSupplier(ctx, repos.Suppliers, existing, in.Supplier, now)
		if err != nil {
			return err
		}
		lines, err := materializeLines(ctx, repos.Items, items, in.Lines, now)
		if err != nil {
			return err
		}
		plan, err := inventory.Reconcile(inventory.ReconcileInput{
			PurchaseID: id,
			Date:       in.OrderDate,
			Old:        old.Lines,
			New:        lines,
			Batches:    batches,
			Items:      items,
			Previous:   previous,
			Policy:     uc.policy,
			CreatedBy:  userID,
			NewID:      newID,
			Now:        now,
		})
		if err != nil {
			return err
		}
		if err := appinv.ApplyPlan(ctx, repos, plan); err != nil {
			return err
		}

		p = old.Clone()
		p.SupplierID = sup.ID
		p.SupplierName = sup.Name
		p.OrderDate = in.OrderDate
		p.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
		p.InvoiceDate = in.InvoiceDate
		p.Notes = in.Notes
		p.Lines = plan.Lines
		p.TotalCost = p.ComputeTotal()
		p.UpdatedAt = now
		switch {
		case invoice != nil:
			stale = old.Invoice
			p.Invoice = invoice
		case in.RemoveInvoice:
			stale = old.Invoice
			p.Invoice = nil
		}
		return repos.Purchases.Update(ctx, p)
	})
	if err != nil {
		uc.orphan(ctx, invoice, err)
		return err
	}
	uc.removeObject(ctx, stale)
	uc.log.Info().
		Str("purchase_id", id).
		Str("supplier_id", p.SupplierID).
		Int("lines", len(p.Lines)).
		Str("total_cost", p.TotalCost.String()).
		Msg("compra actualizada")
	return nil
}

// Delete revierte por completo el efecto de la compra en el libro y borra el documento.
// Falla con ErrBatchConsumed si alguno de sus lotes ya tiene consumos.
func (uc *UseCase) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	now := time.Now().UTC()

	var invoice *entity.InvoiceFile
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos appinv.Repos) error {
		old, err := repos.Purchases.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return domain.ErrNotFound
		}
		items, err := repos.Items.GetByIDsForUpdate(ctx, itemIDs(old.Lines, nil))
		if err != nil {
			return err
		}
		batches, err := repos.Batches.GetByIDsForUpdate(ctx, batchIDs(old.Lines))
		if err != nil {
			return err
		}
		previous, err := previousSnapshots(ctx, repos, id, items, old.Lines)
		if err != nil {
			return err
		}

		plan, err := inventory.Reconcile(inventory.ReconcileInput{
			PurchaseID: id,
			Date:       now,
			Old:        old.Lines,
			Batches:    batches,
			Items:      items,
			Previous:   previous,
			Policy:     uc.policy,
			CreatedBy:  userID,
			NewID:      newID,
			Now:        now,
		})
		if err != nil {
			return err
		}
		if err := appinv.ApplyPlan(ctx, repos, plan); err != nil {
			return err
		}
		invoice = old.Invoice
		return repos.Purchases.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.removeObject(ctx, invoice)
	uc.log.Info().Str("purchase_id", id).Msg("compra eliminada")
	return nil
}

// Get obtiene una compra por id.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	p, err := uc.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ToPurchaseResponse(p)
	return &out, nil
}

// List compras ordenadas por fecha de pedido descendente.
func (uc *UseCase) List(ctx context.Context, q dto.PurchaseListQuery) ([]dto.PurchaseResponse, error) {
	q.DefaultPage()
	f := repository.PurchaseFilter{SupplierID: q.SupplierID, Limit: q.Limit, Offset: q.Offset}
	var err error
	if f.From, err = dto.ParseDate(q.From); err != nil {
		return nil, err
	}
	if f.To, err = dto.ParseDate(q.To); err != nil {
		return nil, err
	}
	list, err := uc.purchaseRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PurchaseResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ToPurchaseResponse(p))
	}
	return out, nil
}

// upload sube la factura antes de abrir la transacción.
func (uc *UseCase) upload(ctx context.Context, purchaseID string, file *ports.InvoiceUpload) (*entity.InvoiceFile, error) {
	if file == nil {
		return nil, nil
	}
	if uc.storage == nil {
		return nil, fmt.Errorf("almacenamiento de facturas no configurado: %w", domain.ErrInvalidInput)
	}
	obj, err := uc.storage.Upload(ctx, purchaseID, *file)
	if err != nil {
		return nil, fmt.Errorf("subir factura: %w", err)
	}
	return &entity.InvoiceFile{
		URL:         obj.URL,
		Path:        obj.Path,
		ContentType: obj.ContentType,
		FileName:    file.FileName,
	}, nil
}

// orphan deja constancia del archivo subido cuya transacción no se confirmó.
func (uc *UseCase) orphan(_ context.Context, invoice *entity.InvoiceFile, cause error) {
	if invoice == nil {
		return
	}
	uc.log.Warn().Err(cause).Str("path", invoice.Path).Msg("factura huérfana en almacenamiento")
}

func (uc *UseCase) removeObject(ctx context.Context, invoice *entity.InvoiceFile) {
	if invoice == nil || uc.storage == nil {
		return
	}
	if err := uc.storage.Remove(ctx, invoice.Path); err != nil {
		uc.log.Warn().Err(err).Str("path", invoice.Path).Msg("no se pudo borrar la factura anterior")
	}
}

func newID() string { return uuid.New().String() }

func validate(in dto.PurchaseRequest, update bool) error {
	if supplier.NameKey(in.Supplier.Name) == "" {
		return domain.ErrSupplierRequired
	}
	if in.OrderDate.IsZero() {
		return fmt.Errorf("fecha de pedido requerida: %w", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("la compra no tiene líneas: %w", domain.ErrInvalidInput)
	}
	for i, l := range in.Lines {
		if err := validateLine(l, update); err != nil {
			return fmt.Errorf("línea %d: %w", i+1, err)
		}
	}
	return nil
}

func validateLine(l dto.PurchaseLineRequest, update bool) error {
	switch {
	case l.InventoryItemID == "":
		return fmt.Errorf("ítem requerido: %w", domain.ErrInvalidInput)
	case l.InventoryItemID == entity.NewItemSentinel && (strings.TrimSpace(l.ItemName) == "" || strings.TrimSpace(l.UOM) == ""):
		return fmt.Errorf("ítem nuevo sin nombre o unidad: %w", domain.ErrInvalidInput)
	case !l.Quantity.IsPositive():
		return fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	case !inventory.FitsQtyScale(l.Quantity):
		return fmt.Errorf("cantidad con más de %d decimales: %w", inventory.QtyScale, domain.ErrInvalidInput)
	case l.TotalCost.IsNegative():
		return fmt.Errorf("costo negativo: %w", domain.ErrInvalidInput)
	case l.QCStatus != "" && !entity.ValidQCStatus(l.QCStatus):
		return fmt.Errorf("estado de calidad desconocido: %w", domain.ErrInvalidInput)
	case !update && l.BatchID != "":
		return fmt.Errorf("una compra nueva no puede referenciar lotes: %w", domain.ErrInvalidInput)
	}
	return nil
}

// previousSnapshots para cada ítem cuya latestPurchase apunta a un lote de esta compra, la
// recepción de la compra anterior más reciente del mismo ítem.
func previousSnapshots(
	ctx context.Context,
	repos appinv.Repos,
	purchaseID string,
	items map[string]*entity.InventoryItem,
	old []entity.PurchaseLine,
) (map[string]*entity.LatestPurchase, error) {
	own := make(map[string]bool, len(old))
	for _, l := range old {
		own[l.BatchID] = true
	}
	out := map[string]*entity.LatestPurchase{}
	for itemID, it := range items {
		if it.LatestPurchase == nil || !own[it.LatestPurchase.BatchID] {
			continue
		}
		prev, err := repos.Purchases.LatestWithItem(ctx, itemID, purchaseID)
		if err != nil {
			return nil, err
		}
		if prev == nil {
			continue
		}
		// si el ítem aparece en varias líneas gana la última, igual que al recibir
		var line entity.PurchaseLine
		for _, l := range prev.Lines {
			if l.InventoryItemID == itemID {
				line = l
			}
		}
		b, err := repos.Batches.GetByID(ctx, line.BatchID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			continue
		}
		out[itemID] = inventory.Snapshot(prev.ID, prev.OrderDate, line, b)
	}
	return out, nil
}

// itemIDs ids de ítems existentes referenciados por las líneas viejas y nuevas, sin repetir.
func itemIDs(old []entity.PurchaseLine, in []dto.PurchaseLineRequest) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id == "" || id == entity.NewItemSentinel || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, l := range old {
		add(l.InventoryItemID)
	}
	for _, l := range in {
		add(l.InventoryItemID)
	}
	return ids
}

func batchIDs(lines []entity.PurchaseLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.BatchID != "" {
			ids = append(ids, l.BatchID)
		}
	}
	return ids
}

// materializeLines crea los ítems marcados como nuevos (uno por nombre dentro de la compra),
// los agrega a items y devuelve las líneas con el ítem resuelto.
func materializeLines(
	ctx context.Context,
	repo repository.InventoryItemRepository,
	items map[string]*entity.InventoryItem,
	in []dto.PurchaseLineRequest,
	now time.Time,
) ([]entity.PurchaseLine, error) {
	created := map[string]*entity.InventoryItem{}
	lines := make([]entity.PurchaseLine, 0, len(in))
	for _, l := range in {
		line := entity.PurchaseLine{
			BatchID:           l.BatchID,
			InventoryItemID:   l.InventoryItemID,
			ItemName:          strings.TrimSpace(l.ItemName),
			CategoryID:        l.CategoryID,
			UOM:               strings.TrimSpace(l.UOM),
			Quantity:          l.Quantity,
			TotalCost:         l.TotalCost,
			SupplierBatchCode: strings.TrimSpace(l.SupplierBatchCode),
			ExpiryDate:        l.ExpiryDate,
			QCStatus:          l.QCStatus,
		}
		if line.IsNewItem() {
			key := strings.ToLower(supplier.CleanName(line.ItemName))
			it, ok := created[key]
			if !ok {
				it = &entity.InventoryItem{
					ID:         uuid.New().String(),
					Name:       supplier.CleanName(line.ItemName),
					CategoryID: line.CategoryID,
					UOM:        line.UOM,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := repo.Create(ctx, it); err != nil {
					return nil, err
				}
				created[key] = it
				items[it.ID] = it
			}
			line.InventoryItemID = it.ID
		}
		it, ok := items[line.InventoryItemID]
		if !ok {
			return nil, fmt.Errorf("ítem %s: %w", line.InventoryItemID, domain.ErrNotFound)
		}
		line.ItemName = it.Name
		line.CategoryID = it.CategoryID
		line.UOM = it.UOM
		lines = append(lines, line)
	}
	return lines, nil
}
