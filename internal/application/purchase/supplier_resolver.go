package purchase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodega-erp/internal/application/dto"
	"github.com/jhoicas/bodega-erp/internal/domain/entity"
	"github.com/jhoicas/bodega-erp/internal/domain/repository"
	"github.com/jhoicas/bodega-erp/internal/domain/supplier"
)

// resolveSupplier escribe el proveedor de la compra: lo crea si no existe (existing nil)
// o completa los campos vacíos del existente sin pisar los informados.
// existing debe haberse leído en la misma transacción con FindByNameKey.
func resolveSupplier(
	ctx context.Context,
	repo repository.SupplierRepository,
	existing *entity.Supplier,
	in dto.SupplierInput,
	now time.Time,
) (*entity.Supplier, error) {
	if existing == nil {
		s := &entity.Supplier{
			ID:            uuid.New().String(),
			Name:          supplier.CleanName(in.Name),
			NameKey:       supplier.NameKey(in.Name),
			TaxID:         strings.TrimSpace(in.TaxID),
			Email:         strings.TrimSpace(in.Email),
			Phone:         strings.TrimSpace(in.Phone),
			Address:       strings.TrimSpace(in.Address),
			City:          strings.TrimSpace(in.City),
			ContactPerson: strings.TrimSpace(in.ContactPerson),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.Create(ctx, s); err != nil {
			return nil, err
		}
		return s, nil
	}

	s := *existing
	changed := fillEmpty(&s.TaxID, in.TaxID)
	changed = fillEmpty(&s.Email, in.Email) || changed
	changed = fillEmpty(&s.Phone, in.Phone) || changed
	changed = fillEmpty(&s.Address, in.Address) || changed
	changed = fillEmpty(&s.City, in.City) || changed
	changed = fillEmpty(&s.ContactPerson, in.ContactPerson) || changed
	if !changed {
		return existing, nil
	}
	s.UpdatedAt = now
	if err := repo.Update(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func fillEmpty(dst *string, v string) bool {
	v = strings.TrimSpace(v)
	if *dst != "" || v == "" {
		return false
	}
	*dst = v
	return true
}
