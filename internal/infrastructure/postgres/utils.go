package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/bodega-erp/internal/domain"
)

// Querier lo que los repos necesitan de un pool o de una tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isTxConflict fallo de serialización (40001) o deadlock (40P01): la transacción se puede reintentar.
func isTxConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// isCheckViolation violación de CHECK (23514), p. ej. saldo de lote fuera de rango.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// mapWriteErr traduce errores de escritura a errores de dominio conservando el original.
func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isTxConflict(err):
		return errors.Join(domain.ErrTxConflict, err)
	case isUniqueViolation(err):
		return errors.Join(domain.ErrTxConflict, err)
	case isCheckViolation(err):
		return errors.Join(domain.ErrConflict, err)
	}
	return err
}

// limitOrAll LIMIT NULL equivale a sin límite en PostgreSQL.
func limitOrAll(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
