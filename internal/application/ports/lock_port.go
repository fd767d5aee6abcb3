package ports

import "context"

// NameLocker serializa entre procesos el alta de proveedores con el mismo nombre normalizado.
// Acquire devuelve la función de liberación.
type NameLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NoopLocker no bloquea; basta el índice único de la base de datos.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
