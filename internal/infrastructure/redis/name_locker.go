// Package redis bloqueo distribuido para el alta de proveedores entre réplicas del API.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodega-erp/internal/application/ports"
	"github.com/jhoicas/bodega-erp/pkg/config"
)

var _ ports.NameLocker = (*NameLocker)(nil)

const (
	keyPrefix    = "bodega:lock:supplier:"
	pollInterval = 50 * time.Millisecond
)

// releaseScript borra la clave solo si sigue siendo nuestra.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// NameLocker SET NX con TTL por clave de nombre normalizado.
type NameLocker struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewClient abre el cliente y comprueba la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewNameLocker ttl <= 0 usa 10 segundos.
func NewNameLocker(client *goredis.Client, ttl time.Duration) *NameLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &NameLocker{client: client, ttl: ttl}
}

// Acquire espera hasta obtener la clave o hasta que venza ctx (como mucho un TTL).
func (l *NameLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// con contexto propio: la petición original puede haber terminado
				rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
				defer rcancel()
				_ = releaseScript.Run(rctx, l.client, []string{redisKey}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}
