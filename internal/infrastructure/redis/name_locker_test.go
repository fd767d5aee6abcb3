package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-erp/internal/infrastructure/redis"
)

const lockKey = "bodega:lock:supplier:acme"

func newLocker(t *testing.T, ttl time.Duration) (*redis.NameLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewNameLocker(client, ttl), mr
}

func TestAcquire_SegundoEsperaHastaLiberar(t *testing.T) {
	locker, mr := newLocker(t, 2*time.Second)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKey))

	acquired := make(chan func(), 1)
	failed := make(chan error, 1)
	go func() {
		r, err := locker.Acquire(ctx, "acme")
		if err != nil {
			failed <- err
			return
		}
		acquired <- r
	}()

	select {
	case <-acquired:
		t.Fatal("el segundo obtuvo la clave mientras el primero la tenía")
	case err := <-failed:
		t.Fatalf("el segundo falló: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	release()

	select {
	case r := <-acquired:
		assert.True(t, mr.Exists(lockKey))
		r()
		assert.False(t, mr.Exists(lockKey))
	case err := <-failed:
		t.Fatalf("el segundo falló: %v", err)
	case <-time.After(time.Second):
		t.Fatal("el segundo no obtuvo la clave tras liberarla")
	}
}

func TestAcquire_ClavesDistintasNoCompiten(t *testing.T) {
	locker, _ := newLocker(t, time.Second)
	ctx := context.Background()

	r1, err := locker.Acquire(ctx, "acme")
	require.NoError(t, err)
	defer r1()
	r2, err := locker.Acquire(ctx, "bodegas del sur")
	require.NoError(t, err)
	r2()
}

// Liberar tarde no borra una clave que ya pertenece a otro.
func TestRelease_NoBorraClaveAjena(t *testing.T) {
	locker, mr := newLocker(t, time.Second)

	release, err := locker.Acquire(context.Background(), "acme")
	require.NoError(t, err)

	// la clave expiró y otra réplica la tomó
	require.NoError(t, mr.Set(lockKey, "otra-replica"))
	release()

	got, err := mr.Get(lockKey)
	require.NoError(t, err)
	assert.Equal(t, "otra-replica", got)
}

func TestAcquire_VenceSiNadieLibera(t *testing.T) {
	locker, mr := newLocker(t, 200*time.Millisecond)
	require.NoError(t, mr.Set(lockKey, "otra-replica"))

	start := time.Now()
	_, err := locker.Acquire(context.Background(), "acme")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "espera como mucho un TTL")
}

func TestAcquire_RespetaCancelacion(t *testing.T) {
	locker, mr := newLocker(t, 5*time.Second)
	require.NoError(t, mr.Set(lockKey, "otra-replica"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := locker.Acquire(ctx, "acme")
	assert.ErrorIs(t, err, context.Canceled)
}
