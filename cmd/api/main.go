package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/bodega-erp/internal/application/inventory"
	"github.com/jhoicas/bodega-erp/internal/application/ports"
	"github.com/jhoicas/bodega-erp/internal/application/purchase"
	domaininv "github.com/jhoicas/bodega-erp/internal/domain/inventory"
	"github.com/jhoicas/bodega-erp/internal/infrastructure/memory"
	"github.com/jhoicas/bodega-erp/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/bodega-erp/internal/infrastructure/redis"
	"github.com/jhoicas/bodega-erp/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/bodega-erp/internal/interfaces/http"
	"github.com/jhoicas/bodega-erp/pkg/config"
	"github.com/jhoicas/bodega-erp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.App.Store).
		Str("costing_policy", cfg.Inventory.CostingPolicy).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Libro de stock: PostgreSQL o memoria (desarrollo).
	var (
		txRunner inventory.TxRunner
		repos    inventory.Repos
	)
	switch cfg.App.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		txRunner, repos = store, store.Repos()
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	policy, err := domaininv.PolicyByName(cfg.Inventory.CostingPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("política de costo")
	}

	// Adjuntos de factura (opcional).
	var invoiceStore ports.InvoiceStorage
	if cfg.Storage.Enabled() {
		st, err := storage.NewMinioStorage(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("almacén de facturas")
		}
		invoiceStore = st
	}

	// Bloqueo de altas de proveedor entre réplicas (opcional).
	var locker ports.NameLocker
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewNameLocker(rdb, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
	}

	stockUC := inventory.NewStockUseCase(txRunner, repos.Items, repos.Batches, repos.Txns, policy, log)
	purchaseUC := purchase.NewUseCase(txRunner, repos.Purchases, invoiceStore, locker, policy, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024, // facturas adjuntas
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Bodega ERP API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		PurchaseUC: purchaseUC,
		StockUC:    stockUC,
		JWTSecret:  cfg.JWT.Secret,
		AppName:    cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
