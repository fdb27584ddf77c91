package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/inventario-ledger/docs"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/internal/interfaces/events"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/jhoicas/inventario-ledger/pkg/tracing"
)

// @title        Inventario Ledger API
// @version      1.0
// @description  Libro de movimientos de stock, alertas de umbral y descuento por consumo de servicios.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization

// stores repositorios según el driver elegido.
type stores struct {
	txRunner     inventory.TxRunner
	records      repository.StockRecordRepository
	transactions repository.StockTransactionRepository
	alerts       repository.AlertRepository
	alertConfigs repository.AlertConfigRepository
	services     repository.ServiceProductRepository
	products     repository.ProductRepository
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, shutdownTracing, err := tracing.Init(ctx, cfg.App.Name, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	alertManager := inventory.NewAlertManager(st.records, st.alertConfigs, st.alerts, log.Component("alerts"))
	stockUC := inventory.NewStockUseCase(st.txRunner, st.records, st.products, alertManager, log.Component("stock"))
	ledgerUC := inventory.NewLedgerUseCase(st.transactions)
	replenishmentUC := inventory.NewReplenishmentUseCase(st.records, st.products)
	alertConfigUC := inventory.NewAlertConfigUseCase(st.alertConfigs, st.products)
	serviceProductsUC := inventory.NewServiceProductsUseCase(st.services, st.products)
	deductionUC := inventory.NewDeductionUseCase(st.services, stockUC, st.products, alertManager, tracer, log.Component("deduction"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stock:           stockUC,
		Ledger:          ledgerUC,
		Replenishment:   replenishmentUC,
		AlertConfigs:    alertConfigUC,
		Alerts:          alertManager,
		ServiceProducts: serviceProductsUC,
		Deduction:       deductionUC,
		Auth:            httpRouter.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer},
		Logger:          log.Component("http"),
	})

	listenerDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		reader := events.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		listener := events.NewListener(reader, deductionUC, log)
		go func() {
			defer close(listenerDone)
			listener.Start(ctx)
			if err := reader.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar reader de kafka")
			}
		}()
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("consumidor kafka iniciado")
	} else {
		close(listenerDone)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	<-listenerDone
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del tracing")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores conecta PostgreSQL (aplicando migraciones si DB_AUTO_MIGRATE) o crea el backend en memoria.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StorageDriver == config.StorageMemory {
		var opts []memory.Option
		if cfg.App.IsDevelopment() {
			opts = append(opts, memory.WithOpenCatalog())
		}
		m := memory.NewStore(opts...)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &stores{
			txRunner:     m.TxRunner(),
			records:      m.StockRecords(),
			transactions: m.Transactions(),
			alerts:       m.Alerts(),
			alertConfigs: m.AlertConfigs(),
			services:     m.ServiceProducts(),
			products:     m.Products(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &stores{
		txRunner:     postgres.NewTxRunner(pool),
		records:      postgres.NewStockRecordRepository(pool),
		transactions: postgres.NewStockTransactionRepository(pool),
		alerts:       postgres.NewAlertRepository(pool),
		alertConfigs: postgres.NewAlertConfigRepository(pool),
		services:     postgres.NewServiceProductRepository(pool),
		products:     postgres.NewProductRepository(pool),
		close:        pool.Close,
	}, nil
}
