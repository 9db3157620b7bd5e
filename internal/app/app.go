// Package app wires configuration, stores, services and HTTP routes together.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio/internal/blob"
	"portfolio/internal/config"
	"portfolio/internal/handlers"
	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/notify"
	"portfolio/internal/repositories"
	"portfolio/internal/seed"
	"portfolio/internal/services"
	"portfolio/internal/tracing"
	"portfolio/pkg/rabbitmq"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App is a fully wired portfolio server.
type App struct {
	Fiber   *fiber.App
	Storage *services.Storage
	Auth    *services.AuthService

	cfg      *config.AppConfig
	db       *gorm.DB
	mq       *rabbitmq.Client
	blobs    blob.Storage
	mailer   *notify.Mailer
	registry *prometheus.Registry
	tracing  tracing.ShutdownFunc
	started  time.Time
}

// Option customizes New.
type Option func(*App)

// WithBlobStorage uses blobs instead of connecting to the configured MinIO.
func WithBlobStorage(blobs blob.Storage) Option {
	return func(a *App) { a.blobs = blobs }
}

// WithMailer sends contact notifications through m instead of the
// configured SMTP relay.
func WithMailer(m *notify.Mailer) Option {
	return func(a *App) { a.mailer = m }
}

// New builds the application from cfg: stores, seed data, admin account,
// optional RabbitMQ and object storage, middleware and routes.
func New(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	stores, err := a.openStores()
	if err != nil {
		return nil, err
	}
	if err := seedOnce(stores, cfg.Storage.SeedFile); err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Storage = services.NewStorage(stores)
	a.Auth = services.NewAuthService(a.Storage, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	if cfg.Auth.AdminPassword == "" && cfg.Auth.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD and ADMIN_PASSWORD_HASH are empty, no admin account will be created")
	} else if _, err := a.Auth.EnsureAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash, cfg.Auth.AdminEmail); err != nil {
		a.Close(ctx)
		return nil, err
	}

	if a.blobs == nil && cfg.MinIO.Enabled() {
		if a.blobs, err = blob.NewMinIO(ctx, cfg.MinIO); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		log.Info().Str("endpoint", cfg.MinIO.Endpoint).Str("bucket", cfg.MinIO.Bucket).Msg("Object storage enabled")
	}

	if a.mailer == nil && cfg.SMTP.Enabled() {
		if a.mailer, err = notify.NewMailer(cfg.SMTP); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to initialize contact notifications: %w", err)
		}
		log.Info().Str("host", cfg.SMTP.Host).Str("to", cfg.SMTP.To).Msg("Contact notifications enabled")
	}

	// Without a broker the mailer sends directly. With one, messages are
	// queued and this process consumes them only when it can mail them;
	// otherwise they wait for an external worker.
	var publisher services.ContactPublisher
	if a.mailer != nil {
		publisher = a.mailer
	}
	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, contact events will not be queued")
		} else {
			a.mq = mq
			if a.mailer == nil {
				publisher = mq
				log.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("No SMTP relay configured, contact events are left for an external consumer")
			} else if err := mq.ConsumeContactEvents(a.mailContactEvent); err != nil {
				log.Error().Err(err).Msg("Failed to start contact event consumer, mailing contact messages directly")
			} else {
				publisher = mq
			}
		}
	}

	if a.tracing, err = tracing.Init(ctx, cfg.Tracing); err != nil {
		a.Close(ctx)
		return nil, err
	}

	documents := services.NewDocumentService(a.Storage, a.blobs)
	contacts := services.NewContactService(a.Storage, publisher)

	if err := a.buildFiber(documents, contacts); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) mailContactEvent(ev rabbitmq.ContactEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.mailer.NotifyContact(ctx, ev.Message)
}

func (a *App) openStores() (repositories.Stores, error) {
	if a.cfg.Storage.Driver == "" || a.cfg.Storage.Driver == repositories.DriverMemory {
		return repositories.NewMemoryStores(), nil
	}

	db, err := repositories.OpenDatabase(a.cfg.Storage.Driver, a.cfg.Storage.DatabaseDSN)
	if err != nil {
		return repositories.Stores{}, err
	}
	a.db = db
	log.Info().Str("driver", a.cfg.Storage.Driver).Msg("Database connected")
	return repositories.NewGORMStores(db), nil
}

// seededKey marks a store set that has received the sample content once.
const seededKey = "seeded"

// seedOnce loads the sample set the first time a store set is opened. Later
// starts find the marker and leave the content alone, even when every record
// has since been deleted.
func seedOnce(stores repositories.Stores, seedFile string) error {
	_, seeded, err := stores.Settings.Get(seededKey)
	if err != nil {
		return err
	}
	if seeded {
		log.Info().Msg("Sample content already loaded, skipping seed")
		return nil
	}

	// Databases created before the marker existed count as seeded when they
	// already hold content.
	projects, err := stores.Projects.ListAll()
	if err != nil {
		return err
	}
	documents, err := stores.Documents.ListAll()
	if err != nil {
		return err
	}
	if len(projects) == 0 && len(documents) == 0 {
		var data seed.Data
		if seedFile != "" {
			data, err = seed.FromFile(seedFile)
		} else {
			data, err = seed.Default()
		}
		if err != nil {
			return err
		}
		if err := seed.Load(stores, data); err != nil {
			return err
		}
	} else {
		log.Info().Int("projects", len(projects)).Int("documents", len(documents)).Msg("Stores not empty, skipping seed")
	}

	return stores.Settings.Put(seededKey, models.Setting{
		ID:        seededKey,
		Value:     time.Now().UTC().Format(time.RFC3339),
		CreatedAt: time.Now(),
	})
}

func (a *App) buildFiber(documents *services.DocumentService, contacts *services.ContactService) error {
	metrics, err := middleware.NewPrometheusMiddleware(a.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := a.registry.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("failed to register go collector: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "portfolio",
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    20 * 1024 * 1024, // documents arrive as data URLs
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if a.cfg.Tracing.Enabled {
		app.Use(otelfiber.Middleware())
	}
	app.Use(middleware.Logger())
	app.Use(metrics.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/health", a.handleHealth)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	auth := middleware.AuthRequired(a.Auth)
	api := app.Group("/api")

	handlers.NewAuthHandler(a.Auth).RegisterRoutes(api)
	handlers.NewUserHandler(a.Storage).RegisterRoutes(api, auth)
	handlers.NewProjectHandler(a.Storage).RegisterRoutes(api, auth)
	handlers.NewDocumentHandler(a.Storage, documents).RegisterRoutes(api, auth)
	handlers.NewContactHandler(contacts).RegisterRoutes(api, auth)

	a.Fiber = app
	return nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"uptime":   time.Since(a.started).Round(time.Second).String(),
		"storage":  a.cfg.Storage.Driver,
		"rabbitmq": a.mq != nil,
		"blobs":    a.blobs != nil,
		"mail":     a.mailer != nil,
	}

	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.Warn().Err(err).Msg("Health check: database unreachable")
			status["status"] = "unhealthy"
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}
	return c.JSON(status)
}

// Listen serves HTTP on addr until Shutdown is called.
func (a *App) Listen(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting server")
	return a.Fiber.Listen(addr)
}

// Shutdown stops the HTTP server and releases every backend.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if err := a.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close waits for pending notifications, then releases RabbitMQ, the
// database and the tracer provider.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.mailer != nil {
		a.mailer.Wait()
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
		a.mq = nil
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
		a.db = nil
	}
	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
		a.tracing = nil
	}
	return errors.Join(errs...)
}
