package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/hidenkeys/studios/booking"
	"github.com/hidenkeys/studios/config"
	"github.com/hidenkeys/studios/notify"
	"github.com/hidenkeys/studios/pricing"
	"github.com/hidenkeys/studios/storage"
	"github.com/hidenkeys/studios/studio"
	"github.com/hidenkeys/studios/user"
	"gorm.io/gorm"
)

// application is the wired service. close releases everything it opened.
type application struct {
	cfg      config.Config
	db       *gorm.DB
	calendar pricing.Calendar
	units    *storage.Units
	service  *booking.Service
	guard    *user.Guard
	closers  []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setup connects the store, applies migrations and builds the booking service.
func setup(ctx context.Context, cfg config.Config) (*application, error) {
	a := &application{cfg: cfg}

	cal, err := pricing.LoadCalendar(cfg.SeasonFile)
	if err != nil {
		return nil, err
	}
	a.calendar = cal

	db, err := storage.Connect(cfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { sqlDB.Close() })
	}

	if err := storage.Migrate(db); err != nil {
		a.close()
		return nil, err
	}
	if err := user.Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		a.close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	var broker storage.Broker = storage.NewLocalBroker()
	if cfg.RedisURL != "" {
		rb, err := storage.NewRedisBroker(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, err
		}
		broker = rb
		a.closers = append(a.closers, func() {
			if err := rb.Close(); err != nil {
				log.Warnf("close redis broker: %v", err)
			}
		})
	}

	a.units = storage.NewUnits(db)
	repo := storage.NewReservations(db, broker)
	a.service = booking.NewService(repo, a.units, cal, booking.WithNotifier(notify.FromConfig(cfg)))
	a.closers = append(a.closers, a.service.Close)
	return a, nil
}

func (a *application) withGuard() error {
	guard, err := user.NewGuard(a.cfg.JWTSecret, a.cfg.JWKSURL)
	if err != nil {
		return err
	}
	a.guard = guard
	a.closers = append(a.closers, guard.Close)
	return nil
}

func (a *application) fiberApp() *fiber.App {
	app := fiber.New(fiber.Config{AppName: "STUDIOS"})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	api := app.Group("/api/v1")
	publicRoutes(api,
		studio.NewHandler(a.units, a.calendar),
		booking.NewHandler(a.service, a.units),
	)
	authRoutes(api.Group("/auth"), user.NewHandler(a.db, a.guard))
	adminRoutes(api.Group("/admin", a.guard.RequireAdmin),
		studio.NewHandler(a.units, a.calendar),
		booking.NewHandler(a.service, a.units),
		user.NewHandler(a.db, a.guard),
	)

	app.Static("/", "./dist")
	// Set up a wildcard route to serve the index.html for all routes not matching an API route
	app.Get("/*", func(c fiber.Ctx) error {
		return c.SendFile("./dist/index.html")
	})
	return app
}
