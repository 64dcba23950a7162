package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/medaminemghirbi/SallaPro/config"
	"github.com/medaminemghirbi/SallaPro/internal/auth"
	"github.com/medaminemghirbi/SallaPro/internal/consumer"
	"github.com/medaminemghirbi/SallaPro/internal/handler"
	"github.com/medaminemghirbi/SallaPro/internal/middleware"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/numbering"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/medaminemghirbi/SallaPro/internal/service"
	"github.com/medaminemghirbi/SallaPro/pkg/database"
	"github.com/medaminemghirbi/SallaPro/pkg/rabbitmq"
	"github.com/redis/go-redis/v9"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply the schema and exit")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	if *migrateOnly {
		log.Println("schema is up to date")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	contractRepo := repository.NewContractRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// RabbitMQ is optional: without it events are dropped and the venue
	// catalogue is not synced.
	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect publisher to RabbitMQ: %v", err)
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect consumer to RabbitMQ: %v", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.Fatalf("failed to start consuming: %v", err)
		}
		consumer.NewVenueConsumer(venueRepo).Start(ctx, msgs)
	} else {
		log.Println("RABBITMQ_URL not set, domain events are disabled")
	}

	var revoker auth.Revoker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		revoker = auth.NewRedisRevoker(rdb)
	} else {
		revoker = auth.NewUserRevoker(userRepo)
	}
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// Services
	counter := numbering.NewCounter()
	ledger := service.NewReservationService(reservationRepo, venueRepo, counter, publisher)
	contractSvc := service.NewContractService(contractRepo, venueRepo, userRepo, documentRepo, ledger, counter, publisher)
	authSvc := service.NewAuthService(userRepo, issuer, revoker)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.BodyLimit("12M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "sallapro-venues"})
	})

	authMw := middleware.JWTAuth(issuer, revoker)
	handler.NewAuthHandler(authSvc).RegisterRoutes(e, authMw)

	company := e.Group("/api/v1/companies/:company_id",
		authMw,
		middleware.CompanyScope(),
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
	)
	handler.NewContractHandler(contractSvc).RegisterRoutes(company)
	handler.NewReservationHandler(ledger).RegisterRoutes(company)

	go func() {
		log.Printf("SallaPro venue service starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
