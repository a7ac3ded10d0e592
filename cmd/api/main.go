package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/ai-coupon-service/internal/config"
	"github.com/fairyhunter13/ai-coupon-service/internal/generator"
	"github.com/fairyhunter13/ai-coupon-service/internal/handler"
	"github.com/fairyhunter13/ai-coupon-service/internal/metrics"
	"github.com/fairyhunter13/ai-coupon-service/internal/repository"
	"github.com/fairyhunter13/ai-coupon-service/internal/service"
	"github.com/fairyhunter13/ai-coupon-service/internal/tracing"
	"github.com/fairyhunter13/ai-coupon-service/internal/validator"
	"github.com/fairyhunter13/ai-coupon-service/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	loc, err := cfg.Server.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracerProvider(tracing.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize tracing")
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("error flushing traces")
			}
		}()
	}

	pool, err := database.NewPool(ctx, database.PoolOptions{
		DSN:        cfg.DB.DSN(),
		MaxRetries: cfg.DB.ConnectRetries,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	if cfg.AI.APIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty, code generation requests will fail")
	}
	gen := generator.NewOpenAI(generator.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})

	app := fiber.New(fiber.Config{
		AppName:      "AI Coupon Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	couponRepo := repository.NewCouponRepository(pool)
	couponService := service.NewCouponService(pool, couponRepo, gen, service.Options{
		AIValidationEnabled: cfg.AI.ValidationEnabled,
		Location:            loc,
	})
	couponHandler := handler.NewCouponHandler(couponService, validator.New(), metrics.New(prometheus.DefaultRegisterer))
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/submit-coupon", couponHandler.SubmitCoupon)
	app.Get("/validate-coupon-ai", couponHandler.ValidateCoupon)
	app.Get("/validate-by-store", couponHandler.ValidateByStore)

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("timezone", loc.String()).
			Bool("ai_validation", cfg.AI.ValidationEnabled).
			Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// in-flight requests finish before the pool goes away
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
