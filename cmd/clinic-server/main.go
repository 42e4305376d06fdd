package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinichq/clinic-api/internal/config"
	"github.com/clinichq/clinic-api/internal/domain/activity"
	"github.com/clinichq/clinic-api/internal/domain/appointment"
	"github.com/clinichq/clinic-api/internal/domain/catalog"
	"github.com/clinichq/clinic-api/internal/domain/checkout"
	"github.com/clinichq/clinic-api/internal/domain/loyalty"
	"github.com/clinichq/clinic-api/internal/domain/patient"
	"github.com/clinichq/clinic-api/internal/domain/payment"
	"github.com/clinichq/clinic-api/internal/platform/auth"
	"github.com/clinichq/clinic-api/internal/platform/db"
	"github.com/clinichq/clinic-api/internal/platform/kvstore"
	"github.com/clinichq/clinic-api/internal/platform/middleware"
	"github.com/clinichq/clinic-api/internal/platform/payments"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// repos bundles every repository behind the storage backend selected at
// startup. The postgres and memory implementations are interchangeable; the
// memory backend is for development and tests and loses state on restart.
type repos struct {
	patients     patient.Repository
	services     catalog.ServiceRepository
	rooms        catalog.RoomRepository
	appointments appointment.Repository
	payments     payment.Repository
	activities   activity.Repository
	loyalty      loyalty.Repository
	preferences  kvstore.Store
}

func pgRepos(pool *pgxpool.Pool) repos {
	return repos{
		patients:     patient.NewRepoPG(pool),
		services:     catalog.NewServiceRepoPG(pool),
		rooms:        catalog.NewRoomRepoPG(pool),
		appointments: appointment.NewRepoPG(pool),
		payments:     payment.NewRepoPG(pool),
		activities:   activity.NewRepoPG(pool),
		loyalty:      loyalty.NewRepoPG(pool),
		preferences:  kvstore.NewPGStore(pool),
	}
}

func memoryRepos() repos {
	return repos{
		patients:     patient.NewRepoMemory(),
		services:     catalog.NewServiceRepoMemory(),
		rooms:        catalog.NewRoomRepoMemory(),
		appointments: appointment.NewRepoMemory(),
		payments:     payment.NewRepoMemory(),
		activities:   activity.NewRepoMemory(),
		loyalty:      loyalty.NewRepoMemory(),
		preferences:  kvstore.NewMemoryStore(),
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	// Storage backend
	var (
		r    repos
		pool *pgxpool.Pool
	)
	switch cfg.Storage {
	case "postgres":
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
		r = pgRepos(pool)
	default:
		logger.Warn().Msg("using in-memory storage; data will not survive a restart")
		r = memoryRepos()
	}

	// Mutations spanning several repositories run inside one transaction on
	// postgres. The memory backend has no transactions; its runner just
	// invokes the callback.
	var runTx func(ctx context.Context, fn func(ctx context.Context) error) error
	if pool != nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		}
	}

	// Payment provider
	var provider payments.Provider
	switch cfg.PaymentsMode {
	case "http":
		provider = payments.NewHTTPProvider(cfg.PaymentsURL, 10*time.Second)
		logger.Info().Str("url", cfg.PaymentsURL).Msg("using http payment provider")
	default:
		provider = payments.NewInProcessProvider()
	}

	// Services
	activitySvc := activity.NewService(r.activities)
	patientSvc := patient.NewService(r.patients)
	catalogSvc := catalog.NewCatalog(r.services, r.rooms)
	intake := appointment.IntakePrompterFunc(func(_ context.Context, appointmentID uuid.UUID, _ *uuid.UUID) {
		logger.Info().Str("appointment_id", appointmentID.String()).Msg("intake workflow offered")
	})
	appointmentSvc := appointment.NewService(r.appointments, activitySvc, intake)
	loyaltySvc := loyalty.NewService(r.loyalty, activitySvc, runTx)
	paymentSvc := payment.NewService(r.payments, r.appointments, loyaltySvc, activitySvc, runTx)
	checkoutSvc := checkout.NewService(provider, paymentSvc)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(cfg.AuthSecret))
	}

	e.GET("/healthz", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)
	checkout.NewHandler(checkoutSvc).RegisterRoutes(apiV1)
	loyalty.NewHandler(loyaltySvc).RegisterRoutes(apiV1)
	activity.NewHandler(activitySvc).RegisterRoutes(apiV1)
	kvstore.NewHandler(r.preferences).RegisterRoutes(apiV1)

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("storage", cfg.Storage).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
