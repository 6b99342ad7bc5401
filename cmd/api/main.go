package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/email"
	"github.com/clinicore/clinic-api/internal/handler"
	appointmentHandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	doctorHandler "github.com/clinicore/clinic-api/internal/handler/doctor"
	notificationHandler "github.com/clinicore/clinic-api/internal/handler/notification"
	patientHandler "github.com/clinicore/clinic-api/internal/handler/patient"
	userHandler "github.com/clinicore/clinic-api/internal/handler/user"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/repository/postgres"
	"github.com/clinicore/clinic-api/internal/router"
	doctorService "github.com/clinicore/clinic-api/internal/service/doctor"
	"github.com/clinicore/clinic-api/internal/service/notifier"
	patientService "github.com/clinicore/clinic-api/internal/service/patient"
	"github.com/clinicore/clinic-api/internal/service/scheduling"
	userService "github.com/clinicore/clinic-api/internal/service/user"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.New("clinic_api", prometheus.DefaultRegisterer)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	userRepo := postgres.NewUserRepository(db)
	typeRepo := postgres.NewAppointmentTypeRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	notifierSvc := notifier.NewService(
		userRepo, doctorRepo, patientRepo, typeRepo, notificationRepo,
		cfg.Scheduling, appLogger, appMetrics,
	)
	mailer := email.NewSMTPService(cfg.SMTP)
	schedulingSvc := scheduling.NewService(
		appointmentRepo, doctorRepo, patientRepo, typeRepo,
		notifierSvc, mailer, cfg.Scheduling, appLogger,
	)
	doctorSvc := doctorService.NewService(doctorRepo, typeRepo)
	patientSvc := patientService.NewService(patientRepo)
	userSvc := userService.NewService(userRepo)

	availabilityCache := middleware.ResponseCache(
		cache.New(30*time.Second, time.Minute), 30*time.Second)

	r := router.NewRouter(
		handler.NewHandler(db),
		appMetrics,
		router.Config{
			RateLimit:      100,
			RateBurst:      200,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORS:           middleware.DefaultCORSConfig(),
		},
		appointmentHandler.NewHandler(schedulingSvc, notifierSvc, appLogger),
		doctorHandler.NewHandler(doctorSvc, schedulingSvc, availabilityCache),
		patientHandler.NewHandler(patientSvc),
		userHandler.NewHandler(userSvc),
		notificationHandler.NewHandler(notificationRepo),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
