package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/app"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/config"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/controllers"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/metrics"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/routes"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/services"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	seeding "github.com/Arshie13/FAPRNA-sub000/backend/shared/go-seeding"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	appName := config.AppName
	if appName == "" {
		appName = config.DefaultAppName
	}
	utils.InitLogger(appName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repositories.ApplySchema(ctx, application.DB); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to apply database schema")
	}

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	tx := repositories.NewTransactor(application.DB)
	memberRepo := repositories.NewMemberRepository(application.DB)
	nominationRepo := repositories.NewNominationRepository(application.DB)
	settingsRepo := repositories.NewNominationSettingsRepository(application.DB)
	emailRepo := repositories.NewEmailVerificationRepository(application.DB)
	outboxRepo := repositories.NewNotificationOutboxRepository(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := seeding.SeedDefaultMembers(ctx, memberRepo); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed default members")
		}
		if err := seeding.SeedNominationYear(ctx, settingsRepo, time.Now().Year()); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed nomination settings")
		}
	}

	//----------------------------------------------------------------------
	// Metrics
	//----------------------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	notifier := services.NewSendGridNotifier(cfg, m)

	windowController := services.NewWindowController(settingsRepo, time.Now)
	identityResolver := services.NewIdentityResolver(memberRepo)

	nominationService := services.NewNominationService(
		tx,
		nominationRepo,
		memberRepo,
		outboxRepo,
		identityResolver,
		windowController,
		m,
		cfg.OutboxMaxAttempts,
		time.Now,
	)

	verificationService := services.NewVerificationService(cfg, emailRepo, notifier, m, time.Now)
	verificationCleanupService := services.NewVerificationCleanupService(emailRepo, cfg.UsedCodeGracePeriod, time.Now)
	dispatcher := services.NewOutboxDispatcher(outboxRepo, notifier, cfg, m, time.Now)

	//----------------------------------------------------------------------
	// Controllers & Router
	//----------------------------------------------------------------------
	router := routes.NewRouter(routes.Controllers{
		Health:       controllers.NewHealthController(application.DB),
		Nomination:   controllers.NewNominationController(nominationService),
		Admin:        controllers.NewAdminNominationController(nominationService),
		Settings:     controllers.NewSettingsController(windowController),
		Verification: controllers.NewVerificationController(verificationService),
	}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()

	_, schErr := c.AddFunc("0 3 * * *", func() {
		if e := verificationCleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled verification-codes cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule verification-codes cleanup job")
	}

	c.Start()
	defer c.Stop()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	//----------------------------------------------------------------------
	// Run server and outbox dispatcher until a signal arrives
	//----------------------------------------------------------------------
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		utils.Logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Logger.WithError(err).Error("Server stopped with error")
		return
	}
	utils.Logger.Info("Server stopped")
}
