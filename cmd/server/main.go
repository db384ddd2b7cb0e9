package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pvcaisse/internal/cache"
	"pvcaisse/internal/config"
	"pvcaisse/internal/infra"
	"pvcaisse/internal/repository"
	"pvcaisse/internal/router"
	"pvcaisse/internal/service"
	"pvcaisse/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title PV de Caisse API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Repositories ─────────────────────────────────────────────────────────
	utilisateurRepo := repository.NewUtilisateurRepository(db)
	agenceRepo := repository.NewAgenceRepository(db)
	pvRepo := repository.NewPVRepository(db)
	configRepo := repository.NewConfigurationRepository(db)
	categorieRepo := repository.NewCategorieRepository(db)
	rapportRepo := repository.NewRapportRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	configSvc := service.NewConfigurationService(configRepo, cache.NewRedisCatalogueCache(rdb), cfg.ConfigCacheTTL)
	pvSvc := service.NewPVService(pvRepo, utilisateurRepo, agenceRepo, configSvc)
	svcs := router.Services{
		Auth:          service.NewAuthService(utilisateurRepo, agenceRepo, cfg),
		PV:            pvSvc,
		Rapports:      service.NewRapportService(pvSvc, agenceRepo, rapportRepo, dispatcher, infra.GenerateConsolidationPDF, cfg.PDFStoragePath, cfg.RapportDestinataire),
		Configuration: configSvc,
		Agences:       service.NewAgenceService(agenceRepo),
		Categories:    service.NewCategorieService(categorieRepo),
	}

	// ── Workers ──────────────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	if !mailer.Configured() {
		log.Warn().Msg("SMTP_HOST not set, report emails will fail and be retried")
	}
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	rapportWorker := worker.NewRapportWorker(worker.RapportWorkerConfig{
		Rapports:       rapportRepo,
		PV:             pvSvc,
		Render:         infra.GenerateConsolidationPDF,
		Mailer:         mailer,
		CB:             smtpCB,
		RDB:            rdb,
		PDFStoragePath: cfg.PDFStoragePath,
		MaxTentatives:  cfg.RapportMaxTentatives,
	})
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Processor{
		worker.JobRapport: rapportWorker,
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Rapports: rapportRepo,
		Worker:   rapportWorker,
		CB:       smtpCB,
	})

	r := router.New(cfg, db, rdb, smtpCB, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("PV de caisse backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}
