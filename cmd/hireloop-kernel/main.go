package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hireloop/hireloop/internal/adapters/docker"
	"github.com/hireloop/hireloop/internal/adapters/duckdb"
	"github.com/hireloop/hireloop/internal/adapters/gemini"
	"github.com/hireloop/hireloop/internal/adapters/greenhouse"
	appconfig "github.com/hireloop/hireloop/internal/config"
	"github.com/hireloop/hireloop/internal/core/ports"
	"github.com/hireloop/hireloop/internal/core/services"
	"github.com/hireloop/hireloop/internal/logger"
	"github.com/hireloop/hireloop/internal/matching"
	"github.com/hireloop/hireloop/pkg/kernel"
)

func main() {
	configPath := flag.String("config", os.Getenv("HIRELOOP_CONFIG"), "path to YAML config")
	flag.Parse()

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("starting hireloop kernel")

	if err := run(log, cfg); err != nil {
		log.Error("kernel startup failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg appconfig.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		cancel()
	}()

	// Storage
	repo, err := duckdb.NewRepository(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repo.Close()

	// Secrets: keyring, env, then encrypted settings
	secretKey, err := appconfig.NewSecretKey()
	if err != nil {
		return fmt.Errorf("init secret key: %w", err)
	}
	secrets := appconfig.NewSecrets(log, repo, secretKey)

	// Generation collaborators degrade gracefully without an API key:
	// tailoring and cover letters fail their hops, matching and tracking
	// keep working.
	var generator ports.ArtifactGenerator
	var parser ports.ResumeParser
	if apiKey, err := secrets.Get(ctx, "gemini_api_key"); err != nil {
		return fmt.Errorf("load gemini api key: %w", err)
	} else if apiKey != "" {
		gen, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, log)
		if err != nil {
			return fmt.Errorf("init gemini: %w", err)
		}
		generator = gen
		parser = gemini.NewParser(gen)
	} else {
		log.Warn("no gemini api key set, generation stages disabled")
	}

	// Form submission workers; optional when no docker daemon is around.
	var submitter ports.FormSubmitter
	if workerMgr, err := docker.NewManager(); err != nil {
		log.Warn("docker unavailable, form submission disabled", "error", err)
	} else {
		submitter = docker.NewSubmitter(cfg.Submitter, workerMgr, log)
	}

	scraper := greenhouse.New(cfg.Scraper, log)
	engine := matching.NewEngine(cfg.Matching)

	// Core services
	bus := services.NewEventBus(log)
	memory := services.NewSharedMemoryStore(log, repo)

	registry := services.NewRegistry(log)
	caps := []ports.Capability{
		services.NewProfileCapability(log, repo),
		services.NewResumeParserCapability(log, repo, parser),
		services.NewScraperCapability(log, repo, []ports.JobSource{scraper}, 0),
		services.NewMatcherCapability(log, repo, engine, cfg.Matching.ScoreThreshold),
		services.NewResumeTailorCapability(log, repo, generator),
		services.NewCoverLetterCapability(log, repo, generator),
		services.NewFormFillerCapability(log, repo, submitter),
		services.NewQACapability(log, repo, generator),
		services.NewTrackerCapability(log, repo),
		services.NewDigestCapability(log, repo, generator, cfg.Matching.ScoreThreshold),
	}
	for _, c := range caps {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", c.Name(), err)
		}
	}

	orch := services.NewOrchestrator(services.OrchestratorConfig{
		MaxHops:        cfg.Pipeline.MaxHops,
		MaxRetries:     cfg.Pipeline.MaxRetries,
		RetryBaseDelay: cfg.Pipeline.RetryBaseDelay(),
	}, log, registry, memory, bus)

	pool := services.NewRunPool(log, services.RunPoolConfig{
		MaxConcurrentRuns: int64(cfg.Pipeline.MaxConcurrentRuns),
		QueueSize:         cfg.Pipeline.QueueSize,
	})

	apiServer := kernel.NewServer(log, repo, orch, pool, bus, cfg.Server.CORSOrigins)
	pool.Start(ctx, apiServer.ExecuteRun)

	var scheduler *services.DigestScheduler
	if cfg.Pipeline.DigestCron != "" {
		scheduler, err = services.NewDigestScheduler(log, repo, pool, cfg.Pipeline.DigestCron)
		if err != nil {
			return fmt.Errorf("init digest scheduler: %w", err)
		}
	}

	handler, err := apiServer.Handler()
	if err != nil {
		return fmt.Errorf("build api handler: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Run(gCtx)
		})
	}

	g.Go(func() error {
		log.Info("starting api server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
