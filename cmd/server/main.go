package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"addresslookup/internal/addresslookup/lookup"
	addressmetrics "addresslookup/internal/addresslookup/metrics"
	"addresslookup/internal/addresslookup/models"
	"addresslookup/internal/addresslookup/service"
	httpapi "addresslookup/internal/http"
	"addresslookup/internal/platform/config"
	"addresslookup/internal/platform/httpserver"
	"addresslookup/internal/platform/logger"
	"addresslookup/internal/platform/metrics"
	"addresslookup/internal/platform/redis"
	sessionstore "addresslookup/internal/session/store"
	"addresslookup/internal/wizard"
	"addresslookup/pkg/platform/circuit"
)

const pruneInterval = time.Minute

// main wires the demo wizard: an intro step, the address step and a summary.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	var (
		sessions sessionstore.Store
		memory   *sessionstore.InMemoryStore
		health   httpapi.HealthCheck
	)
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client, cfg.Session.TTL)
		health = redisClient.Health
		log.Info("using redis session store")
	} else {
		memory = sessionstore.NewInMemory(cfg.Session.TTL)
		sessions = memory
		log.Info("using in-memory session store")
	}

	stepMetrics := addressmetrics.New()
	addressStep := &models.Settings{
		AddressKey: cfg.Step.AddressKey,
		Required:   cfg.Step.Required,
		APISettings: models.APISettings{
			Hostname:      cfg.Lookup.Hostname,
			Authorization: cfg.Lookup.Authorization,
		},
		Validate: models.ValidateSettings{AllowedCountries: cfg.Step.AllowedCountries},
	}
	w, err := wizard.New([]wizard.Step{
		{Path: "/", Next: cfg.Step.Path, Fields: []string{"name"}},
		{Path: cfg.Step.Path, Next: cfg.Step.Next, Address: addressStep},
		{Path: cfg.Step.Next, Next: "/done", Fields: []string{"email"}},
		{Path: "/done"},
	}, sessions, lookupFactory(cfg.Lookup, log, stepMetrics),
		wizard.WithLogger(log),
		wizard.WithMetrics(stepMetrics),
	)
	if err != nil {
		return fmt.Errorf("build wizard: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Metrics:        metrics.New(),
		Session:        cfg.Session,
		RequestTimeout: cfg.Server.RequestTimeout,
		Wizard:         w,
		Health:         health,
		MetricsHandler: metrics.Handler(),
	})
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting address lookup server", "addr", cfg.Server.Addr, "step", cfg.Step.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if memory != nil {
		g.Go(func() error {
			ticker := time.NewTicker(pruneInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := memory.PruneExpired(); n > 0 {
						log.Debug("pruned expired sessions", "count", n)
					}
				}
			}
		})
	}
	return g.Wait()
}

// lookupFactory builds postcode clients sharing one breaker per API host.
func lookupFactory(cfg config.Lookup, log *slog.Logger, m *addressmetrics.Metrics) wizard.LookupFactory {
	breakers := make(map[string]*circuit.Breaker)
	return func(settings models.APISettings) (service.Lookuper, error) {
		opts := []lookup.Option{
			lookup.WithTimeout(cfg.Timeout),
			lookup.WithLogger(log),
			lookup.WithMetrics(m),
		}
		if cfg.BreakerFailures > 0 {
			b, ok := breakers[settings.Hostname]
			if !ok {
				b = circuit.New("postcode-api",
					circuit.WithFailureThreshold(cfg.BreakerFailures),
					circuit.WithSuccessThreshold(cfg.BreakerSuccesses),
					circuit.WithCooldown(cfg.BreakerCooldown),
				)
				breakers[settings.Hostname] = b
			}
			opts = append(opts, lookup.WithBreaker(b))
		}
		return lookup.New(settings, opts...)
	}
}
