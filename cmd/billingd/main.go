package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/billingkit/internal/db/migrations"
	"github.com/dmitrymomot/billingkit/modules/billing"
	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/config"
	"github.com/dmitrymomot/billingkit/pkg/entitlement"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/orggrant"
	"github.com/dmitrymomot/billingkit/pkg/pg"
	"github.com/dmitrymomot/billingkit/pkg/proration"
	"github.com/dmitrymomot/billingkit/pkg/redis"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
	"github.com/dmitrymomot/billingkit/pkg/upgrade"
	"github.com/dmitrymomot/billingkit/pkg/usage"
)

type appConfig struct {
	Env         string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReqTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`
	StopTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// CatalogPath points at a YAML plan catalog. Empty means plans are
	// read from the plans table instead.
	CatalogPath string        `env:"CATALOG_PATH"`
	CatalogTTL  time.Duration `env:"CATALOG_TTL" envDefault:"5m"`

	UsageKeyPrefix string `env:"USAGE_KEY_PREFIX" envDefault:"billing"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}

	log := logger.New(logger.WithEnvironment(appCfg.Env, "billingd"))
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var planSource catalog.Source
	if appCfg.CatalogPath != "" {
		planSource = catalog.NewFileSource(appCfg.CatalogPath)
	} else {
		planSource = catalog.NewPGSource(pool)
	}

	cat, err := catalog.New(ctx, planSource, catalog.WithTTL(appCfg.CatalogTTL))
	if err != nil {
		return err
	}

	store := subscription.NewPGStore(pool)
	grants := orggrant.NewResolver(orggrant.NewPGSource(pool), cat)

	ent, err := entitlement.NewResolver(cat,
		entitlement.WithProvider(entitlement.SourcePersonal, entitlement.NewStoreProvider(store)),
		entitlement.WithProvider(entitlement.SourceOrganization, grants),
	)
	if err != nil {
		return err
	}

	counter := usage.NewCounter(ent, usage.NewRedisSource(redisClient, appCfg.UsageKeyPrefix))
	calc := proration.NewCalculator(ent, cat)
	orch := upgrade.New(store, calc, cat)

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler(pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	r.Mount("/billing", billing.Router(billing.RouterOptions{
		Entitlements: ent,
		Usage:        counter,
		Quotes:       calc,
		Upgrades:     orch,
		Log:          log,
		Timeout:      appCfg.ReqTimeout,
	}))

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "http server listening", "addr", appCfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.InfoContext(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.StopTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
