package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	billingmod "github.com/enrollkit/enrollkit/modules/billing"
	"github.com/enrollkit/enrollkit/pkg/accessgate"
	"github.com/enrollkit/enrollkit/pkg/billing"
	"github.com/enrollkit/enrollkit/pkg/config"
	"github.com/enrollkit/enrollkit/pkg/httpserver"
	"github.com/enrollkit/enrollkit/pkg/logger"
	"github.com/enrollkit/enrollkit/pkg/pg"
	"github.com/enrollkit/enrollkit/pkg/tenant"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	// Schools are resolved from the subdomain when a suffix is set,
	// e.g. ".enrollkit.app"; the X-School-Slug header is the fallback.
	TenantSuffix string `env:"TENANT_DOMAIN_SUFFIX"`

	// Optional YAML price catalog; the two env-configured price slots are
	// used when unset.
	CatalogPath string `env:"BILLING_CATALOG_PATH"`
}

func runServe(ctx context.Context) error {
	var (
		appCfg     appConfig
		pgCfg      pg.Config
		httpCfg    httpserver.Config
		stripeCfg  billing.StripeConfig
		catalogCfg billing.CatalogConfig
		modCfg     billingmod.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&catalogCfg)
	config.MustLoad(&modCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Environment, "enrollkit"),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := billing.NewPgStore(pool)
	schools := tenant.NewPgProvider(pool)

	provider, err := buildProvider(stripeCfg, log)
	if err != nil {
		return err
	}

	catalog, err := buildCatalog(appCfg, catalogCfg)
	if err != nil {
		return fmt.Errorf("load price catalog: %w", err)
	}

	svc := billing.NewService(store, provider, catalog, billing.WithLogger(log))

	gate := accessgate.New(store, log)
	resolver := buildResolver(appCfg)

	mod := billingmod.NewModule(svc, modCfg,
		billingmod.WithLogger(log),
		billingmod.WithProcessorConfigured(stripeCfg.Configured()))
	webhook := billingmod.NewWebhookHandler(svc, billingmod.WithLogger(log))

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)

	r.Get("/health", httpserver.HealthCheckHandler(log, pg.Healthcheck(pool)))

	// The webhook caller is the payment processor: no tenant, no gate.
	r.Method(http.MethodPost, "/webhooks/stripe", webhook)

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(resolver, schools,
			tenant.WithSkipPaths([]string{"/webhooks", "/health"})))
		r.Use(gate.Middleware)

		r.Mount("/billing", mod.Handle())
	})

	return httpserver.New(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

func buildProvider(cfg billing.StripeConfig, log *slog.Logger) (billing.Provider, error) {
	if !cfg.Configured() {
		log.Warn("stripe credentials missing, billing runs in disabled mode")
		return billing.NewDisabledProvider(), nil
	}
	provider, err := billing.NewStripeProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure stripe: %w", err)
	}
	return provider, nil
}

func buildCatalog(appCfg appConfig, cfg billing.CatalogConfig) (*billing.Catalog, error) {
	if appCfg.CatalogPath == "" {
		return billing.NewCatalogFromConfig(cfg)
	}

	f, err := os.Open(appCfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return billing.NewCatalogFromYAML(f)
}

func buildResolver(cfg appConfig) tenant.Resolver {
	header := tenant.NewHeaderResolver("")
	if cfg.TenantSuffix == "" {
		return header
	}
	return tenant.NewCompositeResolver(
		tenant.NewSubdomainResolver(cfg.TenantSuffix),
		header,
	)
}
