package billing

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/billingkit/pkg/entitlement"
	"github.com/dmitrymomot/billingkit/pkg/proration"
	"github.com/dmitrymomot/billingkit/pkg/upgrade"
	"github.com/dmitrymomot/billingkit/pkg/usage"
)

// RouterOptions carries the engine services the billing module exposes
// over HTTP. All services are required.
type RouterOptions struct {
	Entitlements *entitlement.Resolver
	Usage        *usage.Counter
	Quotes       *proration.Calculator
	Upgrades     *upgrade.Orchestrator

	Log *slog.Logger
	// Timeout bounds each storage-backed request. Zero disables the bound.
	Timeout time.Duration
}

// Router mounts the entitlement engine's read and commit endpoints.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.Router(billing.RouterOptions{
//	    Entitlements: resolver,
//	    Usage:        counter,
//	    Quotes:       calculator,
//	    Upgrades:     orchestrator,
//	    Log:          log,
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Entitlements == nil || opts.Usage == nil || opts.Quotes == nil || opts.Upgrades == nil {
		panic("billing: all services are required")
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	h := &handlers{opts: opts}

	r := chi.NewRouter()
	r.Get("/entitlement", h.entitlement)
	r.Get("/quota", h.quota)
	r.Get("/quote", h.quote)
	r.Post("/upgrade", h.commitUpgrade)
	r.Post("/downgrade", h.scheduleDowngrade)
	return r
}
