// Package catalog provides the subscription plan registry: plan definitions,
// tier ordering, per-cycle pricing, and typed feature values.
//
// Plans are loaded from a Source (in-memory, YAML file, or Postgres) and
// served from an explicitly owned Catalog instance. The Catalog caches the
// loaded plan set and transparently reloads it from the Source once the
// configured TTL elapses; a failed reload keeps serving the last good set.
//
// Feature values form a closed union: a boolean flag, an integer limit, or
// unlimited. Looking up a key that a plan does not define yields an absent
// value, which every consumer must treat as "feature not available".
//
// Example:
//
//	cat, err := catalog.New(ctx, catalog.NewInMemSource(plans), catalog.WithTTL(5*time.Minute))
//	if err != nil {
//		// handle error
//	}
//
//	plan, err := cat.Plan(ctx, "plan_advanced")
//	if plan.Feature(catalog.FeatureAIAnalysis).Enabled() {
//		// plan includes AI analysis
//	}
package catalog
