// Package logger provides a slog factory with environment presets and a
// handful of attribute helpers used across the billing services.
//
// The factory wraps the chosen handler with a context decorator, so values
// registered with WithContextValue (request IDs and the like) are attached
// to every record logged with that context:
//
//	log := logger.New(
//	    logger.WithEnvironment(env, "billingd"),
//	    logger.WithContextValue("request_id", requestIDKey),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers keep log keys consistent:
//
//	log.ErrorContext(ctx, "upgrade failed",
//	    logger.Error(err),
//	    logger.AccountID(accountID),
//	    logger.PlanID(planID),
//	)
package logger
