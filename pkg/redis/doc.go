// Package redis provides Redis connectivity for the usage-event source:
// URL-based configuration from the environment, connection with bounded
// retries, and a health probe.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// The returned *redis.Client is the go-redis client; callers pass it to
// usage.NewRedisSource and friends.
package redis
