// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each package that needs configuration declares its own struct with `env`
// tags and loads it at startup:
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg)
//
//	var redisCfg redis.Config
//	config.MustLoad(&redisCfg)
//
// Values are cached per struct type, so the same config can be loaded from
// multiple places without re-reading the environment. Parsing is delegated
// to github.com/caarlos0/env; see its documentation for supported tag
// options such as `required` and `envDefault`.
package config
