// Package pg wires PostgreSQL connectivity for the billing stores: pool
// construction with retry, embedded goose migrations, a health probe, and
// error classification helpers shared by the query layers.
//
// Configuration comes from environment variables (see Config). A typical
// startup sequence:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//	    return err
//	}
//
// The error helpers (IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError) let stores translate driver errors into their
// own sentinel errors without importing pgconn everywhere.
package pg
