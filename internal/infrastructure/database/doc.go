// Package database provides SQLite connectivity and schema migrations
// for campus-core.
//
// This package manages:
//   - The database connection (foreign keys on, WAL, busy timeout)
//   - goose migrations embedded from the top-level migrations package
//
// All queries elsewhere use parameterised statements. The file is
// created with 0600 permissions since it holds password hashes.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, logger); err != nil {
//	    return err
//	}
package database
