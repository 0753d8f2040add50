// Package database provides SQLite connectivity for the event journal.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Applying versioned up/down SQL migrations from an fs.FS
//   - Health checks used by the HTTP health endpoint
//
// The journal is an audit trail only. Nothing in the server reads it back to
// rebuild game state, so losing the file loses history but never devices.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/journal.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
