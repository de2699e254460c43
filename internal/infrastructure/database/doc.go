// Package database opens the SQLite file that holds the controller journal
// and applies embedded schema migrations.
//
// Migrations live in the top-level migrations package and are passed to
// Migrate as an fs.FS:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are NULLable or carry a DEFAULT.
package database
