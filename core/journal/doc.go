// Package journal keeps an audit trail of roster changes in a SQL database.
//
// Every change delivered by a reconciler can be stored as an Entry in the
// presence_changes table, classified as a join (the key was absent), a leave (the key
// lost its last instance) or an update. Instance references before and after the change
// are stored as JSON arrays.
//
// The Recorder works with any gorm dialector opened by core/database (MySQL or SQLite).
//
// # Usage
//
//	rec := journal.NewRecorder(db, logger)
//	if err := rec.Migrate(ctx); err != nil {
//	    return err
//	}
//	reconciler.OnChange(rec.Observer(ctx, "room:lobby"))
package journal
