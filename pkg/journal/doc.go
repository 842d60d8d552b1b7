// Package journal keeps a history of secrets reload attempts.
//
// Each entry records when a secrets file was picked up, what happened to it
// and, for applied files, the resulting generation and rule count. Entries
// never carry placeholders or real keys.
//
// # Backends
//
//   - MemoryStore: bounded in-process history, lost on exit
//   - SQLiteStore: durable history in a local SQLite database
//
// Both trim the history to a configured number of entries, oldest first.
//
// # Usage
//
//	store, err := journal.NewSQLiteStore(journal.SQLiteConfig{
//	    DBPath:     "/var/lib/apikeywall/journal.db",
//	    MaxEntries: 1000,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	entries, err := store.List(ctx, journal.Query{Limit: 20})
package journal
