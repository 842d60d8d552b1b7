package journal

import (
	"github.com/RichardSufliarsky/apikeywall/pkg/config"
)

// Open opens the SQLite journal described by cfg. The Enabled flag is not
// consulted so that tools can read an existing journal.
func Open(cfg config.JournalConfig) (*SQLiteStore, error) {
	path, err := config.ExpandHome(cfg.Path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(SQLiteConfig{
		DBPath:     path,
		MaxEntries: cfg.MaxEntries,
	})
}
