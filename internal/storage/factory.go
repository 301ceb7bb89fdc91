package storage

import "fmt"

// Archive backend names accepted by NewStore and the -store CLI flag.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// DefaultStoreKind reports the backend a build selects when the caller does
// not name one. Builds carrying the sqlite tag default to sqlite.
func DefaultStoreKind() string {
	return defaultStoreKind
}

// NewStore builds an uninitialized run archive. Call Init before use; an
// empty kind selects the memory backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported archive backend %q (have %s, %s)", kind, KindMemory, KindSQLite)
	}
}

// CloseIfSupported closes backends that hold external resources. The memory
// backend has nothing to close.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
