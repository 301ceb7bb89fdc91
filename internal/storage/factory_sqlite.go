//go:build sqlite

package storage

const defaultStoreKind = KindSQLite

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		path = ":memory:"
	}
	return NewSQLiteStore(path), nil
}
