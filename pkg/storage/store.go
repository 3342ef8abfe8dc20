package storage

import (
	"fmt"

	"github.com/benmeehan/location-agent/pkg/file"
)

// Store is a string key-value store. Each call reads or writes a single key atomically.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the Store for the named backend. path is the file or database location for
// the file and sqlite backends and is ignored for memory.
func Open(backend, path string, fileClient file.FileOperations) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(path, fileClient), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
