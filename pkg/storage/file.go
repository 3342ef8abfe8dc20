package storage

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/benmeehan/location-agent/pkg/file"
)

// FileStore persists all keys as one JSON object on disk. Writes replace the file atomically.
type FileStore struct {
	path       string
	fileClient file.FileOperations
	mu         sync.Mutex
}

// NewFileStore creates a FileStore backed by the JSON file at path.
func NewFileStore(path string, fileClient file.FileOperations) *FileStore {
	return &FileStore{
		path:       path,
		fileClient: fileClient,
	}
}

func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = value
	return f.fileClient.WriteJsonFile(f.path, items)
}

func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.fileClient.WriteJsonFile(f.path, items)
}

// load reads the backing file. A missing file is an empty store.
func (f *FileStore) load() (map[string]string, error) {
	items := make(map[string]string)
	if err := f.fileClient.ReadJsonFile(f.path, &items); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	if items == nil {
		items = make(map[string]string)
	}
	return items, nil
}
