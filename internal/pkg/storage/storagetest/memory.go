// Package storagetest provides an in-memory Storage with failure injection.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/m1chalz/AI-First-sub005/internal/pkg/storage"
)

var ErrInjected = errors.New("injected storage failure")

type MemoryStorage struct {
	mu      sync.Mutex
	temp    map[string][]byte
	objects map[string][]byte
	seq     int

	FailWrite  bool
	FailMove   bool
	FailRemove bool
	// FailMoveAfterPublish stores the object but still reports the move as
	// failed, like a rename whose directory sync fails.
	FailMoveAfterPublish bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		temp:    make(map[string][]byte),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStorage) WriteTemp(_ context.Context, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite {
		return "", ErrInjected
	}
	m.seq++
	handle := "tmp-" + strconv.Itoa(m.seq)
	m.temp[handle] = data
	return handle, nil
}

func (m *MemoryStorage) Move(_ context.Context, tempHandle, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.temp[tempHandle]
	delete(m.temp, tempHandle)
	if m.FailMove {
		return ErrInjected
	}
	if !ok {
		return storage.ErrNotFound
	}
	m.objects[key] = data
	if m.FailMoveAfterPublish {
		return ErrInjected
	}
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemove {
		return ErrInjected
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Keys lists published objects in sorted order.
func (m *MemoryStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.objects))
}

// Get returns the bytes stored under key.
func (m *MemoryStorage) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// TempCount is the number of unpublished temp objects.
func (m *MemoryStorage) TempCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.temp)
}
