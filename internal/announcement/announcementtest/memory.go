// Package announcementtest provides an in-memory announcement repository for tests.
package announcementtest

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
)

// MemoryRepository implements announcement.Repository over a map. A single
// mutex stands in for the row lock taken by UpdatePhoto.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]announcement.Announcement

	// UpdateErr, when set, fails UpdatePhoto after the check has passed.
	UpdateErr error
	// Updates counts committed photo updates.
	Updates int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]announcement.Announcement)}
}

func (r *MemoryRepository) Create(_ context.Context, a *announcement.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.rows[strings.ToLower(a.ID)] = *a
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*announcement.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[strings.ToLower(id)]
	if !ok {
		return nil, announcement.ErrNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*announcement.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*announcement.Announcement, 0, len(r.rows))
	for _, a := range r.rows {
		result = append(result, &a)
	}
	slices.SortFunc(result, func(a, b *announcement.Announcement) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return result, nil
}

func (r *MemoryRepository) UpdatePhoto(_ context.Context, id, key string, check announcement.PhotoCheck) (*announcement.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[strings.ToLower(id)]
	if !ok {
		return nil, announcement.ErrNotFound
	}

	if check != nil {
		locked := a
		if err := check(&locked); err != nil {
			return nil, err
		}
	}
	if r.UpdateErr != nil {
		return nil, r.UpdateErr
	}

	a.PhotoURL = &key
	a.UpdatedAt = time.Now().UTC()
	r.rows[strings.ToLower(id)] = a
	r.Updates++
	return &a, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[strings.ToLower(id)]
	if !ok {
		return nil, announcement.ErrNotFound
	}
	delete(r.rows, strings.ToLower(id))
	return a.PhotoURL, nil
}

// SetUpdateErr swaps the injected UpdatePhoto failure under the lock.
func (r *MemoryRepository) SetUpdateErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateErr = err
}
