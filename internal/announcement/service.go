package announcement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/auth"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/apperror"
	"github.com/m1chalz/AI-First-sub005/internal/validation"
)

// PhotoRemover deletes a stored photo by key.
type PhotoRemover interface {
	Remove(ctx context.Context, key string) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Created, error)
	GetByID(ctx context.Context, id string) (*Announcement, error)
	List(ctx context.Context) ([]*Announcement, error)

	// Delete hard-deletes the announcement. Removing its photo is best effort.
	Delete(ctx context.Context, id string) error

	// Authorize loads the announcement, bypassing the read cache, and checks
	// its management password.
	Authorize(ctx context.Context, id, managementPassword string) (*Announcement, error)

	// BindPhoto points the announcement at a stored photo key under a row lock.
	BindPhoto(ctx context.Context, id, key string, check PhotoCheck) (*Announcement, error)
}

// Options tunes optional behavior of the service.
type Options struct {
	CacheSize int           // 0 disables the read cache
	CacheTTL  time.Duration // Lifetime of a cached read
	Now       func() time.Time
}

type service struct {
	repo    Repository
	hasher  auth.PasswordHasher
	photos  PhotoRemover
	log     *zap.Logger
	cache   *expirable.LRU[string, Announcement]
	now     func() time.Time
	genPass func() (string, error)

	// cacheMu orders fills against invalidations. gen is bumped by every
	// invalidation; a read only fills the cache if gen did not move meanwhile.
	cacheMu sync.Mutex
	gen     uint64
}

func NewService(repo Repository, hasher auth.PasswordHasher, photos PhotoRemover, log *zap.Logger, opts Options) Service {
	s := &service{
		repo:    repo,
		hasher:  hasher,
		photos:  photos,
		log:     log,
		now:     opts.Now,
		genPass: auth.GenerateManagementPassword,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if opts.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, Announcement](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Created, error) {
	if errs := ValidateCreate(req, s.now()); errs.HasErrors() {
		return nil, apperror.Validation(errs)
	}

	lastSeen, _ := time.Parse(DateLayout, strings.TrimSpace(req.LastSeenDate))

	password, err := s.genPass()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to create announcement")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to create announcement")
	}

	status := StatusActive
	if req.Status != nil {
		status = Status(strings.TrimSpace(*req.Status))
	}

	a := &Announcement{
		ID:                     uuid.NewString(),
		PetName:                validation.SanitizeOptional(req.PetName, maxPetNameLen),
		Species:                Species(strings.TrimSpace(req.Species)),
		Breed:                  validation.SanitizeOptional(req.Breed, maxBreedLen),
		Sex:                    Sex(strings.TrimSpace(req.Sex)),
		Age:                    req.Age,
		Description:            validation.SanitizeOptional(req.Description, maxDescriptionLen),
		MicrochipNumber:        trimOptional(req.MicrochipNumber),
		LastSeenDate:           lastSeen,
		Email:                  strings.TrimSpace(req.Email),
		Phone:                  strings.TrimSpace(req.Phone),
		Status:                 status,
		ManagementPasswordHash: hash,
		Reward:                 validation.SanitizeOptional(req.Reward, maxRewardLen),
	}
	if req.LocationLatitude != nil && req.LocationLongitude != nil {
		a.Location = &Location{Latitude: *req.LocationLatitude, Longitude: *req.LocationLongitude}
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperror.Wrap(err, apperror.KindPersistence, "failed to create announcement")
	}

	s.log.Info("announcement created",
		zap.String("announcement_id", a.ID),
		zap.String("species", string(a.Species)),
		zap.String("status", string(a.Status)),
	)

	return &Created{ID: a.ID, ManagementPassword: password}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Announcement, error) {
	if s.cache == nil {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoError(err, "failed to get announcement")
		}
		return a, nil
	}

	if cached, ok := s.cache.Get(cacheKey(id)); ok {
		return cached.Clone(), nil
	}

	gen := s.generation()
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "failed to get announcement")
	}
	s.fill(id, gen, a)
	return a, nil
}

func (s *service) List(ctx context.Context) ([]*Announcement, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapRepoError(err, "failed to list announcements")
	}
	return list, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	photoKey, err := s.repo.Delete(ctx, id)
	if err != nil {
		return mapRepoError(err, "failed to delete announcement")
	}
	s.invalidate(id)

	if photoKey != nil && *photoKey != "" && s.photos != nil {
		if err := s.photos.Remove(ctx, *photoKey); err != nil {
			s.log.Warn("failed to remove photo of deleted announcement",
				zap.String("announcement_id", id),
				zap.String("photo_key", *photoKey),
				zap.Error(err),
			)
		}
	}

	s.log.Info("announcement deleted", zap.String("announcement_id", id))
	return nil
}

func (s *service) Authorize(ctx context.Context, id, managementPassword string) (*Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "failed to get announcement")
	}

	if managementPassword == "" || s.hasher.Compare(a.ManagementPasswordHash, managementPassword) != nil {
		return nil, apperror.Wrap(ErrInvalidLogin, apperror.KindUnauthorized, "invalid management password")
	}
	return a, nil
}

func (s *service) BindPhoto(ctx context.Context, id, key string, check PhotoCheck) (*Announcement, error) {
	// Drop the cached copy even if the update fails; the row may have changed.
	defer s.invalidate(id)

	a, err := s.repo.UpdatePhoto(ctx, id, key, check)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, mapRepoError(err, "failed to bind photo")
	}
	return a, nil
}

func (s *service) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gen
}

// fill caches a copy of a unless an invalidation happened since gen was read.
func (s *service) fill(id string, gen uint64, a *Announcement) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen == gen {
		s.cache.Add(cacheKey(id), *a.Clone())
	}
}

func (s *service) invalidate(id string) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gen++
	s.cache.Remove(cacheKey(id))
}

// cacheKey folds the uuid text so every spelling of an id shares one entry.
func cacheKey(id string) string {
	return strings.ToLower(id)
}

func mapRepoError(err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.Wrap(err, apperror.KindNotFound, "announcement not found")
	}
	return apperror.Wrap(err, apperror.KindPersistence, message)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
