package photo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/apperror"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/keylock"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/storage"
	"github.com/m1chalz/AI-First-sub005/internal/validation"
)

var ErrPhotoExists = errors.New("announcement already has a photo")

// UploadRequest carries one photo upload attempt.
type UploadRequest struct {
	AnnouncementID     string
	ManagementPassword string
	Data               []byte
	Filename           string // Declared by the client; informational only
}

// Options tunes the replacement policy.
type Options struct {
	// AllowOverwrite lets a new photo replace a bound one. When false, a bound
	// photo can only be re-uploaded with identical bytes.
	AllowOverwrite bool
}

type Service interface {
	// Upload binds photo bytes to an announcement and returns the storage key.
	Upload(ctx context.Context, req UploadRequest) (string, error)

	// Open streams a stored photo and returns its content type.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type service struct {
	announcements  announcement.Service
	storage        storage.Storage
	locks          *keylock.KeyLock
	log            *zap.Logger
	allowOverwrite bool
}

func NewService(announcements announcement.Service, store storage.Storage, log *zap.Logger, opts Options) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		announcements:  announcements,
		storage:        store,
		locks:          keylock.New(),
		log:            log,
		allowOverwrite: opts.AllowOverwrite,
	}
}

func (s *service) Upload(ctx context.Context, req UploadRequest) (string, error) {
	key, err := s.upload(ctx, req)
	uploadsTotal.WithLabelValues(resultLabel(err)).Inc()
	return key, err
}

func (s *service) upload(ctx context.Context, req UploadRequest) (string, error) {
	// Same-id uploads run one at a time from the precondition checks to the
	// final cleanup. The row lock in BindPhoto covers other processes.
	unlock := s.locks.Lock(strings.ToLower(req.AnnouncementID))
	defer unlock()

	// Preconditions, in order, without side effects.
	a, err := s.announcements.Authorize(ctx, req.AnnouncementID, req.ManagementPassword)
	if err != nil {
		return "", err
	}

	format, err := validation.ValidateImageFormat(req.Data)
	if err != nil {
		return "", apperror.Wrap(err, apperror.KindUnsupportedMedia, "unsupported media type")
	}

	key := StorageKey(a.ID, req.Data, format)
	if err := s.checkPolicy(*a, key); err != nil {
		return "", err
	}

	// Publish the file. Until the bind commits it is an unreferenced orphan.
	tmp, err := s.storage.WriteTemp(ctx, bytes.NewReader(req.Data))
	if err != nil {
		return "", apperror.Wrap(err, apperror.KindStorage, "failed to store photo")
	}
	if err := s.storage.Move(ctx, tmp, key); err != nil {
		err = apperror.Wrap(err, apperror.KindStorage, "failed to store photo")
		// The file may already be under its key.
		if a.PhotoURL == nil || *a.PhotoURL != key {
			s.compensate(ctx, a.ID, key, err)
		}
		return "", err
	}

	var (
		checked  bool
		previous *string
	)
	_, err = s.announcements.BindPhoto(ctx, a.ID, key, func(locked *announcement.Announcement) error {
		checked = true
		previous = locked.PhotoURL
		return s.checkPolicy(*locked, key)
	})
	if err != nil {
		referenced := a.PhotoURL
		if checked {
			referenced = previous
		}
		if referenced == nil || *referenced != key {
			s.compensate(ctx, a.ID, key, err)
		}
		return "", err
	}

	if previous != nil && *previous != "" && *previous != key {
		if err := s.storage.Remove(context.WithoutCancel(ctx), *previous); err != nil {
			s.log.Warn("failed to remove replaced photo",
				zap.String("announcement_id", a.ID),
				zap.String("photo_key", *previous),
				zap.Error(err),
			)
		}
	}

	s.log.Info("photo bound",
		zap.String("announcement_id", a.ID),
		zap.String("photo_key", key),
		zap.Int("size", len(req.Data)),
		zap.String("content_type", format.MIME),
	)
	return key, nil
}

// checkPolicy allows binding key unless a different photo is already bound
// and overwriting is disabled.
func (s *service) checkPolicy(a announcement.Announcement, key string) error {
	if !a.HasPhoto() || s.allowOverwrite || *a.PhotoURL == key {
		return nil
	}
	return apperror.Wrap(ErrPhotoExists, apperror.KindConflict, "announcement already has a photo")
}

// compensate removes a file that never got bound. The original error is kept;
// a failed removal only leaves an orphan, which is logged.
func (s *service) compensate(ctx context.Context, announcementID, key string, cause error) {
	if err := s.storage.Remove(context.WithoutCancel(ctx), key); err != nil {
		compensationsTotal.WithLabelValues("failed").Inc()
		s.log.Error("failed to remove orphaned photo",
			zap.String("announcement_id", announcementID),
			zap.String("photo_key", key),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	compensationsTotal.WithLabelValues("removed").Inc()
	if !apperror.Is(cause, apperror.KindConflict) {
		s.log.Warn("removed unbound photo",
			zap.String("announcement_id", announcementID),
			zap.String("photo_key", key),
			zap.NamedError("cause", cause),
		)
	}
}

func (s *service) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !ValidKey(key) {
		return nil, "", apperror.New(apperror.KindNotFound, "photo not found")
	}

	rc, err := s.storage.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", apperror.Wrap(err, apperror.KindNotFound, "photo not found")
		}
		return nil, "", apperror.Wrap(err, apperror.KindStorage, "failed to read photo")
	}
	return rc, ContentType(key), nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := apperror.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
