package photo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	"github.com/m1chalz/AI-First-sub005/internal/announcement/announcementtest"
	"github.com/m1chalz/AI-First-sub005/internal/auth"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/apperror"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/storage/storagetest"
)

type fixture struct {
	repo          *announcementtest.MemoryRepository
	store         *storagetest.MemoryStorage
	announcements announcement.Service
	photos        Service
}

func newFixture(t *testing.T, opts Options, log *zap.Logger) *fixture {
	t.Helper()
	repo := announcementtest.NewMemoryRepository()
	store := storagetest.NewMemoryStorage()
	announcements := announcement.NewService(repo, auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost), store, log, announcement.Options{})
	return &fixture{
		repo:          repo,
		store:         store,
		announcements: announcements,
		photos:        NewService(announcements, store, log, opts),
	}
}

func (f *fixture) createAnnouncement(t *testing.T) *announcement.Created {
	t.Helper()
	created, err := f.announcements.Create(context.Background(), announcement.CreateRequest{
		Species:      "DOG",
		Sex:          "MALE",
		LastSeenDate: "2024-01-10",
		Email:        "owner@example.com",
		Phone:        "+48 123 456 789",
	})
	require.NoError(t, err)
	return created
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUpload_RoundTrip(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	data := pngBytes(t, color.RGBA{R: 255, A: 255})

	key, err := f.photos.Upload(context.Background(), UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               data,
		Filename:           "rex.png",
	})
	require.NoError(t, err)
	assert.True(t, ValidKey(key), key)

	a, err := f.announcements.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, a.PhotoURL)
	assert.Equal(t, key, *a.PhotoURL)

	rc, contentType, err := f.photos.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "image/png", contentType)
}

func TestUpload_PreconditionOrder(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	garbage := []byte("definitely not an image")
	ctx := context.Background()

	t.Run("Unknown announcement wins over everything", func(t *testing.T) {
		_, err := f.photos.Upload(ctx, UploadRequest{
			AnnouncementID:     "5b4f7a4e-0000-4000-8000-000000000000",
			ManagementPassword: "wrong",
			Data:               garbage,
		})
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("Wrong password wins over bad media", func(t *testing.T) {
		_, err := f.photos.Upload(ctx, UploadRequest{
			AnnouncementID:     created.ID,
			ManagementPassword: "ZZZZZZ",
			Data:               garbage,
		})
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	})

	t.Run("Missing password is unauthorized", func(t *testing.T) {
		_, err := f.photos.Upload(ctx, UploadRequest{
			AnnouncementID: created.ID,
			Data:           pngBytes(t, color.White),
		})
		assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	})

	t.Run("Bad media after authorization", func(t *testing.T) {
		_, err := f.photos.Upload(ctx, UploadRequest{
			AnnouncementID:     created.ID,
			ManagementPassword: created.ManagementPassword,
			Data:               garbage,
		})
		assert.Equal(t, apperror.KindUnsupportedMedia, apperror.KindOf(err))
	})

	assert.Empty(t, f.store.Keys())
	assert.Zero(t, f.repo.Updates)
}

func TestUpload_RejectsCorruptImage(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	data := pngBytes(t, color.Black)

	_, err := f.photos.Upload(context.Background(), UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               data[:len(data)/2],
	})
	assert.Equal(t, apperror.KindUnsupportedMedia, apperror.KindOf(err))
	assert.Empty(t, f.store.Keys())
}

func TestUpload_IdenticalBytesAreIdempotent(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	data := pngBytes(t, color.RGBA{G: 255, A: 255})
	req := UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               data,
	}

	first, err := f.photos.Upload(context.Background(), req)
	require.NoError(t, err)
	second, err := f.photos.Upload(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{first}, f.store.Keys())
}

func TestUpload_NoOverwriteConflict(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	ctx := context.Background()

	first, err := f.photos.Upload(ctx, UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	})
	require.NoError(t, err)

	_, err = f.photos.Upload(ctx, UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.Black),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.ErrorIs(t, err, ErrPhotoExists)

	a, err := f.announcements.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *a.PhotoURL)
	assert.Equal(t, []string{first}, f.store.Keys())
}

func TestUpload_ConcurrentDifferentPhotos(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	payloads := [][]byte{
		pngBytes(t, color.RGBA{R: 255, A: 255}),
		pngBytes(t, color.RGBA{B: 255, A: 255}),
	}

	var (
		wg   sync.WaitGroup
		keys = make([]string, len(payloads))
		errs = make([]error, len(payloads))
	)
	for i, data := range payloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i], errs[i] = f.photos.Upload(context.Background(), UploadRequest{
				AnnouncementID:     created.ID,
				ManagementPassword: created.ManagementPassword,
				Data:               data,
			})
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one upload succeeded")
			winner = i
			continue
		}
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	}
	require.NotEqual(t, -1, winner, "no upload succeeded")

	a, err := f.announcements.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, keys[winner], *a.PhotoURL)

	stored, ok := f.store.Get(keys[winner])
	require.True(t, ok)
	assert.Equal(t, payloads[winner], stored)
	assert.Equal(t, []string{keys[winner]}, f.store.Keys())
}

func TestUpload_OverwriteReplacesPhoto(t *testing.T) {
	f := newFixture(t, Options{AllowOverwrite: true}, nil)
	created := f.createAnnouncement(t)
	ctx := context.Background()

	first, err := f.photos.Upload(ctx, UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	})
	require.NoError(t, err)

	second, err := f.photos.Upload(ctx, UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.Black),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	a, err := f.announcements.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, second, *a.PhotoURL)
	assert.Equal(t, []string{second}, f.store.Keys())
}

func TestUpload_BindFailureRemovesFile(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	f.repo.SetUpdateErr(errors.New("connection reset"))

	_, err := f.photos.Upload(context.Background(), UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindPersistence, apperror.KindOf(err))

	a, err := f.announcements.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, a.PhotoURL)
	assert.Empty(t, f.store.Keys())
	assert.Zero(t, f.store.TempCount())
}

func TestUpload_BindFailureKeepsReferencedFile(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	req := UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	}

	key, err := f.photos.Upload(context.Background(), req)
	require.NoError(t, err)

	// A retry of the same bytes must not delete the photo already bound.
	f.repo.SetUpdateErr(errors.New("connection reset"))
	_, err = f.photos.Upload(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, []string{key}, f.store.Keys())
}

func TestUpload_FailedCompensationIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, Options{}, zap.New(core))
	created := f.createAnnouncement(t)
	f.repo.SetUpdateErr(errors.New("connection reset"))
	f.store.FailRemove = true

	_, err := f.photos.Upload(context.Background(), UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	})
	assert.Equal(t, apperror.KindPersistence, apperror.KindOf(err))
	assert.Equal(t, 1, logs.FilterMessage("failed to remove orphaned photo").Len())
}

func TestUpload_StorageFailure(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	f.store.FailMove = true

	_, err := f.photos.Upload(context.Background(), UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	})
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
	assert.Zero(t, f.repo.Updates)
	assert.Zero(t, f.store.TempCount())
}

func TestUpload_UnsyncedMoveRemovesFile(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	f.store.FailMoveAfterPublish = true

	_, err := f.photos.Upload(context.Background(), UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	})
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
	assert.Zero(t, f.repo.Updates)
	assert.Empty(t, f.store.Keys())
}

func TestUpload_UnsyncedMoveKeepsReferencedFile(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	created := f.createAnnouncement(t)
	req := UploadRequest{
		AnnouncementID:     created.ID,
		ManagementPassword: created.ManagementPassword,
		Data:               pngBytes(t, color.White),
	}

	key, err := f.photos.Upload(context.Background(), req)
	require.NoError(t, err)

	f.store.FailMoveAfterPublish = true
	_, err = f.photos.Upload(context.Background(), req)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))
	assert.Equal(t, []string{key}, f.store.Keys())
}

func TestOpen(t *testing.T) {
	f := newFixture(t, Options{}, nil)

	_, _, err := f.photos.Open(context.Background(), "../etc/passwd")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, _, err = f.photos.Open(context.Background(), "5b4f7a4e-0000-4000-8000-000000000000-0123456789abcdef.png")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
