package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m1chalz/AI-First-sub005/internal/photo"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/apperror"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/request"
	"github.com/m1chalz/AI-First-sub005/internal/pkg/response"
)

const (
	FormFieldName     = "photo"
	PasswordFieldName = "managementPassword"
	PasswordHeader    = "X-Management-Password"

	// multipartOverhead is allowed on top of the photo size for boundaries
	// and the password field.
	multipartOverhead = 64 << 10
)

type Handler struct {
	service  photo.Service
	log      *zap.Logger
	maxBytes int64
}

func NewHandler(service photo.Service, log *zap.Logger, maxBytes int64) *Handler {
	return &Handler{service: service, log: log, maxBytes: maxBytes}
}

// Upload accepts either a multipart form with a "photo" part and a
// "managementPassword" field, or a raw image body with the password in the
// X-Management-Password header.
func (h *Handler) Upload(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	var (
		data     []byte
		filename string
		password = c.GetHeader(PasswordHeader)
		err      error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var fileHeader *multipart.FileHeader
		fileHeader, err = c.FormFile(FormFieldName)
		switch {
		case err == nil:
			filename = fileHeader.Filename
			data, err = readPart(fileHeader, h.maxBytes)
		case errors.Is(err, http.ErrMissingFile):
			// No photo part is an empty payload; the service still checks
			// existence and password before rejecting it.
			err = nil
		case isTooLarge(err):
			h.tooLarge(c)
			return
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart body"})
			return
		}
		if v := c.PostForm(PasswordFieldName); v != "" {
			password = v
		}
	} else {
		data, err = io.ReadAll(io.LimitReader(c.Request.Body, h.maxBytes+1))
	}
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read photo"})
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.tooLarge(c)
		return
	}

	_, err = h.service.Upload(c.Request.Context(), photo.UploadRequest{
		AnnouncementID:     req.ID,
		ManagementPassword: password,
		Data:               data,
		Filename:           filename,
	})
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Serve streams a stored photo by its key.
func (h *Handler) Serve(c *gin.Context) {
	key := c.Param("key")

	stream, contentType, err := h.service.Open(c.Request.Context(), key)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	defer stream.Close()

	// Keys are content-addressed, so a given URL never changes.
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		h.log.Warn("failed to stream photo", zap.String("photo_key", key), zap.Error(err))
	}
}

func (h *Handler) tooLarge(c *gin.Context) {
	response.Error(c, h.log, apperror.New(apperror.KindTooLarge, "photo exceeds the maximum allowed size"))
}

func readPart(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if fh.Size > maxBytes {
		return nil, &http.MaxBytesError{Limit: maxBytes}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxBytes+1))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// mime/multipart does not always wrap the reader error.
	return strings.Contains(err.Error(), "request body too large")
}
