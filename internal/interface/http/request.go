package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/pkg/apperror"
	"github.com/oksasatya/go-account-service/pkg/response"
	"github.com/oksasatya/go-account-service/pkg/validation"
)

const imageField = "image"

// bindFailed writes the 400 envelope for a binding error.
func bindFailed(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// formImage opens the optional multipart image. The returned closer is never nil.
func formImage(c *gin.Context) (*application.ImageUpload, io.Closer, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nopCloser{}, nil
		}
		return nil, nopCloser{}, apperror.Validation("invalid image upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nopCloser{}, apperror.Internal("could not read image", err)
	}
	return uploadFrom(fh, f), f, nil
}

func uploadFrom(fh *multipart.FileHeader, f multipart.File) *application.ImageUpload {
	return &application.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}
