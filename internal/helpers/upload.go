package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrUploadDisabled = errors.New("image upload is not configured")

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader wraps cld. A nil client yields an uploader that
// refuses every upload.
func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

// UploadImage streams file to folder and returns its secure URL.
func (u *CloudinaryUploader) UploadImage(ctx context.Context, file io.Reader, filename, folder string) (string, error) {
	if u == nil || u.cld == nil {
		return "", ErrUploadDisabled
	}

	res, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:           folder,
		Tags:             []string{"eventapp"},
		FilenameOverride: filename,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %v", filename, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image %s: %s", filename, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("upload of %s returned no URL", filename)
	}
	return res.SecureURL, nil
}
