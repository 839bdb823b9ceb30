package viewsync

import (
	"context"
	"fmt"
	"io"

	"community-service/internal/models"
	"community-service/internal/storage"
	"community-service/internal/validation"
)

// Validate checks a form against its `validate` tags before anything is
// written. A failure wraps ErrValidation.
func Validate(form any) error {
	return validation.Struct(form)
}

// Blobs is the object store files are uploaded to. *storage.Local satisfies it.
type Blobs interface {
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error)
	PublicURL(bucket, objectPath string) string
}

// Upload is one file selected for a submission.
type Upload struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadAll stores files one after another under the owner's prefix and
// returns their public URLs tagged with media kinds. The first failure
// aborts the rest.
func UploadAll(ctx context.Context, blobs Blobs, bucket, ownerID string, files []Upload) ([]models.MediaItem, error) {
	items := make([]models.MediaItem, 0, len(files))
	for _, f := range files {
		url, err := uploadOne(ctx, blobs, bucket, ownerID, f)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		items = append(items, models.MediaItem{URL: url, Type: storage.MediaKind(f.ContentType)})
	}
	return items, nil
}

func uploadOne(ctx context.Context, blobs Blobs, bucket, ownerID string, f Upload) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	stored, err := blobs.Upload(ctx, bucket, storage.ObjectPath(ownerID, f.Name), r)
	if err != nil {
		return "", err
	}
	return blobs.PublicURL(bucket, stored), nil
}
