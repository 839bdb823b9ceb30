package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bucket names.
const (
	BucketPostMedia = "post-media"
	BucketChatMedia = "chat-media"
)

// Media kinds stored next to uploaded URLs.
const (
	KindImage = "image"
	KindVideo = "video"
)

var ErrInvalidPath = errors.New("invalid object path")

// Local stores objects on the local filesystem under root/bucket/path and
// serves them from baseURL/bucket/path.
type Local struct {
	root    string
	baseURL string
	log     zerolog.Logger
}

// NewLocal creates the storage root if needed.
func NewLocal(root, baseURL string, log zerolog.Logger) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	log.Info().Str("path", root).Msg("local storage directory ensured")
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/"), log: log}, nil
}

// Root is the directory objects are written under.
func (l *Local) Root() string { return l.root }

// Upload writes r to bucket/objectPath and returns the stored path.
func (l *Local) Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error) {
	dst, err := l.resolve(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close object: %w", err)
	}

	l.log.Info().Str("bucket", bucket).Str("path", objectPath).Msg("object stored")
	return objectPath, nil
}

// PublicURL is the URL an object is served from.
func (l *Local) PublicURL(bucket, objectPath string) string {
	return l.baseURL + "/" + bucket + "/" + strings.TrimLeft(objectPath, "/")
}

func (l *Local) resolve(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + objectPath)
	if objectPath == "" || clean == "/" || clean != "/"+objectPath {
		return "", ErrInvalidPath
	}
	return filepath.Join(l.root, bucket, filepath.FromSlash(clean)), nil
}

// ObjectPath builds the owner-scoped object path {userID}/{uuid}.{ext}.
func ObjectPath(userID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return userID + "/" + name
}

// MediaKind classifies a content type. Anything that is not video is an image.
func MediaKind(contentType string) string {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return KindVideo
	}
	return KindImage
}
