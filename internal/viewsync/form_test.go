package viewsync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"community-service/internal/storage"
)

type recordingBlobs struct {
	paths []string
	fail  string
}

func (b *recordingBlobs) Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if string(data) == b.fail {
		return "", errors.New("bucket quota exceeded")
	}
	b.paths = append(b.paths, bucket+"/"+objectPath)
	return objectPath, nil
}

func (b *recordingBlobs) PublicURL(bucket, objectPath string) string {
	return "https://cdn.test/" + bucket + "/" + objectPath
}

func file(name, contentType, body string) Upload {
	return Upload{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(body)), nil
		},
	}
}

func TestUploadAllTagsMediaKinds(t *testing.T) {
	blobs := &recordingBlobs{}
	items, err := UploadAll(context.Background(), blobs, storage.BucketPostMedia, "u1", []Upload{
		file("beach.png", "image/png", "img"),
		file("clip.mp4", "video/mp4", "vid"),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, storage.KindImage, items[0].Type)
	require.Equal(t, storage.KindVideo, items[1].Type)

	require.Len(t, blobs.paths, 2)
	require.True(t, strings.HasPrefix(blobs.paths[0], "post-media/u1/"))
	require.True(t, strings.HasSuffix(blobs.paths[0], ".png"))
	require.True(t, strings.HasSuffix(blobs.paths[1], ".mp4"))
	require.Equal(t, "https://cdn.test/"+blobs.paths[0], items[0].URL)
	require.Equal(t, "https://cdn.test/"+blobs.paths[1], items[1].URL)
}

func TestUploadAllAbortsOnFirstFailure(t *testing.T) {
	blobs := &recordingBlobs{fail: "bad"}
	items, err := UploadAll(context.Background(), blobs, storage.BucketPostMedia, "u1", []Upload{
		file("a.png", "image/png", "ok"),
		file("b.png", "image/png", "bad"),
		file("c.png", "image/png", "never"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bucket quota exceeded")
	require.Nil(t, items)
	require.Len(t, blobs.paths, 1)
}

func TestValidateWrapsErrValidation(t *testing.T) {
	type form struct {
		Title string `validate:"notblank,max=200" label:"Title"`
	}
	err := Validate(form{Title: ""})
	require.ErrorIs(t, err, ErrValidation)
	require.NoError(t, Validate(form{Title: "Test Q"}))
}
