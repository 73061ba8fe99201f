package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilenameKeepsExtension(t *testing.T) {
	a := NewFilename("holiday photo.JPG")
	b := NewFilename("holiday photo.JPG")

	assert.Equal(t, ".JPG", filepath.Ext(a), a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, ".Png", filepath.Ext(NewFilename("Me.Png")))
	assert.Equal(t, "", filepath.Ext(NewFilename("noext")))
	assert.NotContains(t, NewFilename("../../etc/passwd.png"), "/")
}

func TestLocalStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile_pictures")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "test_photo.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(ref))
	assert.Equal(t, ".jpg", filepath.Ext(ref))

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	second, err := store.Save(context.Background(), "test_photo.jpg", strings.NewReader("other"))
	require.NoError(t, err)
	assert.NotEqual(t, ref, second)

	_, err = os.Stat(ref)
	assert.NoError(t, err, "previous photo is kept")
}

type fakeS3 struct {
	input   *s3.PutObjectInput
	body    string
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	b, _ := io.ReadAll(input.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, *input.Bucket+"/"+*input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "photos", prefix: "profile_pictures"}

	ref, err := store.Save(context.Background(), "me.png", strings.NewReader("png"))
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, "photos", *fake.input.Bucket)
	assert.True(t, strings.HasPrefix(*fake.input.Key, "profile_pictures/"))
	assert.True(t, strings.HasSuffix(*fake.input.Key, ".png"))
	assert.Equal(t, "image/png", *fake.input.ContentType)
	assert.Equal(t, "png", fake.body)
	assert.Equal(t, "s3://photos/"+*fake.input.Key, ref)
}

func TestS3StoreSaveError(t *testing.T) {
	store := &S3Store{client: &fakeS3{err: errors.New("denied")}, bucket: "photos", prefix: "p"}
	_, err := store.Save(context.Background(), "me.png", strings.NewReader("png"))
	assert.Error(t, err)
}

func TestLocalStoreDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "me.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(ref)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, store.Delete(context.Background(), ref), "already gone")
	assert.Error(t, store.Delete(context.Background(), "/etc/passwd"))
}

func TestS3StoreDelete(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "photos", prefix: "profile_pictures"}

	require.NoError(t, store.Delete(context.Background(), "s3://photos/profile_pictures/a.png"))
	assert.Equal(t, []string{"photos/profile_pictures/a.png"}, fake.deleted)

	assert.Error(t, store.Delete(context.Background(), "s3://other/profile_pictures/a.png"))
	assert.Error(t, store.Delete(context.Background(), "/tmp/a.png"))
}
