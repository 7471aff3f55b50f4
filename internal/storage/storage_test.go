package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/codr1/refschedule/internal/config"
)

func TestFSStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(filepath.Join(t.TempDir(), "outputs"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	key := RunKey("Boston", "run-1", "csv")
	if key != "boston/run-1.csv" {
		t.Fatalf("key = %q", key)
	}
	if err := store.Put(ctx, key, []byte("a,b\n"), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "a,b\n" {
		t.Fatalf("data = %q", got)
	}

	if _, err := store.Get(ctx, "boston/missing.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", "/etc/passwd", "../outside.csv", "boston/../../x"} {
		if err := store.Put(context.Background(), key, nil, ""); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store_PutGet(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := NewS3StoreWithClient(fake, "refs", "/outputs/")

	if err := store.Put(ctx, "boston/run-1.csv", []byte("x"), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := fake.objects["refs/outputs/boston/run-1.csv"]; !ok {
		t.Fatalf("object stored under wrong key: %v", fake.objects)
	}
	if fake.types["refs/outputs/boston/run-1.csv"] != "text/csv" {
		t.Fatalf("content type not set")
	}

	got, err := store.Get(ctx, "boston/run-1.csv")
	if err != nil || string(got) != "x" {
		t.Fatalf("get: %q, %v", got, err)
	}
	if _, err := store.Get(ctx, "boston/nope.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Driver: "gcs"}); err == nil {
		t.Fatal("expected error")
	}
}
