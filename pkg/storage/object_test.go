package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
)

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deletes []string
	putErr  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
		f.types = map[string]string{}
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.puts[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Backend_UploadsOnlyOnCommit(t *testing.T) {
	fake := &fakeS3{}
	b := &S3Backend{client: fake, bucket: "uploads"}
	target := Target{Dir: "storage/images/teams", Name: "image-1-2.png"}

	w, err := b.Create(context.Background(), target, "image/png")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(fake.puts) != 0 {
		t.Fatalf("expected no upload before commit, got %d", len(fake.puts))
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	key := "uploads/storage/images/teams/image-1-2.png"
	if string(fake.puts[key]) != "png-bytes" {
		t.Fatalf("uploaded = %q, want %q", fake.puts[key], "png-bytes")
	}
	if fake.types[key] != "image/png" {
		t.Fatalf("content type = %q, want image/png", fake.types[key])
	}

	if err := b.Remove(context.Background(), target); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(fake.deletes) != 1 || fake.deletes[0] != key {
		t.Fatalf("deletes = %v, want [%s]", fake.deletes, key)
	}
}

func TestS3Backend_AbortSkipsUpload(t *testing.T) {
	fake := &fakeS3{}
	b := &S3Backend{client: fake, bucket: "uploads"}

	w, err := b.Create(context.Background(), Target{Dir: "d", Name: "n"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Write([]byte("data"))
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := w.Commit(); !errors.Is(err, ErrAborted) {
		t.Fatalf("Commit after abort err = %v, want %v", err, ErrAborted)
	}
	if len(fake.puts) != 0 {
		t.Fatalf("expected no uploads, got %d", len(fake.puts))
	}
}

func TestS3Backend_CommitErrorIsReported(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("boom")}
	b := &S3Backend{client: fake, bucket: "uploads"}

	w, _ := b.Create(context.Background(), Target{Dir: "d", Name: "n"}, "")
	w.Write([]byte("data"))
	if err := w.Commit(); err == nil {
		t.Fatal("expected commit error")
	}
	if _, err := w.Write([]byte("x")); !errors.Is(err, ErrAborted) {
		t.Fatalf("Write after failed commit err = %v, want %v", err, ErrAborted)
	}
}

func TestObjectWriter_CommitWithCanceledContext(t *testing.T) {
	fake := &fakeS3{}
	b := &S3Backend{client: fake, bucket: "uploads"}

	ctx, cancel := context.WithCancel(context.Background())
	w, err := b.Create(ctx, Target{Dir: "d", Name: "n"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Write([]byte("data"))
	cancel()

	if err := w.Commit(); !errors.Is(err, context.Canceled) {
		t.Fatalf("Commit err = %v, want %v", err, context.Canceled)
	}
	if len(fake.puts) != 0 {
		t.Fatalf("expected no uploads, got %d", len(fake.puts))
	}
}

type fakeMinIO struct {
	puts    map[string][]byte
	removed []string
	exists  bool
	made    []string
}

func (f *fakeMinIO) PutObject(_ context.Context, bucket, object string, r io.Reader, size int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if int64(len(data)) != size {
		return minio.UploadInfo{}, errors.New("size mismatch")
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[bucket+"/"+object] = data
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func (f *fakeMinIO) RemoveObject(_ context.Context, bucket, object string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, bucket+"/"+object)
	return nil
}

func (f *fakeMinIO) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeMinIO) BucketExists(context.Context, string) (bool, error) {
	return f.exists, nil
}

func TestMinIOBackend_CommitAndRemove(t *testing.T) {
	fake := &fakeMinIO{}
	b := &MinIOBackend{client: fake, bucket: "media"}
	target := Target{Dir: "storage/videos", Name: "video-1-2.mp4"}

	w, err := b.Create(context.Background(), target, "video/mp4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Write([]byte("mp4"))
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := string(fake.puts["media/storage/videos/video-1-2.mp4"]); got != "mp4" {
		t.Fatalf("uploaded = %q, want %q", got, "mp4")
	}

	if err := b.Remove(context.Background(), target); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(fake.removed) != 1 {
		t.Fatalf("removed = %v", fake.removed)
	}
}

func TestMinIOBackend_EnsureBucket(t *testing.T) {
	fake := &fakeMinIO{}
	b := &MinIOBackend{client: fake, bucket: "media", region: "us-east-1"}
	if err := b.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if len(fake.made) != 1 || fake.made[0] != "media" {
		t.Fatalf("made = %v, want [media]", fake.made)
	}

	fake = &fakeMinIO{exists: true}
	b = &MinIOBackend{client: fake, bucket: "media"}
	if err := b.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if len(fake.made) != 0 {
		t.Fatalf("expected no MakeBucket call for existing bucket, got %v", fake.made)
	}
}
