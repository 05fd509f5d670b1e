package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/randalmurphal/prdeploy/build"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	data, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, string(data))
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil
}

func TestKey(t *testing.T) {
	tests := []struct {
		sha, name, want string
		wantErr         bool
	}{
		{"deadbeef", "gradio-4.36.1-py3-none-any.whl", "deadbeef/gradio-4.36.1-py3-none-any.whl", false},
		{"", "x.whl", "", true},
		{"sha", "", "", true},
		{"sha", "a/b.whl", "", true},
	}
	for _, tt := range tests {
		got, err := Key(tt.sha, tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Key(%q, %q) error = %v", tt.sha, tt.name, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidKey) {
			t.Errorf("error should wrap ErrInvalidKey: %v", err)
		}
		if got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.sha, tt.name, got, tt.want)
		}
	}
}

func TestS3StoreURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"aws", S3Config{Bucket: "gradio-builds"}, "https://gradio-builds.s3.amazonaws.com/sha/w.whl"},
		{"endpoint", S3Config{Bucket: "b", Endpoint: "http://localhost:9000/"}, "http://localhost:9000/b/sha/w.whl"},
		{"public", S3Config{Bucket: "b", PublicURL: "https://cdn.example.com"}, "https://cdn.example.com/sha/w.whl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewS3StoreWithAPI(&fakeS3{}, tt.cfg)
			if got := s.URL("sha/w.whl"); got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestS3StorePut(t *testing.T) {
	api := &fakeS3{}
	s := NewS3StoreWithAPI(api, S3Config{Bucket: "gradio-builds"})

	obj, err := s.Put(context.Background(), "sha/w.whl", strings.NewReader("data"), 4, WheelContentType)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("PutObject called %d times", len(api.inputs))
	}
	in := api.inputs[0]
	if aws.ToString(in.Bucket) != "gradio-builds" || aws.ToString(in.Key) != "sha/w.whl" {
		t.Errorf("bucket/key = %s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if aws.ToInt64(in.ContentLength) != 4 {
		t.Errorf("ContentLength = %d", aws.ToInt64(in.ContentLength))
	}
	if obj.ETag != "abc" || obj.URL != "https://gradio-builds.s3.amazonaws.com/sha/w.whl" {
		t.Errorf("object = %+v", obj)
	}

	api.err = errors.New("denied")
	if _, err := s.Put(context.Background(), "k", strings.NewReader(""), 0, ""); err == nil {
		t.Error("expected error")
	}
}

func TestPublish(t *testing.T) {
	src := t.TempDir()
	wheel := filepath.Join(src, "gradio-4.36.1-py3-none-any.whl")
	if err := os.WriteFile(wheel, []byte("wheel-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	art := &build.Artifact{Path: wheel, Name: filepath.Base(wheel), Size: 11}

	t.Run("dir store", func(t *testing.T) {
		root := t.TempDir()
		store := NewDirStore(root, "https://builds.example.com")

		obj, err := Publish(context.Background(), store, "abc123", art)
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if obj.URL != "https://builds.example.com/abc123/gradio-4.36.1-py3-none-any.whl" {
			t.Errorf("URL = %q", obj.URL)
		}
		data, err := os.ReadFile(filepath.Join(root, "abc123", art.Name))
		if err != nil || string(data) != "wheel-bytes" {
			t.Errorf("stored = %q, %v", data, err)
		}
	})

	t.Run("s3 store", func(t *testing.T) {
		api := &fakeS3{}
		store := NewS3StoreWithAPI(api, S3Config{Bucket: "gradio-builds"})
		if _, err := Publish(context.Background(), store, "abc123", art); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if api.bodies[0] != "wheel-bytes" {
			t.Errorf("body = %q", api.bodies[0])
		}
	})

	t.Run("missing sha", func(t *testing.T) {
		store := NewDirStore(t.TempDir(), "")
		if _, err := Publish(context.Background(), store, "", art); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		store := NewDirStore(t.TempDir(), "")
		bad := &build.Artifact{Path: filepath.Join(src, "nope.whl"), Name: "nope.whl"}
		if _, err := Publish(context.Background(), store, "sha", bad); err == nil {
			t.Error("expected error")
		}
	})
}

func TestDirStoreRejectsEscape(t *testing.T) {
	store := NewDirStore(t.TempDir(), "")
	if _, err := store.Put(context.Background(), "../evil", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("error = %v", err)
	}
}
