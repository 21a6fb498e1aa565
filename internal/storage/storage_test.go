package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dealflow/dealflow/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, config.StorageConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	key := LogoKey(3, "Logo.PNG")
	if !strings.HasPrefix(key, "logos/template_3_") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if err := s.Put(ctx, key, strings.NewReader("img"), 3, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	b, err := s.Get(ctx, key)
	if err != nil || string(b) != "img" {
		t.Fatalf("get: %q %v", b, err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), "../escape.png", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatal("expected error for traversal key")
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{"a.png": "image/png", "b.JPG": "image/jpeg", "c.jpeg": "image/jpeg"}
	for name, want := range cases {
		got, err := ContentType(name)
		if err != nil || got != want {
			t.Errorf("%s: got %q %v", name, got, err)
		}
	}
	if _, err := ContentType("x.gif"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("gif should be unsupported, got %v", err)
	}
}
