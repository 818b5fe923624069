package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"shobergarden/internal/blob/core"
	"strings"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestPutGetHeadDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	payload := `{"pet":"p1"}`
	info, err := s.Put(ctx, "pedigrees/p1/100.json", strings.NewReader(payload), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"pet": "p1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || len(info.ETag) != 64 {
		t.Fatalf("unexpected info %+v", info)
	}
	if !strings.HasPrefix(info.URL, "file://") {
		t.Fatalf("expected file url, got %s", info.URL)
	}
	if _, err := s.Put(ctx, "pedigrees/p1/100.json", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := s.Get(ctx, "pedigrees/p1/100.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != payload || got.ETag != info.ETag || got.Metadata["pet"] != "p1" {
		t.Fatalf("unexpected get %q %+v", body, got)
	}
	if ok, err := s.Delete(ctx, "pedigrees/p1/100.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "pedigrees/p1/100.json"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "pedigrees/p1/100.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, key := range []string{"pedigrees/b/2.json", "pedigrees/a/1.json", "other/x.json"} {
		if _, err := s.Put(ctx, key, bytes.NewBufferString(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := s.List(ctx, "pedigrees/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "pedigrees/a/1.json" || list[1].Key != "pedigrees/b/2.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	entries, _ := os.ReadDir(filepath.Join(s.Root(), "pedigrees", "a"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, key := range []string{"", "/abs", "../escape", "a/../../b", "x.meta"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestPresignURL(t *testing.T) {
	s := newStore(t)
	url, err := s.PresignURL(context.Background(), "pedigrees/a.json", core.SignedURLOptions{})
	if err != nil || !strings.HasSuffix(url, "/pedigrees/a.json") {
		t.Fatalf("presign: %s %v", url, err)
	}
	if _, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDefaultRoot(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()
	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Root() != DefaultRoot {
		t.Fatalf("expected default root, got %s", s.Root())
	}
}
