package localfs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestSaveReturnsDatePartitionedRef(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ref, err := store.Save(context.Background(), "c1.jpg", bytes.NewReader([]byte("jpegbytes")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	wantPrefix := time.Now().UTC().Format("2006/01/02") + "/"
	if !strings.HasPrefix(ref, wantPrefix) || !strings.HasSuffix(ref, "c1.jpg") {
		t.Fatalf("ref = %q", ref)
	}

	rc, err := store.Open(context.Background(), ref)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Fatalf("stored bytes = %q", data)
	}
}

func TestSaveRejectsPathTraversalKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := store.Save(context.Background(), "../escape.jpg", bytes.NewReader([]byte("x"))); err == nil {
		t.Fatal("expected key validation error")
	}
}

func TestOpenRejectsTraversalRef(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := store.Open(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected reference validation error")
	}
}
