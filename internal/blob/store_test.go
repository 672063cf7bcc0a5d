package blob_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediabin/internal/blob"
)

func newStore(t *testing.T) *blob.Store {
	t.Helper()
	store, err := blob.NewStore(filepath.Join(t.TempDir(), "storage"))
	if err != nil {
		t.Fatalf("blob.NewStore: %v", err)
	}
	return store
}

func TestPutAndSizeOf(t *testing.T) {
	store := newStore(t)
	content := []byte("gif bytes here")

	path, err := store.Put("abc123def456", "gif", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if filepath.Base(path) != "abc123def456.gif" {
		t.Fatalf("unexpected blob name %q", filepath.Base(path))
	}

	size, err := store.SizeOf("abc123def456", "gif")
	if err != nil {
		t.Fatalf("SizeOf failed: %v", err)
	}
	if size != int64(len(content)) {
		t.Fatalf("SizeOf = %d, want %d", size, len(content))
	}

	ok, err := store.Exists("abc123def456", "gif")
	if err != nil || !ok {
		t.Fatalf("Exists = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestPutRejectsExisting(t *testing.T) {
	store := newStore(t)
	if _, err := store.Put("dupe", "png", strings.NewReader("one")); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	_, err := store.Put("dupe", "png", strings.NewReader("two"))
	if !errors.Is(err, blob.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	// The original content must be untouched.
	size, _ := store.SizeOf("dupe", "png")
	if size != 3 {
		t.Fatalf("existing blob was modified, size %d", size)
	}
}

func TestPutRewindsSpooledSource(t *testing.T) {
	store := newStore(t)

	// Simulate a spooled download: the cursor sits at the end after writing.
	spool, err := os.CreateTemp(t.TempDir(), "spool-*")
	if err != nil {
		t.Fatalf("create spool: %v", err)
	}
	defer spool.Close()
	payload := []byte("downloaded payload")
	if _, err := spool.Write(payload); err != nil {
		t.Fatalf("write spool: %v", err)
	}

	if _, err := store.Put("spooled01abc", "mp4", spool); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	size, err := store.SizeOf("spooled01abc", "mp4")
	if err != nil {
		t.Fatalf("SizeOf failed: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected %d bytes stored, got %d (zero-length spool copy)", len(payload), size)
	}
}

func TestSizeOfMissingIsNotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.SizeOf("missing00000", "webm")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteToleratesAbsence(t *testing.T) {
	store := newStore(t)
	if err := store.Delete("neverthere00", "ogv"); err != nil {
		t.Fatalf("Delete of absent blob failed: %v", err)
	}

	if _, err := store.Put("there0000000", "ogv", strings.NewReader("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete("there0000000", "ogv"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := store.Exists("there0000000", "ogv"); ok {
		t.Fatal("expected blob to be removed")
	}
}

func TestOpenReadsBack(t *testing.T) {
	store := newStore(t)
	if _, err := store.Put("readback0000", "mp3", strings.NewReader("audio")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	rc, err := store.Open("readback0000", "mp3")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || string(data) != "audio" {
		t.Fatalf("read back %q, %v", data, err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store := newStore(t)
	if _, err := store.Put("../escape", "gif", strings.NewReader("x")); !errors.Is(err, blob.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := store.SizeOf("ok", "gif/../../etc"); !errors.Is(err, blob.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}
