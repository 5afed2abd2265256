package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreAndGetPath(t *testing.T) {
	dir := t.TempDir()
	c, err := New(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	src := filepath.Join(dir, "gmb-1.0.2.tar.gz")
	if err := os.WriteFile(src, []byte("archive"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	stored, err := c.Store("gmb", "1.0.2", src)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if filepath.Base(stored) != "dataset.tar.gz" {
		t.Fatalf("stored as %s", stored)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source should be moved, not copied")
	}

	if !c.Has("gmb", "1.0.2") {
		t.Fatal("Has = false after store")
	}
	if got := c.GetPath("gmb", "1.0.2"); got != stored {
		t.Fatalf("GetPath = %s, want %s", got, stored)
	}
}

func TestGetPathMatchesStoredExtension(t *testing.T) {
	dir := t.TempDir()
	c, err := New(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	src := filepath.Join(dir, "d-1.0.0.zip")
	if err := os.WriteFile(src, []byte("zip bytes"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stored, err := c.Store("d", "1.0.0", src)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if filepath.Base(stored) != "dataset.zip" {
		t.Fatalf("stored as %s", stored)
	}

	if got := c.GetPath("d", "1.0.0"); got != stored {
		t.Fatalf("GetPath = %s, want %s", got, stored)
	}
	// nothing stored for this version: the default name is returned and
	// Has reports false
	if c.Has("d", "2.0.0") {
		t.Fatal("Has = true for version never stored")
	}
	if filepath.Base(c.GetPath("d", "2.0.0")) != "dataset.tar.gz" {
		t.Fatalf("default path = %s", c.GetPath("d", "2.0.0"))
	}
}

func TestRemoveAndClear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	src := filepath.Join(dir, "x.tar")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := c.Store("x", "1.0.0", src); err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := c.Remove("x"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if c.Has("x", "1.0.0") {
		t.Fatal("Has = true after remove")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	size, err := c.Size()
	if err == nil && size != 0 {
		t.Fatalf("size after clear = %d", size)
	}
}
