package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "nested", "summary.md")

	if err := fs.WriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected %q, got %q", "hello", data)
	}
}

func TestFileSystem_CreateTruncates(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "frames", "frame1.ppm")

	if err := fs.WriteFile(path, []byte("a much longer previous content")); err != nil {
		t.Fatal(err)
	}

	w, err := fs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("P6")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "P6" {
		t.Errorf("expected truncated file, got %q", data)
	}
}

func TestFileSystem_CreateFailsOnDirectory(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	if _, err := fs.Create(dir); err == nil {
		t.Error("expected error creating a file over a directory")
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(dir, "x.txt")
	if err := fs.WriteFile(path, []byte("x")); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{dir, path} {
		exists, err := fs.Exists(p)
		if err != nil || !exists {
			t.Errorf("expected %s to exist, got %v, %v", p, exists, err)
		}
	}

	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected file to be removed")
	}
}
