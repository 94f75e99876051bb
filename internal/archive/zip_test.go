package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestZipDirectory(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "images")
	nested := filepath.Join(src, "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.png"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "b.png"), []byte("bbb"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	zipPath, err := ZipDirectory(src)
	if err != nil {
		t.Fatalf("ZipDirectory failed: %v", err)
	}
	if zipPath != src+".zip" {
		t.Errorf("expected archive at %q, got %q", src+".zip", zipPath)
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer reader.Close()

	entries := make(map[string]bool, len(reader.File))
	for _, f := range reader.File {
		entries[f.Name] = true
	}

	for _, want := range []string{"images/", "images/a.png", "images/nested/", "images/nested/b.png"} {
		if !entries[want] {
			t.Errorf("missing archive entry %q (have %v)", want, entries)
		}
	}
}

func TestZipDirectoryRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := ZipDirectory(path); err == nil {
		t.Error("expected an error for a non-directory path")
	}
}

func TestZipDirectoryMissing(t *testing.T) {
	if _, err := ZipDirectory(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
