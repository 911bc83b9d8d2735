package convert

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsArchiveFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		make func(path string)
		want bool
	}{
		{"zip", func(p string) { writeZip(t, p, map[string]string{"a.json": "{}"}) }, true},
		{"json", func(p string) { writeFile(t, p, []byte(`{"title": "x"}`)) }, false},
		{"zip extension but text", func(p string) { writeFile(t, p, []byte("not a real zip file")) }, false},
		{"empty", func(p string) { writeFile(t, p, nil) }, false},
		{"png", func(p string) { writePNG(t, p) }, false},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "file"+string(rune('a'+i))+".zip")
			tt.make(path)
			got, err := isArchiveFile(path)
			if err != nil {
				t.Fatalf("isArchiveFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("isArchiveFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsArchiveFile_NonExistent(t *testing.T) {
	if _, err := isArchiveFile(filepath.Join(t.TempDir(), "none.zip")); !os.IsNotExist(err) {
		t.Errorf("expected not exist error, got %v", err)
	}
}

func TestIsManifestFile(t *testing.T) {
	tests := map[string]bool{
		"book.json":       true,
		"book.JSON":       true,
		"dir/book.yaml":   true,
		"book.yml":        true,
		"book.json.zip":   false,
		"book.txt":        false,
		"json":            false,
		"archive/.hidden": false,
	}
	for path, want := range tests {
		if got := isManifestFile(path); got != want {
			t.Errorf("isManifestFile(%q) = %v, want %v", path, got, want)
		}
	}
}
