package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// manifestExts lists extensions of book manifests, both JSON and YAML are
// decoded.
var manifestExts = []string{".json", ".yaml", ".yml"}

// isArchiveFile reports whether file content is zip archive.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs only first 262 bytes
	head := make([]byte, 262)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		// empty file is not an archive
		return false, nil
	}
	return filetype.IsType(head[:n], matchers.TypeZip), nil
}

// isManifestFile reports whether path looks like book manifest.
func isManifestFile(path string) bool {
	return slices.Contains(manifestExts, strings.ToLower(filepath.Ext(path)))
}
