package ids

import (
	"path/filepath"
	"strings"

	"github.com/segmentio/ksuid"
)

const defaultExtension = ".jpg"

// StoredName builds a unique blob name for an accepted upload. The
// client-supplied filename only contributes its extension; the body of
// the name is an opaque identifier so uploads can never collide or
// traverse out of the blob directory.
func StoredName(originalFilename string) string {
	ext := filepath.Ext(filepath.Base(originalFilename))
	if ext == "" || ext == "." {
		ext = defaultExtension
	}
	return ksuid.New().String() + strings.ToLower(ext)
}
