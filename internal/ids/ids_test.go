package ids

import (
	"strings"
	"testing"
)

func TestStoredName_KeepsExtension(t *testing.T) {
	tests := []struct {
		filename string
		wantExt  string
	}{
		{"snapshot.jpg", ".jpg"},
		{"snapshot.JPEG", ".jpeg"},
		{"frame.png", ".png"},
		{"noext", ".jpg"},
		{"", ".jpg"},
		{"trailing.", ".jpg"},
		{"../../etc/passwd.png", ".png"},
	}

	for _, tt := range tests {
		name := StoredName(tt.filename)
		if !strings.HasSuffix(name, tt.wantExt) {
			t.Errorf("StoredName(%q) = %q, want suffix %q", tt.filename, name, tt.wantExt)
		}
		if strings.ContainsAny(name, "/\\") {
			t.Errorf("StoredName(%q) = %q contains a path separator", tt.filename, name)
		}
	}
}

func TestStoredName_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := StoredName("capture.jpg")
		if seen[name] {
			t.Fatalf("duplicate stored name %q after %d generations", name, i)
		}
		seen[name] = true
	}
}
