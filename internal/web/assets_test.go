package web

import (
	"io/fs"
	"strings"
	"testing"
)

// TestStaticFS_ServesViewer verifies the viewer page is embedded.
func TestStaticFS_ServesViewer(t *testing.T) {
	fsys, err := StaticFS()
	if err != nil {
		t.Fatalf("static fs: %v", err)
	}
	data, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	for _, want := range []string{"/mjpeg/screen", "/ws/control"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("index.html missing %q", want)
		}
	}
}
