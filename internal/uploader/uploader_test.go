package uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestUploadOnce_PostsSelectedImage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "yard.jpg", []byte{0xff, 0xd8, 0xff})
	writeFile(t, dir, "notes.txt", []byte("skip me"))

	var gotFilename, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotContentType = header.Header.Get("Content-Type")
		w.Write([]byte(`{"imageId":1,"filename":"x.jpg","tags":[]}`))
	}))
	defer server.Close()

	u := New(server.URL, dir, server.Client(), zerolog.Nop())
	if err := u.UploadOnce(context.Background()); err != nil {
		t.Fatalf("UploadOnce error: %v", err)
	}

	if gotFilename != "yard.jpg" {
		t.Errorf("filename = %q, want yard.jpg", gotFilename)
	}
	if gotContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", gotContentType)
	}
}

func TestUploadOnce_PicksOnlyImageFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jpg", []byte{0x01})
	writeFile(t, dir, "b.png", []byte{0x02})
	writeFile(t, dir, "c.jpeg", []byte{0x03})
	writeFile(t, dir, "readme.md", []byte("text"))

	u := New("http://unused", dir, nil, zerolog.Nop())
	files, err := u.imageFiles()
	if err != nil {
		t.Fatalf("imageFiles error: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("files = %v, want 3 image files", files)
	}
}

func TestUploadOnce_EmptyDirectoryIsAnError(t *testing.T) {
	u := New("http://unused", t.TempDir(), nil, zerolog.Nop())
	if err := u.UploadOnce(context.Background()); err == nil {
		t.Fatal("expected error for empty images directory")
	}
}

func TestUploadOnce_ServerErrorIsLoggedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "yard.jpg", []byte{0xff, 0xd8, 0xff})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"classification failed"}`))
	}))
	defer server.Close()

	u := New(server.URL, dir, server.Client(), zerolog.Nop())

	// A 5xx response is an outcome to report, not a transport failure.
	if err := u.UploadOnce(context.Background()); err != nil {
		t.Fatalf("UploadOnce error: %v", err)
	}
}
