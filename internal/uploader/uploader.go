package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Uploader is the capture-side collaborator: it picks a still from a
// local directory and submits it to the ingestion endpoint. Retry and
// backoff live here if anywhere; the server performs none.
type Uploader struct {
	serverURL  string
	imagesDir  string
	httpClient *http.Client
	pick       func(n int) int
	log        zerolog.Logger
}

func New(serverURL, imagesDir string, httpClient *http.Client, log zerolog.Logger) *Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Uploader{
		serverURL:  serverURL,
		imagesDir:  imagesDir,
		httpClient: httpClient,
		pick:       rand.Intn,
		log:        log,
	}
}

// UploadOnce selects a random image from the directory and posts it.
func (u *Uploader) UploadOnce(ctx context.Context) error {
	files, err := u.imageFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", u.imagesDir)
	}

	filename := files[u.pick(len(files))]
	data, err := os.ReadFile(filepath.Join(u.imagesDir, filename))
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	status, body, err := u.post(ctx, filename, data)
	if err != nil {
		return err
	}

	event := u.log.Info()
	if status >= 400 {
		event = u.log.Warn()
	}
	event.
		Str("filename", filename).
		Int("status", status).
		Str("response", truncate(body, 200)).
		Msg("image submitted")
	return nil
}

func (u *Uploader) imageFiles() ([]string, error) {
	entries, err := os.ReadDir(u.imagesDir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

func (u *Uploader) post(ctx context.Context, filename string, data []byte) (int, string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "image/jpeg"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return 0, "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, "", fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, "", fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.serverURL, &body)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send image: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(respBody), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
