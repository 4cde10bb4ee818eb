package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aremuc/home-monitor-iot/internal/config"
)

const maxErrorBody = 2048

// ServiceError reports a failed round trip to the tagging service:
// a non-2xx status or a response body that does not decode into the
// expected shape.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("classifier: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("classifier: %s", e.Message)
}

// Client is a thin wrapper over the external tagging service. It sends
// one image per call and performs no retries; retry policy belongs to
// the caller.
type Client struct {
	endpoint   string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	log        zerolog.Logger
}

func New(cfg config.ClassifierConfig, log zerolog.Logger) *Client {
	return &Client{
		endpoint:  cfg.URL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

type tagsResponse struct {
	Result struct {
		Tags []struct {
			Tag struct {
				En string `json:"en"`
			} `json:"tag"`
		} `json:"tags"`
	} `json:"result"`
}

// Tags classifies raw image bytes and returns the labels in the order
// the service produced them. Entries without a usable label are
// skipped. The result may be empty; it is never nil on success.
func (c *Client) Tags(ctx context.Context, data []byte, filename string) ([]string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServiceError{Status: resp.StatusCode, Message: string(snippet)}
	}

	var decoded tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}

	tags := make([]string, 0, len(decoded.Result.Tags))
	for _, entry := range decoded.Result.Tags {
		if entry.Tag.En == "" {
			continue
		}
		tags = append(tags, entry.Tag.En)
	}

	c.log.Debug().Int("tags", len(tags)).Str("filename", filename).Msg("image classified")
	return tags, nil
}
