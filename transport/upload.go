// ABOUTME: Upload client that posts a dataset file to the analysis backend and returns its channel handle.
// ABOUTME: Sends multipart field "file" to /api/v1/upload; non-2xx responses become *HTTPError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// UploadPath is the backend route that accepts dataset uploads.
const UploadPath = "/api/v1/upload"

// maxErrorBody caps how much of a failed response is kept in HTTPError.
const maxErrorBody = 4096

// UploadResult is the backend's answer to an upload.
type UploadResult struct {
	Message  string `json:"message"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration // from the Retry-After header, when given in seconds
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal([]byte(body), &detail) == nil && detail.Detail != "" {
		body = detail.Detail
	}
	if body == "" {
		return fmt.Sprintf("upload failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("upload failed: status %d: %s", e.StatusCode, body)
}

// Upload posts the file at path to baseURL and returns the handle for its
// channel. A nil client uses http.DefaultClient.
func Upload(ctx context.Context, client *http.Client, baseURL, path string) (UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return UploadReader(ctx, client, baseURL, filepath.Base(path), f)
}

// UploadReader is Upload for data that is not on disk.
func UploadReader(ctx context.Context, client *http.Client, baseURL, filename string, r io.Reader) (UploadResult, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + UploadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("new upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return UploadResult{}, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	if result.FileID == "" {
		return UploadResult{}, errors.New("upload response has no file_id")
	}
	if result.Filename == "" {
		result.Filename = filename
	}
	return result, nil
}

// retryAfter parses a delay-seconds Retry-After value. HTTP dates are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
