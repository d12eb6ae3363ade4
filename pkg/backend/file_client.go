package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrUnreachable distinguishes transport failures from upstream rejections
// so callers can report them differently.
type ErrUnreachable struct {
	Err error
}

func (e *ErrUnreachable) Error() string {
	return fmt.Sprintf("backend file service unreachable: %v", e.Err)
}

func (e *ErrUnreachable) Unwrap() error {
	return e.Err
}

// ErrUpstream carries the status code and best-effort message extracted
// from a non-2xx upstream response.
type ErrUpstream struct {
	StatusCode int
	Message    string
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("backend file service returned %d: %s", e.StatusCode, e.Message)
}

// UploadResult is the backend file service's response for a stored file.
type UploadResult struct {
	FileId    string `json:"file_id"`
	FileName  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

type FileClient interface {
	Upload(ctx context.Context, sessionId, fileName, mimeType string, data []byte) (*UploadResult, error)
}

type fileClient struct {
	baseURL string
	client  *http.Client
}

func NewFileClient(baseURL string) FileClient {
	return &fileClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *fileClient) Upload(ctx context.Context, sessionId, fileName, mimeType string, data []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("session_id", sessionId); err != nil {
		return nil, err
	}

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/files/upload", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &ErrUnreachable{Err: err}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ErrUnreachable{Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &ErrUpstream{
			StatusCode: res.StatusCode,
			Message:    extractMessage(resBody),
		}
	}

	var result UploadResult
	if err := json.Unmarshal(resBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &result, nil
}

// extractMessage pulls a human-readable error out of an upstream error body.
// Falls back to the raw body when it is not the expected JSON shape.
func extractMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return string(body)
}
