package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/cenkalti/backoff/v5"
	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com"
	defaultUploadURL = "https://generativelanguage.googleapis.com/upload"

	operationPollInterval = 2 * time.Second
	operationPollTimeout  = 2 * time.Minute
)

type GeminiClient struct {
	ApiKey    string
	BaseURL   string
	UploadURL string
	client    *http.Client
	cache     *gocache.Cache
}

func NewGeminiClient(apiKey string) FileSearchStore {
	return &GeminiClient{
		ApiKey:    apiKey,
		BaseURL:   defaultBaseURL,
		UploadURL: defaultUploadURL,
		client:    &http.Client{Timeout: 60 * time.Second},
		cache:     gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// NewGeminiClientWithBaseURL is used by tests to point at a fake server.
func NewGeminiClientWithBaseURL(apiKey, baseURL string) FileSearchStore {
	return &GeminiClient{
		ApiKey:    apiKey,
		BaseURL:   baseURL,
		UploadURL: baseURL + "/upload",
		client:    &http.Client{Timeout: 60 * time.Second},
		cache:     gocache.New(5*time.Minute, 10*time.Minute),
	}
}

type createStoreRequest struct {
	DisplayName string `json:"displayName"`
}

type storeResource struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type operationResource struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response json.RawMessage `json:"response"`
}

type listDocumentsResponse struct {
	Documents []StoreFile `json:"documents"`
}

func (c *GeminiClient) CreateStore(ctx context.Context, displayName string) (string, error) {
	body, err := json.Marshal(createStoreRequest{DisplayName: displayName})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/fileSearchStores", c.BaseURL)

	resBody, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var store storeResource
	if err := json.Unmarshal(resBody, &store); err != nil {
		return "", err
	}
	if store.Name == "" {
		return "", fmt.Errorf("gemini returned store without a resource name")
	}

	return store.Name, nil
}

func (c *GeminiClient) UploadFile(ctx context.Context, storeName, fileName, mimeType string, data []byte) (*StoreFile, error) {
	endpoint := fmt.Sprintf("%s/v1beta/%s:uploadToFileSearchStore", c.UploadURL, storeName)

	metadata, err := json.Marshal(map[string]string{"displayName": fileName})
	if err != nil {
		return nil, err
	}

	resBody, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		metaHeader := textproto.MIMEHeader{}
		metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
		metaPart, err := writer.CreatePart(metaHeader)
		if err != nil {
			return nil, err
		}
		if _, err := metaPart.Write(metadata); err != nil {
			return nil, err
		}

		fileHeader := textproto.MIMEHeader{}
		fileHeader.Set("Content-Type", mimeType)
		filePart, err := writer.CreatePart(fileHeader)
		if err != nil {
			return nil, err
		}
		if _, err := filePart.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
		req.Header.Set("X-Goog-Upload-Protocol", "multipart")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var op operationResource
	if err := json.Unmarshal(resBody, &op); err != nil {
		return nil, err
	}

	if !op.Done {
		if err := c.pollOperation(ctx, &op); err != nil {
			return nil, err
		}
	}
	if op.Error != nil {
		return nil, fmt.Errorf("gemini import failed, code %d: %s", op.Error.Code, op.Error.Message)
	}

	file := &StoreFile{
		DisplayName: fileName,
		MimeType:    mimeType,
		SizeBytes:   int64(len(data)),
		State:       "ACTIVE",
	}
	if len(op.Response) > 0 {
		// Response carries the imported document resource when available.
		_ = json.Unmarshal(op.Response, file)
	}

	c.cache.Delete(listCacheKey(storeName))
	return file, nil
}

func (c *GeminiClient) ListFiles(ctx context.Context, storeName string) ([]StoreFile, error) {
	if cached, found := c.cache.Get(listCacheKey(storeName)); found {
		return cached.([]StoreFile), nil
	}

	endpoint := fmt.Sprintf("%s/v1beta/%s/documents", c.BaseURL, storeName)

	resBody, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, err
	}

	var listRes listDocumentsResponse
	if err := json.Unmarshal(resBody, &listRes); err != nil {
		return nil, err
	}

	c.cache.Set(listCacheKey(storeName), listRes.Documents, gocache.DefaultExpiration)
	return listRes.Documents, nil
}

func (c *GeminiClient) DeleteStore(ctx context.Context, storeName string) error {
	endpoint := fmt.Sprintf("%s/v1beta/%s?force=true", c.BaseURL, storeName)

	_, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	})
	if err != nil {
		return err
	}

	c.cache.Delete(listCacheKey(storeName))
	return nil
}

// pollOperation blocks until the long-running import finishes or times out.
func (c *GeminiClient) pollOperation(ctx context.Context, op *operationResource) error {
	pollCtx, cancel := context.WithTimeout(ctx, operationPollTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1beta/%s", c.BaseURL, op.Name)

	ticker := time.NewTicker(operationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			return fmt.Errorf("timed out waiting for operation %s", op.Name)
		case <-ticker.C:
			resBody, err := c.doWithRetry(pollCtx, func() (*http.Request, error) {
				return http.NewRequestWithContext(pollCtx, http.MethodGet, endpoint, nil)
			})
			if err != nil {
				return err
			}

			var polled operationResource
			if err := json.Unmarshal(resBody, &polled); err != nil {
				return err
			}
			if polled.Done {
				*op = polled
				return nil
			}
		}
	}
}

// doWithRetry executes the request with capped exponential backoff.
// 4xx responses are permanent, everything else retries up to 3 attempts.
func (c *GeminiClient) doWithRetry(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := build()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("x-goog-api-key", c.ApiKey)

		res, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		resBody, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}

		if res.StatusCode >= 400 {
			apiErr := fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resBody))
			if res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests {
				return nil, backoff.Permanent(apiErr)
			}
			return nil, apiErr
		}

		return resBody, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(3),
	)
}

func listCacheKey(storeName string) string {
	return "documents:" + storeName
}
