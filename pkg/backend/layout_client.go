package backend

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"
)

// ExportArtifact is a rendered presentation ready for streaming to the caller.
type ExportArtifact struct {
	ContentType string
	FileName    string
	Body        io.ReadCloser
}

type LayoutClient interface {
	// Export renders a presentation in the requested format (pdf or pptx).
	Export(ctx context.Context, presentationId, version, format string) (*ExportArtifact, error)
}

type layoutClient struct {
	baseURL string
	client  *http.Client
}

func NewLayoutClient(baseURL string) LayoutClient {
	return &layoutClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *layoutClient) Export(ctx context.Context, presentationId, version, format string) (*ExportArtifact, error) {
	query := url.Values{}
	query.Set("format", format)
	if version != "" {
		query.Set("version", version)
	}

	endpoint := fmt.Sprintf("%s/api/v1/presentations/%s/export?%s",
		c.baseURL, url.PathEscape(presentationId), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &ErrUnreachable{Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		resBody, _ := io.ReadAll(res.Body)
		res.Body.Close()
		return nil, &ErrUpstream{
			StatusCode: res.StatusCode,
			Message:    extractMessage(resBody),
		}
	}

	fileName := fmt.Sprintf("%s.%s", presentationId, format)
	if cd := res.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name, ok := params["filename"]; ok && name != "" {
				fileName = name
			}
		}
	}

	return &ExportArtifact{
		ContentType: res.Header.Get("Content-Type"),
		FileName:    fileName,
		Body:        res.Body,
	}, nil
}
