// Package netx uploads payloads to presigned object-storage URLs.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient is the subset of *http.Client used for uploads.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// UploadToPresignedURL PUTs body to a presigned URL. An empty contentType
// falls back to application/octet-stream. Any non-2xx status is an error.
func UploadToPresignedURL(ctx context.Context, c HTTPClient, url string, body []byte, contentType string) error {
	if c == nil {
		c = http.DefaultClient
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
