// Package qrclient fetches rendered QR images from an external
// image-generation endpoint via a GET request carrying the payload and a
// fixed pixel size.
package qrclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL   string
	imageSize string
	http      *http.Client
}

func New(baseURL, imageSize string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		imageSize: imageSize,
		http:      &http.Client{Timeout: timeout},
	}
}

// Fetch returns the raw image bytes for the given payload. Non-2xx responses
// and transport errors (including the client timeout) are returned as
// errors; the caller treats any of them as a hard failure.
func (c *Client) Fetch(ctx context.Context, data string) ([]byte, error) {
	params := url.Values{}
	params.Set("size", c.imageSize)
	params.Set("data", data)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building QR request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching QR image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("QR endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading QR image body: %w", err)
	}

	return body, nil
}
