package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const userAgent = "report-publisher/1.0"

// restClient is the JSON-over-HTTP plumbing shared by the GitLab and Gitee
// adapters.
type restClient struct {
	baseURL string
	client  *http.Client
	auth    func(req *http.Request)
}

// do sends a request and decodes a JSON response into out when out is not
// nil. Non-2xx responses are returned as an error together with the status
// code; a zero status means no response was received.
func (c *restClient) do(ctx context.Context, method, path string, in, out any) (http.Header, int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.Header, resp.StatusCode, fmt.Errorf("%s %s returned status %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.Header, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.Header, resp.StatusCode, nil
}
