package lib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crptomonkeys/greenwiz/types"
)

// maxBodyBytes bounds how much of a node's response is read.
const maxBodyBytes = 16 << 20

// NewHTTPClient returns the pooled client shared by every chain-facing component.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// Response is a raw HTTP reply from a node. Code applies the WAX node quirk
// of reporting errors in the body with a 200 status.
type Response struct {
	Status int
	Code   int
	Body   []byte
}

// OK reports whether neither the HTTP status nor the body code signal an error.
func (r Response) OK() bool {
	return r.Status < 400 && r.Code < 400
}

// JoinURL joins a base endpoint URL and a path without doubling slashes.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// HTTPGet issues a GET with query params. A non-nil error means no response
// was received; HTTP error statuses are reported through Response.
func HTTPGet(ctx context.Context, client *http.Client, endpoint string, params url.Values) (Response, error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")
	return do(client, req)
}

// HTTPPostJSON posts body encoded as JSON.
func HTTPPostJSON(ctx context.Context, client *http.Client, endpoint string, body any) (Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return do(client, req)
}

func do(client *http.Client, req *http.Request) (Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response from %s: %w", req.URL.Host, err)
	}
	return Response{
		Status: resp.StatusCode,
		Code:   types.RespCode(body, resp.StatusCode),
		Body:   body,
	}, nil
}

// Sleep waits for d or until ctx ends, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
