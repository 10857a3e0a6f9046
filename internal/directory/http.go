package directory

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

	"signalstore/internal/domain"
)

// HTTP is a domain.Directory backed by a directory server.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the server at base. A zero timeout leaves the
// client unbounded, so callers should pass a deadline via ctx.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	return &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: timeout},
	}
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// Exists reports whether id is known to the directory.
func (c *HTTP) Exists(ctx context.Context, id domain.UserID) (bool, error) {
	var out existsResponse
	found, err := c.getJSON(ctx, "exists", "/exists/"+url.PathEscape(id.String()), &out)
	if err != nil || !found {
		return false, err
	}
	return out.Exists, nil
}

// Publish uploads the bundle of id. A 409 answer reports false.
func (c *HTTP) Publish(ctx context.Context, id domain.UserID, bundle domain.PreKeyBundle) (bool, error) {
	body, err := json.Marshal(bundle)
	if err != nil {
		return false, fmt.Errorf("encode bundle: %w", err)
	}
	path := "/bundles/" + url.PathEscape(id.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, &domain.RemoteUnavailableError{Op: "publish", Err: err}
	}
	defer drain(resp)

	switch {
	case resp.StatusCode/100 == 2:
		return true, nil
	case resp.StatusCode == http.StatusConflict:
		return false, nil
	default:
		return false, statusError("publish", http.MethodPost, c.Base+path, resp)
	}
}

// Fetch returns the bundle of id. A 404 answer reports false.
func (c *HTTP) Fetch(ctx context.Context, id domain.UserID) (domain.PreKeyBundle, bool, error) {
	var out domain.PreKeyBundle
	found, err := c.getJSON(ctx, "fetch", "/bundles/"+url.PathEscape(id.String()), &out)
	if err != nil || !found {
		return domain.PreKeyBundle{}, false, err
	}
	return out, true, nil
}

func (c *HTTP) getJSON(ctx context.Context, op, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, &domain.RemoteUnavailableError{Op: op, Err: err}
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode/100 != 2 {
		return false, statusError(op, http.MethodGet, c.Base+path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("directory %s: decode: %w", op, err)
	}
	return true, nil
}

// statusError maps 5xx and 429 to a retryable error, everything else to a
// plain one.
func statusError(op, method, u string, resp *http.Response) error {
	err := fmt.Errorf("%s %s: %s", method, u, resp.Status)
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &domain.RemoteUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("directory %s: %w", op, err)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

var _ domain.Directory = (*HTTP)(nil)
