package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/common"
	"github.com/sethvargo/go-retry"
)

const (
	requestTimeout   = 10 * time.Second
	transientBackoff = 500 * time.Millisecond
	transientRetries = 1
)

// HTTPClient talks to the clinicsync server's JSON API.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

// NewHTTPClient builds an HTTPClient from a host:port or full base URL.
func NewHTTPClient(endpoint string) (*HTTPClient, error) {
	base, err := parseBaseURL(endpoint)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		baseURL: base,
		http:    &http.Client{Timeout: requestTimeout},
	}, nil
}

func parseBaseURL(endpoint string) (*url.URL, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("empty server endpoint")
	}
	raw := endpoint
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" {
		raw = "http://" + endpoint
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server endpoint %q: %w", endpoint, err)
	}
	return base, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *HTTPClient) Create(ctx context.Context, entityType models.EntityType, payload json.RawMessage) (*AuthoritativeRecord, error) {
	var rec AuthoritativeRecord
	path := "/api/" + string(entityType)
	if err := c.do(ctx, http.MethodPost, path, payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) List(ctx context.Context, entityType models.EntityType) ([]AuthoritativeRecord, error) {
	var recs []AuthoritativeRecord
	path := "/api/" + string(entityType)
	if err := c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) Update(ctx context.Context, entityType models.EntityType, id string, payload json.RawMessage) (*AuthoritativeRecord, error) {
	var rec AuthoritativeRecord
	path := "/api/" + string(entityType) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) PresignDocument(ctx context.Context, patientID, fileName string) (*PresignedUpload, error) {
	body, err := json.Marshal(map[string]string{
		"patient_id": patientID,
		"file_name":  fileName,
	})
	if err != nil {
		return nil, err
	}
	var presigned PresignedUpload
	if err := c.do(ctx, http.MethodPost, "/api/documents/presign", body, &presigned); err != nil {
		return nil, err
	}
	return &presigned, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do performs one JSON request. Network failures and 5xx responses get one
// immediate retry with a constant backoff before being reported; this inner
// retry is invisible to the mutation queue's retry accounting.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(transientRetries, retry.NewConstant(transientBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doOnce(ctx, method, path, body, dest)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isTransient(err error) bool {
	return errors.Is(err, common.ErrUnavailable)
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body []byte, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", common.ErrorNotFound, method, path)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned status %d", common.ErrUnavailable, path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s returned status %d", ErrRemote, path, resp.StatusCode)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRemote, err)
	}
	return nil
}
