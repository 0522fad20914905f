// Package syncclient implements the client side of the incremental sync
// protocol: pull-since-timestamp, push-with-merge, and reading-position
// conflict detection. The server resolves record conflicts by
// last-writer-wins on updated_at; this client only orders timestamps.
//
// The client performs no implicit retries. Network and timeout failures
// surface as typed errors and leave local dirty/clean state to the
// caller, which owns backoff and re-invocation.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/quota"
)

// RequestTimeout bounds every pull and push round-trip.
const RequestTimeout = 8 * time.Second

// SyncType filters a pull to one collection. Empty means all.
type SyncType string

const (
	SyncTypeBooks   SyncType = "books"
	SyncTypeConfigs SyncType = "configs"
	SyncTypeNotes   SyncType = "notes"
)

// TokenSource supplies the current access token, or empty when the user
// is signed out.
type TokenSource func(ctx context.Context) (string, error)

// Client talks to a sync server over the /sync endpoint.
type Client struct {
	baseURL    string
	tokens     TokenSource
	tracker    *quota.Tracker
	httpClient *http.Client
}

// NewClient creates a sync client for the server at baseURL.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
	}
}

// WithUsageTracker makes the client report pushed payload bytes to the
// usage ledger. Reporting is fail-open and never affects the push.
func (c *Client) WithUsageTracker(tracker *quota.Tracker) *Client {
	c.tracker = tracker
	return c
}

// PullChanges requests records modified after since (Unix milliseconds,
// exclusive), optionally filtered by collection, book hash and meta
// hash. Fails with ErrUnauthenticated before any I/O when no token is
// available.
func (c *Client) PullChanges(ctx context.Context, since int64, typ SyncType, book, metaHash string) (*entities.SyncResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/sync")
	if err != nil {
		return nil, fmt.Errorf("parse sync URL: %w", err)
	}
	q := u.Query()
	q.Set("since", strconv.FormatInt(since, 10))
	q.Set("type", string(typ))
	q.Set("book", book)
	q.Set("meta_hash", metaHash)
	u.RawQuery = q.Encode()

	return c.do(ctx, http.MethodGet, u.String(), token, nil)
}

// PushChanges sends locally dirty records. The server applies
// last-writer-wins by updated_at and returns its resulting view of the
// affected records.
//
// The push is gated on the token's storage plan before anything is
// sent: a payload that would not fit the quota plus the grace allowance
// fails with ErrStorageExceeded. Successful pushes are reported to the
// usage ledger when a tracker is configured.
func (c *Client) PushChanges(ctx context.Context, payload *entities.SyncData) (*entities.SyncResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode sync payload: %w", err)
	}

	if !quota.StoragePlanData(token).CanUpload(int64(len(body))) {
		return nil, ErrStorageExceeded
	}

	result, err := c.do(ctx, http.MethodPost, c.baseURL+"/sync", token, body)
	if err != nil {
		return nil, err
	}
	if c.tracker != nil {
		c.tracker.TrackUsage(ctx, quota.Subject(token), quota.UsageStorageBytes, int64(len(body)), nil)
	}
	return result, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrUnauthenticated
	}
	token, err := c.tokens(ctx)
	if err != nil || token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, method, url, token string, body []byte) (*entities.SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create sync request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &SyncError{Kind: KindTimeout, Message: "request deadline exceeded", Err: err}
		}
		return nil, &SyncError{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SyncError{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: serverErrorMessage(resp),
		}
	}

	var result entities.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &SyncError{Kind: KindServer, Status: resp.StatusCode, Message: "malformed sync response", Err: err}
	}
	return &result, nil
}

// serverErrorMessage extracts the server-supplied {"error": ...} body,
// falling back to the HTTP status text.
func serverErrorMessage(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(resp.StatusCode)
}
