package quota

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Usage types tracked against the ledger.
const (
	UsageTranslationChars = "translation_chars"
	UsageStorageBytes     = "storage_bytes"
)

// TokenSource supplies the access token presented to the ledger, or
// empty when the user is signed out.
type TokenSource func(ctx context.Context) (string, error)

// Tracker reports usage to the remote ledger over its two RPCs. Every
// failure path returns 0: callers must treat 0 as "tracking degraded,
// proceed", never as an authoritative zero. The failure itself is
// logged. A missing token degrades the same way, it never blocks the
// caller.
type Tracker struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewTracker creates a tracker for the ledger service at baseURL.
func NewTracker(baseURL string, tokens TokenSource) *Tracker {
	return &Tracker{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type incrementRequest struct {
	UserID    string            `json:"user_id"`
	UsageType string            `json:"usage_type"`
	Date      string            `json:"date"`
	Increment int64             `json:"increment"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type usageRequest struct {
	UserID    string `json:"user_id"`
	UsageType string `json:"usage_type"`
	Period    string `json:"period"`
}

type totalResponse struct {
	Total int64 `json:"total"`
}

// TrackUsage increments the user's daily counter and returns the new
// total, or 0 when tracking is degraded.
func (t *Tracker) TrackUsage(ctx context.Context, userID, usageType string, increment int64, metadata map[string]string) int64 {
	req := incrementRequest{
		UserID:    userID,
		UsageType: usageType,
		Date:      time.Now().UTC().Format("2006-01-02"),
		Increment: increment,
		Metadata:  metadata,
	}
	total, err := t.call(ctx, "/rpc/increment_daily_usage", req)
	if err != nil {
		log.Printf("[QUOTA] usage tracking degraded for %s/%s: %v", userID, usageType, err)
		return 0
	}
	return total
}

// CurrentUsage reads the rolling counter for the period ("daily" or
// "monthly"), or 0 when tracking is degraded.
func (t *Tracker) CurrentUsage(ctx context.Context, userID, usageType, period string) int64 {
	total, err := t.call(ctx, "/rpc/get_current_usage", usageRequest{
		UserID:    userID,
		UsageType: usageType,
		Period:    period,
	})
	if err != nil {
		log.Printf("[QUOTA] usage read degraded for %s/%s: %v", userID, usageType, err)
		return 0
	}
	return total
}

func (t *Tracker) call(ctx context.Context, path string, payload any) (int64, error) {
	token, err := t.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{status: resp.StatusCode}
	}

	var out totalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

func (t *Tracker) accessToken(ctx context.Context) (string, error) {
	if t.tokens == nil {
		return "", errNoToken
	}
	token, err := t.tokens(ctx)
	if err != nil || token == "" {
		return "", errNoToken
	}
	return token, nil
}

var errNoToken = errors.New("no access token available")

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ledger returned HTTP %d", e.status)
}
