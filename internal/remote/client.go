package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"lexiquest/internal/config"
	"lexiquest/internal/models"
)

// Client talks to the progress backend. All methods are safe for concurrent
// use. Record upserts carry a longer timeout than reads because a full record
// includes the whole review map.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	upsertClient *http.Client
	tokens       oauth2.TokenSource
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		baseURL:      cfg.RemoteBaseURL,
		apiKey:       cfg.RemoteAPIKey,
		httpClient:   &http.Client{Timeout: cfg.RemoteTimeout},
		upsertClient: &http.Client{Timeout: cfg.RemoteUpsertTimeout},
	}

	switch {
	case cfg.RemoteTokenURL != "" && cfg.RemoteClientID != "":
		oc := &clientcredentials.Config{
			ClientID:     cfg.RemoteClientID,
			ClientSecret: cfg.RemoteClientSecret,
			TokenURL:     cfg.RemoteTokenURL,
		}
		c.tokens = oc.TokenSource(context.Background())
	case cfg.RemoteAccessToken != "":
		warnIfExpired(cfg.RemoteAccessToken)
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.RemoteAccessToken})
	}

	return c
}

// Configured reports whether a backend endpoint is set at all. An empty base
// URL means the app runs purely offline.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// FetchProfileRecord returns the stored record for a user, or nil when the
// backend has never seen them.
func (c *Client) FetchProfileRecord(ctx context.Context, userID string) (*models.ProfileRecord, error) {
	endpoint := fmt.Sprintf("%s/profiles/%s", c.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request (user_id: %s): %w", userID, err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile record (user_id: %s): %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch profile record (user_id: %s, status: %d): %s", userID, resp.StatusCode, string(body))
	}

	var record models.ProfileRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode profile record (user_id: %s): %w", userID, err)
	}
	return &record, nil
}

// UpsertProfileRecord replaces the backend's copy of the record wholesale.
func (c *Client) UpsertProfileRecord(ctx context.Context, record *models.ProfileRecord) error {
	endpoint := fmt.Sprintf("%s/profiles/%s", c.baseURL, url.PathEscape(record.UserID))

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode profile record (user_id: %s): %w", record.UserID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request (user_id: %s): %w", record.UserID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.upsertClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert profile record (user_id: %s): %w", record.UserID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upsert profile record (user_id: %s, status: %d): %s", record.UserID, resp.StatusCode, string(body))
	}
	return nil
}

// FetchBadgeCatalog pulls the server-managed badge definitions. The local
// default catalog stays in use when this fails.
func (c *Client) FetchBadgeCatalog(ctx context.Context) ([]models.Badge, error) {
	endpoint := c.baseURL + "/catalogs/badges"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch badge catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch badge catalog (status: %d): %s", resp.StatusCode, string(body))
	}

	var catalog []models.Badge
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode badge catalog: %w", err)
	}
	return catalog, nil
}

// FetchUnitCatalog pulls the vocabulary units the backend publishes.
func (c *Client) FetchUnitCatalog(ctx context.Context) ([]models.Unit, error) {
	endpoint := c.baseURL + "/catalogs/units"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch unit catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch unit catalog (status: %d): %s", resp.StatusCode, string(body))
	}

	var units []models.Unit
	if err := json.NewDecoder(resp.Body).Decode(&units); err != nil {
		return nil, fmt.Errorf("decode unit catalog: %w", err)
	}
	return units, nil
}

// CallProcedure invokes a named server-side procedure, e.g. leaderboard reads
// or duel matchmaking, and returns the raw response for the caller to decode.
func (c *Client) CallProcedure(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/rpc/%s", c.baseURL, url.PathEscape(name))

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode procedure args (name: %s): %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request (name: %s): %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call procedure (name: %s): %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read procedure response (name: %s): %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call procedure (name: %s, status: %d): %s", name, resp.StatusCode, string(body))
	}
	return json.RawMessage(body), nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("obtain access token: %w", err)
		}
		token.SetAuthHeader(req)
	}
	return nil
}

// warnIfExpired inspects a statically configured token's exp claim without
// verifying the signature; verification happens server side.
func warnIfExpired(accessToken string) {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return // opaque token, nothing to inspect
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if time.Now().After(exp.Time) {
		zap.S().Warnw("Configured access token is expired", "expired_at", exp.Time)
	}
}
