package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rishta-app/rishta-client/internal/config"
)

// TokenSource supplies and stores the bearer tokens the client attaches
// to outgoing requests. Implemented by the credential store.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string, expiry time.Time) error
	Clear() error
}

// Client is the single configured request client for the backend API.
//
// Every request carries the current access token, if one is present. A
// 401 response triggers exactly one refresh-and-retry of the original
// request; a 401 on the retried request, or a refresh failure, is
// propagated. Refresh failure additionally clears stored credentials and
// fires the session-expired hook, which is the one place a network
// failure causes a global state transition. There is no other retry
// policy: no backoff, no idempotency keys, no deduplication.
type Client struct {
	base      string
	http      *http.Client
	tokens    TokenSource
	accessTTL time.Duration
	expired   func()
	log       *slog.Logger
}

func New(cfg *config.Config, tokens TokenSource, log *slog.Logger) *Client {
	return &Client{
		base:      strings.TrimRight(cfg.API.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.API.Timeout},
		tokens:    tokens,
		accessTTL: cfg.Tokens.AccessTTL,
		log:       log,
	}
}

// SetSessionExpiredHook registers the callback invoked when refresh
// fails and the session must be torn down.
func (c *Client) SetSessionExpiredHook(fn func()) { c.expired = fn }

func (c *Client) Get(ctx context.Context, path string, out any) error {
	_, err := c.do(ctx, http.MethodGet, path, nil, out)
	return err
}

// GetPage is Get for list endpoints that return a pagination block.
func (c *Client) GetPage(ctx context.Context, path string, out any) (*Pagination, error) {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPost, path, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPut, path, body, out)
	return err
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	_, err := c.do(ctx, http.MethodPatch, path, body, out)
	return err
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, out)
	return err
}

// PostMultipart uploads a single file field, for photo and document
// endpoints.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, content []byte, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	_, err = c.doRaw(ctx, http.MethodPost, path, buf.Bytes(), w.FormDataContentType(), out, false)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*Pagination, error) {
	var payload []byte
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = b
		contentType = "application/json"
	}
	return c.doRaw(ctx, method, path, payload, contentType, out, false)
}

// doRaw issues the request once, handling the single refresh-and-retry
// on 401. retried guards against a second refresh: a 401 on the retried
// request is propagated as-is.
func (c *Client) doRaw(ctx context.Context, method, path string, payload []byte, contentType string, out any, retried bool) (*Pagination, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.tokens.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		return c.doRaw(ctx, method, path, payload, contentType, out, true)
	}

	var env envelope
	if len(raw) > 0 {
		// Tolerate non-envelope error bodies from proxies.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success) {
		return nil, &Error{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return env.Pagination, nil
}

// refresh exchanges the stored refresh token for a new access token.
// Any failure here tears the session down.
func (c *Client) refresh(ctx context.Context) error {
	rt := c.tokens.RefreshToken()
	if rt == "" {
		c.log.Warn("access token rejected and no refresh token stored")
		c.sessionExpired()
		return &Error{Status: http.StatusUnauthorized, Message: "Session expired, please log in again"}
	}

	body, _ := json.Marshal(map[string]string{"refreshToken": rt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/refresh-token", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.sessionExpired()
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 || !env.Success {
		c.log.Warn("token refresh rejected", "status", resp.StatusCode)
		c.sessionExpired()
		return &Error{Status: resp.StatusCode, Message: "Session expired, please log in again"}
	}

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		c.sessionExpired()
		return fmt.Errorf("token refresh returned an unusable payload")
	}

	if err := c.tokens.SetAccessToken(data.AccessToken, time.Now().Add(c.accessTTL)); err != nil {
		return fmt.Errorf("failed to store refreshed access token: %w", err)
	}
	c.log.Debug("access token refreshed")
	return nil
}

func (c *Client) sessionExpired() {
	_ = c.tokens.Clear()
	if c.expired != nil {
		c.expired()
	}
}
