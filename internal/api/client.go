/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package api is the HTTP client for the wildfire detection platform.
package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"firewatch/internal/domain"
)

// Client talks to the detection platform API. Read endpoints deliver events
// and alerts; the only write operation is acknowledging an event.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// Options tunes client construction beyond the defaults.
type Options struct {
	Timeout     time.Duration
	TLSInsecure bool
}

// NewClient creates a new platform client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL, token string, opts Options) *Client {
	b := strings.TrimRight(baseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := &http.Client{Timeout: opts.Timeout}
	if opts.TLSInsecure {
		hc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{BaseURL: b, Token: token, client: hc}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	return data, nil
}

// doJSON fetches and decodes, validating the payload against the named
// embedded schema first. A payload the platform mangled is rejected here
// instead of surfacing as half-decoded structs downstream.
func (c *Client) doJSON(ctx context.Context, method, path, schema string, dest any) error {
	data, err := c.do(ctx, method, path, nil, "")
	if err != nil {
		return err
	}
	if schema != "" {
		if err := ValidatePayload(schema, data); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	return dec.Decode(dest)
}

// Login exchanges credentials for a bearer token and stores it on the
// client.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	form := url.Values{}
	form.Set("username", login)
	form.Set("password", password)
	data, err := c.do(ctx, http.MethodPost, "/login/access-token",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token")
	}
	c.Token = tok.AccessToken
	return tok.AccessToken, nil
}

// ListEvents returns unacknowledged events, without their alert frames.
func (c *Client) ListEvents(ctx context.Context) ([]domain.Event, error) {
	var list []domain.Event
	if err := c.doJSON(ctx, http.MethodGet, "/events/unacknowledged", "events", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListAlertsForEvent returns the detection frames of one event, oldest
// first.
func (c *Client) ListAlertsForEvent(ctx context.Context, eventID int64) ([]domain.Alert, error) {
	var list []domain.Alert
	path := fmt.Sprintf("/events/%d/alerts", eventID)
	if err := c.doJSON(ctx, http.MethodGet, path, "alerts", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AcknowledgeEvent marks an event as handled on the platform.
func (c *Client) AcknowledgeEvent(ctx context.Context, eventID int64) error {
	path := fmt.Sprintf("/events/%d/acknowledge", eventID)
	_, err := c.do(ctx, http.MethodPut, path, nil, "")
	return err
}

// FetchMedia downloads the frame image behind mediaURL. Absolute URLs are
// fetched as-is; relative ones resolve against the API base.
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	target := mediaURL
	if !strings.Contains(mediaURL, "://") {
		target = c.BaseURL + "/" + strings.TrimLeft(mediaURL, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media %s: %s", target, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
