// Package gizwits implements the HTTP client for the Gizwits cloud API that
// Bestway spa and pool filter appliances report to.
package gizwits

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// applicationID identifies the vendor app to the cloud. It is baked into
	// the official mobile app and shared by every installation.
	applicationID = "98754e684ec045528b073876c34c7348"

	requestTimeout = 10 * time.Second
)

// Gateway is the cloud surface the service layer depends on.
type Gateway interface {
	// Login obtains a fresh user token and installs it on the client.
	Login(ctx context.Context, username, password string) (UserToken, error)
	// SetToken installs a previously obtained token, e.g. one restored from
	// persistent storage.
	SetToken(token string)
	// Bindings lists the devices bound to the account.
	Bindings(ctx context.Context) ([]Binding, error)
	// DeviceData fetches the latest reported snapshot for one device.
	DeviceData(ctx context.Context, deviceID string) (DeviceData, error)
	// Control writes one or more device attributes.
	Control(ctx context.Context, deviceID string, attrs map[string]any) error
}

// UserToken is the session issued by the login endpoint.
type UserToken struct {
	UID      string `json:"uid"`
	Token    string `json:"token"`
	ExpireAt int64  `json:"expire_at"`
}

// Binding is one bound device as reported by the account bindings list.
type Binding struct {
	Protocol        int    `json:"protoc"`
	DeviceID        string `json:"did"`
	ProductName     string `json:"product_name"`
	Alias           string `json:"dev_alias"`
	MCUSoftVersion  string `json:"mcu_soft_version"`
	MCUHardVersion  string `json:"mcu_hard_version"`
	WifiSoftVersion string `json:"wifi_soft_version"`
	WifiHardVersion string `json:"wifi_hard_version"`
	IsOnline        bool   `json:"is_online"`
}

// DeviceData is the latest reported snapshot for one device. An UpdatedAt of
// zero means the device is offline and Attrs should be ignored.
type DeviceData struct {
	UpdatedAt int64          `json:"updated_at"`
	Attrs     map[string]any `json:"attr"`
}

// Client talks to one regional Gizwits API root, e.g.
// https://euapi.gizwits.com. It is safe for concurrent use.
type Client struct {
	apiRoot string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Gateway = (*Client)(nil)

func NewClient(apiRoot string) *Client {
	return &Client{
		apiRoot: strings.TrimRight(apiRoot, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login obtains a fresh user token. The server rate-limits this endpoint
// fairly aggressively, so callers must not retry in a tight loop.
func (c *Client) Login(ctx context.Context, username, password string) (UserToken, error) {
	body := map[string]any{"username": username, "password": password, "lang": "en"}

	var tok UserToken
	if err := c.postJSON(ctx, "/app/login", false, body, &tok); err != nil {
		return UserToken{}, err
	}
	c.SetToken(tok.Token)
	return tok, nil
}

func (c *Client) Bindings(ctx context.Context) ([]Binding, error) {
	var out struct {
		Devices []Binding `json:"devices"`
	}
	if err := c.getJSON(ctx, "/app/bindings", true, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// DeviceData reads the latest snapshot. The endpoint does not require a user
// token.
func (c *Client) DeviceData(ctx context.Context, deviceID string) (DeviceData, error) {
	var out DeviceData
	if err := c.getJSON(ctx, "/app/devdata/"+deviceID+"/latest", false, &out); err != nil {
		return DeviceData{}, err
	}
	return out, nil
}

func (c *Client) Control(ctx context.Context, deviceID string, attrs map[string]any) error {
	return c.postJSON(ctx, "/app/control/"+deviceID, true, map[string]any{"attrs": attrs}, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, withToken bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiRoot+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, withToken)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, withToken bool, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiRoot+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	c.setHeaders(req, withToken)
	return c.do(req, out)
}

func (c *Client) setHeaders(req *http.Request, withToken bool) {
	req.Header.Set("Content-type", "application/json; charset=UTF-8")
	req.Header.Set("X-Gizwits-Application-Id", applicationID)
	if withToken {
		req.Header.Set("X-Gizwits-User-token", c.currentToken())
	}
}

// do executes the request and decodes the response body into out. Responses
// are always JSON even though the server often labels them text/html, so the
// content type is ignored.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
