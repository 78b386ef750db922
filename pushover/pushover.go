// Package pushover implements the Open Client API: logging in, registering
// a device, downloading and acknowledging messages, and listening on the
// persistent websocket for wake-ups. The rendering engine consumes the
// Message values produced here.
package pushover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBase   = "https://api.pushover.net/1"
	DefaultStreamURL = "wss://client.pushover.net/push"
)

// Message is one delivered notification.
type Message struct {
	ID       int64  `json:"id"`
	UMID     int64  `json:"umid"`
	AppName  string `json:"app"`
	Title    string `json:"title"`
	Body     string `json:"message"`
	HTML     int    `json:"html"`
	Date     int64  `json:"date"`
	Priority int    `json:"priority"`
	URL      string `json:"url"`
	URLTitle string `json:"url_title"`
	IconID   string `json:"icon"`
}

// IsHTML reports whether Body should be parsed as markup rather than treated
// as a flat text blob.
func (m Message) IsHTML() bool { return m.HTML == 1 }

// DisplayTitle is the heading to print: the explicit title when present,
// otherwise the sending application's name.
func (m Message) DisplayTitle() string {
	if t := strings.TrimSpace(m.Title); t != "" {
		return t
	}
	return m.AppName
}

// Client talks to the Open Client API.
type Client struct {
	base   string
	http   *http.Client
	secret string
	device string
}

// NewClient creates a client against apiBase (DefaultAPIBase when empty).
// secret and device may be empty until Login / RegisterDevice have run.
func NewClient(apiBase, secret, device string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		base:   strings.TrimRight(apiBase, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		secret: secret,
		device: device,
	}
}

// Secret returns the session secret obtained by Login.
func (c *Client) Secret() string { return c.secret }

// DeviceID returns the device id obtained by RegisterDevice.
func (c *Client) DeviceID() string { return c.device }

type loginResponse struct {
	Status int    `json:"status"`
	Secret string `json:"secret"`
}

// Login exchanges user credentials for a session secret. Accounts with
// two-factor enabled must supply the current code, otherwise it is left
// empty.
func (c *Client) Login(ctx context.Context, email, password, twofa string) error {
	form := url.Values{"email": {email}, "password": {password}}
	if twofa != "" {
		form.Set("twofa", twofa)
	}
	var out loginResponse
	if err := c.post(ctx, "/users/login.json", form, &out); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if out.Status != 1 || out.Secret == "" {
		return fmt.Errorf("login rejected")
	}
	c.secret = out.Secret
	return nil
}

type registerResponse struct {
	Status int    `json:"status"`
	ID     string `json:"id"`
}

// RegisterDevice creates a new Open Client device for this printer and
// remembers its id.
func (c *Client) RegisterDevice(ctx context.Context, name string) error {
	form := url.Values{"secret": {c.secret}, "name": {name}, "os": {"O"}}
	var out registerResponse
	if err := c.post(ctx, "/devices.json", form, &out); err != nil {
		return fmt.Errorf("registering device: %w", err)
	}
	if out.Status != 1 || out.ID == "" {
		return fmt.Errorf("device registration rejected")
	}
	c.device = out.ID
	return nil
}

type messagesResponse struct {
	Status   int       `json:"status"`
	Messages []Message `json:"messages"`
}

// Messages downloads every message currently queued for this device.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	q := url.Values{"secret": {c.secret}, "device_id": {c.device}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.base+"/messages.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading messages: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading messages: unexpected status %s", resp.Status)
	}
	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	if out.Status != 1 {
		return nil, fmt.Errorf("message download rejected")
	}
	return out.Messages, nil
}

// DeleteUpTo acknowledges every message up to and including id, removing it
// from the server-side queue.
func (c *Client) DeleteUpTo(ctx context.Context, id int64) error {
	form := url.Values{"secret": {c.secret}, "message": {fmt.Sprint(id)}}
	var out struct {
		Status int `json:"status"`
	}
	path := fmt.Sprintf("/devices/%s/update_highest_message.json", c.device)
	if err := c.post(ctx, path, form, &out); err != nil {
		return fmt.Errorf("acknowledging messages: %w", err)
	}
	if out.Status != 1 {
		return fmt.Errorf("acknowledge rejected")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// The API reports rejections with 4xx and a JSON body carrying
	// status 0; decode either way.
	return json.NewDecoder(resp.Body).Decode(out)
}
