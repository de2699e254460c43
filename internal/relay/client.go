package relay

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
	"strings"
	"time"

	"github.com/nerrad567/mukhtar/internal/infrastructure/config"
)

const (
	defaultTimeout = 10 * time.Second

	// maxBodySize bounds how much of a reply is read.
	maxBodySize = 64 * 1024
)

// Client issues digitalWrite and analogRead calls against the relay.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	deviceID   string
	httpClient *http.Client
}

// New creates a relay client from configuration.
func New(cfg config.RelayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		deviceID: cfg.DeviceID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// reply is the relay's JSON envelope. Both fields arrive either as
// strings or as numbers depending on firmware.
type reply struct {
	Success json.RawMessage `json:"success"`
	Value   json.RawMessage `json:"value"`
}

// DigitalWrite drives pin HIGH (high=true) or LOW.
// Any non-200 status, transport error, timeout or rejected reply is an error.
func (c *Client) DigitalWrite(ctx context.Context, pin string, high bool) error {
	state := "LOW"
	if high {
		state = "HIGH"
	}
	q := url.Values{}
	q.Set("pin", pin)
	q.Set("state", state)

	body, err := c.get(ctx, "digitalWrite", q)
	if err != nil {
		return err
	}

	// Some firmware answers writes with an empty or non-JSON body.
	var r reply
	if json.Unmarshal(body, &r) != nil {
		return nil
	}
	if len(r.Success) > 0 && !isOne(r.Success) {
		return fmt.Errorf("%w: digitalWrite pin %s: %s", ErrRejected, pin, describe(r.Value))
	}
	return nil
}

// AnalogRead returns the raw value of an analog input line such as "A0".
func (c *Client) AnalogRead(ctx context.Context, pin string) (float64, error) {
	q := url.Values{}
	q.Set("pin", pin)

	body, err := c.get(ctx, "analogRead", q)
	if err != nil {
		return 0, err
	}

	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return 0, fmt.Errorf("%w: analogRead pin %s: %w", ErrInvalidResponse, pin, err)
	}
	if len(r.Success) > 0 && !isOne(r.Success) {
		return 0, fmt.Errorf("%w: analogRead pin %s: %s", ErrRejected, pin, describe(r.Value))
	}

	v, ok := parseNumber(r.Value)
	if !ok {
		return 0, fmt.Errorf("%w: analogRead pin %s: value %s", ErrInvalidResponse, pin, describe(r.Value))
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, op string, q url.Values) ([]byte, error) {
	q.Set("deviceName", c.deviceID)
	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(c.apiKey), op, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the API key; report only the operation.
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, op, unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %w", ErrRequestFailed, op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrBadStatus, op, resp.StatusCode)
	}
	return body, nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func isOne(raw json.RawMessage) bool {
	v, ok := parseNumber(raw)
	return ok && v == 1
}

// parseNumber accepts 512, "512" and " 512 ".
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func describe(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "<empty>"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strconv.Quote(s)
	}
	return string(raw)
}
