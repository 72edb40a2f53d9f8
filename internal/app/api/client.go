/*
Package api is the typed client of the marketplace REST API.

Every call carries the Credentials of one browser session: the remote API's cookies
are attached to the request and cookies it sets are stored back. Payloads are
normalized at this boundary into the canonical market types.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 2 * 1024 * 1024
)

// Credentials holds the remote API cookies of one browser session.
type Credentials interface {
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

// Client talks to the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// RequestError describes a failed API call.
type RequestError struct {
	Op         string
	StatusCode int

	// ServerMessage is the "error" (or "message") field of a non-2xx JSON body.
	ServerMessage string

	// Transport is set when the request never produced an HTTP response.
	Transport bool

	Err error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewClient validates baseURL and builds a client. A non-positive timeout uses 10s.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, &RequestError{Op: "create api client", Err: errors.New("api base url is empty")}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, &RequestError{Op: "parse api base url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{Op: "validate api base url", Err: fmt.Errorf("invalid api base url: %s", trimmed)}
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// IsTransport reports whether err is a network failure rather than a server answer.
func IsTransport(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Transport
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// StatusCode returns the HTTP status of a failed call, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// request is one outgoing call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	contentType string
	body        []byte
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	r := request{op: op, method: method, path: path}
	if payload == nil {
		return r, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return r, &RequestError{Op: op, Err: fmt.Errorf("marshal request body: %w", err)}
	}
	r.body = raw
	r.contentType = "application/json"
	return r, nil
}

// doJSON executes req and decodes a 2xx body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, creds Credentials, req request, out any) error {
	status, body, err := c.do(ctx, creds, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{Op: req.op, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, creds Credentials, req request) (int, []byte, error) {
	if c == nil || c.httpClient == nil {
		return 0, nil, &RequestError{Op: req.op, Err: errors.New("api client is not initialized")}
	}

	fullURL := c.baseURL + ensureLeadingSlash(req.path)
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if len(req.body) > 0 {
		bodyReader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, bodyReader)
	if err != nil {
		return 0, nil, &RequestError{Op: req.op, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if creds != nil {
		for _, cookie := range creds.Cookies() {
			httpReq.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, &RequestError{Op: req.op, Transport: true, Err: err}
	}
	defer resp.Body.Close()

	if creds != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			creds.SetCookies(cookies)
		}
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if readErr != nil {
		return resp.StatusCode, nil, &RequestError{Op: req.op, StatusCode: resp.StatusCode, Transport: true, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := serverMessage(body)
		errText := message
		if errText == "" {
			errText = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, body, &RequestError{
			Op:            req.op,
			StatusCode:    resp.StatusCode,
			ServerMessage: message,
			Err:           errors.New(errText),
		}
	}

	return resp.StatusCode, body, nil
}

// serverMessage extracts {"error": "..."} or {"message": "..."} from an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Message)
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
