// Package ipinfo looks up the public address of the visitor's connection.
// The result only enriches login and verification requests; every failure yields "".
package ipinfo

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"arzweb/internal/pkg/logx"
)

const defaultTimeout = 2 * time.Second

// Lookup queries a JSON endpoint answering {"ip": "..."}.
type Lookup struct {
	url        string
	httpClient *http.Client
}

// New returns a Lookup for url. An empty url disables lookups.
func New(url string, timeout time.Duration) *Lookup {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Lookup{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a lookup URL is configured.
func (l *Lookup) Enabled() bool {
	return l != nil && l.url != ""
}

// IP returns the address reported by the endpoint, or "" on any failure.
func (l *Lookup) IP(ctx context.Context) string {
	if !l.Enabled() {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		logx.Debug("IP lookup request could not be built", "error", err.Error())
		return ""
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		logx.Debug("IP lookup failed", "error", err.Error())
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logx.Debug("IP lookup returned unexpected status", "status", resp.StatusCode)
		return ""
	}

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err != nil {
		return ""
	}

	ip := strings.TrimSpace(payload.IP)
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}
