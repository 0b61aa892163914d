package render

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultUserAgent identifies wantedanchors in API requests.
const DefaultUserAgent = "wantedanchors/1.0 (+https://github.com/nao1215/wantedanchors)"

// maxResponseSize limits how much of an API response is read.
const maxResponseSize = 20 * 1024 * 1024

// APIRenderer renders pages through a MediaWiki api.php endpoint.
type APIRenderer struct {
	endpoint  string
	client    *http.Client
	userAgent string
	headers   map[string]string
	proxyAddr string
	timeout   time.Duration
}

// APIOption configures an APIRenderer.
type APIOption func(*APIRenderer)

// WithHTTPClient replaces the HTTP client. Proxy settings are ignored when
// a client is supplied.
func WithHTTPClient(client *http.Client) APIOption {
	return func(r *APIRenderer) {
		r.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) APIOption {
	return func(r *APIRenderer) {
		r.userAgent = ua
	}
}

// WithHeaders adds headers to every request, e.g. a session cookie for
// private wikis.
func WithHeaders(headers map[string]string) APIOption {
	return func(r *APIRenderer) {
		r.headers = headers
	}
}

// WithSOCKS5Proxy routes requests through the SOCKS5 proxy at addr.
func WithSOCKS5Proxy(addr string) APIOption {
	return func(r *APIRenderer) {
		r.proxyAddr = addr
	}
}

// WithRequestTimeout sets the HTTP client timeout.
func WithRequestTimeout(d time.Duration) APIOption {
	return func(r *APIRenderer) {
		r.timeout = d
	}
}

// NewAPIRenderer creates an APIRenderer for the api.php URL endpoint.
func NewAPIRenderer(endpoint string, opts ...APIOption) (*APIRenderer, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid API endpoint %q: %w", endpoint, err)
	}

	r := &APIRenderer{
		endpoint:  endpoint,
		userAgent: DefaultUserAgent,
		timeout:   time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		client, err := newHTTPClient(r.proxyAddr, r.timeout)
		if err != nil {
			return nil, err
		}
		r.client = client
	}
	return r, nil
}

// newHTTPClient builds a client, dialing through a SOCKS5 proxy when
// proxyAddr is set.
func newHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     30 * time.Second,
	}

	if proxyAddr != "" {
		if !isValidProxyAddress(proxyAddr) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// isValidProxyAddress checks for a "host:port" address with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// parseResponse is the subset of an action=parse answer we read.
type parseResponse struct {
	Parse *struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Render returns the parsed HTML of page.
func (r *APIRenderer) Render(ctx context.Context, page string) (string, error) {
	q := url.Values{}
	q.Set("action", "parse")
	q.Set("page", page)
	q.Set("prop", "text")
	q.Set("format", "json")
	q.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", err
	}

	var pr parseResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", fmt.Errorf("failed to decode parse response: %w", err)
	}
	if pr.Error != nil {
		if pr.Error.Code == "missingtitle" || pr.Error.Code == "invalidtitle" {
			return "", fmt.Errorf("%w: %s", ErrPageMissing, page)
		}
		return "", fmt.Errorf("api error %s: %s", pr.Error.Code, pr.Error.Info)
	}
	if pr.Parse == nil {
		return "", fmt.Errorf("parse response for %q has no text", page)
	}
	return pr.Parse.Text, nil
}
