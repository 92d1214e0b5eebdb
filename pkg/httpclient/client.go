// Package httpclient provides the HTTP client the AWS SDK clients of logleek send their requests through.
// It offers a retryable HTTP client with custom headers and proxy configuration.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"
)

// DefaultRetryMax bounds transport level retries. API level retries are left to the callers.
const DefaultRetryMax = 2

// ignoreProxy controls whether the HTTPS_PROXY/HTTP_PROXY environment variables should be ignored.
// Uses atomic operations for thread-safe access.
var ignoreProxy atomic.Bool

// SetIgnoreProxy sets whether to ignore the proxy environment variables.
// This is useful in environments where HTTP_PROXY is set but should not be used.
func SetIgnoreProxy(ignore bool) {
	ignoreProxy.Store(ignore)
}

// HeaderRoundTripper is an http.RoundTripper that adds default headers to requests.
// Headers are only added if they're not already present in the request.
type HeaderRoundTripper struct {
	Headers map[string]string
	Next    http.RoundTripper
}

// RoundTrip adds default headers when they're not present on the request
// and delegates to the next RoundTripper.
func (hrt *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if hrt.Next == nil {
		return nil, http.ErrNotSupported
	}

	for k, v := range hrt.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	return hrt.Next.RoundTrip(req)
}

// Options configure NewClient.
type Options struct {
	// Headers are added to every request that does not already carry them
	Headers map[string]string
	// RetryMax is the number of transport retries, DefaultRetryMax when zero
	RetryMax int
	// Insecure disables TLS certificate verification, only meant for local endpoints
	Insecure bool
}

// ParseHeaders turns "Key=Value" or "Key: Value" pairs into a header map.
func ParseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			key, value, ok = strings.Cut(pair, ":")
		}
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected Key=Value", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

// CheckRetry retries transport errors, 429 and 5xx responses (except 501).
// AWS throttling errors arrive as 400 responses and are not retried here.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx != nil && ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		log.Debug().Err(err).Msg("Retrying HTTP request, error occurred")
		return true, nil
	}

	if resp == nil {
		log.Debug().Msg("Not retrying HTTP request, no response")
		return false, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented) {
		url := ""
		if resp.Request != nil && resp.Request.URL != nil {
			url = resp.Request.URL.String()
		}
		log.Trace().Str("url", url).Int("statusCode", resp.StatusCode).Msg("Retrying HTTP request")
		return true, nil
	}

	return false, nil
}

// NewClient creates and configures a retryable HTTP client.
// It supports:
//   - Custom default headers
//   - Automatic retry logic for 429 and 5xx errors (except 501)
//   - HTTPS_PROXY/HTTP_PROXY/NO_PROXY environment variables (unless SetIgnoreProxy(true) is called)
//   - TLS certificate verification bypass for local endpoints
func NewClient(opts Options) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = DefaultRetryMax
	if opts.RetryMax > 0 {
		client.RetryMax = opts.RetryMax
	}
	client.CheckRetry = CheckRetry
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	if opts.Insecure {
		// #nosec G402 - opt-in for self-signed local endpoints such as LocalStack
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	if !ignoreProxy.Load() {
		proxy, err := proxyFromEnv()
		if err != nil {
			return nil, err
		}
		tr.Proxy = proxy
	}

	client.HTTPClient.Transport = &HeaderRoundTripper{Headers: opts.Headers, Next: tr}
	return client, nil
}

// NewStandardClient returns NewClient wrapped as *http.Client, the shape the AWS SDK expects.
func NewStandardClient(opts Options) (*http.Client, error) {
	client, err := NewClient(opts)
	if err != nil {
		return nil, err
	}
	return client.StandardClient(), nil
}

// proxyFromEnv honors HTTPS_PROXY, HTTP_PROXY and NO_PROXY. Loopback endpoints are never proxied.
func proxyFromEnv() (func(*http.Request) (*url.URL, error), error) {
	cfg := httpproxy.FromEnvironment()
	configured := false
	for name, value := range map[string]string{"HTTPS_PROXY": cfg.HTTPSProxy, "HTTP_PROXY": cfg.HTTPProxy} {
		if value == "" {
			continue
		}
		proxyURL, err := url.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL in %s: %w", name, err)
		}
		log.Info().Str("proxy", proxyURL.Redacted()).Msg("Using proxy")
		configured = true
	}
	if !configured {
		return nil, nil
	}

	proxyFunc := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}, nil
}
