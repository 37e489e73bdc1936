// Package rest implements the HTTP client used to issue Redfish requests to a BMC.
//
// A Client is bound to one BMC address and one set of credentials, requests are
// authenticated with HTTP basic auth and exchange JSON bodies.
package rest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/jpillora/backoff"
	"github.com/metal-toolbox/xpuctl/internal/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/publicsuffix"
)

const (
	schemeHTTPS = "https"
	schemeHTTP  = "http"

	mimeJSON = "application/json"
)

var (
	defaultTimeout = 30 * time.Second
	retryWaitMin   = 1 * time.Second
	retryWaitMax   = 10 * time.Second
)

// Config is the BMC endpoint and credentials a Client is bound to.
type Config struct {
	Address  string
	Username string
	Password string

	// InsecureSkipVerify permits BMCs presenting self-signed certificates,
	// the setting applies to this client only.
	InsecureSkipVerify bool

	// Timeout bounds each request attempt, a retried request is bounded by MaxRequestDuration.
	// Defaults to 30s.
	Timeout time.Duration

	// Retries is the number of retries on connection errors and 5xx responses.
	Retries int
}

// Option sets optional Client attributes.
type Option func(*Client)

// WithLogger sets the logger on the client.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client executes requests against a single BMC.
type Client struct {
	scheme   string
	address  string
	username string
	password string
	client   *retryablehttp.Client
	logger   *logrus.Entry
}

// New returns a Client for the BMC in cfg.
//
// An ErrInvalidConfig error is returned when the address cannot be parsed
// into a URL with a host, a missing port defaults to 443 for https and 80 for http.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "rest client config undefined")
	}

	scheme, address, err := parseAddress(cfg.Address)
	if err != nil {
		return nil, err
	}

	c := &Client{
		scheme:   scheme,
		address:  address,
		username: cfg.Username,
		password: cfg.Password,
		logger:   logrus.NewEntry(logrus.New()),
	}

	for _, opt := range opts {
		opt(c)
	}

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	c.client = newRetryableClient(httpClient, cfg.Retries, c.logger)

	c.logger.WithFields(logrus.Fields{
		"address":            c.address,
		"insecureSkipVerify": cfg.InsecureSkipVerify,
	}).Debug("rest client initialized")

	return c, nil
}

func parseAddress(address string) (scheme, hostPort string, err error) {
	addr := strings.TrimSpace(address)
	if !strings.Contains(addr, "://") {
		addr = schemeHTTPS + "://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", "", errors.Wrap(ErrInvalidConfig, "invalid BMC url: "+err.Error())
	}

	if u.Hostname() == "" {
		return "", "", errors.Wrap(ErrInvalidConfig, "invalid BMC host: "+address)
	}

	scheme = strings.ToLower(u.Scheme)

	port := u.Port()
	switch scheme {
	case schemeHTTPS:
		if port == "" {
			port = "443"
		}
	case schemeHTTP:
		if port == "" {
			port = "80"
		}
	default:
		return "", "", errors.Wrap(ErrInvalidConfig, "unsupported BMC url scheme: "+u.Scheme)
	}

	return scheme, net.JoinHostPort(u.Hostname(), port), nil
}

func newHTTPClient(cfg *Config) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(ErrInternal, err.Error())
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	// nolint:gomnd // time duration declarations are clear as is.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		// nolint:gosec // BMCs commonly present self-signed certs, this is enabled through configuration.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   2,
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: otelhttp.NewTransport(transport),
	}, nil
}

func newRetryableClient(httpClient *http.Client, retries int, logger *logrus.Entry) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = retries
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.Backoff = retryBackoff

	// return the last response as is once retries are exhausted,
	// the status is mapped to an error by the caller.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// disable default debug logging on the retryable client
	if logger == nil || logger.Logger.GetLevel() < logrus.DebugLevel {
		client.Logger = nil
	} else {
		client.Logger = logger
	}

	return client
}

func retryBackoff(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
	// nolint:gomnd // backoff factor is clear as is.
	b := &backoff.Backoff{
		Min:    min,
		Max:    max,
		Factor: 2,
		Jitter: true,
	}

	return b.ForAttempt(float64(attemptNum))
}

// MaxRequestDuration returns the longest a request can take with the given attempt timeout and retries,
// all attempts timing out with the longest wait between them.
func MaxRequestDuration(timeout time.Duration, retries int) time.Duration {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if retries < 0 {
		retries = 0
	}

	return timeout*time.Duration(retries+1) + retryWaitMax*time.Duration(retries)
}

// Address returns the BMC host:port this client is bound to.
func (c *Client) Address() string {
	return c.address
}

// URL returns the request URL for the given resource path.
func (c *Client) URL(path string) string {
	return fmt.Sprintf("%s://%s/%s", c.scheme, c.address, strings.Trim(path, "/"))
}

// Get returns the response body for the resource at path.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// GetJSON decodes the resource at path into v.
func (c *Client) GetJSON(ctx context.Context, path string, v interface{}) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(ErrJSON, err.Error())
	}

	return nil
}

// Put replaces the resource at path with body.
//
// A body of type []byte or string is sent as is, other values are JSON encoded.
func (c *Client) Put(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Patch updates the resource at path with body.
//
// A body of type []byte or string is sent as is, other values are JSON encoded.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	if c.client != nil && c.client.HTTPClient != nil {
		c.client.HTTPClient.CloseIdleConnections()
	}
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrap(ErrJSON, err.Error())
		}

		return payload, nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	reqURL := c.URL(path)

	var rawBody interface{}
	if payload != nil {
		rawBody = payload
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, reqURL, rawBody)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	req.Header.Set("Accept", mimeJSON)
	req.Header.Set("Content-Type", mimeJSON)
	req.SetBasicAuth(c.username, c.password)

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    reqURL,
		"user":   c.username,
		"bytes":  len(payload),
	}).Debug("bmc request")

	startTS := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RESTRequestCounter.With(requestLabels(method, "error")).Inc()

		return nil, errors.Wrap(ErrHTTP, err.Error())
	}

	defer resp.Body.Close()

	code := strconv.Itoa(resp.StatusCode)
	metrics.RESTRequestCounter.With(requestLabels(method, code)).Inc()
	metrics.RESTRequestRuntimeSummary.With(requestLabels(method, code)).Observe(time.Since(startTS).Seconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(ErrHTTP, "error reading response body: "+err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    reqURL,
		"status": resp.StatusCode,
	}).Trace("bmc response")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(method, reqURL, resp)
	}

	return data, nil
}

func requestLabels(method, code string) map[string]string {
	return map[string]string{"method": method, "code": code}
}
