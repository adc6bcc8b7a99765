// Package api is the HTTP client for the case-management backend. It owns
// everything that leaves the process: bearer-token attachment, retries,
// rate limiting, per-request timeouts, and the classification of
// authorization failures that must tear the session down.
package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/go-secure-stdlib/parseutil"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

// ErrSessionExpired is returned to the caller of any authenticated request
// that the backend rejected with a 401-class status. The raw backend error
// is never surfaced; by the time the caller sees this, session teardown has
// already run.
var ErrSessionExpired = errors.New("session expired")

// SessionExpiredHandler is invoked when an authenticated request comes back
// 401. It runs to completion (storage cleared) before the request returns,
// so a retried request can never re-read a stale token. requestPath is the
// path of the rejected request, preserved for the post-login redirect.
type SessionExpiredHandler func(requestPath string)

// unauthenticatedPaths are passed through without a bearer token, and a 401
// from them never triggers teardown: failing a login must not redirect the
// user who is already sitting on the login form.
var unauthenticatedPaths = []string{
	"/auth/authenticate",
	"/auth/register",
}

// Config is used to configure the creation of the client.
type Config struct {
	modifyLock sync.RWMutex

	// Address is the address of the backend, a complete URL such as
	// "https://api.carthage-creances.tn".
	Address string

	// HttpClient is the HTTP client to use. A pooled cleanhttp client with
	// sane TLS defaults is created by DefaultConfig; start from that rather
	// than from an empty client.
	HttpClient *http.Client

	// MinRetryWait and MaxRetryWait bound the wait between retries when a
	// 5xx error occurs.
	MinRetryWait time.Duration
	MaxRetryWait time.Duration

	// MaxRetries is the number of retries on 5xx errors. 0 disables
	// retrying.
	MaxRetries int

	// Timeout applies per request unless the caller's context carries an
	// earlier deadline.
	Timeout time.Duration

	// Error holds any error encountered while building the configuration.
	Error error

	// Backoff is the backoff strategy for the retryable client; a rate-limit
	// aware default is used when nil.
	Backoff retryablehttp.Backoff

	// CheckRetry decides which responses are retried; a default is used
	// when nil.
	CheckRetry retryablehttp.CheckRetry

	// Logger is the leveled logger handed to the retryable HTTP client.
	Logger retryablehttp.LeveledLogger

	// Limiter rate-limits outgoing requests when non-nil.
	Limiter *rate.Limiter
}

// TLSConfig contains the parameters needed to configure TLS on the HTTP
// client used to communicate with the backend.
type TLSConfig struct {
	// CACert is the path of a PEM-encoded CA certificate to trust for the
	// backend, in addition to the system pool.
	CACert string

	// TLSServerName, if set, is used as the SNI host when connecting.
	TLSServerName string

	// Insecure disables certificate verification. Development only.
	Insecure bool
}

// DefaultConfig returns a default configuration for the client, with the
// address overridable through GARDIEN_ADDR. If an error is encountered the
// Error field of the returned Config is populated.
func DefaultConfig() *Config {
	config := &Config{
		Address:      "https://127.0.0.1:8443",
		HttpClient:   cleanhttp.DefaultPooledClient(),
		Timeout:      time.Second * 30,
		MinRetryWait: time.Millisecond * 1000,
		MaxRetryWait: time.Millisecond * 1500,
		MaxRetries:   2,
		Backoff:      retryablehttp.RateLimitLinearJitterBackoff,
	}

	transport := config.HttpClient.Transport.(*http.Transport)
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		config.Error = err
		return config
	}

	if err := config.ReadEnvironment(); err != nil {
		config.Error = err
		return config
	}

	// Redirects are not followed automatically; the session layer has its
	// own notion of where a user should be sent.
	config.HttpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return config
}

// configureTLS is the lock-free version of ConfigureTLS, used from
// ReadEnvironment where the lock is already held.
func (c *Config) configureTLS(t *TLSConfig) error {
	if c.HttpClient == nil {
		c.HttpClient = DefaultConfig().HttpClient
	}
	clientTLSConfig := c.HttpClient.Transport.(*http.Transport).TLSClientConfig

	if t.CACert != "" {
		pem, err := os.ReadFile(t.CACert)
		if err != nil {
			return fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return fmt.Errorf("no certificates found in %q", t.CACert)
		}
		clientTLSConfig.RootCAs = pool
	}

	if t.Insecure {
		clientTLSConfig.InsecureSkipVerify = true
	}

	if t.TLSServerName != "" {
		clientTLSConfig.ServerName = t.TLSServerName
	}

	return nil
}

// ConfigureTLS applies a set of TLS parameters to the HTTP client.
func (c *Config) ConfigureTLS(t *TLSConfig) error {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	return c.configureTLS(t)
}

// ReadEnvironment reads configuration from GARDIEN_* environment variables.
// If there is an error, no configuration value is updated.
func (c *Config) ReadEnvironment() error {
	var envAddress string
	var envCACert string
	var envClientTimeout time.Duration
	var envInsecure bool
	var envTLSServerName string
	var envMaxRetries *int
	var limit *rate.Limiter

	if v := ReadGardienVariable(EnvGardienAddress); v != "" {
		envAddress = v
	}
	if v := ReadGardienVariable(EnvGardienMaxRetries); v != "" {
		maxRetries, err := parseutil.SafeParseIntRange(v, 0, math.MaxInt)
		if err != nil {
			return err
		}
		mRetries := int(maxRetries)
		envMaxRetries = &mRetries
	}
	if v := ReadGardienVariable(EnvGardienCACert); v != "" {
		envCACert = v
	}
	if v := ReadGardienVariable(EnvGardienRateLimit); v != "" {
		rateLimit, burstLimit, err := parseRateLimit(v)
		if err != nil {
			return err
		}
		limit = rate.NewLimiter(rate.Limit(rateLimit), burstLimit)
	}
	if t := ReadGardienVariable(EnvGardienClientTimeout); t != "" {
		clientTimeout, err := parseutil.ParseDurationSecond(t)
		if err != nil {
			return fmt.Errorf("could not parse %q", EnvGardienClientTimeout)
		}
		envClientTimeout = clientTimeout
	}
	if v := ReadGardienVariable(EnvGardienSkipVerify); v != "" {
		var err error
		envInsecure, err = strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("could not parse %s", EnvGardienSkipVerify)
		}
	}
	if v := ReadGardienVariable(EnvGardienTLSServerName); v != "" {
		envTLSServerName = v
	}

	t := &TLSConfig{
		CACert:        envCACert,
		TLSServerName: envTLSServerName,
		Insecure:      envInsecure,
	}

	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	c.Limiter = limit

	if err := c.configureTLS(t); err != nil {
		return err
	}

	if envAddress != "" {
		c.Address = envAddress
	}

	if envMaxRetries != nil {
		c.MaxRetries = *envMaxRetries
	}

	if envClientTimeout != 0 {
		c.Timeout = envClientTimeout
	}

	return nil
}

func parseRateLimit(val string) (rate float64, burst int, err error) {
	_, err = fmt.Sscanf(val, "%f:%d", &rate, &burst)
	if err != nil {
		rate, err = strconv.ParseFloat(val, 64)
		if err != nil {
			err = fmt.Errorf("%v was provided but incorrectly formatted", EnvGardienRateLimit)
		}
		burst = int(rate)
	}

	return rate, burst, err
}

// Client is the client to the case-management backend. Create one with
// NewClient.
type Client struct {
	modifyLock       sync.RWMutex
	addr             *url.URL
	config           *Config
	token            string
	onSessionExpired SessionExpiredHandler
}

// NewClient returns a new client for the given configuration, or the
// configuration from DefaultConfig if nil.
func NewClient(c *Config) (*Client, error) {
	def := DefaultConfig()
	if def == nil {
		return nil, errors.New("could not create/read default configuration")
	}
	if def.Error != nil {
		return nil, fmt.Errorf("error encountered setting up default configuration: %w", def.Error)
	}

	if c == nil {
		c = def
	}

	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	if c.MinRetryWait == 0 {
		c.MinRetryWait = def.MinRetryWait
	}
	if c.MaxRetryWait == 0 {
		c.MaxRetryWait = def.MaxRetryWait
	}
	if c.HttpClient == nil {
		c.HttpClient = def.HttpClient
	}
	if c.HttpClient.Transport == nil {
		c.HttpClient.Transport = def.HttpClient.Transport
	}

	u, err := url.Parse(c.Address)
	if err != nil {
		return nil, err
	}

	return &Client{
		addr:   u,
		config: c,
	}, nil
}

// SetAddress sets the backend address, in "<scheme>://<host>:<port>" form.
func (c *Client) SetAddress(addr string) error {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()

	parsedAddr, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("failed to set address: %w", err)
	}

	c.config.Address = addr
	c.addr = parsedAddr
	return nil
}

// Address returns the backend URL the client is configured to connect to.
func (c *Client) Address() string {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()

	return c.addr.String()
}

// SetMaxRetries sets the number of retries used on 5xx errors.
func (c *Client) SetMaxRetries(retries int) {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()
	c.config.modifyLock.Lock()
	defer c.config.modifyLock.Unlock()

	c.config.MaxRetries = retries
}

func (c *Client) MaxRetries() int {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()
	c.config.modifyLock.RLock()
	defer c.config.modifyLock.RUnlock()

	return c.config.MaxRetries
}

// SetClientTimeout sets the per-request timeout.
func (c *Client) SetClientTimeout(timeout time.Duration) {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()
	c.config.modifyLock.Lock()
	defer c.config.modifyLock.Unlock()

	c.config.Timeout = timeout
}

func (c *Client) ClientTimeout() time.Duration {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()
	c.config.modifyLock.RLock()
	defer c.config.modifyLock.RUnlock()

	return c.config.Timeout
}

// SetLimiter sets the client-side request rate limiter.
func (c *Client) SetLimiter(rateLimit float64, burst int) {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()
	c.config.modifyLock.Lock()
	defer c.config.modifyLock.Unlock()

	c.config.Limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
}

// Token returns the bearer token currently attached to outgoing requests,
// or the empty string when there is none.
func (c *Client) Token() string {
	c.modifyLock.RLock()
	defer c.modifyLock.RUnlock()
	return c.token
}

// SetToken sets the bearer token for future requests. It performs no
// verification of any kind.
func (c *Client) SetToken(v string) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()
	c.token = v
}

// ClearToken deletes the token if it is set or does nothing otherwise.
func (c *Client) ClearToken() {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()
	c.token = ""
}

// SetSessionExpiredHandler registers the hook run when an authenticated
// request is rejected with a 401-class status.
func (c *Client) SetSessionExpiredHandler(h SessionExpiredHandler) {
	c.modifyLock.Lock()
	defer c.modifyLock.Unlock()
	c.onSessionExpired = h
}

// isUnauthenticatedPath reports whether requests to p must work without a
// token.
func isUnauthenticatedPath(p string) bool {
	for _, u := range unauthenticatedPaths {
		if p == u || strings.HasSuffix(p, u) {
			return true
		}
	}
	return false
}

// NewRequest creates a new raw request object targeting the backend
// configured for this client. The bearer token is attached unless the path
// is one of the unauthenticated endpoints.
func (c *Client) NewRequest(method, requestPath string) *Request {
	c.modifyLock.RLock()
	addr := c.addr
	token := c.token
	c.modifyLock.RUnlock()

	if isUnauthenticatedPath(requestPath) {
		token = ""
	}

	return &Request{
		Method: method,
		URL: &url.URL{
			User:   addr.User,
			Scheme: addr.Scheme,
			Host:   addr.Host,
			Path:   path.Join(addr.Path, requestPath),
		},
		Host:        addr.Host,
		ClientToken: token,
		Params:      make(map[string][]string),
	}
}

// RawRequestWithContext performs the request and classifies the response.
// A 401-class status on an authenticated path invokes the session-expired
// handler to completion before the call returns ErrSessionExpired.
func (c *Client) RawRequestWithContext(ctx context.Context, r *Request) (*Response, error) {
	// The cancel func is deliberately not deferred: the response body
	// streams after this function returns, and the timeout will still fire.
	ctx, _ = c.withConfiguredTimeout(ctx)
	return c.rawRequestWithContext(ctx, r)
}

func (c *Client) rawRequestWithContext(ctx context.Context, r *Request) (*Response, error) {
	c.modifyLock.RLock()
	onSessionExpired := c.onSessionExpired

	c.config.modifyLock.RLock()
	limiter := c.config.Limiter
	minRetryWait := c.config.MinRetryWait
	maxRetryWait := c.config.MaxRetryWait
	maxRetries := c.config.MaxRetries
	checkRetry := c.config.CheckRetry
	backoff := c.config.Backoff
	httpClient := c.config.HttpClient
	logger := c.config.Logger
	c.config.modifyLock.RUnlock()

	c.modifyLock.RUnlock()

	if limiter != nil {
		limiter.Wait(ctx)
	}

	// A tokenless request to an authenticated endpoint still goes out; the
	// backend answers 401 and the session hook takes over from there.
	if r.ClientToken == "" && !isUnauthenticatedPath(r.URL.Path) && logger != nil {
		logger.Warn("request to authenticated endpoint carries no token", "path", r.URL.Path)
	}

	req, err := r.toRetryableHTTP()
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.New("nil request created")
	}

	req.Request = req.Request.WithContext(ctx)

	if backoff == nil {
		backoff = retryablehttp.RateLimitLinearJitterBackoff
	}
	if checkRetry == nil {
		checkRetry = retryablehttp.DefaultRetryPolicy
	}

	client := &retryablehttp.Client{
		HTTPClient:   httpClient,
		RetryWaitMin: minRetryWait,
		RetryWaitMax: maxRetryWait,
		RetryMax:     maxRetries,
		Backoff:      backoff,
		CheckRetry:   checkRetry,
		Logger:       logger,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	var result *Response
	resp, err := client.Do(req)
	if resp != nil {
		result = &Response{Response: resp}
	}
	if err != nil {
		return result, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !isUnauthenticatedPath(r.URL.Path) {
		// Teardown must finish (storage cleared) before the caller gets
		// control back, otherwise a retry could re-read a stale token.
		if onSessionExpired != nil {
			onSessionExpired(r.URL.Path)
		}
		resp.Body.Close()
		return result, ErrSessionExpired
	}

	if err := result.Error(); err != nil {
		return result, err
	}

	return result, nil
}

// withConfiguredTimeout wraps the context with the configured timeout.
func (c *Client) withConfiguredTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.ClientTimeout()

	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}

	return ctx, func() {}
}
