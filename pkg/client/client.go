package client

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/helalist/hela/pkg/logging"
	"github.com/helalist/hela/pkg/version"
)

const (
	retryMinWait     = 100 * time.Millisecond  // in milliseconds
	retryMaxWait     = 3000 * time.Millisecond // in milliseconds, do not backoff further than 3 seconds
	retrySleepJitter = 500                     // (will add 0-500 additional milliseconds), multiplied by time.Millisecond in backoffFunc
)

// Options configure the HTTP client shared by the dispatcher and the download stream manager.
type Options struct {
	// ConnectTimeout bounds dialing only. Request and body reads are not bounded here.
	ConnectTimeout time.Duration
	// MaxRetries is the number of transport level retries. Zero sends every request exactly once.
	MaxRetries int
	ForceHTTP2 bool
	// Transport replaces the default base transport. Tests use it to install mock transports.
	Transport http.RoundTripper
}

// Doer is the subset of *http.Client used to send requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = &http.Client{}

type UserAgentTransport struct {
	Transport http.RoundTripper
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", version.UserAgent())
	return t.Transport.RoundTrip(req)
}

// NewHTTPClient returns an http.Client backed by retryablehttp. Responses with any status code are
// handed back to the caller untouched once retries (if any) are exhausted.
func NewHTTPClient(opts Options) *http.Client {
	base := opts.Transport
	if base == nil {
		base = newBaseTransport(opts)
	}
	transport := &UserAgentTransport{Transport: base}

	retryClient := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirectFunc,
		},
		Logger:       newLeveledLogger(logging.GetLogger()),
		RetryWaitMin: retryMinWait,
		RetryWaitMax: retryMaxWait,
		RetryMax:     opts.MaxRetries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      backoffFunc,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	return retryClient.StandardClient()
}

func newBaseTransport(opts Options) http.RoundTripper {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	if opts.ForceHTTP2 {
		return &http2.Transport{
			ReadIdleTimeout: 30 * time.Second,
			PingTimeout:     15 * time.Second,
		}
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     false,
	}
}

// backoffFunc is a wrapper around retryablehttp.DefaultBackoff that adds a random jitter so that
// concurrent downloads retrying against the same server do not wake up in lockstep.
func backoffFunc(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	sleep := time.Duration(rand.Intn(retrySleepJitter)) * time.Millisecond
	sleep += retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
	return sleep
}

// checkRedirectFunc is a wrapper around http.Client.CheckRedirect that allows for printing out redirects
func checkRedirectFunc(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after %d redirects", len(via))
	}
	logger := logging.GetLogger()
	event := logger.Trace().
		Str("redirect_url", req.URL.String()).
		Str("url", via[0].URL.String())
	if req.Response != nil {
		event = event.Int("status", req.Response.StatusCode)
	}
	event.Msg("Redirect")
	return nil
}

// ResolveURL resolves target against base. Absolute targets are returned unchanged; absolute
// paths are appended to any path prefix carried by base.
func ResolveURL(base *url.URL, target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", target, err)
	}
	if ref.IsAbs() || base == nil {
		return ref.String(), nil
	}
	if strings.HasPrefix(ref.Path, "/") {
		joined := *ref
		joined.Path = strings.TrimSuffix(base.Path, "/") + ref.Path
		joined.RawPath = ""
		ref = &joined
	}
	return base.ResolveReference(ref).String(), nil
}

// ParseBaseURL normalizes a server address into a base URL. A bare host:port gets an http scheme.
func ParseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		return nil, fmt.Errorf("server address is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// leveledLogger forwards retryablehttp logging to zerolog. retryablehttp logs every attempt at
// debug, which is demoted to trace here.
type leveledLogger struct {
	logger zerolog.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func newLeveledLogger(logger zerolog.Logger) leveledLogger {
	return leveledLogger{logger: logger.With().Str("component", "http").Logger()}
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}
