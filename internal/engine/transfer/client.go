package transfer

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vfaronov/httpheader"
	"golang.org/x/net/proxy"

	"github.com/pixdl/pixdl/internal/engine/types"
	"github.com/pixdl/pixdl/internal/utils"
)

// NewHTTPClient builds a client honouring the runtime proxy and TLS settings.
// timeout 0 means no overall deadline, which image transfers rely on.
func NewHTTPClient(runtime *types.RuntimeConfig, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   types.DialTimeout,
		KeepAlive: types.KeepAliveDuration,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          types.DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   types.DefaultMaxIdleConns,
		IdleConnTimeout:       types.DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   types.DefaultTLSHandshakeTimeout,
		ExpectContinueTimeout: types.DefaultExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
	}

	// Configure proxy if runtime config is provided
	if runtime != nil && runtime.ProxyURL != "" {
		parsedURL, err := url.Parse(runtime.ProxyURL)
		if err != nil {
			utils.Debug("transfer: invalid proxy URL %s: %v", runtime.ProxyURL, err)
			transport.Proxy = http.ProxyFromEnvironment
		} else if strings.HasPrefix(parsedURL.Scheme, "socks5") {
			utils.Debug("transfer: using SOCKS5 proxy %s", parsedURL.Host)
			var auth *proxy.Auth
			if parsedURL.User != nil {
				pw, _ := parsedURL.User.Password()
				auth = &proxy.Auth{User: parsedURL.User.Username(), Password: pw}
			}
			socks, dialErr := proxy.SOCKS5("tcp", parsedURL.Host, auth, dialer)
			if dialErr != nil {
				utils.Debug("transfer: failed to create SOCKS5 dialer: %v", dialErr)
				transport.Proxy = http.ProxyFromEnvironment
			} else if cd, ok := socks.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return socks.Dial(network, addr)
				}
			}
		} else {
			transport.Proxy = http.ProxyURL(parsedURL)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	if runtime != nil && runtime.SkipTLSVerify {
		utils.Debug("transfer: TLS verification disabled")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DefaultUserAgent is sent when no user agent is configured. The image host
// rejects obvious non-browser clients.
var DefaultUserAgent = []httpheader.Product{
	{Name: "Mozilla", Version: "5.0", Comment: "Windows NT 10.0; Win64; x64"},
	{Name: "AppleWebKit", Version: "537.36", Comment: "KHTML, like Gecko"},
	{Name: "Chrome", Version: "120.0.0.0"},
	{Name: "Safari", Version: "537.36"},
}

// SetRequestHeaders applies the headers every request to the service carries:
// the fixed referer and the user agent.
func SetRequestHeaders(req *http.Request, runtime *types.RuntimeConfig) {
	req.Header.Set("Referer", types.Referer)
	if runtime != nil && runtime.UserAgent != "" {
		req.Header.Set("User-Agent", runtime.UserAgent)
	} else {
		httpheader.SetUserAgent(req.Header, DefaultUserAgent)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
