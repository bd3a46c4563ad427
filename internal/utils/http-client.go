package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout       time.Duration // per-request timeout, not the whole-download budget
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UpdaterHTTPClient is the shared, connection-pooled transport for both
// metadata checks and artifact transfers. It is built once by the composition
// root and closed at shutdown.
type UpdaterHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewUpdaterHTTPClient(cfg HTTPClientConfig) *UpdaterHTTPClient {
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 8,
		MaxConnsPerHost:     8,
		DisableCompression:  true,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &UpdaterHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

func (u *UpdaterHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		if u.config.UserAgent != "" {
			req.Header.Set("User-Agent", u.config.UserAgent)
		} else {
			req.Header.Set("User-Agent", DefaultUserAgent)
		}
	}
	for k, v := range u.config.Headers {
		req.Header.Set(k, v)
	}
	return u.client.Do(req)
}

// Close releases pooled connections. Safe to call once the client is no
// longer needed.
func (u *UpdaterHTTPClient) Close() {
	u.client.CloseIdleConnections()
}
