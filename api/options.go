package api

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"time"
)

type Option func(Client) Client

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c Client) Client {
		c.http.Timeout = timeout
		return c
	}
}

// WithHTTPClient uses a copy of client for all requests. Later options
// change the copy, never the caller's client.
func WithHTTPClient(client *http.Client) Option {
	return func(c Client) Client {
		if client != nil {
			cp := *client
			c.http = &cp
		}
		return c
	}
}

// WithRootCAs restricts the certificate authorities trusted for https
// endpoints to certPool.
func WithRootCAs(certPool *x509.CertPool) Option {
	return func(c Client) Client {
		c.http.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{RootCAs: certPool},
		}
		return c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c Client) Client {
		if logger != nil {
			c.logger = logger
		}
		return c
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c Client) Client {
		c.userAgent = userAgent
		return c
	}
}
