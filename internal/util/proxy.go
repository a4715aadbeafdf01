package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc creates a proxy function for outbound API clients.
// If no proxy URLs are configured, falls back to environment variables.
func NewProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
