package collector

import (
	"net/http"
	"net/url"
	"time"
)

const httpTimeout = 30 * time.Second

// newHTTPClient returns a client routed through proxyURL when it parses.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: httpTimeout, Transport: transport}
}
