// Package httpc builds HTTP clients tuned for talking to the vehicle.
// The motor bridge issues small requests at control-loop rate against a
// single host, so connections are kept alive and the idle pool stays
// warm between ticks.
package httpc

import (
	"net"
	"net/http"
	"time"
)

const (
	connectTimeout  = 5 * time.Second
	keepAlive       = 30 * time.Second
	idleConnTimeout = 90 * time.Second
)

// NewClient returns a client with the given overall request timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: keepAlive,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     idleConnTimeout,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}
