package httpx

import (
	"net"
	"net/http"
	"time"
)

// Transport shared by the inventory, verification and payment gateway
// clients. Bounded everywhere so one slow upstream cannot pile up
// connections.
var sharedTransport = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:        100,
	MaxConnsPerHost:     100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client returns a gateway client with the default 10s budget. Availability
// checks sit on the booking request path, so the ceiling stays tight.
func Client() *http.Client {
	return WithTimeout(10 * time.Second)
}

// WithTimeout returns a client sharing the pooled transport with its own
// overall request budget.
func WithTimeout(d time.Duration) *http.Client {
	return &http.Client{Timeout: d, Transport: sharedTransport}
}
