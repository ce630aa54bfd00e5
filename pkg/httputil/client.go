// Package httputil holds shared HTTP plumbing: pooled clients with tiered
// timeouts, bounded response readers and a non-blocking semaphore for
// fire-and-forget work.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize caps response bodies read from upstream services.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// One transport for the whole process so scorer and embedding calls reuse
// TCP connections.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier groups outbound calls by how long they may reasonably take.
type TimeoutTier int

const (
	// TierFast covers health checks and liveness probes (5s).
	TierFast TimeoutTier = iota
	// TierMedium covers ordinary API calls such as embedding lookups (30s).
	TierMedium
	// TierSlow covers model inference that can stall under load (60s).
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 30 * time.Second,
	TierSlow:   60 * time.Second,
}

var (
	clientFast   *http.Client
	clientMedium *http.Client
	clientSlow   *http.Client
	clientOnce   sync.Once
)

func initClients() {
	clientFast = &http.Client{
		Timeout:   timeoutDurations[TierFast],
		Transport: sharedTransport,
	}
	clientMedium = &http.Client{
		Timeout:   timeoutDurations[TierMedium],
		Transport: sharedTransport,
	}
	clientSlow = &http.Client{
		Timeout:   timeoutDurations[TierSlow],
		Transport: sharedTransport,
	}
}

// Client returns the shared client for a timeout tier. Callers must not
// mutate the returned client.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierMedium:
		return clientMedium
	case TierSlow:
		return clientSlow
	default:
		return clientMedium
	}
}

// FastClient returns the 5s-timeout client.
func FastClient() *http.Client {
	return Client(TierFast)
}

// MediumClient returns the 30s-timeout client.
func MediumClient() *http.Client {
	return Client(TierMedium)
}

// SlowClient returns the 60s-timeout client.
func SlowClient() *http.Client {
	return Client(TierSlow)
}

// ReadResponseBody reads a response body with a size bound. maxSize <= 0
// falls back to MaxResponseSize.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads an error response with a tight bound; upstream error
// messages have no business being large.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024
	return io.ReadAll(io.LimitReader(r, maxErrorSize))
}

// DrainAndClose empties and closes a response body so the connection returns
// to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
