package connection

import (
	"context"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/dnscache"
	"golang.org/x/sync/semaphore"
)

const (
	EnvDNSLookupMaxParallel        = "HOSTSPIPE_DNS_LOOKUP_MAX_PARALLEL"
	EnvDNSCacheRefreshIntervalSecs = "HOSTSPIPE_DNS_CACHE_REFRESH_INTERVAL_SECS"
	EnvHTTPMaxConnsPerHost         = "HOSTSPIPE_HTTP_TRANSPORT_MAX_CONNS_PER_HOST"
)

// A single resolver is shared by every HTTP client we build (list downloads and
// the AWS SDK) so that repeated fetches of lists hosted on the same domain do
// not each trigger a DNS lookup.
//
// Parallel lookups are capped by a semaphore to avoid "no such host" errors
// from flooding the local resolver when many lists are fetched at once.
var (
	resolverOnce sync.Once
	resolver     *dnscache.Resolver
	lookupSem    *semaphore.Weighted
	cacheEnabled bool

	sharedHTTPClientOnce sync.Once
	sharedHTTPClient     *http.Client
)

func initResolver() {
	// Set to 0 to disable the refresh, -1 to disable the DNS cache completely.
	refreshSecs := readEnvVarToInt(EnvDNSCacheRefreshIntervalSecs, 300)
	maxParallel := readEnvVarToInt(EnvDNSLookupMaxParallel, 25)

	resolver = &dnscache.Resolver{}
	lookupSem = semaphore.NewWeighted(int64(maxParallel))
	cacheEnabled = refreshSecs >= 0

	if refreshSecs > 0 {
		go func() {
			t := time.NewTicker(time.Duration(refreshSecs) * time.Second)
			defer t.Stop()
			for range t.C {
				resolver.Refresh(true)
			}
		}()
	}
}

// cachingDialContext wraps dialer so that host names are resolved through the
// shared DNS cache. It returns nil if the cache is disabled.
func cachingDialContext(dialer *net.Dialer) func(ctx context.Context, network string, addr string) (net.Conn, error) {
	resolverOnce.Do(initResolver)
	if !cacheEnabled {
		return nil
	}

	return func(ctx context.Context, network string, addr string) (conn net.Conn, err error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		if err := lookupSem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		ips, err := resolver.LookupHost(ctx, host)
		lookupSem.Release(1)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, &net.DNSError{Err: "no addresses found", Name: host, IsNotFound: true}
		}

		// try each address in turn until one connects
		for _, ip := range ips {
			conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				break
			}
		}
		return
	}
}

// SharedHTTPClient returns the process wide client used by network inputs.
// It has no overall timeout as list bodies are streamed for as long as the
// pump keeps reading.
func SharedHTTPClient() *http.Client {
	sharedHTTPClientOnce.Do(func() {
		sharedHTTPClient = NewHTTPClient(0)
	})
	return sharedHTTPClient
}

// NewHTTPClient builds a client over a DNS caching transport.
// timeout is applied to the whole exchange, 0 means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if maxConns := readEnvVarToInt(EnvHTTPMaxConnsPerHost, 0); maxConns > 0 {
		transport.MaxConnsPerHost = maxConns
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if dial := cachingDialContext(dialer); dial != nil {
		transport.DialContext = dial
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Helper function for integer based environment variables.
func readEnvVarToInt(name string, defaultVal int) int {
	val := defaultVal
	envValue := os.Getenv(name)
	if envValue != "" {
		i, err := strconv.Atoi(envValue)
		if err == nil {
			val = i
		}
	}
	return val
}
