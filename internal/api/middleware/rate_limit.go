package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepInterval = time.Minute
	idleTTL       = 5 * time.Minute
)

// ClientLimiter keeps one token bucket per client address. Buckets idle
// for longer than idleTTL are swept until the limiter's context ends.
type ClientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientBucket
	done    chan struct{}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter allows rps requests per second per client. A burst of
// zero or less uses rps.
func NewClientLimiter(ctx context.Context, rps, burst int) *ClientLimiter {
	if burst <= 0 {
		burst = rps
	}
	l := &ClientLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientBucket),
		done:    make(chan struct{}),
	}
	go l.sweepLoop(ctx)
	return l
}

// Allow takes a token from the client's bucket.
func (l *ClientLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (l *ClientLimiter) sweepLoop(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.sweep(now)
		}
	}
}

func (l *ClientLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for client, b := range l.clients {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(l.clients, client)
		}
	}
}

// ClientAddr returns the host part of r.RemoteAddr. Forwarding headers
// are not trusted; the API is meant to listen on a local address.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
