// Package connectivity tracks whether the host appears to be online. The
// result only drives an "Offline Mode" badge; nothing else changes when
// the host is offline.
package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Prober reports whether the host is online.
type Prober func() bool

// InterfaceProbe reports online when at least one non-loopback interface
// is up and carries an address. It sends no traffic.
func InterfaceProbe() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

// Monitor holds the latest online/offline signal.
type Monitor struct {
	mu     sync.RWMutex
	online bool
	subs   []chan bool
	logger *zap.Logger
}

// NewMonitor starts in the given state.
func NewMonitor(online bool, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{online: online, logger: logger}
}

// Set records a connectivity notification. Subscribers are only told
// about actual changes. Sends happen under the lock that also guards
// closing a subscription, so a channel is never written after close.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online

	m.logger.Info("connectivity changed", zap.Bool("online", online))
	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Offline reports whether the offline badge should be shown.
func (m *Monitor) Offline() bool {
	return !m.Online()
}

// Subscribe returns a buffered channel receiving each change. Slow
// readers miss intermediate changes. The channel closes when ctx ends.
func (m *Monitor) Subscribe(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subs {
			if sub == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch
}

// Watch calls probe immediately and then every interval until ctx ends.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe Prober) {
	if probe == nil {
		probe = InterfaceProbe
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	m.Set(probe())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Set(probe())
		}
	}
}
