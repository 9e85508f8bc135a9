package client

import (
	"context"
	"net"
	"sync"
	"time"

	"ptc_mining/internal/logger"
)

// LogNotifier writes notifications to the structured log. The headless
// agent's stand-in for a platform notification channel.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) {
	logger.Info("notification", "title", title, "message", message)
}

// SimulatedAdPlayer stands in for a rewarded ad SDK: it waits out the ad
// length and always grants the reward.
type SimulatedAdPlayer struct {
	Duration time.Duration
}

func (p SimulatedAdPlayer) Play(ctx context.Context) (bool, error) {
	d := p.Duration
	if d <= 0 {
		d = 3 * time.Second
	}
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(d):
		return true, nil
	}
}

// ProbeConnectivity derives online state from TCP dials against the server
// address, polling in the background and emitting a change event on every
// flip.
type ProbeConnectivity struct {
	addr     string
	interval time.Duration

	mu      sync.Mutex
	online  bool
	changes chan bool
}

func NewProbeConnectivity(addr string, interval time.Duration) *ProbeConnectivity {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ProbeConnectivity{
		addr:     addr,
		interval: interval,
		online:   probe(addr),
		changes:  make(chan bool, 1),
	}
}

func (p *ProbeConnectivity) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *ProbeConnectivity) Changes() <-chan bool {
	return p.changes
}

// Run polls until ctx is cancelled.
func (p *ProbeConnectivity) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := probe(p.addr)

			p.mu.Lock()
			flipped := now != p.online
			p.online = now
			p.mu.Unlock()

			if flipped {
				logger.Info("connectivity changed", "online", now)
				select {
				case p.changes <- now:
				default:
				}
			}
		}
	}
}

func probe(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
