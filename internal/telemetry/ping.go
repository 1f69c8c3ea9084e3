package telemetry

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
	"github.com/jonboulle/clockwork"
	probing "github.com/prometheus-community/pro-bing"
)

// PingResult is the outcome of one ping round.
type PingResult struct {
	AvgRTT     time.Duration
	PacketLoss float64 // percent
}

// Pinger runs one ping round against target.
type Pinger func(ctx context.Context, target string) (PingResult, error)

// PingSource measures latency by pinging a target on every call and keeps
// the most recent samples. Other collections come from the embedded Source.
type PingSource struct {
	Source

	target  string
	window  int
	ping    Pinger
	clock   clockwork.Clock
	mu      sync.Mutex
	samples []models.LatencySample
}

// PingOption configures a PingSource.
type PingOption func(*PingSource)

// WithPinger replaces the ICMP pinger.
func WithPinger(p Pinger) PingOption {
	return func(s *PingSource) { s.ping = p }
}

// WithPingClock sets the clock used to stamp samples.
func WithPingClock(c clockwork.Clock) PingOption {
	return func(s *PingSource) { s.clock = c }
}

// NewPingSource wraps base. window is the number of samples kept; values
// below 1 keep DefaultCounts.Latency samples.
func NewPingSource(base Source, target string, window int, opts ...PingOption) *PingSource {
	if window < 1 {
		window = DefaultCounts.Latency
	}
	s := &PingSource{
		Source: base,
		target: target,
		window: window,
		ping:   ICMPPinger(3, time.Second),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latency pings the target once and returns the rolling window, oldest
// first.
func (s *PingSource) Latency(ctx context.Context) ([]models.LatencySample, error) {
	res, err := s.ping(ctx, s.target)
	if err != nil {
		return nil, fmt.Errorf("ping %s: %w", s.target, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, models.LatencySample{
		Timestamp:  s.clock.Now(),
		LatencyMs:  float64(res.AvgRTT.Microseconds()) / 1000,
		PacketLoss: res.PacketLoss,
	})
	if n := len(s.samples); n > s.window {
		s.samples = append(s.samples[:0:0], s.samples[n-s.window:]...)
	}
	out := make([]models.LatencySample, len(s.samples))
	copy(out, s.samples)
	return out, nil
}

// ICMPPinger sends count echo requests with pro-bing and waits at most
// count*timeout for replies.
func ICMPPinger(count int, timeout time.Duration) Pinger {
	return func(ctx context.Context, target string) (PingResult, error) {
		pinger, err := probing.NewPinger(target)
		if err != nil {
			return PingResult{}, fmt.Errorf("create pinger: %w", err)
		}
		pinger.Count = count
		pinger.Timeout = time.Duration(count) * timeout
		pinger.SetPrivileged(runtime.GOOS == "windows")

		done := make(chan error, 1)
		go func() { done <- pinger.Run() }()

		select {
		case err := <-done:
			if err != nil {
				return PingResult{}, err
			}
		case <-ctx.Done():
			pinger.Stop()
			return PingResult{}, ctx.Err()
		}

		stats := pinger.Statistics()
		return PingResult{AvgRTT: stats.AvgRtt, PacketLoss: stats.PacketLoss}, nil
	}
}
