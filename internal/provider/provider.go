// Package provider owns the network snapshot: it refreshes it from a
// telemetry source on a schedule or on demand, publishes it atomically, and
// exports it.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HerbHall/netscope/internal/notify"
	"github.com/HerbHall/netscope/internal/telemetry"
	"github.com/HerbHall/netscope/pkg/models"
	"github.com/HerbHall/netscope/pkg/plugin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is the scheduled refresh period.
const DefaultInterval = 30 * time.Second

// Bus topics.
const (
	TopicSnapshotRefreshed = "network.snapshot.refreshed"
	TopicRefreshFailed     = "network.refresh.failed"
)

var (
	// ErrNoSnapshot is returned by Export before the first successful refresh.
	ErrNoSnapshot = errors.New("no network data available yet")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("provider already started")
)

// RefreshFailure is the payload of TopicRefreshFailed.
type RefreshFailure struct {
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

// Provider holds the current snapshot. All methods are safe for concurrent
// use. Readers never block on a refresh.
type Provider struct {
	source   telemetry.Source
	notifier notify.Sink
	clock    clockwork.Clock
	interval time.Duration
	logger   *zap.Logger
	bus      plugin.Publisher
	metrics  *metrics

	snap    atomic.Pointer[models.Snapshot]
	loading atomic.Bool
	auto    atomic.Bool
	group   singleflight.Group
	effects effects

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock sets the clock used for timestamps and the schedule.
func WithClock(c clockwork.Clock) Option {
	return func(p *Provider) { p.clock = c }
}

// WithInterval sets the refresh period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithPublisher publishes refresh events to bus.
func WithPublisher(bus plugin.Publisher) Option {
	return func(p *Provider) { p.bus = bus }
}

// WithRegisterer registers the provider's metrics with reg. Without it the
// metrics are collected but not exposed.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Provider) { p.metrics = newMetrics(reg) }
}

// New returns a stopped Provider. notifier may be nil.
func New(source telemetry.Source, notifier notify.Sink, opts ...Option) *Provider {
	p := &Provider{
		source:   source,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	p.auto.Store(true)
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = newMetrics(nil)
	}
	return p
}

// Snapshot returns the current snapshot, or nil before the first successful
// refresh. The returned value must not be modified.
func (p *Provider) Snapshot() *models.Snapshot { return p.snap.Load() }

// Loading reports whether a refresh is in flight.
func (p *Provider) Loading() bool { return p.loading.Load() }

// LastUpdated returns the time of the last successful refresh.
func (p *Provider) LastUpdated() time.Time {
	if s := p.snap.Load(); s != nil {
		return s.LastUpdated
	}
	return time.Time{}
}

// Interval returns the refresh period.
func (p *Provider) Interval() time.Duration { return p.interval }

// Refresh regenerates the snapshot. Concurrent calls share one refresh and
// receive the same result. On failure the previous snapshot is kept.
func (p *Provider) Refresh(ctx context.Context) (*models.Snapshot, error) {
	// The shared refresh must not die with whichever caller started it.
	work := context.WithoutCancel(ctx)
	var leader bool
	ch := p.group.DoChan("refresh", func() (any, error) {
		leader = true
		return p.refresh(work)
	})

	select {
	case res := <-ch:
		if !leader {
			p.metrics.coalesced.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh collects and stores a new snapshot. Loading is cleared before the
// outcome is published; delivery happens on the effect queue.
func (p *Provider) refresh(ctx context.Context) (*models.Snapshot, error) {
	p.loading.Store(true)
	start := time.Now()
	prev := p.snap.Load()
	next, err := p.collect(ctx, prev)
	if err == nil {
		p.snap.Store(next)
	}
	p.loading.Store(false)
	p.metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.metrics.refreshes.WithLabelValues("failure").Inc()
		p.logger.Warn("network refresh failed", zap.Error(err))
		p.publish(ctx, TopicRefreshFailed, RefreshFailure{Error: err.Error(), At: p.clock.Now()})
		p.notify(ctx, "Refresh failed", "Could not update network data. Please try again.", models.NotificationDestructive)
		return nil, err
	}

	p.metrics.refreshes.WithLabelValues("success").Inc()
	p.metrics.observe(next)
	p.logger.Debug("network data refreshed",
		zap.Uint64("sequence", next.Sequence),
		zap.Int("devices", len(next.Devices)),
		zap.Int("incidents", len(next.Incidents)),
	)
	p.publish(ctx, TopicSnapshotRefreshed, next)
	p.notify(ctx, "Data refreshed",
		"Successfully updated network data at "+next.LastUpdated.Format("15:04:05"),
		models.NotificationDefault)
	return next, nil
}

// collect fetches every collection from the source concurrently and derives
// the rollups. A panicking source is reported as an error.
func (p *Provider) collect(ctx context.Context, prev *models.Snapshot) (*models.Snapshot, error) {
	next := &models.Snapshot{Sequence: 1}

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(name string, fn func(context.Context) error) {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s source panicked: %v", name, r)
				}
			}()
			if err := fn(gctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	fetch("traffic", func(ctx context.Context) (err error) {
		next.Traffic, err = p.source.Traffic(ctx)
		return err
	})
	fetch("latency", func(ctx context.Context) (err error) {
		next.Latency, err = p.source.Latency(ctx)
		return err
	})
	fetch("protocols", func(ctx context.Context) (err error) {
		next.Protocols, err = p.source.Protocols(ctx)
		return err
	})
	fetch("devices", func(ctx context.Context) (err error) {
		next.Devices, err = p.source.Devices(ctx)
		return err
	})
	fetch("incidents", func(ctx context.Context) (err error) {
		next.Incidents, err = p.source.Incidents(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	normalize(next)

	var prevStats *models.StatusStats
	now := p.clock.Now()
	if prev != nil {
		prevStats = &prev.StatusStats
		next.Sequence = prev.Sequence + 1
		if !now.After(prev.LastUpdated) {
			now = prev.LastUpdated.Add(time.Nanosecond)
		}
	}
	next.NetworkStatus = telemetry.Summarize(next.Devices, next.Incidents)
	next.StatusStats = telemetry.ComputeStats(prevStats, next.Latency, next.Devices)
	next.LastUpdated = now

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return next, nil
}

// normalize replaces nil collections with empty ones so an empty source
// result encodes as [] rather than null.
func normalize(s *models.Snapshot) {
	if s.Traffic == nil {
		s.Traffic = []models.TrafficSample{}
	}
	if s.Latency == nil {
		s.Latency = []models.LatencySample{}
	}
	if s.Protocols == nil {
		s.Protocols = []models.ProtocolShare{}
	}
	if s.Devices == nil {
		s.Devices = []models.Device{}
	}
	if s.Incidents == nil {
		s.Incidents = []models.Incident{}
	}
}
