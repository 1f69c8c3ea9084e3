// Package notify delivers user-facing notifications (toasts) to log, bus,
// and webhook sinks.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/netscope/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TopicToast is the bus topic BusSink publishes on.
const TopicToast = "notify.toast"

// Notification is one toast.
type Notification struct {
	ID          string                      `json:"id"`
	Title       string                      `json:"title"`
	Description string                      `json:"description"`
	Severity    models.NotificationSeverity `json:"severity"`
	Timestamp   time.Time                   `json:"timestamp"`
}

// New builds a Notification with a fresh id.
func New(title, description string, sev models.NotificationSeverity, at time.Time) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Severity:    sev,
		Timestamp:   at,
	}
}

// Sink receives notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Channel names a user-toggleable delivery channel.
type Channel string

const (
	ChannelAlways Channel = "always" // cannot be disabled
	ChannelPush   Channel = "push"
	ChannelEmail  Channel = "email"
	ChannelSMS    Channel = "sms"
)

type route struct {
	channel Channel
	sink    Sink
}

// Dispatcher fans a notification out to every sink whose channel is enabled.
// Sink failures are logged and never returned.
type Dispatcher struct {
	mu      sync.RWMutex
	routes  []route
	enabled map[Channel]bool
	logger  *zap.Logger
}

var _ Sink = (*Dispatcher)(nil)

// NewDispatcher returns a Dispatcher with push and email enabled and sms
// disabled.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		enabled: map[Channel]bool{
			ChannelAlways: true,
			ChannelPush:   true,
			ChannelEmail:  true,
			ChannelSMS:    false,
		},
		logger: logger,
	}
}

// Add routes sink under channel.
func (d *Dispatcher) Add(ch Channel, s Sink) {
	d.mu.Lock()
	d.routes = append(d.routes, route{channel: ch, sink: s})
	d.mu.Unlock()
}

// SetEnabled turns a channel on or off. ChannelAlways ignores the call.
func (d *Dispatcher) SetEnabled(ch Channel, on bool) {
	if ch == ChannelAlways {
		return
	}
	d.mu.Lock()
	d.enabled[ch] = on
	d.mu.Unlock()
}

// Enabled reports whether ch is on.
func (d *Dispatcher) Enabled(ch Channel) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled[ch]
}

// Notify delivers n to the enabled sinks in registration order.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	d.mu.RLock()
	targets := make([]route, 0, len(d.routes))
	for _, r := range d.routes {
		if d.enabled[r.channel] {
			targets = append(targets, r)
		}
	}
	d.mu.RUnlock()

	for _, r := range targets {
		if err := r.sink.Notify(ctx, n); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("channel", string(r.channel)),
				zap.String("title", n.Title),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
	return nil
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.got))
	copy(out, r.got)
	return out
}

// Count returns how many notifications with the given title were recorded.
func (r *Recorder) Count(title string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.got {
		if got.Title == title {
			n++
		}
	}
	return n
}
