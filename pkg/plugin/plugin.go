// Package plugin defines the module contract for NetScope. The network data
// provider, the history recorder, and the MQTT publisher are all plugins
// driven by the same lifecycle.
package plugin

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// APIVersion is the plugin contract version this server implements.
const APIVersion = 1

// Plugin is the lifecycle every NetScope module implements.
type Plugin interface {
	Info() PluginInfo
	Init(ctx context.Context, deps Dependencies) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PluginInfo describes a plugin and the plugins it needs.
type PluginInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
	Required     bool     `json:"required"`
	APIVersion   int      `json:"api_version"`
}

// Dependencies are the shared services injected by the registry during Init.
type Dependencies struct {
	Config  Config      // scoped to plugins.<name>
	Logger  *zap.Logger // named after the plugin
	Store   Store
	Bus     EventBus
	Plugins PluginResolver
}

// Route is an HTTP route contributed by a plugin. Path is relative to the
// plugin's mount point /api/v1/<name>.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// HTTPProvider is implemented by plugins that expose HTTP routes.
type HTTPProvider interface {
	Routes() []Route
}

// HealthStatus is a plugin's self-reported health.
type HealthStatus struct {
	Status  string            `json:"status"` // healthy, degraded, unhealthy
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthChecker is implemented by plugins that report health.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// Validator is implemented by plugins that validate their config after Init.
type Validator interface {
	ValidateConfig() error
}

// EventSubscriber is implemented by plugins that declare bus subscriptions.
// The registry subscribes them after a successful Init.
type EventSubscriber interface {
	Subscriptions() []Subscription
}

// Subscription binds a handler to a topic.
type Subscription struct {
	Topic   string
	Handler EventHandler
}

// Config is read access to a configuration subtree.
type Config interface {
	Unmarshal(target any) error
	Get(key string) any
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
}

// Store is the shared database handle.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, pluginName string, migrations []Migration) error
}

// Migration is one forward-only schema step owned by a plugin.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives events from the bus.
type Subscriber interface {
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
}

// EventBus combines publishing and subscribing with async and wildcard
// variants.
type EventBus interface {
	Publisher
	Subscriber
	PublishAsync(ctx context.Context, event Event)
	SubscribeAll(handler EventHandler) (unsubscribe func())
}

// Event is a message on the bus. The payload type depends on the topic.
type Event struct {
	Topic     string
	Source    string
	Timestamp time.Time
	Payload   any
}

// EventHandler processes one event.
type EventHandler func(ctx context.Context, event Event)

// PluginResolver looks up other plugins by name.
type PluginResolver interface {
	Resolve(name string) (Plugin, bool)
}
