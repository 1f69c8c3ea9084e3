// Package registry orders, initializes, starts, and stops NetScope plugins.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long a single plugin may take to stop.
const DefaultStopTimeout = 10 * time.Second

// Registry holds the registered plugins and their dependency order.
type Registry struct {
	mu          sync.RWMutex
	plugins     map[string]plugin.Plugin
	infos       map[string]plugin.PluginInfo
	order       []string
	disabled    map[string]bool
	unsubs      []func()
	stopTimeout time.Duration
	logger      *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:     make(map[string]plugin.Plugin),
		infos:       make(map[string]plugin.PluginInfo),
		disabled:    make(map[string]bool),
		stopTimeout: DefaultStopTimeout,
		logger:      logger,
	}
}

// SetStopTimeout overrides the per-plugin stop deadline.
func (r *Registry) SetStopTimeout(d time.Duration) {
	r.mu.Lock()
	r.stopTimeout = d
	r.mu.Unlock()
}

// Register adds p. Names must be unique.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("plugin has empty name")
	}
	if _, dup := r.plugins[info.Name]; dup {
		return fmt.Errorf("plugin %q already registered", info.Name)
	}
	r.plugins[info.Name] = p
	r.infos[info.Name] = info
	r.logger.Debug("plugin registered",
		zap.String("name", info.Name),
		zap.String("version", info.Version),
	)
	return nil
}

// Validate disables plugins whose API version or dependencies cannot be met,
// then computes the start order. A required plugin that would be disabled
// fails validation.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, info := range r.infos {
		if info.APIVersion != plugin.APIVersion {
			if err := r.disable(name, fmt.Sprintf("targets plugin API v%d, server implements v%d", info.APIVersion, plugin.APIVersion)); err != nil {
				return err
			}
		}
	}

	// Repeat until stable so a disabled plugin takes its dependents with it.
	for changed := true; changed; {
		changed = false
		for name, info := range r.infos {
			if r.disabled[name] {
				continue
			}
			for _, dep := range info.Dependencies {
				_, registered := r.plugins[dep]
				if registered && !r.disabled[dep] {
					continue
				}
				if err := r.disable(name, fmt.Sprintf("dependency %q unavailable", dep)); err != nil {
					return err
				}
				changed = true
				break
			}
		}
	}

	order, err := r.sortByDependencies()
	if err != nil {
		return err
	}
	r.order = order
	r.logger.Info("plugin order resolved", zap.Strings("order", order))
	return nil
}

func (r *Registry) disable(name, reason string) error {
	if r.infos[name].Required {
		return fmt.Errorf("required plugin %q: %s", name, reason)
	}
	r.logger.Warn("disabling plugin", zap.String("name", name), zap.String("reason", reason))
	r.disabled[name] = true
	return nil
}

// InitAll initializes active plugins in dependency order, validates their
// config, and wires their event subscriptions.
func (r *Registry) InitAll(ctx context.Context, depsFn func(name string) plugin.Dependencies) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		p := r.plugins[name]
		deps := depsFn(name)
		if err := p.Init(ctx, deps); err != nil {
			if dErr := r.disable(name, "init failed: "+err.Error()); dErr != nil {
				return fmt.Errorf("init plugin %q: %w", name, err)
			}
			continue
		}
		if v, ok := p.(plugin.Validator); ok {
			if err := v.ValidateConfig(); err != nil {
				if dErr := r.disable(name, "invalid config: "+err.Error()); dErr != nil {
					return fmt.Errorf("validate plugin %q config: %w", name, err)
				}
				continue
			}
		}
		if es, ok := p.(plugin.EventSubscriber); ok && deps.Bus != nil {
			for _, sub := range es.Subscriptions() {
				r.unsubs = append(r.unsubs, deps.Bus.Subscribe(sub.Topic, sub.Handler))
			}
		}
	}
	return nil
}

// StartAll starts initialized plugins in dependency order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		r.logger.Info("starting plugin", zap.String("name", name))
		if err := r.plugins[name].Start(ctx); err != nil {
			if dErr := r.disable(name, "start failed: "+err.Error()); dErr != nil {
				return fmt.Errorf("start plugin %q: %w", name, err)
			}
		}
	}
	return nil
}

// StopAll unsubscribes every plugin from the bus and stops active plugins in
// reverse dependency order. Each Stop gets its own deadline derived from ctx.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	timeout := r.stopTimeout
	r.mu.Unlock()

	for _, u := range unsubs {
		u()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if r.disabled[name] {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := r.plugins[name].Stop(stopCtx); err != nil {
			r.logger.Error("plugin stop failed", zap.String("name", name), zap.Error(err))
		}
		cancel()
	}
}

// Resolve returns an active plugin by name.
func (r *Registry) Resolve(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	if !ok || r.disabled[name] {
		return nil, false
	}
	return p, true
}

// All returns active plugins in dependency order.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]plugin.Plugin, 0, len(r.order))
	for _, name := range r.order {
		if !r.disabled[name] {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// PluginState is a plugin's metadata plus whether it is running.
type PluginState struct {
	plugin.PluginInfo
	Enabled bool `json:"enabled"`
}

// States returns every registered plugin sorted by name.
func (r *Registry) States() []PluginState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PluginState, 0, len(r.infos))
	for name, info := range r.infos {
		out = append(out, PluginState{PluginInfo: info, Enabled: !r.disabled[name]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllRoutes collects routes from active HTTPProvider plugins, keyed by name.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make(map[string][]plugin.Route)
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		if hp, ok := r.plugins[name].(plugin.HTTPProvider); ok {
			if pr := hp.Routes(); len(pr) > 0 {
				routes[name] = pr
			}
		}
	}
	return routes
}

// IsDisabled reports whether name was disabled during validation or startup.
func (r *Registry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[name]
}

// sortByDependencies is Kahn's algorithm over the active plugins. Ties are
// broken by name so the order is deterministic.
func (r *Registry) sortByDependencies() ([]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)
	for name, info := range r.infos {
		if r.disabled[name] {
			continue
		}
		inDegree[name] += 0
		for _, dep := range info.Dependencies {
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, d := range inDegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(inDegree))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		next := dependents[name]
		sort.Strings(next)
		for _, d := range next {
			inDegree[d]--
			if inDegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(inDegree) {
		var cycle []string
		for name, d := range inDegree {
			if d > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, fmt.Errorf("dependency cycle among plugins %v", cycle)
	}
	return order, nil
}
