// Package plugintest holds the behavioral contract every plugin.Plugin must
// satisfy. Each module calls TestPluginContract from its own tests:
//
//	func TestContract(t *testing.T) {
//	    plugintest.TestPluginContract(t, func() plugin.Plugin { return history.New() }, deps)
//	}
package plugintest

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/netscope/pkg/plugin"
	"go.uber.org/zap"
)

// DepsFunc builds fresh dependencies for one contract subtest.
type DepsFunc func(t *testing.T, name string) plugin.Dependencies

// TestPluginContract runs the lifecycle contract against plugins built by
// factory. A nil deps uses a logger-only Dependencies value.
func TestPluginContract(t *testing.T, factory func() plugin.Plugin, deps DepsFunc) {
	t.Helper()
	if deps == nil {
		deps = func(_ *testing.T, name string) plugin.Dependencies {
			return plugin.Dependencies{Logger: zap.NewNop().Named(name)}
		}
	}

	t.Run("Info_returns_valid_metadata", func(t *testing.T) {
		info := factory().Info()
		if info.Name == "" {
			t.Error("Info().Name must not be empty")
		}
		if info.Version == "" {
			t.Error("Info().Version must not be empty")
		}
		if info.APIVersion != plugin.APIVersion {
			t.Errorf("Info().APIVersion = %d, want %d", info.APIVersion, plugin.APIVersion)
		}
	})

	t.Run("Init_Start_Stop", func(t *testing.T) {
		p := factory()
		ctx := context.Background()
		if err := p.Init(ctx, deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := p.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Stop(stopCtx); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	})

	t.Run("Stop_without_Start", func(t *testing.T) {
		p := factory()
		if err := p.Init(context.Background(), deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() without Start error = %v", err)
		}
	})

	t.Run("Info_is_idempotent", func(t *testing.T) {
		p := factory()
		a, b := p.Info(), p.Info()
		if a.Name != b.Name || a.Version != b.Version {
			t.Error("Info() must return consistent results")
		}
	})
}
