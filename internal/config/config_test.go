package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestViperConfig_ForPlugin(t *testing.T) {
	v := viper.New()
	v.Set("plugins.history.retention", "72h")
	v.Set("plugins.history.batch", 5)
	v.Set("plugins.mqtt.enabled", true)

	c := New(v)
	h := c.ForPlugin("history")
	if got := h.GetDuration("retention"); got != 72*time.Hour {
		t.Errorf("retention = %v, want 72h", got)
	}
	if got := h.GetInt("batch"); got != 5 {
		t.Errorf("batch = %d, want 5", got)
	}
	if !c.ForPlugin("mqtt").GetBool("enabled") {
		t.Error("mqtt.enabled = false")
	}
}

func TestViperConfig_MissingSubIsEmpty(t *testing.T) {
	c := New(nil)
	sub := c.Sub("plugins.nope")
	if sub == nil {
		t.Fatal("Sub() returned nil")
	}
	if sub.IsSet("anything") {
		t.Error("empty config reports keys set")
	}
	var target struct{ Name string }
	if err := sub.Unmarshal(&target); err != nil {
		t.Errorf("Unmarshal() error = %v", err)
	}
}
