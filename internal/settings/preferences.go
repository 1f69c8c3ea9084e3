package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/HerbHall/netscope/internal/notify"
)

// Keys under which preferences are stored.
const (
	KeyEmail       = "notify.email"
	KeySMS         = "notify.sms"
	KeyPush        = "notify.push"
	KeyDarkMode    = "ui.dark_mode"
	KeyAutoRefresh = "network.auto_refresh"
)

// Preferences are the user-facing toggles of the Settings page.
type Preferences struct {
	Email       bool `json:"email" example:"true"`
	SMS         bool `json:"sms" example:"false"`
	Push        bool `json:"push" example:"true"`
	DarkMode    bool `json:"dark_mode" example:"false"`
	AutoRefresh bool `json:"auto_refresh" example:"true"`
}

// Defaults returns the preferences used for keys never written.
func Defaults() Preferences {
	return Preferences{Email: true, SMS: false, Push: true, DarkMode: false, AutoRefresh: true}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Email       *bool `json:"email,omitempty"`
	SMS         *bool `json:"sms,omitempty"`
	Push        *bool `json:"push,omitempty"`
	DarkMode    *bool `json:"dark_mode,omitempty"`
	AutoRefresh *bool `json:"auto_refresh,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Email == nil && p.SMS == nil && p.Push == nil && p.DarkMode == nil && p.AutoRefresh == nil
}

// Apply returns prefs with the patch applied.
func (p Patch) Apply(prefs Preferences) Preferences {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&prefs.Email, p.Email)
	set(&prefs.SMS, p.SMS)
	set(&prefs.Push, p.Push)
	set(&prefs.DarkMode, p.DarkMode)
	set(&prefs.AutoRefresh, p.AutoRefresh)
	return prefs
}

func (p *Preferences) fields() map[string]*bool {
	return map[string]*bool{
		KeyEmail:       &p.Email,
		KeySMS:         &p.SMS,
		KeyPush:        &p.Push,
		KeyDarkMode:    &p.DarkMode,
		KeyAutoRefresh: &p.AutoRefresh,
	}
}

// Load reads the stored preferences, falling back to Defaults per key.
func Load(ctx context.Context, repo Repository) (Preferences, error) {
	prefs := Defaults()
	for key, dst := range prefs.fields() {
		s, err := repo.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Preferences{}, err
		}
		v, err := strconv.ParseBool(s.Value)
		if err != nil {
			return Preferences{}, fmt.Errorf("setting %q: %w", key, err)
		}
		*dst = v
	}
	return prefs, nil
}

// Save writes every preference.
func Save(ctx context.Context, repo Repository, prefs Preferences) error {
	for key, v := range prefs.fields() {
		if err := repo.Set(ctx, key, strconv.FormatBool(*v)); err != nil {
			return err
		}
	}
	return nil
}

// AutoRefresher toggles periodic refresh.
type AutoRefresher interface {
	SetAutoRefresh(on bool)
}

// ChannelToggler turns notification channels on and off.
type ChannelToggler interface {
	SetEnabled(ch notify.Channel, on bool)
}

// Applier pushes preferences into the running components. Nil targets are
// skipped.
type Applier struct {
	Refresher AutoRefresher
	Channels  ChannelToggler
}

// Apply updates the refresher and notification channels.
func (a Applier) Apply(prefs Preferences) {
	if a.Refresher != nil {
		a.Refresher.SetAutoRefresh(prefs.AutoRefresh)
	}
	if a.Channels != nil {
		a.Channels.SetEnabled(notify.ChannelEmail, prefs.Email)
		a.Channels.SetEnabled(notify.ChannelSMS, prefs.SMS)
		a.Channels.SetEnabled(notify.ChannelPush, prefs.Push)
	}
}
