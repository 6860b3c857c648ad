package access

import (
	"context"
	"errors"
	"time"
)

// Setting names as stored by the settings store.
const (
	OptionPort            = "port"
	OptionPublicGateway   = "isPublicGateWay"
	OptionIdleTimeout     = "idleTimeout"
	OptionAllowedHosts    = "allowedHosts"
	OptionFullAccessHosts = "allowedHostsFullAccess"
	OptionBindTo          = "bindTo"
	OptionMaxLength       = "maxLength"
)

// Defaults.
const (
	DefaultPort            = 8088
	DefaultIdleTimeout     = time.Hour
	DefaultPublicGateway   = false
	DefaultAllowedHosts    = "127.0.0.1,0:0:0:0:0:0:0:1"
	DefaultFullAccessHosts = "127.0.0.1,0:0:0:0:0:0:0:1"
	DefaultBindTo          = "127.0.0.1"

	// DefaultMaxLength is 2 MiB plus ten percent for oversized inserts.
	DefaultMaxLength int64 = (2 * 1024 * 1024 * 11) / 10
)

// ErrUnknownOption is returned for a setting name this package does not own.
var ErrUnknownOption = errors.New("unknown option")

// Options returns every setting name in display order.
func Options() []string {
	return []string{
		OptionPort,
		OptionPublicGateway,
		OptionIdleTimeout,
		OptionAllowedHosts,
		OptionFullAccessHosts,
		OptionBindTo,
		OptionMaxLength,
	}
}

// IsOption reports whether name is a known setting.
func IsOption(name string) bool {
	for _, o := range Options() {
		if o == name {
			return true
		}
	}
	return false
}

// Settings holds textual setting values keyed by option name.
type Settings map[string]string

// LoadSettings implements Source, so a Settings value can be overlaid directly.
func (s Settings) LoadSettings(context.Context) (map[string]string, error) {
	return s, nil
}

// Source supplies persisted setting values keyed by option name. Keys that are
// not options are ignored by Load.
type Source interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
}

// Outcome is the result of a successful or rejected setting change.
type Outcome int

const (
	// Rejected is returned alongside an error; nothing changed.
	Rejected Outcome = iota
	// Applied means the change is already in effect.
	Applied
	// RestartRequired means the change was stored but the listener must be
	// re-initialised before it fully takes effect.
	RestartRequired
)

// String returns a readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RestartRequired:
		return "restart_required"
	default:
		return "rejected"
	}
}

// NeedsRestart reports whether the listener must be restarted.
func (o Outcome) NeedsRestart() bool {
	return o == RestartRequired
}

// Merge combines two outcomes; a restart request wins.
func (o Outcome) Merge(other Outcome) Outcome {
	if other > o {
		return other
	}
	return o
}
