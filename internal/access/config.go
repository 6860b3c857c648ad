// Package access holds the admission settings of the admin interface and the
// filter that classifies remote addresses against them.
package access

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bcnelson/winterface/internal/hostlist"
	"github.com/bcnelson/winterface/internal/validation"
)

// Configuration is the shared, read-mostly admission state. Every field is
// swapped atomically, so readers see either the old or the new validated
// value. The zero value is not usable; call New.
type Configuration struct {
	bindTo          atomic.Pointer[hostlist.HostList]
	allowedHosts    atomic.Pointer[hostlist.HostList]
	fullAccessHosts atomic.Pointer[hostlist.HostList]

	publicGateway atomic.Bool
	port          atomic.Int32
	idleTimeout   atomic.Int64
	maxLength     atomic.Int64
}

// New returns a Configuration holding the defaults.
func New() *Configuration {
	c := &Configuration{}
	c.bindTo.Store(hostlist.MustParse(DefaultBindTo))
	c.allowedHosts.Store(hostlist.MustParse(DefaultAllowedHosts))
	c.fullAccessHosts.Store(hostlist.MustParse(DefaultFullAccessHosts))
	c.publicGateway.Store(DefaultPublicGateway)
	c.port.Store(DefaultPort)
	c.idleTimeout.Store(int64(DefaultIdleTimeout))
	c.maxLength.Store(DefaultMaxLength)
	return c
}

// Defaults returns the textual default of every option.
func Defaults() Settings {
	return New().Snapshot()
}

// BindTo returns the addresses the listener binds to.
func (c *Configuration) BindTo() *hostlist.HostList { return c.bindTo.Load() }

// AllowedHosts returns the hosts granted restricted access.
func (c *Configuration) AllowedHosts() *hostlist.HostList { return c.allowedHosts.Load() }

// FullAccessHosts returns the hosts granted full access.
func (c *Configuration) FullAccessHosts() *hostlist.HostList { return c.fullAccessHosts.Load() }

// PublicGateway reports whether the node is declared reachable from the open
// network.
func (c *Configuration) PublicGateway() bool { return c.publicGateway.Load() }

// Port returns the listener port.
func (c *Configuration) Port() int { return int(c.port.Load()) }

// IdleTimeout returns the connection idle timeout.
func (c *Configuration) IdleTimeout() time.Duration { return time.Duration(c.idleTimeout.Load()) }

// MaxLength returns the request body limit in bytes.
func (c *Configuration) MaxLength() int64 { return c.maxLength.Load() }

// SetAllowedHosts replaces the restricted-access list. The listener filter
// binding must be re-initialised, so success always reports RestartRequired.
func (c *Configuration) SetAllowedHosts(csv string) (Outcome, error) {
	l, err := validation.ValidateHostList(OptionAllowedHosts, csv)
	if err != nil {
		return Rejected, err
	}
	c.allowedHosts.Store(l)
	return RestartRequired, nil
}

// SetFullAccessHosts replaces the full-access list. Takes effect immediately.
func (c *Configuration) SetFullAccessHosts(csv string) (Outcome, error) {
	l, err := validation.ValidateHostList(OptionFullAccessHosts, csv)
	if err != nil {
		return Rejected, err
	}
	c.fullAccessHosts.Store(l)
	return Applied, nil
}

// SetBindTo replaces the bind addresses. Entries must be single addresses or
// the wildcard, which binds every interface.
func (c *Configuration) SetBindTo(csv string) (Outcome, error) {
	l, err := parseBindTo(csv)
	if err != nil {
		return Rejected, err
	}
	c.bindTo.Store(l)
	return Applied, nil
}

func parseBindTo(csv string) (*hostlist.HostList, error) {
	l, err := validation.ValidateHostList(OptionBindTo, csv)
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, validation.NewValidationError(OptionBindTo, csv, "at least one bind address is required")
	}
	for _, p := range l.Patterns() {
		if p.Kind() == hostlist.KindPrefix {
			return nil, &validation.ValidationError{
				Field:   OptionBindTo,
				Value:   p.Raw(),
				Message: "bind address must be a single address",
				Err:     &hostlist.InvalidHostError{Entry: p.Raw(), Reason: "CIDR block cannot be bound"},
			}
		}
	}
	return l, nil
}

// SetPort changes the listener port; the listener must be restarted.
func (c *Configuration) SetPort(port int) (Outcome, error) {
	if err := validation.ValidatePort(OptionPort, port); err != nil {
		return Rejected, err
	}
	c.port.Store(int32(port))
	return RestartRequired, nil
}

// SetIdleTimeout changes the connection idle timeout.
func (c *Configuration) SetIdleTimeout(d time.Duration) (Outcome, error) {
	if err := validation.ValidateDuration(OptionIdleTimeout, d); err != nil {
		return Rejected, err
	}
	c.idleTimeout.Store(int64(d))
	return Applied, nil
}

// SetPublicGateway toggles public gateway mode.
func (c *Configuration) SetPublicGateway(on bool) Outcome {
	c.publicGateway.Store(on)
	return Applied
}

// SetMaxLength changes the request body limit.
func (c *Configuration) SetMaxLength(n int64) (Outcome, error) {
	if err := validation.ValidateSize(OptionMaxLength, n); err != nil {
		return Rejected, err
	}
	c.maxLength.Store(n)
	return Applied, nil
}

// Apply parses a textual value for option and commits it through the
// matching setter. idleTimeout is given in milliseconds.
func (c *Configuration) Apply(option, value string) (Outcome, error) {
	commit, err := c.prepare(option, value)
	if err != nil {
		return Rejected, err
	}
	return commit()
}

// Check validates a textual value for option without committing it.
func (c *Configuration) Check(option, value string) error {
	_, err := c.prepare(option, value)
	return err
}

// prepare validates value and returns a function that commits it.
func (c *Configuration) prepare(option, value string) (func() (Outcome, error), error) {
	switch option {
	case OptionAllowedHosts:
		l, err := validation.ValidateHostList(option, value)
		if err != nil {
			return nil, err
		}
		return func() (Outcome, error) {
			c.allowedHosts.Store(l)
			return RestartRequired, nil
		}, nil
	case OptionFullAccessHosts:
		l, err := validation.ValidateHostList(option, value)
		if err != nil {
			return nil, err
		}
		return func() (Outcome, error) {
			c.fullAccessHosts.Store(l)
			return Applied, nil
		}, nil
	case OptionBindTo:
		l, err := parseBindTo(value)
		if err != nil {
			return nil, err
		}
		return func() (Outcome, error) {
			c.bindTo.Store(l)
			return Applied, nil
		}, nil
	case OptionPort:
		n, err := validation.ParseInt(option, value)
		if err != nil {
			return nil, err
		}
		if err := validation.ValidatePort(option, n); err != nil {
			return nil, err
		}
		return func() (Outcome, error) { return c.SetPort(n) }, nil
	case OptionIdleTimeout:
		d, err := validation.ParseMillis(option, value)
		if err != nil {
			return nil, err
		}
		return func() (Outcome, error) { return c.SetIdleTimeout(d) }, nil
	case OptionPublicGateway:
		b, err := validation.ParseBool(option, value)
		if err != nil {
			return nil, err
		}
		return func() (Outcome, error) { return c.SetPublicGateway(b), nil }, nil
	case OptionMaxLength:
		n, err := validation.ParseInt64(option, value)
		if err != nil {
			return nil, err
		}
		if err := validation.ValidateSize(option, n); err != nil {
			return nil, err
		}
		return func() (Outcome, error) { return c.SetMaxLength(n) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOption, option)
}

// Value returns the textual value of option.
func (c *Configuration) Value(option string) (string, error) {
	switch option {
	case OptionPort:
		return strconv.Itoa(c.Port()), nil
	case OptionPublicGateway:
		return strconv.FormatBool(c.PublicGateway()), nil
	case OptionIdleTimeout:
		return strconv.FormatInt(c.IdleTimeout().Milliseconds(), 10), nil
	case OptionAllowedHosts:
		return c.AllowedHosts().String(), nil
	case OptionFullAccessHosts:
		return c.FullAccessHosts().String(), nil
	case OptionBindTo:
		return c.BindTo().String(), nil
	case OptionMaxLength:
		return strconv.FormatInt(c.MaxLength(), 10), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOption, option)
}

// Snapshot returns the textual value of every option.
func (c *Configuration) Snapshot() Settings {
	s := make(Settings, len(Options()))
	for _, o := range Options() {
		s[o], _ = c.Value(o)
	}
	return s
}

// Load merges the sources in order, later sources winning, then applies the
// result. Values equal to the current one are skipped; every other value goes
// through Apply, so each field is either replaced with a validated value or
// left alone. All failures are returned together as
// validation.ValidationErrors.
func (c *Configuration) Load(ctx context.Context, sources ...Source) (Outcome, error) {
	merged := make(map[string]string)
	for _, src := range sources {
		if src == nil {
			continue
		}
		values, err := src.LoadSettings(ctx)
		if err != nil {
			return Rejected, fmt.Errorf("loading settings: %w", err)
		}
		for name, value := range values {
			merged[name] = value
		}
	}

	outcome := Applied
	var errs validation.ValidationErrors
	for _, option := range Options() {
		value, ok := merged[option]
		if !ok {
			continue
		}
		if current, _ := c.Value(option); current == value {
			continue
		}
		o, err := c.Apply(option, value)
		if err != nil {
			errs.Append(option, err)
			continue
		}
		outcome = outcome.Merge(o)
	}
	return outcome, errs.ErrOrNil()
}
