package access_test

import (
	"context"
	"net/netip"
	"sync"
	"testing"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T, full, allowed string) *access.Configuration {
	t.Helper()
	cfg := access.New()
	_, err := cfg.SetFullAccessHosts(full)
	require.NoError(t, err)
	_, err = cfg.SetAllowedHosts(allowed)
	require.NoError(t, err)
	return cfg
}

func TestFilter_Classify(t *testing.T) {
	f := access.NewFilter(newConfig(t, "10.0.0.5", "127.0.0.1"))

	tests := []struct {
		addr string
		want access.Tier
	}{
		{"10.0.0.5", access.FullAccess},
		{"127.0.0.1", access.RestrictedAccess},
		{"8.8.8.8", access.Denied},
		{"::ffff:10.0.0.5", access.FullAccess},
		{"::1", access.Denied},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			require.Equal(t, tt.want, f.Classify(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestFilter_FullAccessNotSubsetOfAllowed(t *testing.T) {
	f := access.NewFilter(newConfig(t, "192.168.1.0/24", ""))

	require.Equal(t, access.FullAccess, f.ClassifyRemote("192.168.1.20:4000"))
	require.Equal(t, access.Denied, f.ClassifyRemote("192.168.2.20:4000"))
}

func TestFilter_LoopbackDefaults(t *testing.T) {
	f := access.NewFilter(access.New())

	require.Equal(t, access.FullAccess, f.ClassifyRemote("127.0.0.1:1234"))
	require.Equal(t, access.FullAccess, f.ClassifyRemote("[::1]:1234"))
	require.Equal(t, access.FullAccess, f.ClassifyRemote("::1"))
	for _, addr := range []string{"10.0.0.1:80", "192.168.1.1:80", "[2001:db8::1]:80", "127.0.0.2:80"} {
		require.Equal(t, access.Denied, f.ClassifyRemote(addr), addr)
	}
}

func TestFilter_InvalidRemote(t *testing.T) {
	f := access.NewFilter(newConfig(t, "*", "*"))

	require.Equal(t, access.Denied, f.ClassifyRemote(""))
	require.Equal(t, access.Denied, f.ClassifyRemote("@"))
	require.Equal(t, access.Denied, f.Classify(netip.Addr{}))
	require.Equal(t, access.FullAccess, f.ClassifyRemote("203.0.113.9:443"))
}

func TestFilter_IgnoresPublicGateway(t *testing.T) {
	cfg := newConfig(t, "10.0.0.5", "127.0.0.1")
	f := access.NewFilter(cfg)

	before := f.ClassifyRemote("127.0.0.1:1")
	cfg.SetPublicGateway(true)
	require.Equal(t, before, f.ClassifyRemote("127.0.0.1:1"))
}

func TestFilter_SeesUpdates(t *testing.T) {
	cfg := access.New()
	f := access.NewFilter(cfg)
	require.Equal(t, access.Denied, f.ClassifyRemote("10.1.1.1:80"))

	_, err := cfg.SetFullAccessHosts("10.0.0.0/8")
	require.NoError(t, err)
	require.Equal(t, access.FullAccess, f.ClassifyRemote("10.1.1.1:80"))
}

func TestFilter_ConcurrentReadsAndWrites(t *testing.T) {
	cfg := access.New()
	f := access.NewFilter(cfg)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				tier := f.ClassifyRemote("10.0.0.1:80")
				assert.Contains(t, []access.Tier{access.Denied, access.FullAccess}, tier)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 500; j++ {
			if j%2 == 0 {
				_, _ = cfg.SetFullAccessHosts("10.0.0.1,10.0.0.2")
			} else {
				_, _ = cfg.SetFullAccessHosts("127.0.0.1")
			}
		}
	}()
	wg.Wait()
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, access.Denied, access.TierFromContext(ctx))

	ctx = access.NewContext(ctx, access.Admission{Tier: access.RestrictedAccess, PublicGateway: true})
	require.Equal(t, access.RestrictedAccess, access.TierFromContext(ctx))
	require.True(t, access.PublicGatewayFromContext(ctx))

	a, ok := access.FromContext(ctx)
	require.True(t, ok)
	require.False(t, a.MayRevealIdentity())
	require.True(t, access.Admission{Tier: access.RestrictedAccess}.MayRevealIdentity())
	require.True(t, access.Admission{Tier: access.FullAccess, PublicGateway: true}.MayRevealIdentity())
}

func TestTier(t *testing.T) {
	require.Equal(t, "full", access.FullAccess.String())
	require.Equal(t, "restricted", access.RestrictedAccess.String())
	require.Equal(t, "denied", access.Denied.String())
	require.False(t, access.Denied.Admitted())
	require.True(t, access.RestrictedAccess.Admitted())
}
