package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource_Missing(t *testing.T) {
	src := New(filepath.Join(t.TempDir(), "absent.yaml"))

	values, err := src.LoadSettings(context.Background())
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestSource_Scalars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winterface.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
isPublicGateWay: true
idleTimeout: 60000
allowedHosts: "10.0.0.0/8, ::1"
bindTo: 0.0.0.0
`), 0o644))

	values, err := New(path).LoadSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"port":            "9000",
		"isPublicGateWay": "true",
		"idleTimeout":     "60000",
		"allowedHosts":    "10.0.0.0/8, ::1",
		"bindTo":          "0.0.0.0",
	}, values)
}

func TestSource_RejectsNestedValues(t *testing.T) {
	_, err := Parse([]byte("allowedHosts:\n  - 127.0.0.1\n"))
	require.ErrorContains(t, err, "allowedHosts")
}

func TestSource_RejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("port: [unclosed"))
	require.Error(t, err)
}
