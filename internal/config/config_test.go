package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"hostlink/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostlinkd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
state_path = "/tmp/hostlink-test.db"

[server]
bind = "0.0.0.0"
port = 9000

[registration]
orchestrator_url = "https://orchestrator.example.com:8443"
heartbeat_interval_secs = 15

[observability]
listen_address = "127.0.0.1:9999"

[[federation.servers]]
namespace = "web01"
transport = "localhost"
url = "http://127.0.0.1:8443/api/v1/mcp"
expose = ["system.info"]
healthcheck_interval_secs = 10

[[federation.servers]]
namespace = "db01"
transport = "stdio"
command = "hostlink-agent"
args = ["--log-level", "debug"]

[federation.servers.env]
HOSTLINK_ROLE = "database"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Bind)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "/tmp/hostlink-test.db", cfg.StatePath)
	require.Equal(t, "127.0.0.1:9999", cfg.Observability.ListenAddress)
	require.NotNil(t, cfg.Registration)
	require.Equal(t, 15*time.Second, cfg.HeartbeatInterval())

	want := []domain.DownstreamSpec{
		{
			Namespace:           "web01",
			Transport:           domain.TransportLocalhost,
			URL:                 "http://127.0.0.1:8443/api/v1/mcp",
			Expose:              []string{"system.info"},
			HealthcheckInterval: 10 * time.Second,
		},
		{
			Namespace:           "db01",
			Transport:           domain.TransportStdio,
			Command:             "hostlink-agent",
			Args:                []string{"--log-level", "debug"},
			Env:                 map[string]string{"HOSTLINK_ROLE": "database"},
			HealthcheckInterval: 30 * time.Second,
		},
	}
	if diff := cmp.Diff(want, cfg.ToSpecs()); diff != "" {
		t.Fatalf("specs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultBindAddress, cfg.Server.Bind)
	require.Equal(t, domain.DefaultPort, cfg.Server.Port)
	require.Equal(t, domain.DefaultObservabilityAddress, cfg.Observability.ListenAddress)
	require.Equal(t, domain.DefaultStatePath, cfg.StatePath)
	require.Nil(t, cfg.Registration)
	require.Equal(t, 30*time.Second, cfg.HeartbeatInterval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestValidateDuplicateNamespace(t *testing.T) {
	path := writeConfig(t, `
[[federation.servers]]
namespace = "web01"
transport = "localhost"
url = "http://127.0.0.1:8443"

[[federation.servers]]
namespace = "web01"
transport = "localhost"
url = "http://127.0.0.1:8444"
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate namespace")
}

func TestValidateStdioRequiresCommand(t *testing.T) {
	path := writeConfig(t, `
[[federation.servers]]
namespace = "web01"
transport = "stdio"
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires command")
}

func TestValidateLocalhostRequiresURL(t *testing.T) {
	path := writeConfig(t, `
[[federation.servers]]
namespace = "web01"
transport = "localhost"
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires url")
}

func TestValidateUnknownTransport(t *testing.T) {
	path := writeConfig(t, `
[[federation.servers]]
namespace = "web01"
transport = "telepathy"
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown transport")
}

func TestValidateRegistrationRequiresURL(t *testing.T) {
	path := writeConfig(t, `
[registration]
heartbeat_interval_secs = 30
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "orchestrator_url")
}
