package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastnameswayne/launchpad/config"
)

type fakeClient struct {
	host       string
	ping       types.Ping
	pingErr    error
	version    types.Version
	versionErr error
	closed     bool
}

func (f *fakeClient) Ping(context.Context) (types.Ping, error) { return f.ping, f.pingErr }
func (f *fakeClient) ServerVersion(context.Context) (types.Version, error) {
	return f.version, f.versionErr
}
func (f *fakeClient) DaemonHost() string { return f.host }
func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestCheck(t *testing.T) {
	orig := newClient
	defer func() { newClient = orig }()

	t.Run("reports daemon details", func(t *testing.T) {
		fake := &fakeClient{
			host:    "unix:///var/run/docker.sock",
			ping:    types.Ping{APIVersion: "1.45", OSType: "linux"},
			version: types.Version{Version: "26.1.4"},
		}
		newClient = func(config.Properties) (apiClient, error) { return fake, nil }

		info, err := Check(context.Background(), config.Properties{})

		require.NoError(t, err)
		assert.Equal(t, Info{
			Host:          "unix:///var/run/docker.sock",
			APIVersion:    "1.45",
			OSType:        "linux",
			ServerVersion: "26.1.4",
		}, info)
		assert.True(t, fake.closed)
	})

	t.Run("ping failure keeps the host", func(t *testing.T) {
		fake := &fakeClient{host: "tcp://10.0.0.5:2375", pingErr: errors.New("connection refused")}
		newClient = func(config.Properties) (apiClient, error) { return fake, nil }

		info, err := Check(context.Background(), config.Properties{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "tcp://10.0.0.5:2375")
		assert.Equal(t, "tcp://10.0.0.5:2375", info.Host)
		assert.True(t, fake.closed)
	})

	t.Run("client construction failure", func(t *testing.T) {
		newClient = func(config.Properties) (apiClient, error) { return nil, errors.New("bad host") }

		_, err := Check(context.Background(), config.Properties{})

		assert.ErrorContains(t, err, "bad host")
	})
}

func TestNewClientUsesPropertiesHost(t *testing.T) {
	t.Setenv("DOCKER_HOST", "")
	props := config.NewProperties(map[string]string{"DOCKER_HOST": "tcp://192.0.2.10:2375"})

	cli, err := newClient(props)
	require.NoError(t, err)
	defer cli.Close()

	assert.Equal(t, "tcp://192.0.2.10:2375", cli.DaemonHost())
}
