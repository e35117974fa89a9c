package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"

	"github.com/lastnameswayne/launchpad/config"
)

const pingTimeout = 5 * time.Second

// Info describes the daemon compose will talk to.
type Info struct {
	Host          string
	APIVersion    string
	OSType        string
	ServerVersion string
}

type apiClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ServerVersion(ctx context.Context) (types.Version, error)
	DaemonHost() string
	Close() error
}

var newClient = func(props config.Properties) (apiClient, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	// compose sees the properties, so the preflight has to as well
	if host, ok := props.Get("DOCKER_HOST"); ok && host != "" {
		opts = append(opts, client.WithHost(host))
	}
	return client.NewClientWithOpts(opts...)
}

// Check pings the docker daemon selected by the environment and the
// properties file.
func Check(ctx context.Context, props config.Properties) (Info, error) {
	cli, err := newClient(props)
	if err != nil {
		return Info{}, fmt.Errorf("docker client: %w", err)
	}
	defer cli.Close()
	return check(ctx, cli)
}

func check(ctx context.Context, cli apiClient) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	info := Info{Host: cli.DaemonHost()}
	ping, err := cli.Ping(ctx)
	if err != nil {
		return info, fmt.Errorf("ping %s: %w", info.Host, err)
	}
	info.APIVersion = ping.APIVersion
	info.OSType = ping.OSType

	version, err := cli.ServerVersion(ctx)
	if err != nil {
		return info, fmt.Errorf("server version: %w", err)
	}
	info.ServerVersion = version.Version
	return info, nil
}
