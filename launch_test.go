package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const fakeCompose = `#!/bin/sh
echo "FOO=$FOO args=$*"
exit ${FAKE_EXIT:-0}
`

type testProject struct {
	dir     string
	compose string
}

func newTestProject(t *testing.T, properties string) testProject {
	t.Helper()
	dir := t.TempDir()
	if properties != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "env.properties"), []byte(properties), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services:\n  web:\n    image: app\n"), 0644))
	bin := filepath.Join(dir, "fake-compose")
	require.NoError(t, os.WriteFile(bin, []byte(fakeCompose), 0755))
	return testProject{dir: dir, compose: bin}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader("")
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"launch"}, args...))
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	coder, ok := err.(cli.ExitCoder)
	require.True(t, ok, "expected an exit coder, got %v", err)
	return coder.ExitCode()
}

func TestLaunchDryRun(t *testing.T) {
	p := newTestProject(t, "# secret=nope\nFOO=bar\n")

	t.Run("dev forwards service and flag", func(t *testing.T) {
		out, err := runApp(t, "--dir", p.dir, "--compose-bin", "docker-compose", "--dry-run", "web", "--build")

		require.NoError(t, err)
		assert.Contains(t, out, "docker-compose -f "+filepath.Join(p.dir, "docker-compose.yml")+" up web --build")
		assert.Contains(t, out, "env FOO")
		assert.NotContains(t, out, "secret")
	})

	t.Run("prod builds and forwards nothing", func(t *testing.T) {
		out, err := runApp(t, "--dir", p.dir, "--compose-bin", "docker compose", "--dry-run", "prod", "web")

		require.NoError(t, err)
		assert.Contains(t, out, "docker compose -f "+filepath.Join(p.dir, "docker-compose.prod.yml")+" up --build\n")
	})

	t.Run("sg uses the staging file", func(t *testing.T) {
		out, err := runApp(t, "--dir", p.dir, "--compose-bin", "docker-compose", "--dry-run", "sg")

		require.NoError(t, err)
		assert.Contains(t, out, filepath.Join(p.dir, "docker-compose.sg.yml")+" up --build")
	})
}

func TestLaunchRunsCompose(t *testing.T) {
	t.Run("child environment contains the properties", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\n")

		out, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--history", "", "x")

		require.NoError(t, err)
		assert.Contains(t, out, "FOO=bar args=-f "+filepath.Join(p.dir, "docker-compose.yml")+" up x")
	})

	t.Run("compose exit code becomes the launcher exit code", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\nFAKE_EXIT=4\n")

		_, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--history", "")

		require.Error(t, err)
		assert.Equal(t, 4, exitCode(t, err))
	})

	t.Run("missing properties file still launches", func(t *testing.T) {
		p := newTestProject(t, "")

		out, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--history", "", "web")

		require.NoError(t, err)
		assert.Contains(t, out, "args=-f ")
		assert.Contains(t, out, "no properties file")
	})

	t.Run("malformed properties file warns and still launches", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\nNOT_A_PAIR\n")

		out, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--history", "", "web")

		require.NoError(t, err)
		assert.Contains(t, out, "ignoring malformed properties file")
		assert.Contains(t, out, "FOO= args=-f ")
	})

	t.Run("launches are recorded in history", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\n")
		history := filepath.Join(p.dir, "history.db")

		_, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--history", history, "web", "--build")
		require.NoError(t, err)

		out, err := runApp(t, "--history", history, "history")
		require.NoError(t, err)
		assert.Contains(t, out, "dev")
		assert.Contains(t, out, "up web --build")
	})
}

func TestLaunchStrict(t *testing.T) {
	t.Run("missing properties file fails", func(t *testing.T) {
		p := newTestProject(t, "")

		_, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--strict", "--history", "")

		require.Error(t, err)
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, err.Error(), "properties file not found")
	})

	t.Run("malformed properties file fails", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\nNOT_A_PAIR\n")

		_, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--strict", "--history", "")

		require.Error(t, err)
		assert.Equal(t, 1, exitCode(t, err))
		assert.Contains(t, err.Error(), "malformed properties file")
	})

	t.Run("missing compose file fails", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\n")

		_, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--strict", "--history", "", "prod")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "compose file not found")
	})

	t.Run("unknown dev service fails", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\n")

		_, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--strict", "--history", "", "api")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "service not declared")
	})

	t.Run("declared dev service runs", func(t *testing.T) {
		p := newTestProject(t, "FOO=bar\n")

		out, err := runApp(t, "--dir", p.dir, "--compose-bin", p.compose, "--strict", "--history", "", "web")

		require.NoError(t, err)
		assert.Contains(t, out, "up web")
	})
}

const composeFileCheck = `#!/bin/sh
if [ -f "$2" ]; then echo "FOUND $2"; else echo "MISSING $2 from $(pwd)"; fi
`

func TestLaunchRelativeDir(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	require.NoError(t, os.Mkdir(proj, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(proj, "env.properties"), []byte("FOO=bar\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(proj, "docker-compose.yml"), []byte("services:\n  web:\n    image: app\n"), 0644))
	bin := filepath.Join(root, "check-compose")
	require.NoError(t, os.WriteFile(bin, []byte(composeFileCheck), 0755))
	chdir(t, root)

	t.Run("compose runs against the project file", func(t *testing.T) {
		out, err := runApp(t, "--dir", "proj", "--compose-bin", bin, "--history", "", "web")

		require.NoError(t, err)
		assert.Contains(t, out, "FOUND ")
		assert.NotContains(t, out, "MISSING")
	})

	t.Run("strict checks the same file compose gets", func(t *testing.T) {
		out, err := runApp(t, "--dir", "proj", "--compose-bin", bin, "--strict", "--history", "", "web")

		require.NoError(t, err)
		assert.Contains(t, out, "FOUND ")
	})

	t.Run("services reads the project file", func(t *testing.T) {
		out, err := runApp(t, "--dir", "proj", "services")

		require.NoError(t, err)
		assert.Equal(t, "web\n", out)
	})
}

func TestServicesCommand(t *testing.T) {
	p := newTestProject(t, "")

	out, err := runApp(t, "--dir", p.dir, "services")

	require.NoError(t, err)
	assert.Equal(t, "web\n", out)
}

func TestDockerfileCommand(t *testing.T) {
	t.Run("writes to stdout", func(t *testing.T) {
		out, err := runApp(t, "dockerfile", "--port", "8080")

		require.NoError(t, err)
		assert.Contains(t, out, "FROM python:3.11-slim AS develop")
		assert.Contains(t, out, "EXPOSE 8080")
	})

	t.Run("writes to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Dockerfile")

		_, err := runApp(t, "dockerfile", "--out", path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "FROM python:3.11-slim AS prod")
	})
}

func TestHistoryDisabled(t *testing.T) {
	_, err := runApp(t, "--history", "", "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
