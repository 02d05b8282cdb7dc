package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run builds the app for args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Keep the developer's own config file out of the way.
	t.Setenv("ORDCACHE_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))

	argv := append([]string{"ordcache"}, args...)
	app, err := InitApp(context.Background(), argv)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = &buf
	err = app.Run(context.Background(), argv)
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ordcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestHello(t *testing.T) {
	out, err := run(t, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!\n", out)
}

func TestSizeDefault(t *testing.T) {
	out, err := run(t, "size")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"keys in cache: [1]",
		"keys in cache: [2]",
		"keys in cache: [3]",
		"keys in cache: [4]",
	}, "\n")+"\n", out)
}

func TestSizeFlag(t *testing.T) {
	out, err := run(t, "size", "--max-size", "2", "--count", "3")
	require.NoError(t, err)
	assert.Equal(t, "keys in cache: [1]\nkeys in cache: [1 2]\nkeys in cache: [2 3]\n", out)
}

func TestSizeEnv(t *testing.T) {
	t.Setenv("ORDCACHE_MAX_SIZE", "3")
	out, err := run(t, "size", "--count", "4")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "keys in cache: [2 3 4]\n"), out)
}

func TestSizeRejectsZero(t *testing.T) {
	_, err := run(t, "size", "--max-size", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-size must be greater than 0")
}

func TestSizeFromConfigFile(t *testing.T) {
	path := writeConfig(t, "max_size: 2\n")

	argv := []string{"ordcache", "--config", path, "size", "--count", "3"}
	app, err := InitApp(context.Background(), argv)
	require.NoError(t, err)

	var buf bytes.Buffer
	app.Writer = &buf
	require.NoError(t, app.Run(context.Background(), argv))
	assert.True(t, strings.HasSuffix(buf.String(), "keys in cache: [2 3]\n"), buf.String())
}

func TestInitAppRejectsBadConfig(t *testing.T) {
	path := writeConfig(t, "ttl: whenever\n")

	_, err := InitApp(context.Background(), []string{"ordcache", "--config=" + path, "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestTTL(t *testing.T) {
	out, err := run(t, "ttl", "--ttl", "60ms", "--interval", "10ms", "--count", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, []string{"inserting 1", "inserting 2", "inserting 3", "keys fully inserted"}, lines[:4])
	assert.Equal(t, "all keys expired", lines[len(lines)-1])
	for _, l := range lines[4 : len(lines)-1] {
		assert.True(t, strings.HasPrefix(l, "keys remaining: ["), l)
	}
}

func TestTTLCanceled(t *testing.T) {
	t.Setenv("ORDCACHE_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
	argv := []string{"ordcache", "ttl", "--ttl", "1h", "--interval", "1h"}
	app, err := InitApp(context.Background(), argv)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	app.Writer = &buf
	assert.ErrorIs(t, app.Run(ctx, argv), context.Canceled)
}

func TestConcurrency(t *testing.T) {
	out, err := run(t, "concurrency", "--ttl", "200ms", "--readers", "4", "--writers", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "final keys: [10 11 12]\n")
	assert.Contains(t, out, "across 4 readers and 3 writers")
}

func TestConcurrencyTooManyWriters(t *testing.T) {
	_, err := run(t, "concurrency", "--max-size", "2", "--writers", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed --max-size")
}

func TestLogLevelFlag(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConfigPathFromArgs(t *testing.T) {
	assert.Equal(t, "a.yaml", configPathFromArgs([]string{"ordcache", "--config", "a.yaml", "hello"}))
	assert.Equal(t, "b.yaml", configPathFromArgs([]string{"ordcache", "--config=b.yaml"}))

	t.Setenv("ORDCACHE_CONFIG", "env.yaml")
	assert.Equal(t, "env.yaml", configPathFromArgs([]string{"ordcache", "hello"}))
}
