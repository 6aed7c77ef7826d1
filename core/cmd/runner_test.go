package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/filmbot/core/config"
	coretelegram "github.com/m3rciful/filmbot/core/telegram"
)

type testConfig struct{ core coreconfig.Config }

func (c *testConfig) CoreConfig() *coreconfig.Config { return &c.core }

type testApp struct {
	closed bool
}

func (a *testApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *testApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FILMBOT_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("FILMBOT_TEST_CONFIG", "custom.yaml")

	app := &testApp{}
	var loadedPath string
	var started, stopped bool

	err := Run(Options{
		ConfigEnvVar: "FILMBOT_TEST_CONFIG",
		EnvFiles:     []string{envFile, filepath.Join(dir, "missing.env")},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return &testConfig{}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
		ShutdownLogger: func() error { return nil },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Unsetenv("FILMBOT_TEST_VALUE") })

	assert.Equal(t, "custom.yaml", loadedPath)
	assert.Equal(t, "from-dotenv", os.Getenv("FILMBOT_TEST_VALUE"))
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, app.closed)
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	err := Run(Options{
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return &testConfig{}, nil },
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return nil, errors.New("db down")
		},
		ShutdownLogger: func() error { return nil },
	})
	assert.ErrorContains(t, err, "bootstrap failed: db down")
}

func TestRunRequiresConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return &testConfig{}, nil },
		Bootstrap:  func(context.Context, ConfigCarrier) (TelegramApp, error) { return &testApp{}, nil },
	})
	assert.ErrorContains(t, err, "config path not provided")
}
