package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helalist/hela/pkg/consumer"
	"github.com/helalist/hela/pkg/credential"
	"github.com/helalist/hela/pkg/optname"
)

func TestSetLogLevel(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel string
		expected string
	}{
		{"debug", "debug", "debug"},
		{"info", "info", "info"},
		{"warn", "warn", "warn"},
		{"error", "error", "error"},
		{"unknown", "unknown", "info"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setLogLevel(tc.logLevel)
			assert.Equal(t, tc.expected, zerolog.GlobalLevel().String())
		})
	}
}

func TestRootFlagsDefaults(t *testing.T) {
	defer viper.Reset()
	cmd := &cobra.Command{Use: "hela"}
	require.NoError(t, AddRootPersistentFlags(cmd))

	assert.Equal(t, DefaultServer, viper.GetString(optname.Server))
	assert.Equal(t, 0, viper.GetInt(optname.Retries))
	assert.Equal(t, "json", viper.GetString(optname.Output))

	opts := ClientOptions()
	assert.Equal(t, 0, opts.MaxRetries)
	assert.False(t, opts.ForceHTTP2)
}

func TestEnvironmentOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("HELA_SERVER", "drive.example.com:9000")
	t.Setenv("HELA_TOKEN", "env-token")
	cmd := &cobra.Command{Use: "hela"}
	require.NoError(t, AddRootPersistentFlags(cmd))

	assert.Equal(t, "drive.example.com:9000", viper.GetString(optname.Server))
	token, ok := Credentials().Token()
	assert.True(t, ok)
	assert.Equal(t, "env-token", token)
}

func TestCredentialsFallBackToStore(t *testing.T) {
	defer viper.Reset()
	path := filepath.Join(t.TempDir(), "credentials.toml")
	viper.Set(optname.CredentialsFile, path)

	_, ok := Credentials().Token()
	assert.False(t, ok)

	require.NoError(t, credential.NewStore(path).Save(credential.Credentials{Token: "stored"}))
	token, ok := Credentials().Token()
	assert.True(t, ok)
	assert.Equal(t, "stored", token)

	viper.Set(optname.Token, "flag")
	token, _ = Credentials().Token()
	assert.Equal(t, "flag", token)
}

func TestReadConfigFile(t *testing.T) {
	defer viper.Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("server = 'http://from-file:8080'\nretries = 2\n"), 0o600))

	require.NoError(t, ReadConfigFile(path))
	assert.Equal(t, "http://from-file:8080", viper.GetString(optname.Server))
	assert.Equal(t, 2, viper.GetInt(optname.Retries))

	assert.Error(t, ReadConfigFile(filepath.Join(dir, "missing.toml")))
}

func TestStartupAppliesConfigFileLogLevel(t *testing.T) {
	testCases := []struct {
		name     string
		config   string
		args     []string
		expected zerolog.Level
	}{
		{"log level from file", `log-level = "error"`, nil, zerolog.ErrorLevel},
		{"verbose from file", "verbose = true", nil, zerolog.DebugLevel},
		{"flag beats file", `log-level = "error"`, []string{"--log-level", "warn"}, zerolog.WarnLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			defer viper.Reset()
			t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
			t.Cleanup(xdg.Reload)
			dir := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", dir)
			xdg.Reload()
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "hela"), 0o755))
			content := tc.config + "\nserver = \"http://cfg.example\"\n"
			require.NoError(t, os.WriteFile(ConfigFile(), []byte(content), 0o644))

			cmd := &cobra.Command{Use: "hela"}
			require.NoError(t, AddRootPersistentFlags(cmd))
			require.NoError(t, cmd.PersistentFlags().Parse(tc.args))

			require.NoError(t, PersistentStartupProcessFlags())
			assert.Equal(t, tc.expected, zerolog.GlobalLevel())
			assert.Equal(t, "http://cfg.example", viper.GetString(optname.Server))
		})
	}
}

func TestChunkSize(t *testing.T) {
	defer viper.Reset()
	testCases := []struct {
		value    string
		expected int
		err      bool
	}{
		{"", 0, false},
		{"64KiB", 64 * 1024, false},
		{"1M", 1000 * 1000, false},
		{"0", 0, true},
		{"lots", 0, true},
		{"2GiB", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			viper.Set(optname.ChunkSize, tc.value)
			size, err := ChunkSize()
			assert.Equal(t, tc.err, err != nil)
			assert.Equal(t, tc.expected, size)
		})
	}
}

func TestNewClients(t *testing.T) {
	defer viper.Reset()
	viper.Set(optname.Server, "drive.local:8080/base")
	viper.Set(optname.ChunkSize, "4KiB")

	clients, err := NewClients()
	require.NoError(t, err)
	assert.Equal(t, "http://drive.local:8080/base", clients.API.BaseURL.String())
	assert.Same(t, clients.API, clients.Drive.API)
	assert.Equal(t, 4096, clients.Download.ChunkSize)

	viper.Set(optname.Server, "")
	_, err = NewClients()
	assert.Error(t, err)
}

func TestGetConsumerByName(t *testing.T) {
	testCases := []struct {
		name     string
		expected consumer.Consumer
		err      bool
	}{
		{ConsumerFile, &consumer.FileWriter{}, false},
		{ConsumerTar, &consumer.TarExtractor{}, false},
		{ConsumerZip, &consumer.ZipExtractor{}, false},
		{ConsumerNull, &consumer.NullWriter{}, false},
		{ConsumerStdout, &consumer.StdoutConsumer{}, false},
		{"bogus", nil, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := GetConsumerByName(tc.name)
			assert.Equal(t, tc.err, err != nil)
			assert.Equal(t, tc.expected, c)
		})
	}
}

func TestDownloadConsumer(t *testing.T) {
	defer viper.Reset()

	viper.Set(optname.OutputConsumer, ConsumerNull)
	c, err := DownloadConsumer()
	require.NoError(t, err)
	assert.IsType(t, &consumer.NullWriter{}, c)

	viper.Set(optname.Extract, true)
	c, err = DownloadConsumer()
	require.NoError(t, err)
	assert.IsType(t, &consumer.TarExtractor{}, c)

	viper.Set(optname.Extract, false)
	viper.Set(optname.OutputConsumer, ConsumerFile)
	viper.Set(optname.Force, true)
	c, err = DownloadConsumer()
	require.NoError(t, err)
	assert.Equal(t, &consumer.FileWriter{Overwrite: true}, c)
}
