// Package config binds the command line flags, HELA_* environment variables and the optional
// config file, and builds the API clients from them.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helalist/hela/pkg/api"
	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/client"
	"github.com/helalist/hela/pkg/consumer"
	"github.com/helalist/hela/pkg/credential"
	"github.com/helalist/hela/pkg/download"
	"github.com/helalist/hela/pkg/drive"
	"github.com/helalist/hela/pkg/logging"
	"github.com/helalist/hela/pkg/optname"
)

const (
	DefaultServer = "http://localhost:8080"
	envPrefix     = "HELA"
)

const (
	ConsumerFile   = "file"
	ConsumerTar    = "tar-extractor"
	ConsumerZip    = "zip-extractor"
	ConsumerNull   = "null"
	ConsumerStdout = "stdout"
)

func AddRootPersistentFlags(cmd *cobra.Command) error {
	// Persistent Flags (applies to all commands/subcommands)
	cmd.PersistentFlags().StringP(optname.Server, "s", DefaultServer, "HelaList server address")
	cmd.PersistentFlags().String(optname.Token, "", "Bearer token, overrides the stored credentials")
	cmd.PersistentFlags().String(optname.CredentialsFile, "", "Credentials file (default $XDG_CONFIG_HOME/hela/credentials.toml)")
	cmd.PersistentFlags().Duration(optname.ConnTimeout, 5*time.Second, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.PersistentFlags().IntP(optname.Retries, "r", 0, "Number of transport level retries")
	cmd.PersistentFlags().BoolP(optname.Verbose, "v", false, "Verbose mode (equivalent to --log-level debug)")
	cmd.PersistentFlags().String(optname.LoggingLevel, "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool(optname.ForceHTTP2, false, "Force HTTP/2")
	cmd.PersistentFlags().StringP(optname.Output, "o", cli.FormatJSON, "Output format (json, table)")
	cmd.PersistentFlags().StringP(optname.Query, "q", "", "jq expression applied to JSON output")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind persistent flags: %w", err)
	}

	// Hide flags from help, these are intended to be used for testing/debugging only
	for _, flag := range []string{optname.ForceHTTP2} {
		if err := cmd.PersistentFlags().MarkHidden(flag); err != nil {
			return fmt.Errorf("failed to hide flag %s: %w", flag, err)
		}
	}
	return nil
}

// AddDownloadFlags registers the flags shared by commands that stream files.
func AddDownloadFlags(cmd *cobra.Command) error {
	cmd.Flags().IntP(optname.Concurrency, "c", runtime.GOMAXPROCS(0)*4, "Maximum number of concurrent downloads")
	cmd.Flags().String(optname.ChunkSize, "32KiB", "Bytes read per progress update (e.g. 64KiB)")
	cmd.Flags().BoolP(optname.Force, "f", false, "Overwrite existing destinations")
	cmd.Flags().BoolP(optname.Extract, "x", false, "Extract tar archives after download (same as --output-consumer tar-extractor)")
	cmd.Flags().String(optname.OutputConsumer, ConsumerFile, "Where downloaded bytes go (file, tar-extractor, zip-extractor, null, stdout)")
	cmd.Flags().Bool(optname.Quiet, false, "Do not show progress bars")
	return viper.BindPFlags(cmd.Flags())
}

// ConfigFile returns $XDG_CONFIG_HOME/hela/config.toml.
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "hela", "config.toml")
}

// ReadConfigFile loads path (or the default location) into viper. A missing default file is not
// an error; flags and environment variables still take precedence over its values.
func ReadConfigFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ConfigFile()
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || isNotExist(err)) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// PersistentStartupProcessFlags loads the config file, then applies the log level so that
// log-level and verbose may come from the file as well.
func PersistentStartupProcessFlags() error {
	if err := ReadConfigFile(""); err != nil {
		return err
	}
	if viper.GetBool(optname.Verbose) {
		viper.Set(optname.LoggingLevel, "debug")
	}
	setLogLevel(viper.GetString(optname.LoggingLevel))
	logger := logging.GetLogger()
	logger.Debug().
		Str("server", viper.GetString(optname.Server)).
		Str("credentials_file", CredentialStore().Path()).
		Msg("Config")
	return nil
}

func setLogLevel(logLevel string) {
	// Set log-level
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ClientOptions returns the transport options selected by flags.
func ClientOptions() client.Options {
	return client.Options{
		ConnectTimeout: viper.GetDuration(optname.ConnTimeout),
		MaxRetries:     viper.GetInt(optname.Retries),
		ForceHTTP2:     viper.GetBool(optname.ForceHTTP2),
	}
}

func CredentialStore() *credential.Store {
	return credential.NewStore(viper.GetString(optname.CredentialsFile))
}

// Credentials prefers an explicit --token (or HELA_TOKEN) over the stored login.
func Credentials() credential.Provider {
	return credential.Chain(credential.Static(viper.GetString(optname.Token)), CredentialStore())
}

// ChunkSize parses --chunk-size. An empty value selects the stream manager default.
func ChunkSize() (int, error) {
	raw := strings.TrimSpace(viper.GetString(optname.ChunkSize))
	if raw == "" {
		return 0, nil
	}
	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", optname.ChunkSize, raw, err)
	}
	if size == 0 || size > humanize.GiByte {
		return 0, fmt.Errorf("invalid %s %q: must be between 1B and 1GiB", optname.ChunkSize, raw)
	}
	return int(size), nil
}

// Clients are the API surfaces built from the current configuration. They share one HTTP client
// and one credential provider.
type Clients struct {
	API      *api.Client
	Drive    *drive.Drive
	Download *download.Manager
}

func NewClients() (*Clients, error) {
	base, err := client.ParseBaseURL(viper.GetString(optname.Server))
	if err != nil {
		return nil, err
	}
	chunkSize, err := ChunkSize()
	if err != nil {
		return nil, err
	}
	httpClient := client.NewHTTPClient(ClientOptions())
	creds := Credentials()

	apiClient := api.NewClient(base, httpClient, creds)
	manager := download.NewManager(base, httpClient, creds)
	manager.ChunkSize = chunkSize
	return &Clients{
		API:      apiClient,
		Drive:    drive.New(apiClient),
		Download: manager,
	}, nil
}

// Printer returns the output printer selected by --output and --query.
func Printer(out io.Writer) (*cli.Printer, error) {
	return cli.NewPrinter(out, viper.GetString(optname.Output), viper.GetString(optname.Query))
}

// RunE adapts fn into a cobra RunE that builds the clients and printer from the current
// configuration first.
func RunE(fn func(cmd *cobra.Command, args []string, c *Clients, p *cli.Printer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// After the PreRun functions usage is no longer printed on errors
		cmd.SilenceUsage = true
		clients, err := NewClients()
		if err != nil {
			return err
		}
		printer, err := Printer(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return fn(cmd, args, clients, printer)
	}
}

func GetConsumerByName(name string) (consumer.Consumer, error) {
	switch name {
	case ConsumerFile, "":
		return &consumer.FileWriter{}, nil
	case ConsumerTar:
		return &consumer.TarExtractor{}, nil
	case ConsumerZip:
		return &consumer.ZipExtractor{}, nil
	case ConsumerNull:
		return &consumer.NullWriter{}, nil
	case ConsumerStdout:
		return &consumer.StdoutConsumer{}, nil
	default:
		return nil, fmt.Errorf("invalid consumer specified: %s", name)
	}
}

// DownloadConsumer selects the consumer for download commands. --extract wins over
// --output-consumer and --force enables overwriting.
func DownloadConsumer() (consumer.Consumer, error) {
	name := viper.GetString(optname.OutputConsumer)
	if viper.GetBool(optname.Extract) {
		name = ConsumerTar
	}
	c, err := GetConsumerByName(name)
	if err != nil {
		return nil, err
	}
	if viper.GetBool(optname.Force) {
		c.EnableOverwrite()
	}
	return c, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
