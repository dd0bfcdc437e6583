package download

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/consumer"
	"github.com/helalist/hela/pkg/drive"
	"github.com/helalist/hela/pkg/hela"
	"github.com/helalist/hela/pkg/logging"
	"github.com/helalist/hela/pkg/optname"
	"github.com/helalist/hela/pkg/progress"
)

const longDesc = `
'download' streams files from the drive to local destinations while showing their progress.

A single file is given as <remote-path> [dest]; dest defaults to the base name of the remote path
and '-' writes to stdout. Absolute URLs are fetched as is, with the same bearer credential.

With --manifest (use '-' for stdin) every line of the manifest is a pair of remote path and
destination separated by whitespace, and the files are downloaded in parallel limited by
--concurrency:

/docs/report.pdf     report.pdf
/photos/2024/a.jpg   photos/a.jpg
`

const downloadExamples = `
  hela download /docs/report.pdf

  hela download -x /backups/site.tar.zst ./site

  hela download --manifest manifest.txt

  hela download /docs/notes.md - | less
`

const manifestFlag = "manifest"

func GetCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "download [flags] <remote-path> [dest]",
		Aliases: []string{"get"},
		Short:   "download files from the drive",
		Long:    longDesc,
		Args:    downloadArgs,
		RunE:    runDownloadCMD,
		Example: downloadExamples,
	}
	cmd.Flags().String(manifestFlag, "", "Manifest of <remote-path> <dest> pairs, '-' for stdin")
	if err := config.AddDownloadFlags(cmd); err != nil {
		return nil, err
	}
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd, nil
}

func downloadArgs(cmd *cobra.Command, args []string) error {
	if manifest, _ := cmd.Flags().GetString(manifestFlag); manifest != "" {
		return cobra.NoArgs(cmd, args)
	}
	return cobra.RangeArgs(1, 2)(cmd, args)
}

func runDownloadCMD(cmd *cobra.Command, args []string) error {
	// After we run through the PreRun functions we want to silence usage from being printed
	// on all errors
	cmd.SilenceUsage = true

	getter, err := newGetter(cmd)
	if err != nil {
		return err
	}
	sink := consumerName()
	checkDest := func(dest string) error {
		switch sink {
		case config.ConsumerNull, config.ConsumerStdout, config.ConsumerTar, config.ConsumerZip:
			// extractors refuse to replace files themselves unless --force is set
			return nil
		}
		return cli.EnsureDestinationNotExist(dest, viper.GetBool(optname.Force))
	}

	manifestPath, _ := cmd.Flags().GetString(manifestFlag)
	if manifestPath != "" {
		file, err := manifestFile(manifestPath, cmd)
		if err != nil {
			return err
		}
		defer file.Close()
		manifest, err := hela.ParseManifest(file, checkDest)
		if err != nil {
			return fmt.Errorf("error processing manifest file %s: %w", manifestPath, err)
		}
		for i := range manifest {
			manifest[i].Remote = RemoteTarget(manifest[i].Remote)
		}
		if getter.NewProgress != nil {
			pool := progress.NewPool(cmd.ErrOrStderr())
			defer pool.Stop()
			getter.NewProgress = func(dest string) hela.Progress {
				return pool.Add(filepath.Base(dest))
			}
		}
		_, _, err = getter.DownloadFiles(cmd.Context(), manifest)
		return err
	}

	remote := args[0]
	dest := DefaultDest(remote, sink)
	if len(args) == 2 {
		dest = args[1]
	}
	if dest == "-" {
		getter.Consumer = &consumer.StdoutConsumer{Writer: cmd.OutOrStdout()}
		getter.NewProgress = nil
	}

	logger := logging.GetLogger()
	logger.Info().
		Str("remote", remote).
		Str("dest", dest).
		Msg("Initiating")
	if err := checkDest(dest); err != nil {
		return err
	}
	_, _, err = getter.DownloadFile(cmd.Context(), RemoteTarget(remote), dest)
	return err
}

func consumerName() string {
	if viper.GetBool(optname.Extract) {
		return config.ConsumerTar
	}
	return viper.GetString(optname.OutputConsumer)
}

func newGetter(cmd *cobra.Command) (*hela.Getter, error) {
	clients, err := config.NewClients()
	if err != nil {
		return nil, err
	}
	c, err := config.DownloadConsumer()
	if err != nil {
		return nil, err
	}
	getter := &hela.Getter{
		Downloader:  clients.Download,
		Consumer:    c,
		Concurrency: viper.GetInt(optname.Concurrency),
	}
	if !viper.GetBool(optname.Quiet) && consumerName() != config.ConsumerStdout {
		out := cmd.ErrOrStderr()
		getter.NewProgress = func(dest string) hela.Progress {
			return progress.New(filepath.Base(dest), out, false)
		}
	}
	return getter, nil
}

// RemoteTarget maps a drive path to its download route. Absolute URLs are returned unchanged.
func RemoteTarget(remote string) string {
	if strings.Contains(remote, "://") {
		return remote
	}
	return drive.DownloadPath(remote)
}

// DefaultDest is the destination used when none is given: stdout for the stdout consumer, the
// current directory for extractors and the remote base name otherwise.
func DefaultDest(remote, consumerName string) string {
	switch consumerName {
	case config.ConsumerStdout:
		return "-"
	case config.ConsumerTar, config.ConsumerZip:
		return "."
	}
	if strings.Contains(remote, "://") {
		if i := strings.IndexAny(remote, "?#"); i >= 0 {
			remote = remote[:i]
		}
	}
	base := path.Base(remote)
	if base == "/" || base == "." || base == "" {
		return "download"
	}
	return base
}

func manifestFile(manifestPath string, cmd *cobra.Command) (io.ReadCloser, error) {
	if manifestPath == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	if _, err := os.Stat(manifestPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("manifest file %s does not exist", manifestPath)
	}
	file, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("error opening manifest file %s: %w", manifestPath, err)
	}
	return file, nil
}
