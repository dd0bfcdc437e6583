package root

import (
	"github.com/spf13/cobra"

	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
)

const rootLongDesc = `
hela

hela is the command line client for a HelaList drive server. It talks to the server's REST API,
where every reply is either a {code, message, data} envelope or a bare JSON/text body, and
prints the unwrapped payload as JSON or as a table.

Files are downloaded as a stream with a live progress bar. Tar archives (plain or compressed with
gzip, bzip2, xz, lzw, lz4 or zstd) and zip archives can be extracted while they arrive.

The server address and token can be given as flags, as HELA_* environment variables or in
$XDG_CONFIG_HOME/hela/config.toml. 'hela login' stores the token in
$XDG_CONFIG_HOME/hela/credentials.toml and every later call reads it from there.
`

func GetCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "hela",
		Short: "HelaList drive client",
		Long:  rootLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.PersistentStartupProcessFlags()
		},
		Example: `  hela login alice
  hela fs ls /docs -o table
  hela download /docs/report.pdf report.pdf`,
	}
	cmd.SetUsageTemplate(cli.UsageTemplate)
	if err := config.AddRootPersistentFlags(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
