package fs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/drive"
)

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fs",
		Short: "browse and change files on the drive",
	}
	cmd.AddCommand(
		listCommand(),
		dirsCommand(),
		statCommand(),
		mkdirCommand(),
		moveCommand(),
		copyCommand(),
		renameCommand(),
		removeCommand(),
		putCommand(),
		linkCommand(),
	)
	return cmd
}

// run adapts an fs subcommand that only needs the drive endpoints.
func run(fn func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error) func(*cobra.Command, []string) error {
	return config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
		return fn(cmd, args, c.Drive, p)
	})
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return args[0]
}

func listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [path]",
		Aliases: []string{"list"},
		Short:   "list a directory",
		Args:    cobra.MaximumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			refresh, _ := cmd.Flags().GetBool("refresh")
			list, err := d.List(cmd.Context(), pathArg(args), refresh)
			if err != nil {
				return err
			}
			if p.Format == cli.FormatTable && !p.HasQuery() {
				return p.Table(objHeaders, objRows(list.Content))
			}
			return p.Value(list)
		}),
	}
	cmd.Flags().Bool("refresh", false, "Bypass the server side listing cache")
	return cmd
}

var objHeaders = []string{"name", "size", "modified", "type"}

func objRows(objs []drive.Obj) [][]string {
	rows := make([][]string, 0, len(objs))
	for _, o := range objs {
		kind, size := "file", humanize.Bytes(uint64(max(o.Size, 0)))
		if o.IsDir {
			kind, size = "dir", "-"
		}
		rows = append(rows, []string{o.Name, size, humanizeTime(o.Modified), kind})
	}
	return rows
}

func humanizeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func dirsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dirs [path]",
		Short: "list the sub directories of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			dirs, err := d.Dirs(cmd.Context(), pathArg(args))
			if err != nil {
				return err
			}
			return p.Value(dirs)
		}),
	}
}

func statCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "show a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			obj, err := d.Stat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.Value(obj)
		}),
	}
}

func mkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			if err := d.Mkdir(cmd.Context(), args[0]); err != nil {
				return err
			}
			return p.Success("created %s", args[0])
		}),
	}
}

func moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "move a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			if err := d.Move(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return p.Success("moved %s to %s", args[0], args[1])
		}),
	}
}

func copyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "copy a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			if err := d.Copy(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return p.Success("copied %s to %s", args[0], args[1])
		}),
	}
}

func renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "rename a file or directory in place",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			if err := d.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return p.Success("renamed %s to %s", args[0], args[1])
		}),
	}
}

func removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>...",
		Short: "remove files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			for _, target := range args {
				if err := d.Remove(cmd.Context(), target); err != nil {
					return fmt.Errorf("remove %s: %w", target, err)
				}
				if err := p.Success("removed %s", target); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func putCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-file> [remote-dir]",
		Short: "upload a local file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			local := args[0]
			remoteDir := "/"
			if len(args) == 2 {
				remoteDir = args[1]
			}
			f, err := os.Open(local)
			if err != nil {
				return fmt.Errorf("open %s: %w", local, err)
			}
			defer f.Close()

			name := filepath.Base(local)
			if err := d.Put(cmd.Context(), remoteDir, name, f); err != nil {
				return err
			}
			return p.Success("uploaded %s to %s", local, path.Join(remoteDir, name))
		}),
	}
}

func linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <path>",
		Short: "resolve the download link of a file",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, args []string, d *drive.Drive, p *cli.Printer) error {
			link, err := d.Link(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.Value(link)
		}),
	}
}
