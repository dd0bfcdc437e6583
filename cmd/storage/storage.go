package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/drive"
)

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "manage mounted storage backends",
	}
	cmd.AddCommand(
		listCommand(),
		getCommand(),
		hasCommand(),
		createCommand(),
		updateCommand(),
		loadCommand(),
		removeCommand(),
	)
	return cmd
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "list storages",
		Args:    cobra.NoArgs,
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			storages, err := c.Drive.Storages(cmd.Context())
			if err != nil {
				return err
			}
			if p.Format == cli.FormatTable && !p.HasQuery() {
				rows := make([][]string, 0, len(storages))
				for _, s := range storages {
					rows = append(rows, []string{
						s.ID.String(), s.MountPath, s.Driver, s.Status,
						strconv.Itoa(s.Order), strconv.FormatBool(s.Disabled),
					})
				}
				return p.Table([]string{"id", "mount_path", "driver", "status", "order", "disabled"}, rows)
			}
			return p.Value(storages)
		}),
	}
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <mount-path>",
		Short: "show the storage mounted at a path",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			s, err := c.Drive.StorageByMountPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.Value(s)
		}),
	}
}

func hasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "has <mount-path>",
		Short: "report whether a storage is mounted at a path",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			has, err := c.Drive.HasStorage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.Value(map[string]bool{"has": has})
		}),
	}
}

// addStorageFlags registers the editable storage fields.
func addStorageFlags(flags *pflag.FlagSet) {
	flags.String("driver", "", "Storage driver (e.g. Local)")
	flags.String("addition", "", "Driver specific settings as a JSON string")
	flags.String("remark", "", "Free form remark")
	flags.Int("order", 0, "Sort order among storages")
	flags.Int("cache-expiration", 30, "Listing cache expiration in minutes")
	flags.Bool("disabled", false, "Mount the storage disabled")
	flags.String("from-file", "", "Read the whole storage definition from a JSON file")
}

// applyStorageFlags copies every flag the user set onto s.
func applyStorageFlags(flags *pflag.FlagSet, s *drive.Storage) error {
	if path, _ := flags.GetString("from-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "driver":
			s.Driver = f.Value.String()
		case "addition":
			if !json.Valid([]byte(f.Value.String())) {
				err = fmt.Errorf("--addition is not valid JSON")
				return
			}
			s.Addition = f.Value.String()
		case "remark":
			s.Remark = f.Value.String()
		case "order":
			s.Order, err = strconv.Atoi(f.Value.String())
		case "cache-expiration":
			s.CacheExpiration, err = strconv.Atoi(f.Value.String())
		case "disabled":
			s.Disabled, err = strconv.ParseBool(f.Value.String())
		}
	})
	return err
}

func createCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <mount-path>",
		Short: "mount a new storage",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			cacheExpiration, _ := cmd.Flags().GetInt("cache-expiration")
			s := drive.Storage{MountPath: args[0], CacheExpiration: cacheExpiration}
			if err := applyStorageFlags(cmd.Flags(), &s); err != nil {
				return err
			}
			s.MountPath = args[0]
			if s.Driver == "" {
				return fmt.Errorf("--driver is required")
			}
			id, err := c.Drive.CreateStorage(cmd.Context(), s)
			if err != nil {
				return err
			}
			return p.Success("created storage %s at %s", id, s.MountPath)
		}),
	}
	addStorageFlags(cmd.Flags())
	return cmd
}

func updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <mount-path>",
		Short: "change an existing storage",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			s, err := c.Drive.StorageByMountPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := applyStorageFlags(cmd.Flags(), s); err != nil {
				return err
			}
			if err := c.Drive.UpdateStorage(cmd.Context(), *s); err != nil {
				return err
			}
			return p.Success("updated storage %s", s.MountPath)
		}),
	}
	addStorageFlags(cmd.Flags())
	return cmd
}

func loadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <mount-path>",
		Short: "(re)initialize the driver of a storage",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			s, err := c.Drive.StorageByMountPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.Drive.LoadStorage(cmd.Context(), *s); err != nil {
				return err
			}
			return p.Success("loaded storage %s", s.MountPath)
		}),
	}
}

func removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id|mount-path>",
		Short: "unmount a storage",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				s, lookupErr := c.Drive.StorageByMountPath(cmd.Context(), args[0])
				if lookupErr != nil {
					return lookupErr
				}
				id = s.ID
			}
			if err := c.Drive.DeleteStorage(cmd.Context(), id); err != nil {
				return err
			}
			return p.Success("removed storage %s", id)
		}),
	}
}
