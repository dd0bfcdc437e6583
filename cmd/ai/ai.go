package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/drive"
)

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "ask the assistant and run the file operations it suggests",
	}
	cmd.AddCommand(chatCommand(), execCommand())
	return cmd
}

func chatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message>...",
		Short: "ask a one-off question",
		Args:  cobra.MinimumNArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			useRAG, _ := cmd.Flags().GetBool("rag")
			files, _ := cmd.Flags().GetStringSlice("file")
			reply, err := c.Drive.AIChat(cmd.Context(), drive.AIRequest{
				Message:   strings.Join(args, " "),
				UseRAG:    useRAG,
				FilePaths: files,
			})
			if err != nil {
				return err
			}
			if reply.Error != "" {
				return fmt.Errorf("assistant: %s", reply.Error)
			}
			return p.Value(reply)
		}),
	}
	cmd.Flags().Bool("rag", false, "Ground the answer in indexed drive documents")
	cmd.Flags().StringSlice("file", nil, "Drive files to attach (repeatable)")
	return cmd
}

func execCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <operation> [key=value]...",
		Short: "run a file operation, e.g. list_files path=/docs",
		Long: `Run a file operation through the assistant endpoint. Values are decoded as JSON when
possible (numbers, booleans, arrays) and sent as strings otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			params, err := ParseParams(args[1:])
			if err != nil {
				return err
			}
			res, err := c.Drive.Execute(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return p.Print(res)
		}),
	}
}

// ParseParams turns key=value arguments into an operation parameter map.
func ParseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			params[key] = decoded
		} else {
			params[key] = value
		}
	}
	return params, nil
}
