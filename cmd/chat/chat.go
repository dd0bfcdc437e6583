package chat

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helalist/hela/pkg/cli"
	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/drive"
)

const userFlag = "user"

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "manage assistant chat sessions",
	}
	cmd.PersistentFlags().String(userFlag, "", "User ID owning the sessions (default: the logged in user)")
	cmd.AddCommand(
		newCommand(),
		listCommand(),
		showCommand(),
		historyCommand(),
		removeCommand(),
		titleCommand(),
		sendCommand(),
	)
	return cmd
}

// userID returns --user, or the ID of the logged in user.
func userID(ctx context.Context, cmd *cobra.Command, d *drive.Drive) (string, error) {
	if id, _ := cmd.Flags().GetString(userFlag); id != "" {
		return id, nil
	}
	user, err := d.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID.String(), nil
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "start a session",
		Args:  cobra.NoArgs,
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			uid, err := userID(cmd.Context(), cmd, c.Drive)
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("title")
			session, err := c.Drive.CreateSession(cmd.Context(), uid, title)
			if err != nil {
				return err
			}
			return p.Value(session)
		}),
	}
	cmd.Flags().String("title", "", "Session title")
	return cmd
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "list sessions",
		Args:    cobra.NoArgs,
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			uid, err := userID(cmd.Context(), cmd, c.Drive)
			if err != nil {
				return err
			}
			sessions, err := c.Drive.Sessions(cmd.Context(), uid)
			if err != nil {
				return err
			}
			if p.Format == cli.FormatTable && !p.HasQuery() {
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{s.SessionID, s.Title, s.UpdatedAt.Format("2006-01-02 15:04")})
				}
				return p.Table([]string{"session_id", "title", "updated"}, rows)
			}
			return p.Value(sessions)
		}),
	}
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "show a session",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			session, err := c.Drive.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.Value(session)
		}),
	}
}

func historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <session-id>",
		Short: "print the messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			messages, err := c.Drive.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.Format == cli.FormatTable && !p.HasQuery() {
				rows := make([][]string, 0, len(messages))
				for _, m := range messages {
					rows = append(rows, []string{m.CreatedAt.Format("15:04:05"), m.Role, m.Content})
				}
				return p.Table([]string{"time", "role", "content"}, rows)
			}
			return p.Value(messages)
		}),
	}
}

func removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session-id>",
		Short: "delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			if err := c.Drive.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			return p.Success("deleted session %s", args[0])
		}),
	}
}

func titleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "title <session-id> <title>",
		Short: "rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			title := strings.Join(args[1:], " ")
			if err := c.Drive.UpdateSessionTitle(cmd.Context(), args[0], title); err != nil {
				return err
			}
			return p.Success("renamed session %s", args[0])
		}),
	}
}

func sendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <message>...",
		Short: "send a message and print the reply",
		Long:  "Send a message to a session. Without --session a new session is started.",
		Args:  cobra.MinimumNArgs(1),
		RunE: config.RunE(func(cmd *cobra.Command, args []string, c *config.Clients, p *cli.Printer) error {
			sessionID, _ := cmd.Flags().GetString("session")
			useRAG, _ := cmd.Flags().GetBool("rag")
			req := drive.ChatRequest{
				SessionID: sessionID,
				Message:   strings.Join(args, " "),
				UseRAG:    useRAG,
			}
			if sessionID == "" {
				uid, err := userID(cmd.Context(), cmd, c.Drive)
				if err != nil {
					return err
				}
				req.UserID = uid
			}
			reply, err := c.Drive.SendMessage(cmd.Context(), req)
			if err != nil {
				return err
			}
			return p.Value(reply)
		}),
	}
	cmd.Flags().String("session", "", "Session to continue")
	cmd.Flags().Bool("rag", false, "Ground the answer in indexed drive documents")
	return cmd
}
