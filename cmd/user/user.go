package user

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helalist/hela/pkg/config"
	"github.com/helalist/hela/pkg/credential"
	"github.com/helalist/hela/pkg/drive"
	"github.com/helalist/hela/pkg/logging"
	"github.com/helalist/hela/pkg/optname"
)

const passwordFlag = "password"

// passwordEnv is consulted when --password is not given.
const passwordEnv = "HELA_PASSWORD"

func GetCommands() []*cobra.Command {
	return []*cobra.Command{
		loginCommand(),
		logoutCommand(),
		whoamiCommand(),
		registerCommand(),
	}
}

func loginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "log in and store the token",
		Long: `Log in to the server and store the returned token in the credentials file.
The password is taken from --password, then $HELA_PASSWORD, then the first line of stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runLogin,
	}
	cmd.Flags().StringP(passwordFlag, "p", "", "Password")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	username := args[0]
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	clients, err := config.NewClients()
	if err != nil {
		return err
	}
	result, err := clients.Drive.Login(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	store := config.CredentialStore()
	err = store.Save(credential.Credentials{
		Server:   viper.GetString(optname.Server),
		Username: username,
		Token:    result.Token,
	})
	if err != nil {
		return err
	}
	logger := logging.GetLogger()
	logger.Debug().Str("credentials_file", store.Path()).Msg("Login")

	printer, err := config.Printer(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return printer.Success("logged in as %s", username)
}

func readPassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString(passwordFlag)
	if password != "" {
		return password, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("no password given")
	}
	return password, nil
}

func logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "log out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			clients, err := config.NewClients()
			if err != nil {
				return err
			}
			// the local token is dropped even when the server call fails
			_, logoutErr := clients.Drive.Logout(cmd.Context())
			if err := config.CredentialStore().Clear(); err != nil {
				return err
			}
			if logoutErr != nil {
				logger := logging.GetLogger()
				logger.Warn().Err(logoutErr).Msg("Logout")
			}
			printer, err := config.Printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return printer.Success("logged out")
		},
	}
}

func whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			clients, err := config.NewClients()
			if err != nil {
				return err
			}
			user, err := clients.Drive.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			printer, err := config.Printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return printer.Value(struct {
				*drive.User
				Role string `json:"role"`
			}{User: user, Role: user.Role()})
		},
	}
}

func registerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			basePath, _ := cmd.Flags().GetString("base-path")
			guest, _ := cmd.Flags().GetBool("guest")

			identity := drive.IdentityGeneral
			if guest {
				identity = drive.IdentityGuest
			}
			clients, err := config.NewClients()
			if err != nil {
				return err
			}
			err = clients.Drive.Register(cmd.Context(), drive.User{
				Username: args[0],
				Password: password,
				Email:    email,
				BasePath: basePath,
				Identity: identity,
			})
			if err != nil {
				return err
			}
			printer, err := config.Printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return printer.Success("registered %s", args[0])
		},
	}
	cmd.Flags().StringP(passwordFlag, "p", "", "Password")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("base-path", "/", "Root directory the user can see")
	cmd.Flags().Bool("guest", false, "Create a guest account")
	return cmd
}
